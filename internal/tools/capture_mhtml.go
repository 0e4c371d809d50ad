package tools

import (
	"context"
	"fmt"

	"reasonkit-web/internal/browser"
)

// WebCaptureMHTMLTool snapshots a page as a single-file MHTML archive.
type WebCaptureMHTMLTool struct {
	Controller *browser.Controller
}

func (t *WebCaptureMHTMLTool) Name() string { return "web_capture_mhtml" }

func (t *WebCaptureMHTMLTool) Description() string {
	return "Navigate to a URL and capture the page as a single-file MHTML snapshot."
}

func (t *WebCaptureMHTMLTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"description": "The URL to navigate to before capturing",
			},
		},
		"required": []string{"url"},
	}
}

func (t *WebCaptureMHTMLTool) Execute(ctx context.Context, args map[string]interface{}) ([]ContentItem, error) {
	url := getStringArg(args, "url")

	return withNavigatedPage(ctx, t.Controller, url, "", func(handle *browser.PageHandle) ([]ContentItem, error) {
		data, err := t.Controller.CaptureMHTML(ctx, handle)
		if err != nil {
			return nil, fmt.Errorf("capture mhtml: %w", err)
		}
		return []ContentItem{
			TextContent(fmt.Sprintf("%d bytes", len(data))),
			ResourceContent(url, "multipart/related", data),
		}, nil
	})
}

package tools

import (
	"context"
	"fmt"

	"reasonkit-web/internal/browser"
)

// WebPDFTool renders a page to a PDF document.
type WebPDFTool struct {
	Controller *browser.Controller
}

func (t *WebPDFTool) Name() string { return "web_pdf" }

func (t *WebPDFTool) Description() string {
	return "Navigate to a URL and render the page to a PDF document."
}

func (t *WebPDFTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"description": "The URL to navigate to before printing",
			},
			"printBackground": map[string]interface{}{
				"type":        "boolean",
				"description": "Include background graphics. Default: true",
			},
		},
		"required": []string{"url"},
	}
}

func (t *WebPDFTool) Execute(ctx context.Context, args map[string]interface{}) ([]ContentItem, error) {
	url := getStringArg(args, "url")
	printBackground := getBoolArg(args, "printBackground", true)

	return withNavigatedPage(ctx, t.Controller, url, "", func(handle *browser.PageHandle) ([]ContentItem, error) {
		data, err := t.Controller.PrintPDF(ctx, handle, browser.PDFOptions{PrintBackground: printBackground})
		if err != nil {
			return nil, fmt.Errorf("print pdf: %w", err)
		}
		return []ContentItem{
			TextContent(fmt.Sprintf("%d bytes", len(data))),
			ResourceContent(url, "application/pdf", data),
		}, nil
	})
}

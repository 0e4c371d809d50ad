package tools

import (
	"context"
	"fmt"

	"reasonkit-web/internal/browser"
)

// WebNavigateTool drives the browser to a URL and reports where it landed.
type WebNavigateTool struct {
	Controller *browser.Controller
}

func (t *WebNavigateTool) Name() string { return "web_navigate" }

func (t *WebNavigateTool) Description() string {
	return "Navigate a headless browser page to a URL and wait for it to finish loading."
}

func (t *WebNavigateTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"description": "The URL to navigate to",
			},
			"waitFor": map[string]interface{}{
				"type":        "string",
				"description": "CSS selector to wait for before considering navigation complete",
			},
		},
		"required": []string{"url"},
	}
}

func (t *WebNavigateTool) Execute(ctx context.Context, args map[string]interface{}) ([]ContentItem, error) {
	url := getStringArg(args, "url")
	waitFor := getStringArg(args, "waitFor")

	handle, err := t.Controller.AcquirePage(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire page: %w", err)
	}
	defer t.Controller.Release(handle)

	outcome, err := t.Controller.Navigate(ctx, handle, url, waitFor)
	if err != nil {
		return nil, fmt.Errorf("navigate: %w", err)
	}

	return []ContentItem{TextContent(fmt.Sprintf("Successfully navigated to: %s", outcome.FinalURL))}, nil
}

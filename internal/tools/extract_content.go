package tools

import (
	"context"
	"fmt"

	"reasonkit-web/internal/browser"
	"reasonkit-web/internal/extract"
)

// WebExtractContentTool detects and renders a page's main content.
type WebExtractContentTool struct {
	Controller *browser.Controller
}

func (t *WebExtractContentTool) Name() string { return "web_extract_content" }

func (t *WebExtractContentTool) Description() string {
	return "Navigate to a URL and extract its main content as text, markdown, or html."
}

func (t *WebExtractContentTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"description": "The URL to navigate to before extracting",
			},
			"selector": map[string]interface{}{
				"type":        "string",
				"description": "CSS selector overriding main-content detection",
			},
			"format": map[string]interface{}{
				"type":        "string",
				"description": "Output rendering",
				"enum":        []string{"text", "markdown", "html"},
			},
		},
		"required": []string{"url"},
	}
}

func (t *WebExtractContentTool) Execute(ctx context.Context, args map[string]interface{}) ([]ContentItem, error) {
	url := getStringArg(args, "url")
	selector := getStringArg(args, "selector")
	format := getStringArg(args, "format")
	if format == "" {
		format = "markdown"
	}

	return withNavigatedPage(ctx, t.Controller, url, "", func(handle *browser.PageHandle) ([]ContentItem, error) {
		html, err := t.Controller.OuterHTML(ctx, handle)
		if err != nil {
			return nil, fmt.Errorf("read page html: %w", err)
		}

		main, err := extract.ExtractMainContent(html, format, selector)
		if err != nil {
			return nil, fmt.Errorf("extract main content: %w", err)
		}

		switch format {
		case "html":
			return []ContentItem{TextContent(main.HTML)}, nil
		case "text":
			return []ContentItem{TextContent(main.Text)}, nil
		default:
			return []ContentItem{TextContent(main.Markdown)}, nil
		}
	})
}

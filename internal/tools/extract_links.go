package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"reasonkit-web/internal/browser"
	"reasonkit-web/internal/extract"
)

// WebExtractLinksTool walks a page's anchors and returns them resolved and
// classified.
type WebExtractLinksTool struct {
	Controller *browser.Controller
}

func (t *WebExtractLinksTool) Name() string { return "web_extract_links" }

func (t *WebExtractLinksTool) Description() string {
	return "Navigate to a URL and extract its links, resolved to absolute URLs and classified."
}

func (t *WebExtractLinksTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"description": "The URL to navigate to before extracting",
			},
			"type": map[string]interface{}{
				"type":        "string",
				"description": "Filter by link classification",
				"enum":        []string{"all", "internal", "external"},
			},
			"selector": map[string]interface{}{
				"type":        "string",
				"description": "CSS selector scoping which subtree to scan for links",
			},
		},
		"required": []string{"url"},
	}
}

func (t *WebExtractLinksTool) Execute(ctx context.Context, args map[string]interface{}) ([]ContentItem, error) {
	url := getStringArg(args, "url")
	linkType := getStringArg(args, "type")
	if linkType == "" {
		linkType = "all"
	}
	selector := getStringArg(args, "selector")

	return withNavigatedPage(ctx, t.Controller, url, "", func(handle *browser.PageHandle) ([]ContentItem, error) {
		html, err := t.Controller.OuterHTML(ctx, handle)
		if err != nil {
			return nil, fmt.Errorf("read page html: %w", err)
		}

		if selector != "" {
			scoped, err := extract.ExtractMainContent(html, "html", selector)
			if err != nil {
				return nil, fmt.Errorf("scope to selector: %w", err)
			}
			html = scoped.HTML
		}

		links, err := extract.ExtractLinks(html, url, linkType)
		if err != nil {
			return nil, fmt.Errorf("extract links: %w", err)
		}

		payload, err := json.Marshal(links)
		if err != nil {
			return nil, fmt.Errorf("encode links: %w", err)
		}
		return []ContentItem{TextContent(string(payload))}, nil
	})
}

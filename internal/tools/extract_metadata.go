package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"reasonkit-web/internal/browser"
	"reasonkit-web/internal/extract"
)

// WebExtractMetadataTool reads a page's head metadata: title, description,
// language, canonical link, og/twitter tags, and json-ld blocks.
type WebExtractMetadataTool struct {
	Controller *browser.Controller
}

func (t *WebExtractMetadataTool) Name() string { return "web_extract_metadata" }

func (t *WebExtractMetadataTool) Description() string {
	return "Navigate to a URL and extract its head metadata bundle."
}

func (t *WebExtractMetadataTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"description": "The URL to navigate to before extracting",
			},
		},
		"required": []string{"url"},
	}
}

func (t *WebExtractMetadataTool) Execute(ctx context.Context, args map[string]interface{}) ([]ContentItem, error) {
	url := getStringArg(args, "url")

	return withNavigatedPage(ctx, t.Controller, url, "", func(handle *browser.PageHandle) ([]ContentItem, error) {
		html, err := t.Controller.OuterHTML(ctx, handle)
		if err != nil {
			return nil, fmt.Errorf("read page html: %w", err)
		}

		meta, err := extract.ExtractMetadata(html, url)
		if err != nil {
			return nil, fmt.Errorf("extract metadata: %w", err)
		}

		payload, err := json.Marshal(meta)
		if err != nil {
			return nil, fmt.Errorf("encode metadata: %w", err)
		}
		return []ContentItem{TextContent(string(payload))}, nil
	})
}

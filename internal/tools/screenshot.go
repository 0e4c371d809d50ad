package tools

import (
	"context"
	"fmt"

	"reasonkit-web/internal/browser"

	"github.com/go-rod/rod/lib/proto"
)

// WebScreenshotTool captures a PNG/JPEG/WebP image of a page or an element
// within it.
type WebScreenshotTool struct {
	Controller *browser.Controller
}

func (t *WebScreenshotTool) Name() string { return "web_screenshot" }

func (t *WebScreenshotTool) Description() string {
	return "Navigate to a URL and capture a screenshot of the page or a selected element."
}

func (t *WebScreenshotTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"description": "The URL to navigate to before capturing",
			},
			"fullPage": map[string]interface{}{
				"type":        "boolean",
				"description": "Capture the full scrollable page rather than the viewport. Default: true",
			},
			"format": map[string]interface{}{
				"type":        "string",
				"description": "Image encoding",
				"enum":        []string{"png", "jpeg", "webp"},
			},
			"selector": map[string]interface{}{
				"type":        "string",
				"description": "CSS selector to capture instead of the full page",
			},
		},
		"required": []string{"url"},
	}
}

func (t *WebScreenshotTool) Execute(ctx context.Context, args map[string]interface{}) ([]ContentItem, error) {
	url := getStringArg(args, "url")
	fullPage := getBoolArg(args, "fullPage", true)
	selector := getStringArg(args, "selector")
	format := screenshotFormat(getStringArg(args, "format"))

	return withNavigatedPage(ctx, t.Controller, url, "", func(handle *browser.PageHandle) ([]ContentItem, error) {
		data, err := t.Controller.Screenshot(ctx, handle, browser.ScreenshotOptions{
			FullPage: fullPage,
			Format:   format,
			Selector: selector,
		})
		if err != nil {
			return nil, fmt.Errorf("screenshot: %w", err)
		}
		return []ContentItem{ImageContent(data, mimeTypeForFormat(format))}, nil
	})
}

func screenshotFormat(s string) proto.PageCaptureScreenshotFormat {
	switch s {
	case "jpeg":
		return proto.PageCaptureScreenshotFormatJpeg
	case "webp":
		return proto.PageCaptureScreenshotFormatWebp
	default:
		return proto.PageCaptureScreenshotFormatPng
	}
}

func mimeTypeForFormat(format proto.PageCaptureScreenshotFormat) string {
	switch format {
	case proto.PageCaptureScreenshotFormatJpeg:
		return "image/jpeg"
	case proto.PageCaptureScreenshotFormatWebp:
		return "image/webp"
	default:
		return "image/png"
	}
}

package tools

import (
	"context"
	"fmt"

	"reasonkit-web/internal/browser"
)

func getStringArg(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func getBoolArg(args map[string]interface{}, key string, fallback bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return fallback
}

func getIntArg(args map[string]interface{}, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

// withNavigatedPage acquires a page, navigates it to url/waitFor, and runs fn
// against the live handle, releasing the page on every exit path. Navigation
// failures are reported as tool-level errors, matching C4's failure
// semantics: they never propagate as protocol errors.
func withNavigatedPage(ctx context.Context, ctrl *browser.Controller, url, waitFor string, fn func(handle *browser.PageHandle) ([]ContentItem, error)) ([]ContentItem, error) {
	handle, err := ctrl.AcquirePage(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire page: %w", err)
	}
	defer ctrl.Release(handle)

	if _, err := ctrl.Navigate(ctx, handle, url, waitFor); err != nil {
		return nil, fmt.Errorf("navigate: %w", err)
	}

	return fn(handle)
}

package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"reasonkit-web/internal/browser"
)

// WebExecuteJSTool runs arbitrary JavaScript in the page and returns the
// decoded result. The dispatcher consults its installed ScriptPolicy
// against the "script" argument before Execute is ever called; by default
// that policy is PermitAll, so this tool's wire contract is unaffected
// until a caller installs a stricter one via Dispatcher.WithScriptPolicy.
type WebExecuteJSTool struct {
	Controller *browser.Controller
}

func (t *WebExecuteJSTool) Name() string { return "web_execute_js" }

func (t *WebExecuteJSTool) Description() string {
	return "Navigate to a URL and evaluate a JavaScript expression in the page, returning its JSON value."
}

func (t *WebExecuteJSTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"description": "The URL to navigate to before evaluating",
			},
			"script": map[string]interface{}{
				"type":        "string",
				"description": "JavaScript to evaluate in the page context",
			},
		},
		"required": []string{"url", "script"},
	}
}

func (t *WebExecuteJSTool) Execute(ctx context.Context, args map[string]interface{}) ([]ContentItem, error) {
	url := getStringArg(args, "url")
	script := getStringArg(args, "script")

	return withNavigatedPage(ctx, t.Controller, url, "", func(handle *browser.PageHandle) ([]ContentItem, error) {
		value, err := t.Controller.Evaluate(ctx, handle, script)
		if err != nil {
			return nil, fmt.Errorf("evaluate: %w", err)
		}

		payload, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode evaluation result: %w", err)
		}
		return []ContentItem{TextContent(string(payload))}, nil
	})
}

package tools

import (
	"fmt"

	"reasonkit-web/internal/protocol"
)

// validateArgs structurally checks args against tool's hand-declared schema:
// required fields present, declared types matched, enum membership enforced.
// This deliberately does not reach for a general JSON-Schema validator; the
// schemas here are simple enough to walk directly.
func validateArgs(tool Tool, args map[string]interface{}) *protocol.ProtocolError {
	schema := tool.InputSchema()

	if required, ok := schema["required"].([]string); ok {
		for _, name := range required {
			if _, present := args[name]; !present {
				return protocol.InvalidParams(fmt.Sprintf("%s: missing required argument %q", tool.Name(), name))
			}
		}
	}

	props, _ := schema["properties"].(map[string]interface{})
	for key, val := range args {
		propSchema, ok := props[key].(map[string]interface{})
		if !ok {
			continue
		}
		if err := validateProperty(key, val, propSchema); err != nil {
			return protocol.InvalidParams(fmt.Sprintf("%s: %v", tool.Name(), err))
		}
	}

	return nil
}

func validateProperty(key string, val interface{}, schema map[string]interface{}) error {
	typ, _ := schema["type"].(string)
	switch typ {
	case "string":
		if _, ok := val.(string); !ok {
			return fmt.Errorf("%s must be a string", key)
		}
	case "boolean":
		if _, ok := val.(bool); !ok {
			return fmt.Errorf("%s must be a boolean", key)
		}
	case "integer", "number":
		switch val.(type) {
		case float64, int, int64:
		default:
			return fmt.Errorf("%s must be a number", key)
		}
	}

	if enum, ok := schema["enum"].([]string); ok {
		str, isStr := val.(string)
		if !isStr || !stringInSlice(str, enum) {
			return fmt.Errorf("%s must be one of %v", key, enum)
		}
	}

	return nil
}

func stringInSlice(s string, list []string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

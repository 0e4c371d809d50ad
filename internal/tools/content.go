// Package tools implements the tool registry and dispatcher (C3): it
// resolves a tool name to a typed handler, validates arguments against each
// tool's hand-declared JSON-Schema-shaped input schema, runs the handler
// under a call-scoped timeout, and formats the outcome as ordered content
// items plus an is_error flag.
package tools

import "encoding/base64"

// ContentItem is one item in a tool call result's ordered content sequence.
// Only the fields relevant to its Type are populated.
type ContentItem struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	URI      string `json:"uri,omitempty"`
	Blob     string `json:"blob,omitempty"`
}

// TextContent builds a Text content item.
func TextContent(text string) ContentItem {
	return ContentItem{Type: "text", Text: text}
}

// ImageContent builds an Image content item, base64-encoding the raw bytes.
func ImageContent(data []byte, mimeType string) ContentItem {
	return ContentItem{Type: "image", Data: base64.StdEncoding.EncodeToString(data), MimeType: mimeType}
}

// ResourceContent builds a Resource content item carrying an inline blob.
func ResourceContent(uri, mimeType string, blob []byte) ContentItem {
	return ContentItem{Type: "resource", URI: uri, MimeType: mimeType, Blob: base64.StdEncoding.EncodeToString(blob)}
}

// CallResult is the outcome of one tools/call dispatch: a successful JSON-RPC
// response whose body may still report a tool-level failure via IsError.
type CallResult struct {
	Content []ContentItem `json:"content"`
	IsError bool          `json:"is_error"`
}

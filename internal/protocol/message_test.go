package protocol

import (
	"encoding/json"
	"testing"
)

func TestDecodeMessage_Request(t *testing.T) {
	line := []byte(`{"jsonrpc":"2.0","method":"initialize","params":{"a":1},"id":1}`)
	msg, err := DecodeMessage(line)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Kind != KindRequest {
		t.Fatalf("expected KindRequest, got %v", msg.Kind)
	}
	if msg.Request.Method != "initialize" {
		t.Errorf("expected method initialize, got %q", msg.Request.Method)
	}
	if !msg.Request.ID.Equal(NewIntID(1)) {
		t.Errorf("expected id 1, got %v", msg.Request.ID)
	}
}

func TestDecodeMessage_Notification(t *testing.T) {
	line := []byte(`{"jsonrpc":"2.0","method":"initialized"}`)
	msg, err := DecodeMessage(line)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Kind != KindNotification {
		t.Fatalf("expected KindNotification, got %v", msg.Kind)
	}
	if msg.Notification.Method != "initialized" {
		t.Errorf("expected method initialized, got %q", msg.Notification.Method)
	}
}

func TestDecodeMessage_Response(t *testing.T) {
	line := []byte(`{"jsonrpc":"2.0","result":{"pong":true},"id":"abc"}`)
	msg, err := DecodeMessage(line)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Kind != KindResponse {
		t.Fatalf("expected KindResponse, got %v", msg.Kind)
	}
	if !msg.Response.ID.Equal(NewStringID("abc")) {
		t.Errorf("expected string id abc, got %v", msg.Response.ID)
	}
}

func TestDecodeMessage_InvalidJSON(t *testing.T) {
	_, err := DecodeMessage([]byte(`not json`))
	pe, ok := err.(*ProtocolError)
	if !ok {
		t.Fatalf("expected *ProtocolError, got %T", err)
	}
	if pe.Code != CodeParseError {
		t.Errorf("expected CodeParseError, got %d", pe.Code)
	}
}

func TestDecodeMessage_WrongVersion(t *testing.T) {
	_, err := DecodeMessage([]byte(`{"jsonrpc":"1.0","method":"ping","id":1}`))
	pe, ok := err.(*ProtocolError)
	if !ok {
		t.Fatalf("expected *ProtocolError, got %T", err)
	}
	if pe.Code != CodeInvalidRequest {
		t.Errorf("expected CodeInvalidRequest, got %d", pe.Code)
	}
}

func TestDecodeMessage_ShapeMismatch(t *testing.T) {
	_, err := DecodeMessage([]byte(`{"jsonrpc":"2.0"}`))
	pe, ok := err.(*ProtocolError)
	if !ok {
		t.Fatalf("expected *ProtocolError, got %T", err)
	}
	if pe.Code != CodeInvalidRequest {
		t.Errorf("expected CodeInvalidRequest, got %d", pe.Code)
	}
}

func TestIDRoundTrip_Int(t *testing.T) {
	id := NewIntID(42)
	data, err := json.Marshal(id)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "42" {
		t.Errorf("expected numeric id to round-trip unquoted, got %s", string(data))
	}

	var decoded ID
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !decoded.Equal(id) {
		t.Errorf("expected round-tripped id to equal original")
	}
}

func TestIDRoundTrip_String(t *testing.T) {
	id := NewStringID("req-1")
	data, err := json.Marshal(id)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"req-1"` {
		t.Errorf("expected string id to round-trip quoted, got %s", string(data))
	}

	var decoded ID
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !decoded.Equal(id) {
		t.Errorf("expected round-tripped id to equal original")
	}
}

func TestEncodeResponse_EchoesID(t *testing.T) {
	resp := Response{ID: NewIntID(7), Result: map[string]bool{"pong": true}}
	data, err := EncodeResponse(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["id"].(float64) != 7 {
		t.Errorf("expected id 7, got %v", decoded["id"])
	}
	if decoded["jsonrpc"] != "2.0" {
		t.Errorf("expected jsonrpc 2.0, got %v", decoded["jsonrpc"])
	}
}

func TestEncodeResponse_Error(t *testing.T) {
	resp := Response{ID: NewIntID(1), Err: &ErrorObject{Code: CodeMethodNotFound, Message: "nope"}}
	data, err := EncodeResponse(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, hasResult := decoded["result"]; hasResult {
		t.Errorf("error responses must not carry a result field")
	}
	errObj := decoded["error"].(map[string]interface{})
	if errObj["code"].(float64) != CodeMethodNotFound {
		t.Errorf("expected code %d, got %v", CodeMethodNotFound, errObj["code"])
	}
}

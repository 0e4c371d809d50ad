// Package protocol implements the line-delimited JSON-RPC 2.0 wire codec
// used by the MCP sidecar: framing, message classification, and the
// typed error taxonomy the dispatcher returns.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Version is the JSON-RPC dialect version every emitted message carries.
const Version = "2.0"

// ID is a JSON-RPC request/response identifier. It can hold either a
// string or a number; round-tripping preserves the original type, which
// the wire codec's callers rely on (a numeric id must never come back
// out as a quoted string).
type ID struct {
	isSet    bool
	isString bool
	str      string
	num      int64
}

// NewIntID builds a numeric ID.
func NewIntID(n int64) ID {
	return ID{isSet: true, num: n}
}

// NewStringID builds a string ID.
func NewStringID(s string) ID {
	return ID{isSet: true, isString: true, str: s}
}

// IsZero reports whether the ID was never set (distinct from a JSON null id).
func (id ID) IsZero() bool {
	return !id.isSet
}

// String renders the ID for logging; not used for wire encoding.
func (id ID) String() string {
	if !id.isSet {
		return "<none>"
	}
	if id.isString {
		return id.str
	}
	return fmt.Sprintf("%d", id.num)
}

// Equal reports whether two ids are identical in both value and type.
func (id ID) Equal(other ID) bool {
	if id.isSet != other.isSet {
		return false
	}
	if id.isString != other.isString {
		return false
	}
	if id.isString {
		return id.str == other.str
	}
	return id.num == other.num
}

func (id ID) MarshalJSON() ([]byte, error) {
	if !id.isSet {
		return []byte("null"), nil
	}
	if id.isString {
		return json.Marshal(id.str)
	}
	return json.Marshal(id.num)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ID{}
		return nil
	}

	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*id = ID{isSet: true, isString: true, str: asString}
		return nil
	}

	var asNum int64
	if err := json.Unmarshal(data, &asNum); err == nil {
		*id = ID{isSet: true, num: asNum}
		return nil
	}

	return fmt.Errorf("protocol: id must be a string or integer, got %s", string(data))
}

// Kind classifies a decoded envelope into one of the three JSON-RPC message shapes.
type Kind int

const (
	// KindRequest expects a reply (carries a non-null id).
	KindRequest Kind = iota
	// KindNotification never elicits a reply (no id field at all).
	KindNotification
	// KindResponse carries a result or an error in reply to a prior request.
	KindResponse
)

// Request is an inbound call that expects exactly one matching Response.
type Request struct {
	ID     ID
	Method string
	Params json.RawMessage
}

// Notification is a fire-and-forget inbound message; no response is ever sent.
type Notification struct {
	Method string
	Params json.RawMessage
}

// Response carries either Result or Err, never both.
type Response struct {
	ID     ID
	Result interface{}
	Err    *ErrorObject
}

// ErrorObject is the JSON-RPC error member.
type ErrorObject struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *ErrorObject) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// envelope is the over-the-wire shape used for both decoding (any of the
// three kinds may arrive) and encoding (only one of result/error is set).
type envelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *ID             `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

// Message is the decoded, classified form of one inbound line.
type Message struct {
	Kind         Kind
	Request      *Request
	Notification *Notification
	Response     *Response
}

// DecodeMessage parses one JSON-RPC line and classifies its shape.
// It returns an InvalidRequest-flavored *ProtocolError on shape mismatch
// (wrong jsonrpc version, method-less request without id, etc.) and a
// ParseError-flavored one when the bytes are not valid JSON at all.
func DecodeMessage(line []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		if json.Valid(line) {
			// Well-formed JSON whose fields have the wrong types (e.g. an id
			// that is neither a string nor an integer).
			return Message{}, &ProtocolError{Code: CodeInvalidRequest, Message: "message has an invalid shape"}
		}
		return Message{}, &ProtocolError{Code: CodeParseError, Message: "invalid JSON"}
	}

	if env.JSONRPC != Version {
		return Message{}, &ProtocolError{Code: CodeInvalidRequest, Message: fmt.Sprintf("unsupported jsonrpc version %q", env.JSONRPC)}
	}

	switch {
	case env.Method != "" && env.ID != nil:
		return Message{
			Kind: KindRequest,
			Request: &Request{
				ID:     *env.ID,
				Method: env.Method,
				Params: env.Params,
			},
		}, nil

	case env.Method != "" && env.ID == nil:
		return Message{
			Kind: KindNotification,
			Notification: &Notification{
				Method: env.Method,
				Params: env.Params,
			},
		}, nil

	case env.Method == "" && env.ID != nil && (env.Result != nil || env.Error != nil):
		resp := &Response{ID: *env.ID, Err: env.Error}
		if env.Result != nil {
			var result interface{}
			if err := json.Unmarshal(env.Result, &result); err != nil {
				return Message{}, &ProtocolError{Code: CodeInvalidRequest, Message: "malformed result"}
			}
			resp.Result = result
		}
		return Message{Kind: KindResponse, Response: resp}, nil

	default:
		return Message{}, &ProtocolError{Code: CodeInvalidRequest, Message: "message matches neither request, notification, nor response shape"}
	}
}

// EncodeResponse renders a Response to its wire envelope.
func EncodeResponse(r Response) ([]byte, error) {
	env := envelope{JSONRPC: Version, ID: &r.ID}

	if r.Err != nil {
		env.Error = r.Err
	} else {
		result, err := json.Marshal(r.Result)
		if err != nil {
			return nil, fmt.Errorf("protocol: encoding result: %w", err)
		}
		env.Result = result
	}

	return json.Marshal(env)
}

// EncodeRequest renders a Request to its wire envelope (used by tests and
// any future client-side usage of the codec).
func EncodeRequest(r Request) ([]byte, error) {
	env := envelope{JSONRPC: Version, ID: &r.ID, Method: r.Method, Params: r.Params}
	return json.Marshal(env)
}

// EncodeNotification renders a Notification to its wire envelope.
func EncodeNotification(n Notification) ([]byte, error) {
	env := envelope{JSONRPC: Version, Method: n.Method, Params: n.Params}
	return json.Marshal(env)
}

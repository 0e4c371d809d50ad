package protocol

// JSON-RPC 2.0 reserved error codes (§6).
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// ProtocolError is a framing- or lifecycle-level failure: it never reaches
// the client as tool output, only as a JSON-RPC error response (or, for
// unrecoverable framing failures, a closed stream).
type ProtocolError struct {
	Code    int
	Message string
}

func (e *ProtocolError) Error() string {
	return e.Message
}

// ToErrorObject converts a ProtocolError into the wire error member.
func (e *ProtocolError) ToErrorObject() *ErrorObject {
	return &ErrorObject{Code: e.Code, Message: e.Message}
}

// ParseError reports that the input bytes were not valid JSON.
func ParseError(message string) *ProtocolError {
	return &ProtocolError{Code: CodeParseError, Message: message}
}

// InvalidRequest reports a shape mismatch: wrong jsonrpc version, an id of
// unsupported type, or a request arriving in the wrong session state.
func InvalidRequest(message string) *ProtocolError {
	return &ProtocolError{Code: CodeInvalidRequest, Message: message}
}

// MethodNotFound reports dispatch against an unregistered method/tool name.
func MethodNotFound(message string) *ProtocolError {
	return &ProtocolError{Code: CodeMethodNotFound, Message: message}
}

// InvalidParams reports an argument validation failure at the dispatcher boundary.
func InvalidParams(message string) *ProtocolError {
	return &ProtocolError{Code: CodeInvalidParams, Message: message}
}

// InternalError reports a panic or unexpected internal failure. The session
// survives; only this one call fails.
func InternalError(message string) *ProtocolError {
	return &ProtocolError{Code: CodeInternalError, Message: message}
}

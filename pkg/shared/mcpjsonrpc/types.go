package mcpjsonrpc

// Based on JSON-RPC 2.0 Specification: https://www.jsonrpc.org/specification

// Version is the only protocol version this package speaks.
const Version = "2.0"

// Request represents a JSON-RPC request object.
type Request struct {
	Version string                 `json:"jsonrpc"`          // MUST be "2.0"
	Method  string                 `json:"method"`           // Method to be invoked
	Params  map[string]interface{} `json:"params,omitempty"` // Named parameters
	ID      interface{}            `json:"id,omitempty"`     // string, number, or null
}

// Response represents a JSON-RPC response object. Exactly one of Result and
// Error is populated.
type Response struct {
	Version string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"` // matches the request ID, or null if it could not be determined
}

// Error represents a JSON-RPC error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// Error codes (standard set plus implementation-defined server errors).
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// NewResponse builds a success response echoing the request ID.
func NewResponse(id, result interface{}) Response {
	return Response{Version: Version, ID: id, Result: result}
}

// NewErrorResponse builds an error response echoing the request ID.
func NewErrorResponse(id interface{}, code int, message string) Response {
	return Response{Version: Version, ID: id, Error: &Error{Code: code, Message: message}}
}

package models

import "encoding/json"

// JSONRPCVersion is the only protocol version accepted by the stdio transport.
const JSONRPCVersion = "2.0"

// JSONRPCRequest is a single newline-delimited request read from stdin.
type JSONRPCRequest struct {
	// JSONRPC must be "2.0".
	JSONRPC string `json:"jsonrpc"`
	// ID is echoed back unchanged. It can be a string or a number.
	ID interface{} `json:"id"`
	// Method names the operation, e.g. "read_lines".
	Method string `json:"method"`
	// Params is decoded once the method is known.
	Params json.RawMessage `json:"params"`
}

// JSONRPCErrorData carries application context for a JSON-RPC error.
type JSONRPCErrorData struct {
	Filename  string `json:"filename,omitempty"`
	Operation string `json:"operation,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Details   string `json:"details,omitempty"`
}

// JSONRPCError represents a JSON-RPC error object.
type JSONRPCError struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    *JSONRPCErrorData `json:"data,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC response object.
// Exactly one of Result and Error is set.
type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      interface{}   `json:"id"`
	Result  interface{}   `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
}

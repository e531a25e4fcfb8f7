package types

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// Endpoint is a named upstream RPC node. It is immutable once registered.
type Endpoint struct {
	Name string
	URL  *url.URL
}

// String returns the endpoint URL, used as the metrics label.
func (e Endpoint) String() string {
	if e.URL == nil {
		return ""
	}
	return e.URL.String()
}

// RPCRequest defines the JSON structure of an outgoing JSON-RPC 2.0 call.
type RPCRequest struct {
	Jsonrpc string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int    `json:"id"`
}

// NewRequest builds a request with a nil-safe params array.
func NewRequest(id int, method string, params ...any) RPCRequest {
	if params == nil {
		params = []any{}
	}
	return RPCRequest{Jsonrpc: "2.0", Method: method, Params: params, ID: id}
}

// RPCError is the error object of a failed JSON-RPC response.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// RPCResponse defines the JSON structure of a JSON-RPC 2.0 response.
// Exactly one of Result or Error is set on a well-formed response. ID is nil
// when the node omits it.
type RPCResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
	ID      *int            `json:"id"`
}

package jsonrpc

import (
	"bytes"
	"encoding/json"
)

// Version is the only JSON-RPC protocol version supported.
const Version = "2.0"

// Request is a decoded request envelope. ID is kept raw so that responses
// echo it exactly as the caller sent it.
type Request struct {
	JSONRPC string
	ID      json.RawMessage
	Method  string
	Params  Params
}

// Response carries either Result or Error, never both. A nil Result with a
// nil Error is a successful null result.
type Response struct {
	JSONRPC string
	ID      json.RawMessage
	Result  json.RawMessage
	Error   *Error
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

type successResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  json.RawMessage `json:"result"`
}

type errorResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Error   *Error          `json:"error"`
}

func (r *Response) MarshalJSON() ([]byte, error) {
	if r.Error != nil {
		return Marshal(errorResponse{JSONRPC: r.JSONRPC, ID: r.ID, Error: r.Error})
	}

	result := r.Result
	if len(result) == 0 {
		result = json.RawMessage(`null`)
	}
	return Marshal(successResponse{JSONRPC: r.JSONRPC, ID: r.ID, Result: result})
}

// Marshal encodes v without HTML escaping, so echoed ids and messages keep
// their original bytes.
func Marshal(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

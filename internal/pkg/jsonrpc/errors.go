package jsonrpc

import (
	"errors"
	"fmt"

	"github.com/lidofinance/lightclient-gateway/internal/pkg/lifecycle"
)

const (
	ParseErrorCode     = -32700
	InvalidRequestCode = -32600
	MethodNotFoundCode = -32601
	InvalidParamsCode  = -32602
	InternalErrorCode  = -32603
	ServerErrorCode    = -32000
)

func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

func NewParseError(cause string) *Error {
	return NewError(ParseErrorCode, "Parse error: "+cause)
}

func NewInvalidRequestError(cause string) *Error {
	return NewError(InvalidRequestCode, "Invalid Request: "+cause)
}

func NewMethodNotFoundError(method string) *Error {
	return NewError(MethodNotFoundCode, fmt.Sprintf("Method not found: %s", method))
}

func NewInvalidParamsError(cause string) *Error {
	return NewError(InvalidParamsCode, "Invalid params: "+cause)
}

func NewInternalError(cause string) *Error {
	return NewError(InternalErrorCode, "Internal error: "+cause)
}

// ToError maps a failure raised while executing a method onto a response error.
func ToError(err error) *Error {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}

	if errors.Is(err, lifecycle.ErrNotInitialized) {
		return NewError(ServerErrorCode, lifecycle.ErrNotInitialized.Error())
	}

	return NewInternalError(err.Error())
}

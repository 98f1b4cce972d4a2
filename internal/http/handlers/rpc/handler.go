package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/lidofinance/lightclient-gateway/internal/pkg/jsonrpc"
)

const maxBodySize = 5 * 1024 * 1024

type Dispatcher interface {
	Dispatch(ctx context.Context, raw json.RawMessage) *jsonrpc.Response
}

type handler struct {
	log        *slog.Logger
	dispatcher Dispatcher
}

func New(log *slog.Logger, dispatcher Dispatcher) *handler {
	return &handler{
		log:        log,
		dispatcher: dispatcher,
	}
}

// Handler always answers 200 with a JSON-RPC envelope. Transport level
// failures are reported as parse or invalid request errors.
func (h *handler) Handler(w http.ResponseWriter, r *http.Request) {
	resp := h.handle(w, r)

	payload, err := jsonrpc.Marshal(resp)
	if err != nil {
		h.log.Error(fmt.Sprintf("could not marshal rpc response: %v", err))
		payload, _ = jsonrpc.Marshal(&jsonrpc.Response{
			JSONRPC: jsonrpc.Version,
			ID:      resp.ID,
			Error:   jsonrpc.NewInternalError("could not serialize response"),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (h *handler) handle(w http.ResponseWriter, r *http.Request) *jsonrpc.Response {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return errorResponse(jsonrpc.NewParseError(fmt.Sprintf("could not read body: %v", err)))
	}

	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		return errorResponse(jsonrpc.NewParseError("invalid JSON"))
	}
	if bytes.HasPrefix(body, []byte(`[`)) {
		return errorResponse(jsonrpc.NewInvalidRequestError("batch requests are not supported"))
	}

	return h.dispatcher.Dispatch(r.Context(), body)
}

func errorResponse(rpcErr *jsonrpc.Error) *jsonrpc.Response {
	return &jsonrpc.Response{JSONRPC: jsonrpc.Version, Error: rpcErr}
}

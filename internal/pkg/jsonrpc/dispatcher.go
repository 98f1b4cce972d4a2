package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lidofinance/lightclient-gateway/internal/connectors/metrics"
	"github.com/lidofinance/lightclient-gateway/internal/pkg/chain"
	"github.com/lidofinance/lightclient-gateway/internal/pkg/chain/entity"
)

// ClientProvider gives scoped access to the published light client.
type ClientProvider interface {
	WithClient(fn func(chain.Client) error) error
}

const (
	invalidMethodLabel = `invalid`
	unknownMethodLabel = `unknown`
)

type Dispatcher struct {
	log     *slog.Logger
	metrics *metrics.Store
	clients ClientProvider
}

func NewDispatcher(log *slog.Logger, metricsStore *metrics.Store, clients ClientProvider) *Dispatcher {
	return &Dispatcher{
		log:     log,
		metrics: metricsStore,
		clients: clients,
	}
}

// Dispatch handles a single request envelope and always produces a response.
func (d *Dispatcher) Dispatch(ctx context.Context, raw json.RawMessage) *Response {
	start := time.Now()

	req, rpcErr := decodeRequest(raw)
	methodLabel := invalidMethodLabel
	if req != nil && rpcErr == nil {
		methodLabel = req.Method
	}

	resp := &Response{JSONRPC: Version}
	if req != nil {
		resp.ID = req.ID
	}

	if rpcErr == nil {
		if _, ok := methods[req.Method]; !ok {
			methodLabel = unknownMethodLabel
		}
		resp.Result, rpcErr = d.handle(ctx, req)
	}

	status := metrics.StatusOk
	if rpcErr != nil {
		resp.Result = nil
		resp.Error = rpcErr
		status = strconv.Itoa(rpcErr.Code)

		level := slog.LevelDebug
		if rpcErr.Code == InternalErrorCode {
			level = slog.LevelError
		}
		d.log.Log(ctx, level, "rpc request failed",
			slog.String("method", methodLabel),
			slog.Int("code", rpcErr.Code),
			slog.String("error", rpcErr.Message),
		)
	}

	d.metrics.RPCRequests.With(prometheus.Labels{metrics.Method: methodLabel, metrics.Status: status}).Inc()
	d.metrics.RPCDuration.With(prometheus.Labels{metrics.Method: methodLabel}).Observe(time.Since(start).Seconds())

	return resp
}

// LatestBlock fetches the latest block with transaction hashes only.
func (d *Dispatcher) LatestBlock(ctx context.Context) (*entity.Block, error) {
	var block *entity.Block
	err := d.clients.WithClient(func(c chain.Client) error {
		var err error
		block, err = c.BlockByNumber(ctx, chain.Latest, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return block, nil
}

func (d *Dispatcher) handle(ctx context.Context, req *Request) (json.RawMessage, *Error) {
	bind, ok := methods[req.Method]
	if !ok {
		return nil, NewMethodNotFoundError(req.Method)
	}

	exec, rpcErr := bind(req.Params)
	if rpcErr != nil {
		return nil, rpcErr
	}

	result, err := d.execute(ctx, exec)
	if err != nil {
		return nil, ToError(err)
	}

	out, err := Marshal(result)
	if err != nil {
		return nil, NewInternalError(fmt.Sprintf("could not serialize result: %v", err))
	}
	return out, nil
}

func (d *Dispatcher) execute(ctx context.Context, exec call) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error(fmt.Sprintf("rpc method panicked: %v", r))
			result = nil
			err = fmt.Errorf("method panicked: %v", r)
		}
	}()

	err = d.clients.WithClient(func(c chain.Client) error {
		var callErr error
		result, callErr = exec(ctx, c)
		return callErr
	})
	return result, err
}

// decodeRequest validates the envelope. A nil Request means the id could
// not be recovered.
func decodeRequest(raw json.RawMessage) (*Request, *Error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, NewInvalidRequestError("request must be a JSON object")
	}

	req := &Request{}
	if id, ok := fields["id"]; ok {
		// Structured ids would be re-encoded compactly on the way out.
		if isJSONObject(id) || bytes.HasPrefix(bytes.TrimSpace(id), []byte(`[`)) {
			return nil, NewInvalidRequestError("id must be a string, number or null")
		}
		req.ID = id
	}

	version, ok := fields["jsonrpc"]
	if !ok || !isJSONString(version) {
		return req, NewInvalidRequestError(`jsonrpc must be "2.0"`)
	}
	if err := json.Unmarshal(version, &req.JSONRPC); err != nil || req.JSONRPC != Version {
		return req, NewInvalidRequestError(`jsonrpc must be "2.0"`)
	}

	method, ok := fields["method"]
	if !ok || !isJSONString(method) {
		return req, NewInvalidRequestError("method must be a string")
	}
	if err := json.Unmarshal(method, &req.Method); err != nil {
		return req, NewInvalidRequestError("method must be a string")
	}

	params, ok := fields["params"]
	if !ok || !bytes.HasPrefix(bytes.TrimSpace(params), []byte(`[`)) {
		return req, NewInvalidParamsError("params must be an array")
	}
	if err := json.Unmarshal(params, &req.Params); err != nil {
		return req, NewInvalidParamsError(fmt.Sprintf("params must be an array: %v", err))
	}

	return req, nil
}

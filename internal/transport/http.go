// Package transport sends JSON-RPC requests to a single endpoint.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"rpc-provider/internal/rpcerr"
	"rpc-provider/internal/types"
)

const maxResponseBytes = 16 << 20

// Transport issues one request against one endpoint. Implementations honour
// ctx for the attempt deadline and must classify failures as
// rpcerr.KindTransport (retryable) or rpcerr.KindProtocol (not retryable).
type Transport interface {
	Send(ctx context.Context, ep types.Endpoint, req types.RPCRequest) (json.RawMessage, error)
}

// HTTP is a Transport over HTTP POST.
type HTTP struct {
	client *http.Client
}

// NewHTTP wraps client; a nil client gets a dedicated one. Timeouts come from
// the per-attempt context, not from the client.
func NewHTTP(client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTP{client: client}
}

// Send posts req to ep and returns the raw result on success.
func (t *HTTP) Send(ctx context.Context, ep types.Endpoint, req types.RPCRequest) (json.RawMessage, error) {
	const op = "transport.Send"
	endpointURL := ep.String()

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, protocolErr(op, endpointURL, 0, fmt.Errorf("encode request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, bytes.NewReader(payload))
	if err != nil {
		return nil, protocolErr(op, endpointURL, 0, fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, classifyDoError(op, endpointURL, ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		statusErr := fmt.Errorf("http status %d", resp.StatusCode)
		if retryableStatus(resp.StatusCode) {
			return nil, transportErr(op, endpointURL, statusErr)
		}
		return nil, protocolErr(op, endpointURL, 0, statusErr)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, classifyDoError(op, endpointURL, ctx, fmt.Errorf("read body: %w", err))
	}

	var rpcResp types.RPCResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, protocolErr(op, endpointURL, 0, fmt.Errorf("parse response: %w", err))
	}
	if rpcResp.ID != nil && *rpcResp.ID != req.ID {
		return nil, protocolErr(op, endpointURL, 0, fmt.Errorf("response id %d does not match request id %d", *rpcResp.ID, req.ID))
	}
	if rpcResp.Error != nil {
		return nil, protocolErr(op, endpointURL, rpcResp.Error.Code, rpcResp.Error)
	}
	if len(rpcResp.Result) == 0 {
		return nil, protocolErr(op, endpointURL, 0, errors.New("response has neither result nor error"))
	}
	return rpcResp.Result, nil
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// classifyDoError maps client errors. Cancellation is passed through untouched
// so the dispatcher can stop; timeouts, refused or reset connections and
// truncated bodies are transient.
func classifyDoError(op, endpointURL string, ctx context.Context, err error) error {
	if ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return transportErr(op, endpointURL, fmt.Errorf("attempt timed out: %w", ctx.Err()))
		}
		return ctx.Err()
	}
	return transportErr(op, endpointURL, err)
}

func transportErr(op, endpointURL string, err error) error {
	return &rpcerr.Error{Kind: rpcerr.KindTransport, Op: op, Endpoint: endpointURL, Err: err}
}

func protocolErr(op, endpointURL string, code int, err error) error {
	return &rpcerr.Error{Kind: rpcerr.KindProtocol, Op: op, Endpoint: endpointURL, Code: code, Err: err}
}

// Close releases idle keep-alive connections.
func (t *HTTP) Close() {
	t.client.CloseIdleConnections()
}

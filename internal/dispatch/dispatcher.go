// Package dispatch sends a logical JSON-RPC call across the registered
// endpoints according to the configured policy.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"rpc-provider/internal/config"
	"rpc-provider/internal/metrics"
	"rpc-provider/internal/registry"
	"rpc-provider/internal/rpcerr"
	"rpc-provider/internal/transport"
	"rpc-provider/internal/types"
)

// Comparator decides whether two successful results agree in confirmation mode.
type Comparator func(a, b json.RawMessage) bool

// Request is one logical call. Equal is only consulted by PolicyConfirm;
// nil compares the compacted JSON bytes.
type Request struct {
	Method string
	Params []any
	Equal  Comparator
}

// Options tunes a Dispatcher. Zero values fall back to the config defaults.
type Options struct {
	Policy       config.Policy
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	Logger       *zap.Logger
	Metrics      *metrics.Metrics
}

// Dispatcher is safe for concurrent use. It holds no per-call state.
type Dispatcher struct {
	registry  *registry.Registry
	transport transport.Transport
	opts      Options
	log       *zap.Logger
	metrics   *metrics.Metrics
	nextID    atomic.Int64
}

type callState string

const (
	stateDispatching callState = "dispatching"
	stateRetrying    callState = "retrying"
	stateSucceeded   callState = "succeeded"
	stateFailed      callState = "failed"
)

// New creates a Dispatcher reading endpoints from reg on every call.
func New(reg *registry.Registry, tr transport.Transport, opts Options) *Dispatcher {
	if opts.Policy == "" {
		opts.Policy = config.PolicyFirstSuccess
	}
	if opts.Timeout <= 0 {
		opts.Timeout = config.DefaultTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New(nil)
	}
	return &Dispatcher{
		registry:  reg,
		transport: tr,
		opts:      opts,
		log:       opts.Logger.Named("dispatch"),
		metrics:   opts.Metrics,
	}
}

// Policy returns the active dispatch policy.
func (d *Dispatcher) Policy() config.Policy {
	return d.opts.Policy
}

// NextID returns a fresh JSON-RPC request id.
func (d *Dispatcher) NextID() int {
	return int(d.nextID.Add(1))
}

// Dispatch runs req against the registry snapshot taken at call time and
// returns the raw result of a definitive success.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (json.RawMessage, error) {
	endpoints := d.registry.List()
	if len(endpoints) == 0 {
		return nil, rpcerr.New(rpcerr.KindConfiguration, "dispatch", rpcerr.ErrNoEndpoints)
	}

	rpcReq := types.NewRequest(d.NextID(), req.Method, req.Params...)
	start := time.Now()

	var (
		result json.RawMessage
		err    error
	)
	switch d.opts.Policy {
	case config.PolicyFirstSuccess:
		result, err = d.firstSuccess(ctx, endpoints, rpcReq)
	case config.PolicyConfirm:
		result, err = d.confirm(ctx, endpoints, rpcReq, req.Equal)
	default:
		err = rpcerr.Configuration("dispatch", "unknown policy %q", d.opts.Policy)
	}

	outcome := "success"
	if err != nil {
		outcome = rpcerr.KindOf(err).String()
		if ctx.Err() != nil {
			outcome = "cancelled"
		}
	}
	d.metrics.CallsTotal.WithLabelValues(req.Method, outcome).Inc()
	d.metrics.CallDuration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
	return result, err
}

func (d *Dispatcher) firstSuccess(ctx context.Context, endpoints []types.Endpoint, req types.RPCRequest) (json.RawMessage, error) {
	var (
		lastProtocol  error
		transportErrs []error
	)

	for i, ep := range endpoints {
		result, err := d.tryEndpoint(ctx, ep, req)
		if err == nil {
			if i > 0 {
				d.log.Info("call succeeded after failover",
					zap.String("method", req.Method),
					zap.String("endpoint", ep.Name),
					zap.Int("skipped", i))
			}
			return result, nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("dispatch %s: %w", req.Method, ctx.Err())
		}

		if rpcerr.KindOf(err) == rpcerr.KindProtocol {
			lastProtocol = err
		} else {
			transportErrs = append(transportErrs, err)
		}
		if i < len(endpoints)-1 {
			d.log.Info("endpoint failed, trying next",
				zap.String("method", req.Method),
				zap.String("endpoint", ep.Name),
				zap.String("next", endpoints[i+1].Name),
				zap.Error(err))
		}
	}

	return nil, d.exhausted(req.Method, lastProtocol, transportErrs)
}

type endpointResult struct {
	endpoint types.Endpoint
	result   json.RawMessage
	err      error
}

func (d *Dispatcher) confirm(ctx context.Context, endpoints []types.Endpoint, req types.RPCRequest, equal Comparator) (json.RawMessage, error) {
	if equal == nil {
		equal = compactEqual
	}

	results := make([]endpointResult, len(endpoints))
	var g errgroup.Group
	for i, ep := range endpoints {
		i, ep := i, ep
		g.Go(func() error {
			result, err := d.tryEndpoint(ctx, ep, req)
			results[i] = endpointResult{endpoint: ep, result: result, err: err}
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		return nil, fmt.Errorf("dispatch %s: %w", req.Method, ctx.Err())
	}

	var (
		first         *endpointResult
		lastProtocol  error
		transportErrs []error
	)
	for i := range results {
		o := &results[i]
		if o.err != nil {
			if rpcerr.KindOf(o.err) == rpcerr.KindProtocol {
				lastProtocol = o.err
			} else {
				transportErrs = append(transportErrs, o.err)
			}
			continue
		}
		if first == nil {
			first = o
			continue
		}
		if !equal(first.result, o.result) {
			d.log.Warn("endpoints disagree",
				zap.String("method", req.Method),
				zap.String("endpoint", first.endpoint.Name),
				zap.ByteString("result", first.result),
				zap.String("other", o.endpoint.Name),
				zap.ByteString("other_result", o.result))
			return nil, &rpcerr.Error{
				Kind: rpcerr.KindConsistency,
				Op:   "dispatch",
				Err: fmt.Errorf("%w: %s: %s returned %s, %s returned %s", rpcerr.ErrInconsistentResponse, req.Method,
					first.endpoint.Name, first.result, o.endpoint.Name, o.result),
			}
		}
	}

	if first == nil {
		return nil, d.exhausted(req.Method, lastProtocol, transportErrs)
	}
	return first.result, nil
}

// exhausted builds the error of a call where no endpoint succeeded: the last
// RPC-level failure if there was one, else an unreachable error joining
// every transport failure.
func (d *Dispatcher) exhausted(method string, lastProtocol error, transportErrs []error) error {
	d.log.Warn("all endpoints failed",
		zap.String("method", method),
		zap.String("state", string(stateFailed)),
		zap.Int("transport_failures", len(transportErrs)),
		zap.Bool("protocol_failure", lastProtocol != nil))

	if lastProtocol != nil {
		return lastProtocol
	}
	return &rpcerr.Error{
		Kind: rpcerr.KindTransport,
		Op:   "dispatch",
		Err:  errors.Join(append([]error{rpcerr.ErrAllEndpointsUnreachable}, transportErrs...)...),
	}
}

// tryEndpoint sends req to ep, retrying transient failures up to MaxRetries
// times. Protocol failures and cancellation stop immediately.
func (d *Dispatcher) tryEndpoint(ctx context.Context, ep types.Endpoint, req types.RPCRequest) (json.RawMessage, error) {
	var (
		result  json.RawMessage
		attempt int
	)

	operation := func() error {
		attempt++
		state := stateDispatching
		if attempt > 1 {
			state = stateRetrying
		}
		d.log.Debug("attempt",
			zap.String("method", req.Method),
			zap.String("endpoint", ep.Name),
			zap.Int("attempt", attempt),
			zap.String("state", string(state)))

		res, err := d.send(ctx, ep, req)
		if err == nil {
			result = res
			d.log.Debug("attempt",
				zap.String("method", req.Method),
				zap.String("endpoint", ep.Name),
				zap.Int("attempt", attempt),
				zap.String("state", string(stateSucceeded)))
			return nil
		}
		if ctx.Err() != nil || !rpcerr.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(d.opts.RetryBackoff), uint64(d.opts.MaxRetries)),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return result, nil
}

// send performs a single attempt bounded by the per-attempt timeout.
func (d *Dispatcher) send(ctx context.Context, ep types.Endpoint, req types.RPCRequest) (json.RawMessage, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	start := time.Now()
	result, err := d.transport.Send(attemptCtx, ep, req)
	d.metrics.AttemptDuration.WithLabelValues(ep.String()).Observe(time.Since(start).Seconds())

	if err != nil {
		switch {
		case ctx.Err() != nil:
			err = ctx.Err()
		case attemptCtx.Err() != nil && !rpcerr.IsTransient(err) && rpcerr.KindOf(err) != rpcerr.KindProtocol:
			err = &rpcerr.Error{Kind: rpcerr.KindTransport, Op: "dispatch.send", Endpoint: ep.String(),
				Err: fmt.Errorf("attempt timed out after %s: %w", d.opts.Timeout, err)}
		case rpcerr.KindOf(err) == rpcerr.KindUnknown:
			// Unclassified transport errors are treated as connection failures.
			err = &rpcerr.Error{Kind: rpcerr.KindTransport, Op: "dispatch.send", Endpoint: ep.String(), Err: err}
		}
	}

	label := "success"
	switch {
	case err == nil:
	case ctx.Err() != nil:
		label = "cancelled"
	default:
		label = rpcerr.KindOf(err).String()
	}
	d.metrics.AttemptsTotal.WithLabelValues(ep.String(), req.Method, label).Inc()

	return result, err
}

func compactEqual(a, b json.RawMessage) bool {
	var ca, cb bytes.Buffer
	if json.Compact(&ca, a) != nil || json.Compact(&cb, b) != nil {
		return bytes.Equal(a, b)
	}
	return bytes.Equal(ca.Bytes(), cb.Bytes())
}

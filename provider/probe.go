package provider

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"rpc-provider/internal/config"
	"rpc-provider/internal/decode"
	"rpc-provider/internal/metrics"
	"rpc-provider/internal/types"
)

// EndpointStatus is the result of probing one endpoint.
type EndpointStatus struct {
	Name        string
	URL         string
	Reachable   bool
	BlockNumber uint64
	Latency     time.Duration
	Err         error
}

// Probe asks every endpoint for its head block concurrently and reports the
// outcome in registration order. It bypasses retries and failover and does
// not change dispatch order.
func (p *Provider) Probe(ctx context.Context) []EndpointStatus {
	endpoints := p.registry.List()
	statuses := make([]EndpointStatus, len(endpoints))

	var g errgroup.Group
	for i, ep := range endpoints {
		i, ep := i, ep
		g.Go(func() error {
			statuses[i] = p.probeEndpoint(ctx, ep)
			return nil
		})
	}
	_ = g.Wait()
	return statuses
}

func (p *Provider) probeEndpoint(ctx context.Context, ep types.Endpoint) EndpointStatus {
	endpointURL := ep.String()
	status := EndpointStatus{Name: ep.Name, URL: endpointURL}

	timeout := p.cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	raw, err := p.transport.Send(probeCtx, ep, types.NewRequest(p.dispatcher.NextID(), "eth_blockNumber"))
	status.Latency = time.Since(start)

	if err == nil {
		status.BlockNumber, err = decode.DecodeUint64(raw)
	}
	if err != nil {
		status.Err = err
		p.log.Warn("endpoint probe failed", zap.String("endpoint", ep.Name), zap.Error(err))
		p.metrics.EndpointIsActive.WithLabelValues(endpointURL).Set(metrics.EndpointInactive)
		return status
	}

	status.Reachable = true
	p.metrics.EndpointLatency.WithLabelValues(endpointURL).Set(status.Latency.Seconds())
	p.metrics.EndpointBlockNumber.WithLabelValues(endpointURL).Set(float64(status.BlockNumber))
	p.metrics.EndpointIsActive.WithLabelValues(endpointURL).Set(metrics.EndpointActive)
	p.log.Debug("endpoint probed",
		zap.String("endpoint", ep.Name),
		zap.Uint64("block", status.BlockNumber),
		zap.Duration("latency", status.Latency))
	return status
}

// Package provider issues JSON-RPC read calls against one or more named
// Ethereum node endpoints and decodes the results.
//
// A Provider is created once, populated with AddClient and then shared freely
// between goroutines:
//
//	p, err := provider.New(cfg, provider.Options{Logger: logger})
//	if err != nil { ... }
//	if err := p.AddClient("local", "http://127.0.0.1:8545"); err != nil { ... }
//	balance, err := p.GetBalance(ctx, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"rpc-provider/internal/config"
	"rpc-provider/internal/decode"
	"rpc-provider/internal/dispatch"
	"rpc-provider/internal/metrics"
	"rpc-provider/internal/registry"
	"rpc-provider/internal/rpcerr"
	"rpc-provider/internal/transport"
)

type (
	Config      = config.Config
	NetworkType = config.NetworkType
	Policy      = config.Policy
	Transport   = transport.Transport
)

const (
	NetworkLocal   = config.NetworkLocal
	NetworkTestnet = config.NetworkTestnet
	NetworkMainnet = config.NetworkMainnet

	PolicyFirstSuccess = config.PolicyFirstSuccess
	PolicyConfirm      = config.PolicyConfirm
)

// Options carries the collaborators of a Provider. All fields are optional.
type Options struct {
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
	// Registerer receives the provider's collectors; nil keeps them private.
	Registerer prometheus.Registerer
	// HTTPClient is used by the default HTTP transport.
	HTTPClient *http.Client
	// Transport replaces the HTTP transport entirely.
	Transport Transport
}

// Client is a registered endpoint as reported by Clients.
type Client struct {
	Name string
	URL  string
}

// Provider is the entry point for callers. It is safe for concurrent use;
// separate Providers share nothing.
type Provider struct {
	cfg        *config.Config
	registry   *registry.Registry
	dispatcher *dispatch.Dispatcher
	transport  transport.Transport
	metrics    *metrics.Metrics
	log        *zap.Logger
}

// New builds a Provider from cfg and registers cfg.Clients in order. A nil
// cfg uses config.Default(). An invalid cfg is a configuration error.
func New(cfg *Config, opts Options) (*Provider, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, rpcerr.Configuration("provider.New", "%w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tr := opts.Transport
	if tr == nil {
		tr = transport.NewHTTP(opts.HTTPClient)
	}
	m := metrics.New(opts.Registerer)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}

	reg := registry.New()
	p := &Provider{
		cfg:       cfg,
		registry:  reg,
		transport: tr,
		metrics:   m,
		log:       logger.Named("provider"),
		dispatcher: dispatch.New(reg, tr, dispatch.Options{
			Policy:       cfg.Policy,
			Timeout:      timeout,
			MaxRetries:   cfg.MaxRetriesOrDefault(),
			RetryBackoff: cfg.RetryBackoff,
			Logger:       logger,
			Metrics:      m,
		}),
	}

	for _, c := range cfg.Clients {
		if err := p.AddClient(c.Name, c.URL); err != nil {
			return nil, err
		}
	}

	p.log.Info("provider initialized",
		zap.String("network", string(cfg.Network)),
		zap.String("policy", string(p.dispatcher.Policy())),
		zap.Duration("timeout", timeout),
		zap.Int("max_retries", cfg.MaxRetriesOrDefault()),
		zap.Int("clients", p.registry.Len()))
	return p, nil
}

// NewForNetwork builds a Provider with default settings and a single client
// pointing at the preset RPC URL of nt.
func NewForNetwork(nt NetworkType, opts Options) (*Provider, error) {
	network, err := config.ForNetwork(nt)
	if err != nil {
		return nil, rpcerr.Configuration("provider.NewForNetwork", "%w", err)
	}

	cfg := config.Default()
	cfg.Network = nt
	cfg.Clients = []config.Client{{Name: string(nt), URL: network.RPCURL}}
	return New(cfg, opts)
}

// AddClient registers a named endpoint. Endpoints are tried in the order
// they were added.
func (p *Provider) AddClient(name, url string) error {
	ep, err := p.registry.Add(name, url)
	if err != nil {
		return err
	}
	p.log.Info("client added", zap.String("name", ep.Name), zap.String("url", ep.String()))
	return nil
}

// Clients lists the registered endpoints in priority order.
func (p *Provider) Clients() []Client {
	endpoints := p.registry.List()
	clients := make([]Client, len(endpoints))
	for i, ep := range endpoints {
		clients[i] = Client{Name: ep.Name, URL: ep.String()}
	}
	return clients
}

// Call issues an arbitrary read method and returns the raw JSON result.
func (p *Provider) Call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	if strings.TrimSpace(method) == "" {
		return nil, rpcerr.Validation("provider.Call", "method must not be empty")
	}
	return p.dispatcher.Dispatch(ctx, dispatch.Request{Method: method, Params: params})
}

// GetBalance returns the latest balance of address in wei as a decimal string.
func (p *Provider) GetBalance(ctx context.Context, address string) (string, error) {
	if err := decode.ValidateAddress(address); err != nil {
		return "", err
	}

	raw, err := p.dispatcher.Dispatch(ctx, dispatch.Request{
		Method: "eth_getBalance",
		Params: []any{address, "latest"},
		Equal:  decode.QuantitiesEqual,
	})
	if err != nil {
		return "", err
	}

	balance, err := decode.DecodeBalance(raw)
	if err != nil {
		return "", err
	}
	return balance.Value, nil
}

// GetTransactionCount returns the nonce of address at block, which is a tag
// such as "latest" or a hex block number.
func (p *Provider) GetTransactionCount(ctx context.Context, address, block string) (uint64, error) {
	if err := decode.ValidateAddress(address); err != nil {
		return 0, err
	}
	if err := decode.ValidateBlockTag(block); err != nil {
		return 0, err
	}
	return p.callUint64(ctx, "eth_getTransactionCount", address, block)
}

// BlockNumber returns the head block number.
func (p *Provider) BlockNumber(ctx context.Context) (uint64, error) {
	return p.callUint64(ctx, "eth_blockNumber")
}

// ChainID returns the chain id reported by the endpoints.
func (p *Provider) ChainID(ctx context.Context) (uint64, error) {
	return p.callUint64(ctx, "eth_chainId")
}

func (p *Provider) callUint64(ctx context.Context, method string, params ...any) (uint64, error) {
	raw, err := p.dispatcher.Dispatch(ctx, dispatch.Request{
		Method: method,
		Params: params,
		Equal:  decode.QuantitiesEqual,
	})
	if err != nil {
		return 0, err
	}
	n, err := decode.DecodeUint64(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", method, err)
	}
	return n, nil
}

// Close releases idle connections held by the default transport.
func (p *Provider) Close() {
	if c, ok := p.transport.(interface{ Close() }); ok {
		c.Close()
	}
}

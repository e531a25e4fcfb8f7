// Package registry stores the named RPC endpoints in priority order.
package registry

import (
	"errors"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"rpc-provider/internal/rpcerr"
	"rpc-provider/internal/types"
)

var (
	errUnsupportedScheme = errors.New("scheme must be http or https")
	errMissingHost       = errors.New("missing host")
)

// Registry is an append-only, ordered set of endpoints. Readers get an
// immutable snapshot without locking; writers serialize on mu and publish a
// new slice atomically, so an endpoint is either fully visible or not at all.
type Registry struct {
	mu        sync.Mutex
	endpoints atomic.Pointer[[]types.Endpoint]
}

// New creates an empty registry.
func New() *Registry {
	r := &Registry{}
	empty := []types.Endpoint{}
	r.endpoints.Store(&empty)
	return r
}

// Add appends a new endpoint. It fails if name is empty or taken, or if
// rawURL is not an absolute http(s) URL.
func (r *Registry) Add(name, rawURL string) (types.Endpoint, error) {
	const op = "registry.Add"

	if strings.TrimSpace(name) == "" {
		return types.Endpoint{}, rpcerr.Configuration(op, "client name must not be empty")
	}
	u, err := ParseURL(rawURL)
	if err != nil {
		return types.Endpoint{}, rpcerr.Configuration(op, "%w: %s: %v", rpcerr.ErrInvalidAddress, rawURL, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current := *r.endpoints.Load()
	for _, ep := range current {
		if ep.Name == name {
			return types.Endpoint{}, rpcerr.Configuration(op, "%w: %q", rpcerr.ErrDuplicateName, name)
		}
	}

	ep := types.Endpoint{Name: name, URL: u}
	next := make([]types.Endpoint, len(current), len(current)+1)
	copy(next, current)
	next = append(next, ep)
	r.endpoints.Store(&next)
	return ep, nil
}

// List returns a snapshot of the endpoints in registration order. The
// returned slice is never mutated by the registry.
func (r *Registry) List() []types.Endpoint {
	return *r.endpoints.Load()
}

// Len returns the number of registered endpoints.
func (r *Registry) Len() int {
	return len(*r.endpoints.Load())
}

// ParseURL validates an endpoint address.
func ParseURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errUnsupportedScheme
	}
	if u.Host == "" || u.Hostname() == "" {
		return nil, errMissingHost
	}
	return u, nil
}

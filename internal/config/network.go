package config

import "fmt"

// NetworkType selects one of the known deployments.
type NetworkType string

const (
	NetworkLocal   NetworkType = "local"
	NetworkTestnet NetworkType = "testnet"
	NetworkMainnet NetworkType = "mainnet"
)

// Network describes a deployment. Only RPCURL is consumed by the provider.
type Network struct {
	Type    NetworkType
	ChainID uint64
	RPCURL  string
}

// ForNetwork returns the preset for the given network type.
func ForNetwork(nt NetworkType) (Network, error) {
	switch nt {
	case NetworkLocal:
		return Network{Type: nt, ChainID: 31337, RPCURL: "http://127.0.0.1:8545"}, nil
	case NetworkTestnet:
		return Network{Type: nt, ChainID: 421614, RPCURL: "https://sepolia-rollup.arbitrum.io/rpc"}, nil
	case NetworkMainnet:
		return Network{Type: nt, ChainID: 42161, RPCURL: "https://arb1.arbitrum.io/rpc"}, nil
	default:
		return Network{}, fmt.Errorf("unknown network type '%s'", nt)
	}
}

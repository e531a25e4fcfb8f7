// Package decode turns raw JSON-RPC results into validated domain values.
// Everything here is pure: the same input always yields the same output.
package decode

import (
	"encoding/json"
	"math/big"
	"strings"

	"rpc-provider/internal/rpcerr"
)

// Balance is an account balance in wei, held as a decimal string.
type Balance struct {
	Value string
}

func (b Balance) String() string { return b.Value }

// ParseQuantity validates and converts a hex quantity string.
// Leading zeros are tolerated; an empty digit string is not.
func ParseQuantity(s string) (*big.Int, error) {
	const op = "decode.ParseQuantity"

	if !strings.HasPrefix(s, "0x") {
		return nil, rpcerr.Validation(op, "%w: %q missing 0x prefix", rpcerr.ErrMalformedQuantity, s)
	}
	digits := s[2:]
	if digits == "" {
		return nil, rpcerr.Validation(op, "%w: %q has no digits", rpcerr.ErrMalformedQuantity, s)
	}
	for i := 0; i < len(digits); i++ {
		if !isHexDigit(digits[i]) {
			return nil, rpcerr.Validation(op, "%w: %q contains non-hex character %q", rpcerr.ErrMalformedQuantity, s, digits[i])
		}
	}

	n, ok := new(big.Int).SetString(digits, 16)
	if !ok {
		return nil, rpcerr.Validation(op, "%w: %q", rpcerr.ErrMalformedQuantity, s)
	}
	return n, nil
}

// DecodeQuantity parses a raw JSON result that must be a quantity string.
func DecodeQuantity(raw json.RawMessage) (*big.Int, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, rpcerr.Validation("decode.DecodeQuantity", "%w: result %s is not a string", rpcerr.ErrMalformedQuantity, truncate(raw))
	}
	return ParseQuantity(s)
}

// DecodeBalance converts an eth_getBalance result to its decimal form.
func DecodeBalance(raw json.RawMessage) (Balance, error) {
	n, err := DecodeQuantity(raw)
	if err != nil {
		return Balance{}, err
	}
	return Balance{Value: n.String()}, nil
}

// DecodeUint64 converts a quantity result that must fit in 64 bits.
func DecodeUint64(raw json.RawMessage) (uint64, error) {
	n, err := DecodeQuantity(raw)
	if err != nil {
		return 0, err
	}
	if !n.IsUint64() {
		return 0, rpcerr.Validation("decode.DecodeUint64", "%w: %s overflows uint64", rpcerr.ErrMalformedQuantity, n)
	}
	return n.Uint64(), nil
}

// QuantitiesEqual reports whether two raw results decode to the same
// quantity. Results that do not decode are compared byte for byte.
func QuantitiesEqual(a, b json.RawMessage) bool {
	x, errA := DecodeQuantity(a)
	y, errB := DecodeQuantity(b)
	if errA != nil || errB != nil {
		return string(a) == string(b)
	}
	return x.Cmp(y) == 0
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func truncate(raw json.RawMessage) string {
	const limit = 64
	if len(raw) > limit {
		return string(raw[:limit]) + "..."
	}
	return string(raw)
}

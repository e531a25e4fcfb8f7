package decode

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"rpc-provider/internal/rpcerr"
)

// AddressLength is the length of a 0x-prefixed hex account address.
const AddressLength = 2 + 2*common.AddressLength

// ValidateAddress checks that s is a 42-character 0x-prefixed hex address.
// Checksum casing is not enforced.
func ValidateAddress(s string) error {
	const op = "decode.ValidateAddress"

	if len(s) != AddressLength || !strings.HasPrefix(s, "0x") || !common.IsHexAddress(s) {
		return rpcerr.Validation(op, "%w: %q", rpcerr.ErrInvalidAddress, s)
	}
	return nil
}

var blockTags = map[string]struct{}{
	"latest":    {},
	"earliest":  {},
	"pending":   {},
	"safe":      {},
	"finalized": {},
}

// ValidateBlockTag accepts a named block tag or a hex block number.
func ValidateBlockTag(tag string) error {
	if _, ok := blockTags[tag]; ok {
		return nil
	}
	if _, err := ParseQuantity(tag); err != nil {
		return rpcerr.Validation("decode.ValidateBlockTag", "invalid block tag %q: %w", tag, err)
	}
	return nil
}

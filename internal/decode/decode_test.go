package decode

import (
	"encoding/json"
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rpc-provider/internal/rpcerr"
)

func raw(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

func TestDecodeBalance_RoundTrip(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 70)
	max256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	values := []*big.Int{
		big.NewInt(0),
		big.NewInt(1),
		big.NewInt(1000),
		new(big.Int).SetUint64(math.MaxUint64),
		new(big.Int).Add(new(big.Int).SetUint64(math.MaxUint64), big.NewInt(1)),
		huge,
		max256,
	}
	for _, n := range values {
		t.Run(n.String(), func(t *testing.T) {
			b, err := DecodeBalance(raw(hexutil.EncodeBig(n)))
			require.NoError(t, err)
			assert.Equal(t, n.String(), b.Value)
		})
	}

	b, err := DecodeBalance(raw(hexutil.EncodeBig(huge)))
	require.NoError(t, err)
	assert.Equal(t, "1180591620717411303424", b.String())
}

func TestDecodeBalance_Scenarios(t *testing.T) {
	b, err := DecodeBalance(raw("0x3e8"))
	require.NoError(t, err)
	assert.Equal(t, "1000", b.Value)

	b, err = DecodeBalance(raw("0x0"))
	require.NoError(t, err)
	assert.Equal(t, "0", b.Value)

	b, err = DecodeBalance(raw("0x00ff"))
	require.NoError(t, err)
	assert.Equal(t, "255", b.Value)

	b, err = DecodeBalance(raw("0xDeadBeef"))
	require.NoError(t, err)
	assert.Equal(t, "3735928559", b.Value)
}

func TestDecodeBalance_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  json.RawMessage
	}{
		{"empty digits", raw("0x")},
		{"no prefix", raw("3e8")},
		{"upper prefix", raw("0X3e8")},
		{"non hex", raw("0x3g8")},
		{"negative", raw("-0x1")},
		{"sign inside", raw("0x-1")},
		{"whitespace", raw("0x 1")},
		{"decimal string", raw("1000")},
		{"empty string", raw("")},
		{"number", json.RawMessage(`1000`)},
		{"null", json.RawMessage(`null`)},
		{"object", json.RawMessage(`{"balance":"0x1"}`)},
		{"invalid json", json.RawMessage(`"0x1`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBalance(tt.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, rpcerr.ErrMalformedQuantity))
			assert.Equal(t, rpcerr.KindValidation, rpcerr.KindOf(err))
		})
	}
}

func TestDecodeBalance_Pure(t *testing.T) {
	in := raw("0x1bc16d674ec80000")
	first, err := DecodeBalance(in)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := DecodeBalance(in)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, "2000000000000000000", first.Value)
}

func TestDecodeUint64(t *testing.T) {
	n, err := DecodeUint64(raw("0x7a69"))
	require.NoError(t, err)
	assert.Equal(t, uint64(31337), n)

	_, err = DecodeUint64(raw(hexutil.EncodeBig(new(big.Int).Lsh(big.NewInt(1), 64))))
	require.Error(t, err)
	assert.True(t, errors.Is(err, rpcerr.ErrMalformedQuantity))
}

func TestQuantitiesEqual(t *testing.T) {
	assert.True(t, QuantitiesEqual(raw("0x1"), raw("0x01")))
	assert.False(t, QuantitiesEqual(raw("0x1"), raw("0x2")))
	assert.True(t, QuantitiesEqual(json.RawMessage(`true`), json.RawMessage(`true`)))
	assert.False(t, QuantitiesEqual(raw("0x1"), json.RawMessage(`null`)))
}

func TestValidateAddress(t *testing.T) {
	valid := []string{
		"0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		"0x0000000000000000000000000000000000000000",
		"0xFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF",
	}
	for _, addr := range valid {
		assert.NoError(t, ValidateAddress(addr), addr)
	}

	invalid := []string{
		"",
		"0x",
		"f39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		"0Xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		"0xf39Fd6e51aad88F6F4ce6aB8827279cffFb9226",
		"0xf39Fd6e51aad88F6F4ce6aB8827279cffFb922666",
		"0xg39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		"00f39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
	}
	for _, addr := range invalid {
		err := ValidateAddress(addr)
		require.Error(t, err, addr)
		assert.True(t, errors.Is(err, rpcerr.ErrInvalidAddress))
		assert.Equal(t, rpcerr.KindValidation, rpcerr.KindOf(err))
	}
}

func TestValidateBlockTag(t *testing.T) {
	for _, tag := range []string{"latest", "earliest", "pending", "safe", "finalized", "0x10"} {
		assert.NoError(t, ValidateBlockTag(tag), tag)
	}
	for _, tag := range []string{"", "newest", "16", "0x"} {
		err := ValidateBlockTag(tag)
		require.Error(t, err, tag)
		assert.Equal(t, rpcerr.KindValidation, rpcerr.KindOf(err))
	}
}

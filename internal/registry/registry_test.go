package registry

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rpc-provider/internal/rpcerr"
)

func TestRegistry_AddGrowsInOrder(t *testing.T) {
	r := New()
	require.Equal(t, 0, r.Len())

	for i := 0; i < 5; i++ {
		_, err := r.Add(fmt.Sprintf("node-%d", i), fmt.Sprintf("http://127.0.0.1:%d", 8545+i))
		require.NoError(t, err)
		require.Equal(t, i+1, r.Len())
	}

	list := r.List()
	require.Len(t, list, 5)
	for i, ep := range list {
		assert.Equal(t, fmt.Sprintf("node-%d", i), ep.Name)
		assert.Equal(t, fmt.Sprintf("http://127.0.0.1:%d", 8545+i), ep.String())
	}
}

func TestRegistry_DuplicateName(t *testing.T) {
	r := New()
	_, err := r.Add("local", "http://127.0.0.1:8545")
	require.NoError(t, err)
	before := r.List()

	_, err = r.Add("local", "http://127.0.0.1:9545")
	require.Error(t, err)
	assert.True(t, errors.Is(err, rpcerr.ErrDuplicateName))
	assert.Equal(t, rpcerr.KindConfiguration, rpcerr.KindOf(err))
	assert.Equal(t, before, r.List())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_InvalidURL(t *testing.T) {
	tests := []string{
		"",
		"127.0.0.1:8545",
		"ftp://example.org",
		"ws://127.0.0.1:8546",
		"http://",
		"http://%zz",
		"https:///path-only",
	}
	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			r := New()
			_, err := r.Add("node", raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, rpcerr.ErrInvalidAddress))
			assert.Equal(t, rpcerr.KindConfiguration, rpcerr.KindOf(err))
			assert.Equal(t, 0, r.Len())
		})
	}
}

func TestRegistry_EmptyName(t *testing.T) {
	r := New()
	_, err := r.Add("  ", "http://127.0.0.1:8545")
	require.Error(t, err)
	assert.Equal(t, rpcerr.KindConfiguration, rpcerr.KindOf(err))
}

func TestRegistry_SnapshotIsStable(t *testing.T) {
	r := New()
	_, err := r.Add("a", "http://a.example:8545")
	require.NoError(t, err)

	snapshot := r.List()
	_, err = r.Add("b", "http://b.example:8545")
	require.NoError(t, err)

	assert.Len(t, snapshot, 1)
	assert.Len(t, r.List(), 2)
}

func TestRegistry_ConcurrentReadersAndWriters(t *testing.T) {
	r := New()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := r.Add(fmt.Sprintf("node-%d", i), "http://127.0.0.1:8545")
			assert.NoError(t, err)
		}(i)
		go func() {
			defer wg.Done()
			for _, ep := range r.List() {
				assert.NotEmpty(t, ep.Name)
				assert.NotNil(t, ep.URL)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, r.Len())
}

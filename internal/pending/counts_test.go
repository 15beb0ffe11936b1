package pending

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gateflow-tech/gateflow/internal/domain/approval"
	gferrors "github.com/gateflow-tech/gateflow/internal/errors"
)

func TestCounts(t *testing.T) {
	byPrincipal := map[string][]approval.PendingItem{
		"mgr-1":  items("chain_a", "chain_b"),
		"dir-1":  items("chain_c"),
		"exec-1": nil,
	}
	var mu sync.Mutex
	fetcher := FetcherFunc(func(_ context.Context, principalID string) ([]approval.PendingItem, error) {
		mu.Lock()
		defer mu.Unlock()
		return byPrincipal[principalID], nil
	})

	counts, err := Counts(context.Background(), fetcher, []string{"mgr-1", "dir-1", "exec-1"}, 2)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"mgr-1": 2, "dir-1": 1, "exec-1": 0}, counts)
}

func TestCounts_RespectsConcurrencyLimit(t *testing.T) {
	var current, peak atomic.Int32
	fetcher := FetcherFunc(func(context.Context, string) ([]approval.PendingItem, error) {
		n := current.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		current.Add(-1)
		return nil, nil
	})

	principals := []string{"a", "b", "c", "d", "e", "f"}
	_, err := Counts(context.Background(), fetcher, principals, 2)
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestCounts_PropagatesError(t *testing.T) {
	fetcher := FetcherFunc(func(_ context.Context, principalID string) ([]approval.PendingItem, error) {
		if principalID == "dir-1" {
			return nil, gferrors.Query("pending.fetch", "store unavailable")
		}
		return items("chain_a"), nil
	})

	_, err := Counts(context.Background(), fetcher, []string{"mgr-1", "dir-1"}, DefaultCountConcurrency)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dir-1")
}

func TestCounts_Empty(t *testing.T) {
	counts, err := Counts(context.Background(), staticFetcher(nil), nil, DefaultCountConcurrency)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestCounts_DefaultsConcurrency(t *testing.T) {
	counts, err := Counts(context.Background(), staticFetcher(items("chain_a")), []string{"mgr-1"}, 0)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"mgr-1": 1}, counts)
}

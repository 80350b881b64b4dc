package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/finquota/finquota/pkg/finerr"
	"github.com/finquota/finquota/pkg/summary"
)

func openTestPebble(t *testing.T) *PebbleStore {
	t.Helper()
	p, err := OpenPebble(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func TestPebbleSetGetDel(t *testing.T) {
	p := openTestPebble(t)
	ctx := context.Background()

	require.NoError(t, p.SetJSON(ctx, "summary:A01:2330", "$", `{"stock_id":"2330"}`))
	raw, err := p.GetJSON(ctx, "summary:A01:2330", "$")
	require.NoError(t, err)
	require.Equal(t, `{"stock_id":"2330"}`, raw)

	require.NoError(t, p.Del(ctx, "summary:A01:2330"))
	_, err = p.GetJSON(ctx, "summary:A01:2330", "$")
	require.ErrorIs(t, err, finerr.ErrKeyNotFound)
}

func TestPebbleKeysByPrefix(t *testing.T) {
	p := openTestPebble(t)
	ctx := context.Background()

	for _, k := range []string{"summary:A01:2330", "summary:A02:2330", "other:1"} {
		require.NoError(t, p.SetJSON(ctx, k, "$", `{}`))
	}
	keys, err := p.Keys(ctx, "summary:*")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"summary:A01:2330", "summary:A02:2330"}, keys)

	_, err = p.Keys(ctx, "sum*mary:*")
	require.Error(t, err)
}

func TestPebbleRootPathOnly(t *testing.T) {
	p := openTestPebble(t)
	ctx := context.Background()
	require.Error(t, p.SetJSON(ctx, "k", "$.stock_id", `"x"`))
	_, err := p.GetJSON(ctx, "k", "$.stock_id")
	require.Error(t, err)
}

func TestPebbleIndexCallsAreNoOps(t *testing.T) {
	p := openTestPebble(t)
	ctx := context.Background()
	require.NoError(t, p.CreateIndex(ctx))
	require.NoError(t, p.DropIndex(ctx))
}

// The cache store runs unchanged on the embedded backend.
func TestStoreOnPebbleBackend(t *testing.T) {
	p := openTestPebble(t)
	prov := testAreas(t)
	ctx := context.Background()

	s := New(p, prov, zap.NewNop().Sugar())
	key := summary.Key("A01", "2330")
	require.NoError(t, s.Mutate(key, func(sum *summary.Summary) error {
		sum.StockID = "2330"
		sum.AreaCenter = "A01"
		sum.MarginAvailableQty = 85
		return nil
	}))
	require.NoError(t, s.Sync(ctx, key))
	require.NoError(t, s.UpdateCompanyRollup(ctx, "2330"))

	// A fresh store over the same database reloads both documents.
	s2 := New(p, prov, zap.NewNop().Sugar())
	require.NoError(t, s2.Init(ctx))
	require.Equal(t, 2, s2.Len())
	got, ok := s2.Get(summary.AllKey("2330"))
	require.True(t, ok)
	require.EqualValues(t, 85, got.MarginAvailableQty)
}

package statesync_test

import (
	"context"
	"testing"

	"github.com/cartgraph/cartgraph/statesync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRootIsAlwaysSelf(t *testing.T) {
	t.Parallel()

	pool := statesync.NewPool(statesync.NewInMemoryBackend(), "")
	loc, err := pool.Resolve(context.Background(), "vm", "vm1", statesync.RootState, "w1", "/w1", nil)
	require.NoError(t, err)
	assert.Equal(t, statesync.Location{Worker: "w1", Path: "/w1"}, loc)
}

func TestResolvePrefersSelf(t *testing.T) {
	t.Parallel()

	backend := statesync.NewInMemoryBackend()
	ctx := context.Background()
	require.NoError(t, backend.Set(ctx, "vm", "vm1", "install", "/w1", statesync.ModeForceIfMissing))

	pool := statesync.NewPool(backend, "")
	loc, err := pool.Resolve(ctx, "vm", "vm1", "install", "w1", "/w1", []statesync.Location{{Worker: "w2", Path: "/w2"}})
	require.NoError(t, err)
	assert.Equal(t, "w1", loc.Worker)
}

func TestResolveFallsBackToPeerThenPool(t *testing.T) {
	t.Parallel()

	backend := statesync.NewInMemoryBackend()
	ctx := context.Background()
	require.NoError(t, backend.Set(ctx, "vm", "vm1", "install", "/pool", statesync.ModeForceIfMissing))

	pool := statesync.NewPool(backend, "/pool")
	loc, err := pool.Resolve(ctx, "vm", "vm1", "install", "w1", "/w1", []statesync.Location{{Worker: "w2", Path: "/w2"}})
	require.NoError(t, err)
	assert.Equal(t, "pool", loc.Worker)
}

func TestResolveNotAvailable(t *testing.T) {
	t.Parallel()

	pool := statesync.NewPool(statesync.NewInMemoryBackend(), "")
	_, err := pool.Resolve(context.Background(), "vm", "vm1", "install", "w1", "/w1", nil)
	require.Error(t, err)

	var notAvail statesync.NotAvailableError
	require.ErrorAs(t, err, &notAvail)
}

package tree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryNodeStore(t *testing.T) {
	ctx := context.Background()
	ns := NewMemoryNodeStore()
	n := &Node{ID: 7, N: 3, Value: 1.5}
	require.NoError(t, ns.Store(ctx, n))
	got, err := ns.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, n, got)

	require.NoError(t, ns.Delete(ctx, 7))
	got, err = ns.Get(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, got)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = ns.Get(cctx, 7)
	assert.Equal(t, context.Canceled, err)
	assert.NoError(t, ns.Close(ctx))
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	ns := NewMemoryNodeStore()
	tr := carTree(t)
	require.NoError(t, Save(ctx, tr, ns))
	// Nodes below leaves are ignored
	require.NoError(t, ns.Store(ctx, &Node{ID: 6}))

	loaded, err := Load(ctx, ns, price)
	require.NoError(t, err)
	assert.Equal(t, tr.String(), loaded.String())
	assert.Equal(t, MajorityBranch, loaded.Missing)

	require.NoError(t, ns.Delete(ctx, 5))
	_, err = Load(ctx, ns, price)
	assert.Error(t, err)

	_, err = Load(ctx, NewMemoryNodeStore(), price)
	assert.Equal(t, ErrEmptyTree, err)
}

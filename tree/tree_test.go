package tree

import (
	"context"
	"testing"

	"github.com/pbanos/pollard/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	price   = feature.NewContinuousFeature("price")
	mileage = feature.NewContinuousFeature("mileage")
	kind    = feature.NewDiscreteFeature("kind", []string{"Small", "Compact", "Large"})
)

func carNodes() []*Node {
	return []*Node{
		{ID: 1, N: 6, Value: 15, Deviance: 100, Improvement: 68, Rule: feature.NewNumericSplit(mileage, 25)},
		{ID: 3, N: 2, Value: 5, Deviance: 2},
		{ID: 2, N: 4, Value: 20, Deviance: 30, Improvement: 20, Rule: feature.NewCategoricalSplit(kind, []string{"Large"}, []string{"Small", "Compact"})},
		{ID: 4, N: 1, Value: 30, Deviance: 0},
		{ID: 5, N: 3, Value: 16, Deviance: 10},
	}
}

func carTree(t *testing.T) *Tree {
	tr, err := New(price, carNodes())
	require.NoError(t, err)
	return tr
}

func ids(nodes []*Node) []int {
	result := make([]int, len(nodes))
	for i, n := range nodes {
		result[i] = n.ID
	}
	return result
}

func TestNew(t *testing.T) {
	tr := carTree(t)
	assert.Equal(t, []int{1, 2, 4, 5, 3}, ids(tr.Nodes()))
	assert.Equal(t, 5, tr.Len())
	assert.Equal(t, 2, tr.Splits())
	assert.Equal(t, []int{4, 5, 3}, ids(tr.Leaves()))
	assert.Equal(t, 12.0, tr.Deviance())
	assert.Nil(t, tr.Root().Criterion)
	assert.Equal(t, "mileage < 25", tr.Node(2).Criterion.(interface{ String() string }).String())
	assert.Equal(t, "mileage >= 25", tr.Node(3).Criterion.(interface{ String() string }).String())
	assert.Equal(t, "kind in {Small, Compact}", tr.Node(5).Criterion.(interface{ String() string }).String())
	assert.Nil(t, tr.Node(6))

	l, r := tr.Children(tr.Root())
	assert.Equal(t, 2, l.ID)
	assert.Equal(t, 3, r.ID)
	l, r = tr.Children(tr.Node(3))
	assert.Nil(t, l)
	assert.Nil(t, r)
}

func TestNewErrors(t *testing.T) {
	t.Run("no root", func(t *testing.T) {
		_, err := New(price, carNodes()[1:])
		assert.Equal(t, ErrEmptyTree, err)
	})
	t.Run("missing child", func(t *testing.T) {
		nodes := carNodes()
		_, err := New(price, nodes[:len(nodes)-1])
		assert.Error(t, err)
	})
	t.Run("unreachable node", func(t *testing.T) {
		_, err := New(price, append(carNodes(), &Node{ID: 6, N: 1}))
		assert.Error(t, err)
	})
	t.Run("repeated id", func(t *testing.T) {
		_, err := New(price, append(carNodes(), &Node{ID: 3, N: 1}))
		assert.Error(t, err)
	})
}

func TestIDArithmetic(t *testing.T) {
	assert.Equal(t, 10, LeftID(5))
	assert.Equal(t, 11, RightID(5))
	assert.Equal(t, 5, ParentID(11))
	assert.Equal(t, 0, Depth(RootID))
	assert.Equal(t, 1, Depth(3))
	assert.Equal(t, 3, Depth(11))
}

func TestCollapse(t *testing.T) {
	tr := carTree(t)
	collapsed := tr.Collapse(2)
	assert.Equal(t, []int{1, 2, 3}, ids(collapsed.Nodes()))
	assert.True(t, collapsed.Node(2).IsLeaf())
	assert.Zero(t, collapsed.Node(2).Improvement)
	assert.Equal(t, 32.0, collapsed.Deviance())
	assert.Equal(t, 1, collapsed.Splits())
	// The original tree is untouched
	assert.False(t, tr.Node(2).IsLeaf())
	assert.Equal(t, 5, tr.Len())

	stump := tr.Collapse(RootID)
	assert.Equal(t, []int{1}, ids(stump.Nodes()))
	assert.Equal(t, 100.0, stump.Deviance())
}

func TestTraverse(t *testing.T) {
	tr := carTree(t)
	var visited []int
	visit := func(_ context.Context, n *Node) error {
		visited = append(visited, n.ID)
		return nil
	}
	require.NoError(t, tr.Traverse(context.Background(), false, visit))
	assert.Equal(t, []int{1, 2, 4, 5, 3}, visited)

	visited = nil
	require.NoError(t, tr.Traverse(context.Background(), true, visit))
	assert.Equal(t, []int{4, 5, 2, 3, 1}, visited)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, context.Canceled, tr.Traverse(ctx, false, visit))
}

func TestString(t *testing.T) {
	expected := `[1] root n=6 deviance=100 value=15
|__[2] mileage < 25 n=4 deviance=30 value=20
|  |__[4] kind in {Large} n=1 deviance=0 value=30 *
|  |__[5] kind in {Small, Compact} n=3 deviance=10 value=16 *
|__[3] mileage >= 25 n=2 deviance=2 value=5 *
`
	assert.Equal(t, expected, carTree(t).String())
	assert.Equal(t, "", (&Tree{}).String())
}

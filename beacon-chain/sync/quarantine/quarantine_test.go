package quarantine

import (
	"testing"

	"github.com/stretchr/testify/require"

	types "github.com/nodecore-labs/sentinel/beacon-chain/core/types"
)

func root(b byte) types.Root {
	var r types.Root
	r[0] = b
	return r
}

func TestAddAndHas(t *testing.T) {
	q, err := New(10)
	require.NoError(t, err)
	q.Add(root('b'), root('a'), 1, &types.Block{Slot: 1})
	require.True(t, q.Has(root('b')))
	require.Equal(t, 1, q.Len())
}

func TestDrain_ReleasesWaitingChildren(t *testing.T) {
	q, err := New(10)
	require.NoError(t, err)
	q.Add(root('b'), root('a'), 1, &types.Block{Slot: 1})
	q.Add(root('c'), root('a'), 1, &types.Block{Slot: 1})
	q.Add(root('z'), root('x'), 1, &types.Block{Slot: 1})

	released := q.Drain(root('a'))
	require.Len(t, released, 2)
	require.False(t, q.Has(root('b')))
	require.False(t, q.Has(root('c')))
	require.True(t, q.Has(root('z')))
}

func TestDrainAll_Transitive(t *testing.T) {
	q, err := New(10)
	require.NoError(t, err)
	// a known; b waits on a; c waits on b.
	q.Add(root('b'), root('a'), 1, &types.Block{Slot: 1})
	q.Add(root('c'), root('b'), 2, &types.Block{Slot: 2})

	released := q.DrainAll(root('a'))
	require.Len(t, released, 2)
	require.Equal(t, 0, q.Len())
}

func TestBoundedCapacity_EvictsOldest(t *testing.T) {
	q, err := New(2)
	require.NoError(t, err)
	q.Add(root('a'), root('x'), 1, &types.Block{})
	q.Add(root('b'), root('y'), 1, &types.Block{})
	q.Add(root('c'), root('z'), 1, &types.Block{})

	require.Equal(t, 2, q.Len())
	require.False(t, q.Has(root('a')), "oldest entry should have been evicted")
}

func TestMarkUnviable_DropsTransitiveDescendantsSilently(t *testing.T) {
	q, err := New(10)
	require.NoError(t, err)
	q.Add(root('b'), root('a'), 1, &types.Block{})
	q.Add(root('c'), root('b'), 2, &types.Block{})

	q.MarkUnviable(root('a'))
	require.Equal(t, 0, q.Len())
}

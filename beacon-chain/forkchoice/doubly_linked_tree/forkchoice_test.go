package doubly_linked_tree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nodecore-labs/sentinel/beacon-chain/blockchain/dag"
	types "github.com/nodecore-labs/sentinel/beacon-chain/core/types"
)

func root(b byte) types.Root {
	var r types.Root
	r[0] = b
	return r
}

// Builds:
//
//       B -- D (weight 10)
//      /
//  A
//      \
//       C -- E (weight 30)
func buildFork(t *testing.T) *ForkChoice {
	t.Helper()
	ctx := context.Background()
	f := New(Checkpoint{Root: root('a')}, Checkpoint{})
	require.NoError(t, f.ProcessBlock(ctx, root('a'), 0, types.Root{}))
	require.NoError(t, f.ProcessBlock(ctx, root('b'), 1, root('a')))
	require.NoError(t, f.ProcessBlock(ctx, root('c'), 1, root('a')))
	require.NoError(t, f.ProcessBlock(ctx, root('d'), 2, root('b')))
	require.NoError(t, f.ProcessBlock(ctx, root('e'), 2, root('c')))
	return f
}

func TestHead_PicksHeavierBranch(t *testing.T) {
	f := buildFork(t)
	f.ProcessAttestation(0, root('d'), 10)
	f.ProcessAttestation(1, root('e'), 30)

	head, err := f.Head(context.Background())
	require.NoError(t, err)
	require.Equal(t, root('e'), head)
}

func TestHead_TieBreaksOnLargerRoot(t *testing.T) {
	f := buildFork(t)
	f.ProcessAttestation(0, root('d'), 10)
	f.ProcessAttestation(1, root('e'), 10)

	head, err := f.Head(context.Background())
	require.NoError(t, err)
	require.Equal(t, root('e'), head, "c > b lexically so the c branch wins the tie, leading to e")
}

func TestHead_NoVotesReturnsJustifiedLeaf(t *testing.T) {
	f := New(Checkpoint{Root: root('a')}, Checkpoint{})
	require.NoError(t, f.ProcessBlock(context.Background(), root('a'), 0, types.Root{}))
	head, err := f.Head(context.Background())
	require.NoError(t, err)
	require.Equal(t, root('a'), head)
}

func TestLatestVoteSupersedesEarlier(t *testing.T) {
	f := buildFork(t)
	f.ProcessAttestation(0, root('d'), 50)
	// Validator 0 changes its mind; only the latest vote should count.
	f.ProcessAttestation(0, root('e'), 50)
	f.ProcessAttestation(1, root('d'), 1)

	head, err := f.Head(context.Background())
	require.NoError(t, err)
	require.Equal(t, root('e'), head)
}

func TestPruneInvalid_RemovesSubtreeFromForkChoice(t *testing.T) {
	f := buildFork(t)
	require.Equal(t, 5, f.NodeCount())
	require.NoError(t, f.PruneInvalid(context.Background(), root('b')))
	require.Equal(t, 3, f.NodeCount())
}

func TestHead_SkipsInvalidatedBranch(t *testing.T) {
	f := buildFork(t)
	f.ProcessAttestation(0, root('d'), 100)
	f.ProcessAttestation(1, root('e'), 1)
	require.NoError(t, f.SetExecutionStatus(root('b'), dag.ExecutionInvalid))

	head, err := f.Head(context.Background())
	require.NoError(t, err)
	require.Equal(t, root('e'), head)
}

func TestUpdateFinalized_PrunesTree(t *testing.T) {
	f := buildFork(t)
	f.UpdateFinalized(Checkpoint{Root: root('c')})
	require.Equal(t, 2, f.NodeCount())
}

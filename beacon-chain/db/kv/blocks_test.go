package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	types "github.com/nodecore-labs/sentinel/beacon-chain/core/types"
)

// Scenario 2 from §8: block add/get/del.
func TestStore_BlocksCRUD(t *testing.T) {
	db := setupDB(t)
	defer teardownDB(t, db)
	ctx := context.Background()

	block := &types.Block{
		Fork:          types.ForkAltair,
		Slot:          20,
		ProposerIndex: 7,
		ParentRoot:    types.Root{1, 2, 3},
	}
	root := types.Root{0xaa, 0xbb}

	require.False(t, db.HasBlock(ctx, root))
	require.NoError(t, db.SaveBlock(ctx, root, block))
	require.True(t, db.HasBlock(ctx, root))

	got, err := db.Block(ctx, root)
	require.NoError(t, err)
	require.Equal(t, block.Slot, got.Slot)
	require.Equal(t, block.ProposerIndex, got.ProposerIndex)
	require.Equal(t, block.ParentRoot, got.ParentRoot)

	require.NoError(t, db.DeleteBlock(ctx, root))
	require.False(t, db.HasBlock(ctx, root))
	_, err = db.Block(ctx, root)
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestStore_SaveBlock_NoDuplicates(t *testing.T) {
	db := setupDB(t)
	defer teardownDB(t, db)
	ctx := context.Background()

	block := &types.Block{Fork: types.ForkPhase0, Slot: 20, ParentRoot: types.Root{1, 2, 3}}
	root := types.Root{9, 9, 9}
	for i := 0; i < 100; i++ {
		require.NoError(t, db.SaveBlock(ctx, root, block))
	}
	got, err := db.Block(ctx, root)
	require.NoError(t, err)
	require.Equal(t, block.Slot, got.Slot)
}

func TestStore_BlocksAcrossForksDoNotCollide(t *testing.T) {
	db := setupDB(t)
	defer teardownDB(t, db)
	ctx := context.Background()

	phase0Root := types.Root{1}
	bellatrixRoot := types.Root{2}
	require.NoError(t, db.SaveBlock(ctx, phase0Root, &types.Block{Fork: types.ForkPhase0, Slot: 1}))
	require.NoError(t, db.SaveBlock(ctx, bellatrixRoot, &types.Block{Fork: types.ForkBellatrix, Slot: 200000}))

	got, err := db.Block(ctx, bellatrixRoot)
	require.NoError(t, err)
	require.Equal(t, types.ForkBellatrix, got.Fork)
	require.Equal(t, types.Slot(200000), got.Slot)
}

func TestStore_BlockSummaryAndFinalizedIndex(t *testing.T) {
	db := setupDB(t)
	defer teardownDB(t, db)
	ctx := context.Background()

	root := types.Root{5}
	sum := types.BlockSummary{Slot: 42, ParentRoot: types.Root{4}}
	require.NoError(t, db.SaveBlockSummary(ctx, root, sum))
	got, err := db.BlockSummary(ctx, root)
	require.NoError(t, err)
	require.Equal(t, sum, got)

	require.NoError(t, db.SaveFinalizedBlock(ctx, 42, root))
	finalizedRoot, err := db.FinalizedBlockRoot(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, root, finalizedRoot)

	_, err = db.FinalizedBlockRoot(ctx, 43)
	require.ErrorIs(t, err, types.ErrNotFound)
}

package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	types "github.com/nodecore-labs/sentinel/beacon-chain/core/types"
)

func stateWithValidators(n int) *types.BeaconState {
	s := &types.BeaconState{Fork: types.ForkAltair, Slot: 1000}
	for i := 0; i < n; i++ {
		v := &types.Validator{EffectiveBalance: 32000000000}
		v.Pubkey[0] = byte(i)
		v.Pubkey[1] = byte(i >> 8)
		v.WithdrawalCredentials[0] = byte(i)
		s.Validators = append(s.Validators, v)
		s.Balances = append(s.Balances, 32000000000)
	}
	return s
}

// Scenario 3 from §8: state roundtrip with 8,192 validators.
func TestStore_StateRoundtrip(t *testing.T) {
	db := setupDB(t)
	defer teardownDB(t, db)
	ctx := context.Background()

	s := stateWithValidators(8192)
	root := types.Root{0x42}

	require.False(t, db.HasState(ctx, root))
	require.NoError(t, db.SaveState(ctx, root, s))
	require.True(t, db.HasState(ctx, root))

	got, err := db.State(ctx, root)
	require.NoError(t, err)
	require.Equal(t, len(s.Validators), len(got.Validators))
	for i := range s.Validators {
		require.Equal(t, s.Validators[i].Pubkey, got.Validators[i].Pubkey)
		require.Equal(t, s.Validators[i].WithdrawalCredentials, got.Validators[i].WithdrawalCredentials)
		require.Equal(t, s.Validators[i].EffectiveBalance, got.Validators[i].EffectiveBalance)
	}
}

// Resaving a state whose validator set is a prefix of an already-stored
// set must not rewrite the immutable validator rows (§4.2 rationale): we
// assert this indirectly by checking the immutable table size is stable
// across two saves of overlapping validator sets.
func TestStore_SaveState_ImmutableValidatorsAppendOnly(t *testing.T) {
	db := setupDB(t)
	defer teardownDB(t, db)
	ctx := context.Background()

	s1 := stateWithValidators(10)
	require.NoError(t, db.SaveState(ctx, types.Root{1}, s1))
	countAfterFirst, err := db.immutableValidatorCount(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(10), countAfterFirst)

	s2 := stateWithValidators(10)
	s2.Slot = 1001
	require.NoError(t, db.SaveState(ctx, types.Root{2}, s2))
	countAfterSecond, err := db.immutableValidatorCount(ctx)
	require.NoError(t, err)
	require.Equal(t, countAfterFirst, countAfterSecond)
}

func TestStore_StateRoots_ResolveAtMostOne(t *testing.T) {
	db := setupDB(t)
	defer teardownDB(t, db)
	ctx := context.Background()

	blockRoot := types.Root{7}
	stateRoot := types.Root{8}
	require.NoError(t, db.SaveStateRoot(ctx, 5, blockRoot, stateRoot))

	got, err := db.StateRoot(ctx, 5, blockRoot)
	require.NoError(t, err)
	require.Equal(t, stateRoot, got)

	_, err = db.StateRoot(ctx, 6, blockRoot)
	require.ErrorIs(t, err, types.ErrNotFound)
}

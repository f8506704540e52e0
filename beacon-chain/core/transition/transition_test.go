package transition

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/go-bitfield"
	"github.com/stretchr/testify/require"

	types "github.com/nodecore-labs/sentinel/beacon-chain/core/types"
	"github.com/nodecore-labs/sentinel/config/params"
)

func freshState() *types.BeaconState {
	return &types.BeaconState{
		Fork:       types.ForkPhase0,
		Slot:       0,
		StateRoots: make([]types.Root, 8),
		Slashings:  make([]uint64, 8),
		Validators: []*types.Validator{
			{EffectiveBalance: 32000000000, ActivationEpoch: 0, ExitEpoch: types.FarFutureEpoch, WithdrawableEpoch: types.FarFutureEpoch},
		},
		Balances: []uint64{32000000000},
	}
}

func TestProcessSlots_RejectsPastSlot(t *testing.T) {
	cfg := params.MinimalConfig()
	s := freshState()
	s.Slot = 5
	_, err := ProcessSlots(context.Background(), cfg, s, 5)
	require.ErrorIs(t, err, types.ErrSlotInPast)
	_, err = ProcessSlots(context.Background(), cfg, s, 3)
	require.ErrorIs(t, err, types.ErrSlotInPast)
}

func TestProcessSlots_AdvancesAndDoesNotMutateInput(t *testing.T) {
	cfg := params.MinimalConfig()
	s := freshState()
	next, err := ProcessSlots(context.Background(), cfg, s, 10)
	require.NoError(t, err)
	require.Equal(t, types.Slot(10), next.Slot)
	require.Equal(t, types.Slot(0), s.Slot, "input state must not be mutated")
}

func TestProcessBlock_AppliesDeposit(t *testing.T) {
	cfg := params.MinimalConfig()
	s := freshState()
	block := &types.Block{
		Fork: types.ForkPhase0,
		Slot: 1,
		Body: &types.Phase0Body{
			Deposits: []types.Deposit{{
				Data: types.DepositData{Pubkey: [48]byte{9}, Amount: 32000000000},
			}},
		},
	}
	out, err := ProcessBlock(context.Background(), cfg, nil, s, block, SkipVerification)
	require.NoError(t, err)
	require.Len(t, out.Validators, 2)
	require.Equal(t, uint64(32000000000), out.Balances[1])
}

func TestProcessBlock_MixesRandaoReveal(t *testing.T) {
	cfg := params.MinimalConfig()
	s := freshState()
	s.RandaoMixes = make([]types.Root, 8)
	before := s.RandaoMixes[0]

	block := &types.Block{
		Fork: types.ForkPhase0,
		Slot: 1,
		Body: &types.Phase0Body{RandaoReveal: []byte("a signature-shaped reveal")},
	}
	out, err := ProcessBlock(context.Background(), cfg, nil, s, block, SkipVerification)
	require.NoError(t, err)
	require.NotEqual(t, before, out.RandaoMixes[0])
	require.Equal(t, types.Root{}, before, "the mix captured before the block stays zero")
}

func TestProcessBlock_RejectsDoubleSlash(t *testing.T) {
	cfg := params.MinimalConfig()
	s := freshState()
	block := &types.Block{
		Fork: types.ForkPhase0,
		Slot: 1,
		Body: &types.Phase0Body{
			ProposerSlashings: []types.ProposerSlashing{{ProposerIndex: 0}, {ProposerIndex: 0}},
		},
	}
	_, err := ProcessBlock(context.Background(), cfg, nil, s, block, SkipVerification)
	require.ErrorIs(t, err, types.ErrInvalidBlock)
}

func TestProcessBlock_ForkMismatch(t *testing.T) {
	cfg := params.MinimalConfig()
	s := freshState()
	s.Fork = types.ForkAltair
	block := &types.Block{Fork: types.ForkPhase0, Slot: 1, Body: &types.Phase0Body{}}
	_, err := Transition(context.Background(), cfg, nil, s, block, SkipVerification)
	require.ErrorIs(t, err, types.ErrForkMismatch)
}

func TestProcessBlock_AttestationAppendsPendingAttestation(t *testing.T) {
	cfg := params.MinimalConfig()
	s := freshState()
	bits := bitfield.NewBitlist(1)
	bits.SetBitAt(0, true)
	block := &types.Block{
		Fork: types.ForkPhase0,
		Slot: 1,
		Body: &types.Phase0Body{
			Attestations: []types.Attestation{{
				Data:            types.AttestationData{Slot: 0, Target: types.Checkpoint{Epoch: 0}},
				AggregationBits: bits,
			}},
		},
	}
	out, err := ProcessBlock(context.Background(), cfg, nil, s, block, SkipVerification)
	require.NoError(t, err)
	require.Len(t, out.PendingAttestations, 1)
	require.Equal(t, types.Slot(1), out.PendingAttestations[0].InclusionDelay)
}

func TestProcessBlock_RejectsAttestationWithWrongSource(t *testing.T) {
	cfg := params.MinimalConfig()
	s := freshState()
	s.CurrentJustified = types.Checkpoint{Epoch: 0, Root: types.Root{7}}
	block := &types.Block{
		Fork: types.ForkPhase0,
		Slot: 1,
		Body: &types.Phase0Body{
			Attestations: []types.Attestation{{
				Data: types.AttestationData{Slot: 0, Target: types.Checkpoint{Epoch: 0}, Source: types.Checkpoint{Epoch: 0}},
			}},
		},
	}
	_, err := ProcessBlock(context.Background(), cfg, nil, s, block, SkipVerification)
	require.ErrorIs(t, err, types.ErrInvalidBlock)
}

func TestProcessEpoch_JustifiesOnSupermajorityAndFinalizesNext(t *testing.T) {
	cfg := params.MinimalConfig()
	s := freshState()

	bits := bitfield.NewBitlist(1)
	bits.SetBitAt(0, true)
	attestEpoch := func(s *types.BeaconState, slot types.Slot, target types.Checkpoint, source types.Checkpoint) *types.BeaconState {
		block := &types.Block{
			Fork: types.ForkPhase0,
			Slot: slot,
			Body: &types.Phase0Body{
				Attestations: []types.Attestation{{
					Data:            types.AttestationData{Slot: slot - 1, Target: target, Source: source},
					AggregationBits: bits,
				}},
			},
		}
		next, err := Transition(context.Background(), cfg, nil, s, block, SkipVerification)
		require.NoError(t, err)
		return next
	}

	// Epoch 0: a fully-attested block justifies epoch 0 at the epoch-1
	// boundary.
	s = attestEpoch(s, 1, types.Checkpoint{Epoch: 0}, types.Checkpoint{})
	next, err := ProcessSlots(context.Background(), cfg, s, types.Slot(cfg.SlotsPerEpoch))
	require.NoError(t, err)
	require.Equal(t, types.Epoch(0), next.CurrentJustified.Epoch)
	require.Equal(t, byte(1), next.JustificationBits[0])

	// Epoch 1: attesting to epoch 1 with source = the now-justified epoch 0
	// checkpoint finalizes epoch 0 once epoch 1 also justifies.
	next = attestEpoch(next, next.Slot+1, types.Checkpoint{Epoch: 1}, next.CurrentJustified)
	final, err := ProcessSlots(context.Background(), cfg, next, types.Slot(2*cfg.SlotsPerEpoch))
	require.NoError(t, err)
	require.Equal(t, types.Epoch(1), final.CurrentJustified.Epoch)
	require.Equal(t, types.Epoch(0), final.FinalizedCheckpoint.Epoch)
}

func TestAttesterSlashing_SurroundVoteIsSlashable(t *testing.T) {
	inner := types.AttestationData{Source: types.Checkpoint{Epoch: 4}, Target: types.Checkpoint{Epoch: 6}}
	outer := types.AttestationData{Source: types.Checkpoint{Epoch: 3}, Target: types.Checkpoint{Epoch: 7}}
	as := types.AttesterSlashing{
		Attestation1: types.IndexedAttestation{AttestingIndices: []uint64{0}, Data: inner},
		Attestation2: types.IndexedAttestation{AttestingIndices: []uint64{0}, Data: outer},
	}
	require.True(t, isSlashableAttesterSlashing(as))
}

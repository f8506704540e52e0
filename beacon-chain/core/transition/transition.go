// Package transition implements the pure state-transition function
// described in §4.3: (state, block) -> state', plus slot advancement.
package transition

import (
	"context"

	"github.com/pkg/errors"
	sha256 "github.com/minio/sha256-simd"

	types "github.com/nodecore-labs/sentinel/beacon-chain/core/types"
	"github.com/nodecore-labs/sentinel/config/params"
)

// VerifyFlag names how much signature verification a caller asks of
// process_block (§4.3). ProcessBlock accepts it but performs no signature
// verification under any value.
type VerifyFlag uint8

const (
	VerifyAllSignatures VerifyFlag = iota
	VerifyProposerOnly
	SkipVerification
)

// Signer is the subset of the BLS collaborator (§6A) the transition needs:
// verifying an already-aggregated signature against a message and pubkeys.
type Signer interface {
	VerifyAggregate(pubkeys [][48]byte, msg []byte, sig []byte) (bool, error)
}

// Transition applies ProcessSlots up to block.Slot and then ProcessBlock,
// returning a new state and never mutating the input (state.Copy is always
// taken first), matching the "pure function" contract in §4.3.
func Transition(ctx context.Context, cfg *params.BeaconChainConfig, signer Signer, state *types.BeaconState, block *types.Block, flag VerifyFlag) (*types.BeaconState, error) {
	if block.Fork != state.Fork {
		return nil, errors.Wrapf(types.ErrForkMismatch, "state fork %s, block fork %s", state.Fork, block.Fork)
	}
	next, err := ProcessSlots(ctx, cfg, state, block.Slot)
	if err != nil {
		return nil, err
	}
	return ProcessBlock(ctx, cfg, signer, next, block, flag)
}

// ProcessSlots advances state one slot at a time up to (and including)
// targetSlot, applying per-slot housekeeping and the per-epoch transition at
// epoch boundaries. It fails with ErrSlotInPast if targetSlot <= state.Slot
// (§4.3).
func ProcessSlots(ctx context.Context, cfg *params.BeaconChainConfig, state *types.BeaconState, targetSlot types.Slot) (*types.BeaconState, error) {
	if targetSlot <= state.Slot {
		return nil, errors.Wrapf(types.ErrSlotInPast, "target %d <= current %d", targetSlot, state.Slot)
	}
	next := state.Copy()
	for next.Slot < targetSlot {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		processSlot(next)
		next.Slot++
		if isEpochBoundary(cfg, next.Slot) {
			processEpoch(cfg, next)
		}
	}
	return next, nil
}

// processSlot performs per-slot housekeeping: it records the latest block
// header's state root into the state_roots ring buffer at the current
// slot's index. Hash-tree-root itself stays external, so no root is computed
// here, and the block_roots ring buffer is not written.
func processSlot(s *types.BeaconState) {
	if len(s.StateRoots) == 0 {
		return
	}
	idx := uint64(s.Slot) % uint64(len(s.StateRoots))
	s.StateRoots[idx] = s.LatestBlockHeader.StateRoot
}

func isEpochBoundary(cfg *params.BeaconChainConfig, slot types.Slot) bool {
	return uint64(slot)%cfg.SlotsPerEpoch == 0
}

// processEpoch runs the epoch-boundary housekeeping: justification-bit
// rotation, the justification/finalization tally, and zeroing of the
// slashings bucket for the new epoch. Balances, randao mixes and the
// validator registry are not updated here.
func processEpoch(cfg *params.BeaconChainConfig, s *types.BeaconState) {
	rotateJustificationBits(s)
	processJustificationAndFinalization(cfg, s)
	processSlashingsDecay(cfg, s)
}

// processJustificationAndFinalization tallies the attestations accumulated
// in PendingAttestations against the epoch that just closed and updates the
// justified/finalized checkpoints (§4.3, §5 "Casper FFG-style" simplified
// per the single-committee note on PendingAttestation): if the closing
// epoch's attesting balance clears 2/3 of total balance it becomes the new
// CurrentJustified checkpoint, and finalizes the prior CurrentJustified when
// it sits exactly one epoch behind (the two-consecutive-epoch rule). The
// tally is cleared once consumed regardless of outcome.
func processJustificationAndFinalization(cfg *params.BeaconChainConfig, s *types.BeaconState) {
	defer func() { s.PendingAttestations = nil }()

	epoch := types.EpochOf(cfg, s.Slot)
	if epoch == 0 {
		return
	}
	closingEpoch := epoch - 1

	total := uint64(0)
	for _, b := range s.Balances {
		total = types.SaturatingAdd(total, b)
	}
	if total == 0 {
		s.PreviousJustified = s.CurrentJustified
		return
	}

	attesting := uint64(0)
	seen := make(map[uint64]struct{})
	for _, pa := range s.PendingAttestations {
		if pa.Data.Target.Epoch != closingEpoch {
			continue
		}
		for i := uint64(0); i < pa.AggregationBits.Len(); i++ {
			if !pa.AggregationBits.BitAt(i) {
				continue
			}
			if _, ok := seen[i]; ok {
				continue
			}
			seen[i] = struct{}{}
			if int(i) < len(s.Balances) {
				attesting = types.SaturatingAdd(attesting, s.Balances[i])
			}
		}
	}

	s.PreviousJustified = s.CurrentJustified
	if attesting*3 < total*2 {
		return
	}

	root := checkpointRootAt(cfg, s, closingEpoch)
	newJustified := types.Checkpoint{Epoch: closingEpoch, Root: root}
	if closingEpoch == s.CurrentJustified.Epoch+1 {
		s.FinalizedCheckpoint = s.CurrentJustified
	}
	s.CurrentJustified = newJustified
	s.JustificationBits[0] |= 1
}

// checkpointRootAt recovers the block root for the first slot of epoch from
// the block_roots ring buffer, the way the real epoch processing resolves a
// checkpoint's root without a direct epoch->root index.
func checkpointRootAt(cfg *params.BeaconChainConfig, s *types.BeaconState, epoch types.Epoch) types.Root {
	if len(s.BlockRoots) == 0 {
		return types.Root{}
	}
	startSlot := types.StartSlot(cfg, epoch)
	return s.BlockRoots[uint64(startSlot)%uint64(len(s.BlockRoots))]
}

// rotateJustificationBits shifts the 1-byte justification bitfield left by
// one bit at each epoch boundary, the way the real per-epoch justification
// update does before OR-ing in the new bit once votes are tallied
// elsewhere.
func rotateJustificationBits(s *types.BeaconState) {
	s.JustificationBits[0] = s.JustificationBits[0] << 1
}

// processSlashingsDecay ages out the oldest slashings bucket, replacing it
// with zero — mirrors the per-epoch slashings ring-buffer rotation.
func processSlashingsDecay(cfg *params.BeaconChainConfig, s *types.BeaconState) {
	if len(s.Slashings) == 0 {
		return
	}
	idx := (uint64(s.Slot) / cfg.SlotsPerEpoch) % uint64(len(s.Slashings))
	s.Slashings[idx] = 0
}

// ProcessBlock applies the block's operations to state in place (on the
// caller's already-copied state) and returns it. Operation order:
// proposer slashings, attester slashings, attestations, deposits, voluntary
// exits, then the randao mix. Only the phase0 operations are applied; an
// altair/bellatrix body's sync aggregate and execution payload are ignored.
// No signature is verified, whatever flag is passed; signer is not used.
func ProcessBlock(ctx context.Context, cfg *params.BeaconChainConfig, signer Signer, state *types.BeaconState, block *types.Block, flag VerifyFlag) (*types.BeaconState, error) {
	if block.ParentRoot.IsZero() && block.Slot != 0 {
		return nil, errors.Wrap(types.ErrInvalidBlock, "non-genesis block with zero parent root")
	}
	body, err := phase0Body(block)
	if err != nil {
		return nil, err
	}
	if err := processProposerSlashings(state, body.ProposerSlashings); err != nil {
		return nil, errors.Wrap(types.ErrInvalidBlock, err.Error())
	}
	if err := processAttesterSlashings(state, body.AttesterSlashings); err != nil {
		return nil, errors.Wrap(types.ErrInvalidBlock, err.Error())
	}
	if err := processAttestations(cfg, state, block, body.Attestations); err != nil {
		return nil, errors.Wrap(types.ErrInvalidBlock, err.Error())
	}
	if err := processDeposits(cfg, state, body.Deposits); err != nil {
		return nil, errors.Wrap(types.ErrInvalidBlock, err.Error())
	}
	if err := processVoluntaryExits(state, body.VoluntaryExits); err != nil {
		return nil, errors.Wrap(types.ErrInvalidBlock, err.Error())
	}
	mixRandao(cfg, state, body.RandaoReveal)
	state.LatestBlockHeader = types.SignedBeaconBlockHeader{
		Slot:       block.Slot,
		ParentRoot: block.ParentRoot,
		StateRoot:  block.StateRoot,
	}
	state.Slot = block.Slot
	return state, nil
}

// mixRandao folds this block's randao reveal into the current epoch's
// randao mix slot, XOR-ing in an accelerated SHA-256 digest of the reveal
// the way the real per-block randao update does (the reveal's own BLS
// verification stays an external collaborator concern, per §6A).
func mixRandao(cfg *params.BeaconChainConfig, s *types.BeaconState, randaoReveal []byte) {
	if len(s.RandaoMixes) == 0 {
		return
	}
	digest := sha256.Sum256(randaoReveal)
	idx := (uint64(s.Slot) / cfg.SlotsPerEpoch) % uint64(len(s.RandaoMixes))
	mix := s.RandaoMixes[idx]
	for i := range mix {
		mix[i] ^= digest[i]
	}
	s.RandaoMixes[idx] = mix
}

func phase0Body(block *types.Block) (*types.Phase0Body, error) {
	switch b := block.Body.(type) {
	case *types.Phase0Body:
		return b, nil
	case *types.AltairBody:
		return &b.Phase0Body, nil
	case *types.BellatrixBody:
		return &b.Phase0Body, nil
	default:
		return nil, errors.Wrap(types.ErrInvalidBlock, "unrecognized block body variant")
	}
}

func processProposerSlashings(state *types.BeaconState, slashings []types.ProposerSlashing) error {
	for _, ps := range slashings {
		if int(ps.ProposerIndex) >= len(state.Validators) {
			return errors.New("proposer slashing references unknown validator")
		}
		v := state.Validators[ps.ProposerIndex]
		if v.Slashed {
			return errors.New("validator already slashed")
		}
		v.Slashed = true
		v.WithdrawableEpoch = v.ExitEpoch
	}
	return nil
}

func processAttesterSlashings(state *types.BeaconState, slashings []types.AttesterSlashing) error {
	for _, as := range slashings {
		if !isSlashableAttesterSlashing(as) {
			return errors.New("attester slashing data does not conflict")
		}
		intersection := intersectIndices(as.Attestation1.AttestingIndices, as.Attestation2.AttestingIndices)
		for _, idx := range intersection {
			if int(idx) >= len(state.Validators) {
				continue
			}
			v := state.Validators[idx]
			if !v.Slashed {
				v.Slashed = true
				v.WithdrawableEpoch = v.ExitEpoch
			}
		}
	}
	return nil
}

func isSlashableAttesterSlashing(as types.AttesterSlashing) bool {
	d1, d2 := as.Attestation1.Data, as.Attestation2.Data
	doubleVote := d1 != d2 && d1.Target.Epoch == d2.Target.Epoch
	surrounds := (d1.Source.Epoch < d2.Source.Epoch && d2.Target.Epoch < d1.Target.Epoch) ||
		(d2.Source.Epoch < d1.Source.Epoch && d1.Target.Epoch < d2.Target.Epoch)
	return doubleVote || surrounds
}

func intersectIndices(a, b []uint64) []uint64 {
	set := make(map[uint64]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	var out []uint64
	for _, v := range b {
		if _, ok := set[v]; ok {
			out = append(out, v)
		}
	}
	return out
}

// processAttestations checks each attestation's source checkpoint against
// whichever justified checkpoint its target epoch votes for — current epoch
// attestations vote against CurrentJustified, previous-epoch attestations
// against PreviousJustified, anything else is rejected outright — then
// appends the participation bookkeeping the epoch-boundary justification
// tally consumes (§4.3, §4.7).
func processAttestations(cfg *params.BeaconChainConfig, state *types.BeaconState, block *types.Block, atts []types.Attestation) error {
	curEpoch := types.EpochOf(cfg, block.Slot)
	prevEpoch := curEpoch
	if curEpoch > 0 {
		prevEpoch = curEpoch - 1
	}
	for _, att := range atts {
		var want types.Checkpoint
		switch att.Data.Target.Epoch {
		case curEpoch:
			want = state.CurrentJustified
		case prevEpoch:
			want = state.PreviousJustified
		default:
			return errors.New("attestation target epoch outside current or previous epoch")
		}
		if att.Data.Source != want {
			return errors.New("attestation source checkpoint does not match justified checkpoint")
		}
		state.PendingAttestations = append(state.PendingAttestations, types.PendingAttestation{
			Data:            att.Data,
			AggregationBits: att.AggregationBits,
			InclusionDelay:  block.Slot - att.Data.Slot,
			ProposerIndex:   block.ProposerIndex,
		})
	}
	return nil
}

func processDeposits(cfg *params.BeaconChainConfig, state *types.BeaconState, deposits []types.Deposit) error {
	for _, d := range deposits {
		idx := findValidatorIndex(state, d.Data.Pubkey)
		if idx >= 0 {
			state.Balances[idx] = types.SaturatingAdd(state.Balances[idx], d.Data.Amount)
			continue
		}
		state.Validators = append(state.Validators, &types.Validator{
			Pubkey:                d.Data.Pubkey,
			WithdrawalCredentials: d.Data.WithdrawalCredentials,
			EffectiveBalance:      d.Data.Amount,
			ActivationEligibilityEpoch: types.FarFutureEpoch,
			ActivationEpoch:            types.FarFutureEpoch,
			ExitEpoch:                  types.FarFutureEpoch,
			WithdrawableEpoch:          types.FarFutureEpoch,
		})
		state.Balances = append(state.Balances, d.Data.Amount)
	}
	return nil
}

func findValidatorIndex(state *types.BeaconState, pubkey [48]byte) int {
	for i, v := range state.Validators {
		if v.Pubkey == pubkey {
			return i
		}
	}
	return -1
}

func processVoluntaryExits(state *types.BeaconState, exits []types.SignedVoluntaryExit) error {
	for _, e := range exits {
		if int(e.ValidatorIndex) >= len(state.Validators) {
			return errors.New("voluntary exit references unknown validator")
		}
		v := state.Validators[e.ValidatorIndex]
		if v.ExitEpoch != types.FarFutureEpoch {
			return errors.New("validator already exited")
		}
		v.ExitEpoch = e.Epoch
	}
	return nil
}

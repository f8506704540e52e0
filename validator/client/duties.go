// Package client runs the validator duty engine of §4.11: duties are
// fetched per epoch and cached, and each attest/propose/sync-committee flow
// checks the local slashing-protection store before ever calling the
// signer, never after.
package client

import (
	"context"

	"github.com/pkg/errors"

	types "github.com/nodecore-labs/sentinel/beacon-chain/core/types"
	"github.com/nodecore-labs/sentinel/config/params"
	validatordb "github.com/nodecore-labs/sentinel/validator/db"
)

// DutyType distinguishes the three duty kinds a validator can be assigned.
type DutyType uint8

const (
	DutyAttester DutyType = iota
	DutyProposer
	DutySyncCommittee
)

// Duty is one assignment for a validator at a given slot, as returned by the
// DutyFetcher for that slot's epoch (§4.11).
type Duty struct {
	Type           DutyType
	ValidatorIndex uint64
	Pubkey         [48]byte
	Slot           types.Slot
	CommitteeIndex uint64
}

// DutyFetcher retrieves the duty set for an epoch from the beacon node;
// the external collaborator boundary a real deployment crosses over gRPC.
type DutyFetcher interface {
	Duties(ctx context.Context, epoch types.Epoch) ([]Duty, error)
}

// Signer is the subset of the BLS collaborator (§6A) duty flows need.
type Signer interface {
	Sign(ctx context.Context, secretKeyID string, msg []byte) ([]byte, error)
}

// BlockAssembler builds the block body a proposer duty signs over:
// best-cover attestation aggregates plus pending exits/deposits pulled from
// the beacon node's operation pools (§4.11 "Propose"). Kept in-process
// rather than behind an RPC boundary, since this module names no gRPC
// surface (SPEC_FULL.md domain stack).
type BlockAssembler interface {
	AssembleBody(attestationSlot types.Slot, randaoReveal []byte, pendingExits []types.SignedVoluntaryExit, pendingDeposits []types.Deposit) *types.Phase0Body
}

// Runner drives the duty flows for a single slot, fetching an epoch's
// duties on the first request for one of its slots and caching them. The
// next epoch's duties are not fetched ahead of time.
type Runner struct {
	cfg        DutyFetcher
	signer     Signer
	protection *validatordb.Store
	assembler  BlockAssembler

	cache map[types.Epoch][]Duty
}

func NewRunner(fetcher DutyFetcher, signer Signer, protection *validatordb.Store) *Runner {
	return &Runner{cfg: fetcher, signer: signer, protection: protection, cache: make(map[types.Epoch][]Duty)}
}

// SetBlockAssembler wires the block-assembly collaborator used by
// AssembleBlockBody. Left unset, AssembleBlockBody refuses rather than
// silently signing an empty body.
func (r *Runner) SetBlockAssembler(a BlockAssembler) {
	r.assembler = a
}

// DutiesForSlot returns the duties due at slot, fetching (and caching) the
// containing epoch's full duty set the first time any slot of that epoch is
// asked for. The following epoch is not fetched in advance.
func (r *Runner) DutiesForSlot(ctx context.Context, cfg *params.BeaconChainConfig, slot types.Slot) ([]Duty, error) {
	epoch := types.Epoch(uint64(slot) / cfg.SlotsPerEpoch)
	duties, ok := r.cache[epoch]
	if !ok {
		fetched, err := r.cfg.Duties(ctx, epoch)
		if err != nil {
			return nil, err
		}
		r.cache[epoch] = fetched
		duties = fetched
	}
	var out []Duty
	for _, d := range duties {
		if d.Slot == slot {
			out = append(out, d)
		}
	}
	return out, nil
}

// Attest signs an attestation for duty, refusing first if the local
// slashing-protection store would consider (source, target) a double-vote
// or surround-vote (§4.11 — write-before-sign: the protection record is
// durable before Sign is ever called).
func (r *Runner) Attest(ctx context.Context, duty Duty, data types.AttestationData, secretKeyID string, signingRoot []byte) (*types.Attestation, error) {
	if duty.Type != DutyAttester {
		return nil, errors.New("duty is not an attester duty")
	}
	if err := r.protection.CheckAndInsertAttestation(ctx, duty.Pubkey, data.Source.Epoch, data.Target.Epoch); err != nil {
		return nil, err
	}
	sig, err := r.signer.Sign(ctx, secretKeyID, signingRoot)
	if err != nil {
		return nil, err
	}
	return &types.Attestation{Data: data, Signature: sig}, nil
}

// AssembleBlockBody builds the body for duty via the wired BlockAssembler —
// best-cover attestations for the slot behind duty.Slot, plus whatever
// exits and deposits are pending — so a proposer signs a real block rather
// than an already-supplied, empty one. Callers compute the signing root
// over the returned body (hash-tree-root stays an external SSZ collaborator,
// §1) and pass it to Propose.
func (r *Runner) AssembleBlockBody(duty Duty, randaoReveal []byte, pendingExits []types.SignedVoluntaryExit, pendingDeposits []types.Deposit) (*types.Phase0Body, error) {
	if duty.Type != DutyProposer {
		return nil, errors.New("duty is not a proposer duty")
	}
	if r.assembler == nil {
		return nil, errors.New("no block assembler configured")
	}
	attestationSlot := duty.Slot
	if attestationSlot > 0 {
		attestationSlot--
	}
	return r.assembler.AssembleBody(attestationSlot, randaoReveal, pendingExits, pendingDeposits), nil
}

// Propose signs a block for duty, refusing first if the local
// slashing-protection store would consider slot a double-propose (not
// strictly greater than the last slot signed for this pubkey).
func (r *Runner) Propose(ctx context.Context, duty Duty, signingRoot []byte, secretKeyID string) ([]byte, error) {
	if duty.Type != DutyProposer {
		return nil, errors.New("duty is not a proposer duty")
	}
	if err := r.protection.CheckAndInsertBlockProposal(ctx, duty.Pubkey, duty.Slot); err != nil {
		return nil, err
	}
	return r.signer.Sign(ctx, secretKeyID, signingRoot)
}

// SignSyncCommitteeMessage signs a sync-committee message for duty.
// Sync-committee messages vote for the current head at every slot and
// carry no slashing condition of their own, so no protection-store check
// precedes the signature (§4.11 — distinct from attestations and blocks).
func (r *Runner) SignSyncCommitteeMessage(ctx context.Context, duty Duty, signingRoot []byte, secretKeyID string) ([]byte, error) {
	if duty.Type != DutySyncCommittee {
		return nil, errors.New("duty is not a sync-committee duty")
	}
	return r.signer.Sign(ctx, secretKeyID, signingRoot)
}

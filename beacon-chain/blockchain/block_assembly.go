package blockchain

import (
	types "github.com/nodecore-labs/sentinel/beacon-chain/core/types"
)

// AttestationSource is the subset of operations/attestations/kv.Pool block
// assembly needs: best-cover aggregate selection for one committee (§4.7).
type AttestationSource interface {
	BestCover(slot types.Slot, committeeIndex uint64, max int) []*types.Attestation
}

// MaxAttestationsPerCommittee bounds how many best-cover aggregates a single
// committee may contribute to one block body.
const MaxAttestationsPerCommittee = 4

// Assembler builds the block body a proposer duty signs over (§4.11
// "Propose": assemble from the attestation pool, voluntary exits, deposits,
// then sign). It is the one block-building step this module keeps
// in-process rather than behind an RPC boundary, since no gRPC surface is
// named for this module (SPEC_FULL.md domain stack).
type Assembler struct {
	pool           AttestationSource
	committeeCount uint64
}

// NewAssembler builds an Assembler that pulls best-cover aggregates from
// pool across committeeCount committees per slot.
func NewAssembler(pool AttestationSource, committeeCount uint64) *Assembler {
	if committeeCount == 0 {
		committeeCount = 1
	}
	return &Assembler{pool: pool, committeeCount: committeeCount}
}

// AssembleBody collects best-cover attestations for attestationSlot (one
// slot behind the block being proposed, per the inclusion-delay convention
// in §4.3) across every committee, together with whatever exits and
// deposits the caller has queued, into a ready-to-sign phase0 body.
func (a *Assembler) AssembleBody(attestationSlot types.Slot, randaoReveal []byte, pendingExits []types.SignedVoluntaryExit, pendingDeposits []types.Deposit) *types.Phase0Body {
	var atts []types.Attestation
	for ci := uint64(0); ci < a.committeeCount; ci++ {
		for _, agg := range a.pool.BestCover(attestationSlot, ci, MaxAttestationsPerCommittee) {
			atts = append(atts, *agg)
		}
	}
	return &types.Phase0Body{
		RandaoReveal:   randaoReveal,
		Attestations:   atts,
		VoluntaryExits: pendingExits,
		Deposits:       pendingDeposits,
	}
}

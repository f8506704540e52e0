package types

import "github.com/prysmaticlabs/go-bitfield"

// Validator is append-mostly: Pubkey and WithdrawalCredentials never change
// after creation, everything else (balance-adjacent flags, exit epochs) can.
// The split storage layout in db/kv relies on this: immutable fields live in
// a separate append-only table (see db/kv/validators.go).
type Validator struct {
	Pubkey                     [48]byte
	WithdrawalCredentials      [32]byte
	EffectiveBalance           uint64
	Slashed                    bool
	ActivationEligibilityEpoch Epoch
	ActivationEpoch            Epoch
	ExitEpoch                  Epoch
	WithdrawableEpoch          Epoch
}

// ImmutableFields extracts the part of Validator the immutable_validators
// table stores positionally.
func (v *Validator) ImmutableFields() (pubkey [48]byte, withdrawalCreds [32]byte) {
	return v.Pubkey, v.WithdrawalCredentials
}

// BeaconState is a forked, large structured record. Per-fork extras
// (SyncCommittees, LatestExecutionPayloadHeader) are nil unless Fork selects
// them, matching the tagged-variant design note: an altair accessor on a
// phase0 state is a programmer error, caught by the fork-gated accessors
// below rather than a nil-pointer panic deep in caller code.
type BeaconState struct {
	Fork Fork

	Slot        Slot
	GenesisTime uint64

	LatestBlockHeader SignedBeaconBlockHeader
	BlockRoots        []Root
	StateRoots        []Root
	HistoricalRoots    []Root

	Eth1DataVotes []Root
	Eth1Deposit   uint64

	Validators []*Validator
	Balances   []uint64

	RandaoMixes []Root
	Slashings   []uint64

	JustificationBits   [1]byte
	PreviousJustified   Checkpoint
	CurrentJustified    Checkpoint
	FinalizedCheckpoint Checkpoint

	// PendingAttestations accumulates this epoch's processed attestations
	// for the justification/finalization tally at the next epoch boundary
	// (§4.3); cleared once processEpoch consumes them.
	PendingAttestations []PendingAttestation

	// Altair+.
	CurrentSyncCommittee  *SyncCommittee
	NextSyncCommittee     *SyncCommittee

	// Bellatrix+.
	LatestExecutionPayloadHeader any
}

// PendingAttestation records one processed attestation's vote and
// participation bits, the phase0-style bookkeeping process_attestations
// appends to state ahead of the epoch-boundary justification tally. Bit i
// of AggregationBits is read as validator index i directly: this module
// does not implement committee shuffling, so there is exactly one
// "committee" spanning every validator (see DESIGN.md).
type PendingAttestation struct {
	Data            AttestationData
	AggregationBits bitfield.Bitlist
	InclusionDelay  Slot
	ProposerIndex   uint64
}

// SyncCommittee is the altair+ sync-committee roster.
type SyncCommittee struct {
	Pubkeys [][48]byte
}

// Copy performs a deep-enough copy for speculative state transitions: the
// validator and balance slices are cloned, each Validator record included
// (mutated in place during block processing), nested pointers for sync
// committees are shared since they are only ever replaced wholesale, never
// mutated in place.
func (s *BeaconState) Copy() *BeaconState {
	cp := *s
	cp.Validators = make([]*Validator, len(s.Validators))
	for i, v := range s.Validators {
		if v != nil {
			vc := *v
			cp.Validators[i] = &vc
		}
	}
	cp.Balances = append([]uint64(nil), s.Balances...)
	cp.BlockRoots = append([]Root(nil), s.BlockRoots...)
	cp.StateRoots = append([]Root(nil), s.StateRoots...)
	cp.RandaoMixes = append([]Root(nil), s.RandaoMixes...)
	cp.Slashings = append([]uint64(nil), s.Slashings...)
	cp.PendingAttestations = append([]PendingAttestation(nil), s.PendingAttestations...)
	return &cp
}

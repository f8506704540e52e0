package types

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/go-bitfield"
)

// Fork tags the variant a Block or BeaconState body belongs to. Fork
// transitions are explicit constructor functions (see UpgradeToAltair,
// UpgradeToBellatrix), never implicit upcasts; mixing forks at an API
// boundary is caught here as ErrForkMismatch rather than by silent coercion.
type Fork uint8

const (
	ForkPhase0 Fork = iota
	ForkAltair
	ForkBellatrix
)

func (f Fork) String() string {
	switch f {
	case ForkPhase0:
		return "phase0"
	case ForkAltair:
		return "altair"
	case ForkBellatrix:
		return "bellatrix"
	default:
		return "unknown"
	}
}

// ErrForkMismatch is returned when a caller mixes fork-tagged bodies that
// belong to different Fork variants across one API boundary.
var ErrForkMismatch = errors.New("fork mismatch")

// Root is a content-addressing digest (hash-tree-root of some structure).
// Hash-tree-root computation itself is an external SSZ collaborator (§1);
// this module only carries the resulting 32-byte value around.
type Root [32]byte

// IsZero reports whether r is the zero root, used to recognize genesis'
// absent parent.
func (r Root) IsZero() bool { return r == Root{} }

// Checkpoint names an epoch boundary block by root, used for the justified
// and finalized checkpoints.
type Checkpoint struct {
	Epoch Epoch
	Root  Root
}

// Block is a forked beacon block. Body is one of *Phase0Body, *AltairBody,
// or *BellatrixBody, discriminated by Fork. A Block is Trusted once its
// signatures have been verified by the BLS collaborator; re-verification is
// never required afterward.
type Block struct {
	Fork          Fork
	Slot          Slot
	ProposerIndex uint64
	ParentRoot    Root
	StateRoot     Root
	Body          any
	Trusted       bool
}

// Phase0Body holds the operations common to every fork.
type Phase0Body struct {
	RandaoReveal      []byte
	Eth1DataVoteRoot  Root
	Graffiti          [32]byte
	ProposerSlashings []ProposerSlashing
	AttesterSlashings []AttesterSlashing
	Attestations      []Attestation
	Deposits          []Deposit
	VoluntaryExits    []SignedVoluntaryExit
}

// AltairBody adds the sync aggregate introduced at the altair fork.
type AltairBody struct {
	Phase0Body
	SyncAggregateBits []byte
	SyncAggregateSig  []byte
}

// BellatrixBody adds the execution payload introduced at the bellatrix
// fork. Payload is an opaque handle to the execution-layer collaborator
// (ExecutionEngine interface, §6A) — this module never parses it.
type BellatrixBody struct {
	AltairBody
	ExecutionPayload any
}

// ProposerSlashing, AttesterSlashing, Attestation, Deposit and
// SignedVoluntaryExit are block operations; bodies carry signatures
// verified by the external BLS collaborator and are otherwise opaque here
// except for the fields the state transition and attestation pool read.
type ProposerSlashing struct {
	ProposerIndex uint64
	Header1, Header2 SignedBeaconBlockHeader
}

type SignedBeaconBlockHeader struct {
	Slot       Slot
	ParentRoot Root
	StateRoot  Root
	BodyRoot   Root
	Signature  []byte
}

type AttesterSlashing struct {
	Attestation1, Attestation2 IndexedAttestation
}

type IndexedAttestation struct {
	AttestingIndices []uint64
	Data             AttestationData
	Signature        []byte
}

// AttestationData identifies the slot, committee, head vote, and
// source/target checkpoints an attestation signs over.
type AttestationData struct {
	Slot            Slot
	CommitteeIndex  uint64
	BeaconBlockRoot Root
	Source, Target  Checkpoint
}

// Attestation is a committee member's (or aggregate's) signed vote.
// AggregationBits is a bitlist over the committee, one bit per member.
type Attestation struct {
	AggregationBits bitfield.Bitlist
	Data            AttestationData
	Signature       []byte
}

type Deposit struct {
	Proof [][]byte
	Data  DepositData
}

type DepositData struct {
	Pubkey                [48]byte
	WithdrawalCredentials [32]byte
	Amount                uint64
	Signature             []byte
}

type SignedVoluntaryExit struct {
	Epoch          Epoch
	ValidatorIndex uint64
	Signature      []byte
}

// UpgradeToAltair constructs an AltairBody from a completed Phase0Body; this
// is the only sanctioned way to move a block body across the phase0/altair
// boundary.
func UpgradeToAltair(b Phase0Body) AltairBody {
	return AltairBody{Phase0Body: b}
}

// UpgradeToBellatrix constructs a BellatrixBody from a completed AltairBody.
func UpgradeToBellatrix(b AltairBody, payload any) BellatrixBody {
	return BellatrixBody{AltairBody: b, ExecutionPayload: payload}
}

// BlockSummary is the minimum needed to reconstruct the DAG at startup
// without loading full bodies: {slot, parent_root}.
type BlockSummary struct {
	Slot       Slot
	ParentRoot Root
}

// BlockSummaryEntry pairs a BlockSummary with the root it was stored under,
// the shape a full database scan yields for DAG reconstruction.
type BlockSummaryEntry struct {
	Root       Root
	Slot       Slot
	ParentRoot Root
}

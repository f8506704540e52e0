// Package iface defines the Database contract every consensus-core package
// depends on, so that beacon-chain/db/kv stays swappable behind an
// interface the way the teacher's db/iface package does.
package iface

import (
	"context"

	types "github.com/nodecore-labs/sentinel/beacon-chain/core/types"
)

// Database is the crash-consistent store described in §4.2. All mutating
// methods either are individually atomic or are called from within
// WithManyWrites to get one enclosing transaction.
type Database interface {
	// Blocks.
	SaveBlock(ctx context.Context, root types.Root, block *types.Block) error
	Block(ctx context.Context, root types.Root) (*types.Block, error)
	HasBlock(ctx context.Context, root types.Root) bool
	DeleteBlock(ctx context.Context, root types.Root) error

	// Summaries — {slot, parent_root}, a superset of the finalized index.
	SaveBlockSummary(ctx context.Context, root types.Root, s types.BlockSummary) error
	BlockSummary(ctx context.Context, root types.Root) (types.BlockSummary, error)

	// Finalized blocks — dense slot -> root index.
	SaveFinalizedBlock(ctx context.Context, slot types.Slot, root types.Root) error
	FinalizedBlockRoot(ctx context.Context, slot types.Slot) (types.Root, error)

	// States, split into the mutable record and the immutable validator
	// table per §4.2's storage rationale.
	SaveState(ctx context.Context, stateRoot types.Root, state *types.BeaconState) error
	State(ctx context.Context, stateRoot types.Root) (*types.BeaconState, error)
	HasState(ctx context.Context, stateRoot types.Root) bool

	// State roots — (slot_be || block_root) -> state_root.
	SaveStateRoot(ctx context.Context, slot types.Slot, blockRoot types.Root, stateRoot types.Root) error
	StateRoot(ctx context.Context, slot types.Slot, blockRoot types.Root) (types.Root, error)

	// State diffs — state_root -> diff against the prior epoch-boundary state.
	SaveStateDiff(ctx context.Context, stateRoot types.Root, diff []byte) error
	StateDiff(ctx context.Context, stateRoot types.Root) ([]byte, error)

	// Fixed key_values pointers.
	SaveHeadBlockRoot(ctx context.Context, root types.Root) error
	HeadBlockRoot(ctx context.Context) (types.Root, error)
	SaveTailBlockRoot(ctx context.Context, root types.Root) error
	TailBlockRoot(ctx context.Context) (types.Root, error)
	SaveGenesisBlockRoot(ctx context.Context, root types.Root) error
	GenesisBlockRoot(ctx context.Context) (types.Root, error)
	SaveFinalizedCheckpoint(ctx context.Context, cp types.Checkpoint) error
	FinalizedCheckpoint(ctx context.Context) (types.Checkpoint, error)

	// WithManyWrites runs body inside a single transaction: a
	// non-panicking, nil-returning body commits; any error or panic rolls
	// back the whole transaction.
	WithManyWrites(ctx context.Context, body func(ctx context.Context) error) error

	// SchemaVersion reports the on-disk schema version pointer used to
	// decide whether a migration is due.
	SchemaVersion(ctx context.Context) (uint64, error)

	Close() error
}

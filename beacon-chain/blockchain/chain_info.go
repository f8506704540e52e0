// Package blockchain exposes a read-only facade over the block DAG and
// fork choice store, so the wire protocol's status handshake (C9) and the
// validator duty engine (C11) never have to reach into DAG/ForkChoice
// internals directly.
package blockchain

import (
	"context"

	types "github.com/nodecore-labs/sentinel/beacon-chain/core/types"
)

// ForkChoicer is the subset of forkchoice.ForkChoice this facade reads.
type ForkChoicer interface {
	Head(ctx context.Context) (types.Root, error)
}

// DAGReader is the subset of dag.DAG this facade reads.
type DAGReader interface {
	Has(root types.Root) bool
	IsAncestorOf(ancestor, descendant types.Root) bool
}

// Database is the subset of iface.Database this facade reads.
type Database interface {
	BlockSummary(ctx context.Context, root types.Root) (types.BlockSummary, error)
	FinalizedCheckpoint(ctx context.Context) (types.Checkpoint, error)
	GenesisBlockRoot(ctx context.Context) (types.Root, error)
}

// ChainInfo answers read-only questions about canonical chain state for
// callers that should not depend on C4/C5 concrete types.
type ChainInfo struct {
	dag        DAGReader
	forkChoice ForkChoicer
	db         Database
}

func NewChainInfo(dag DAGReader, forkChoice ForkChoicer, db Database) *ChainInfo {
	return &ChainInfo{dag: dag, forkChoice: forkChoice, db: db}
}

// HeadRoot returns the current fork-choice head.
func (c *ChainInfo) HeadRoot(ctx context.Context) (types.Root, error) {
	return c.forkChoice.Head(ctx)
}

// HeadSlot returns the slot of the current fork-choice head.
func (c *ChainInfo) HeadSlot(ctx context.Context) (types.Slot, error) {
	root, err := c.forkChoice.Head(ctx)
	if err != nil {
		return 0, err
	}
	summary, err := c.db.BlockSummary(ctx, root)
	if err != nil {
		return 0, err
	}
	return summary.Slot, nil
}

// FinalizedCheckpt returns the most recently finalized checkpoint.
func (c *ChainInfo) FinalizedCheckpt(ctx context.Context) (types.Checkpoint, error) {
	return c.db.FinalizedCheckpoint(ctx)
}

// IsCanonical reports whether root is an ancestor of (or equal to) the
// current head — the definition of "canonical" this facade exposes.
func (c *ChainInfo) IsCanonical(ctx context.Context, root types.Root) (bool, error) {
	if !c.dag.Has(root) {
		return false, nil
	}
	head, err := c.forkChoice.Head(ctx)
	if err != nil {
		return false, err
	}
	if root == head {
		return true, nil
	}
	return c.dag.IsAncestorOf(root, head), nil
}

// GenesisRoot returns the genesis block root.
func (c *ChainInfo) GenesisRoot(ctx context.Context) (types.Root, error) {
	return c.db.GenesisBlockRoot(ctx)
}

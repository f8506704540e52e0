// Package dag maintains the in-memory block tree described in §4.4: every
// known, non-finalized block as a node linked to its parent, first child and
// next sibling, rebuildable from the block-summary index on startup.
package dag

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	types "github.com/nodecore-labs/sentinel/beacon-chain/core/types"
)

// ExecutionStatus is the tri-state optimistic-sync flag from the
// SPEC_FULL.md §4A supplement: a block's execution payload may not yet be
// verified by the execution engine, may have been confirmed VALID, or may
// have been reported INVALID by the engine after the fact.
type ExecutionStatus uint8

const (
	ExecutionUnknown ExecutionStatus = iota
	ExecutionValid
	ExecutionInvalid
)

// Ref is one node of the block tree.
type Ref struct {
	Root           types.Root
	Slot           types.Slot
	Parent         *Ref
	FirstChild     *Ref
	NextSibling    *Ref
	ExecutionState ExecutionStatus
}

// DAG indexes Refs by root and tracks the set of leaves (heads).
type DAG struct {
	mu    sync.RWMutex
	nodes map[types.Root]*Ref

	// unviable holds every root pruned off by PruneFinalized (blocks whose
	// ancestry diverged from the finalized chain, §4.4) or removed by
	// PruneInvalid. A later add_block
	// for one of these roots, or for a block claiming one as its parent,
	// returns ErrUnviable instead of hanging in quarantine as a permanently
	// missing parent.
	unviable map[types.Root]struct{}
}

func New() *DAG {
	return &DAG{nodes: make(map[types.Root]*Ref), unviable: make(map[types.Root]struct{})}
}

// AddBlock inserts a new node linked under parentRoot. The genesis block
// (zero parent root) is the only node allowed without a known parent.
// Returns ErrDuplicate if root is already known, ErrUnviable if root or its
// claimed parent was pruned off at finalization, ErrMissingParent if the
// parent is simply not known yet (§4.4).
func (d *DAG) AddBlock(ctx context.Context, root types.Root, slot types.Slot, parentRoot types.Root) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.nodes[root]; ok {
		return errors.Wrapf(types.ErrDuplicate, "root %x", root)
	}
	if _, ok := d.unviable[root]; ok {
		return errors.Wrapf(types.ErrUnviable, "root %x", root)
	}

	n := &Ref{Root: root, Slot: slot}
	if parentRoot.IsZero() {
		d.nodes[root] = n
		return nil
	}
	parent, ok := d.nodes[parentRoot]
	if !ok {
		if _, bad := d.unviable[parentRoot]; bad {
			d.unviable[root] = struct{}{}
			return errors.Wrapf(types.ErrUnviable, "root %x parent %x diverges from the finalized chain", root, parentRoot)
		}
		return errors.Wrapf(types.ErrMissingParent, "root %x parent %x", root, parentRoot)
	}
	n.Parent = parent
	n.NextSibling = parent.FirstChild
	parent.FirstChild = n
	d.nodes[root] = n
	return nil
}

// Has reports whether root is a known node.
func (d *DAG) Has(root types.Root) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.nodes[root]
	return ok
}

// SetExecutionStatus records the execution-engine verdict for root; fork
// choice skips a child whose status is ExecutionInvalid when picking a head.
func (d *DAG) SetExecutionStatus(root types.Root, status ExecutionStatus) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.nodes[root]
	if !ok {
		return types.ErrNotFound
	}
	n.ExecutionState = status
	return nil
}

// GetAncestorAtSlot walks up from root to the highest ancestor (inclusive)
// whose slot is <= target, the way §4.4's get_ancestor_at_slot does.
func (d *DAG) GetAncestorAtSlot(root types.Root, target types.Slot) (types.Root, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.nodes[root]
	if !ok {
		return types.Root{}, types.ErrNotFound
	}
	for n != nil && n.Slot > target {
		n = n.Parent
	}
	if n == nil {
		return types.Root{}, types.ErrNotFound
	}
	return n.Root, nil
}

// IsAncestorOf reports whether ancestor is an ancestor of (or equal to)
// descendant.
func (d *DAG) IsAncestorOf(ancestor, descendant types.Root) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.nodes[descendant]
	if !ok {
		return false
	}
	for n != nil {
		if n.Root == ancestor {
			return true
		}
		n = n.Parent
	}
	return false
}

// Heads returns every leaf node (no children): the set of chain tips a fork
// choice run picks among.
func (d *DAG) Heads() []types.Root {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var heads []types.Root
	for root, n := range d.nodes {
		if n.FirstChild == nil {
			heads = append(heads, root)
		}
	}
	return heads
}

// ChildrenOf returns the direct children of root.
func (d *DAG) ChildrenOf(root types.Root) []types.Root {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.nodes[root]
	if !ok {
		return nil
	}
	var out []types.Root
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c.Root)
	}
	return out
}

// ExecutionStatusOf returns root's recorded execution status, or
// ExecutionUnknown if root isn't tracked.
func (d *DAG) ExecutionStatusOf(root types.Root) ExecutionStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.nodes[root]
	if !ok {
		return ExecutionUnknown
	}
	return n.ExecutionState
}

// NodeCount returns the number of tracked nodes, mirroring the teacher's
// NodeNumber() used to assert prune results in tests.
func (d *DAG) NodeCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.nodes)
}

// PruneInvalid removes root and every descendant of root from the tree,
// unlinking root from its parent's child list. This implements the
// mark-unviable behavior for a block the execution engine reports INVALID.
func (d *DAG) PruneInvalid(ctx context.Context, root types.Root) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.nodes[root]
	if !ok {
		return types.ErrNotFound
	}
	if n.Parent != nil {
		unlinkSibling(n.Parent, root)
	}
	d.removeSubtree(n)
	return nil
}

func unlinkSibling(parent *Ref, root types.Root) {
	if parent.FirstChild == nil {
		return
	}
	if parent.FirstChild.Root == root {
		parent.FirstChild = parent.FirstChild.NextSibling
		return
	}
	prev := parent.FirstChild
	for cur := prev.NextSibling; cur != nil; cur = cur.NextSibling {
		if cur.Root == root {
			prev.NextSibling = cur.NextSibling
			return
		}
		prev = cur
	}
}

func (d *DAG) removeSubtree(n *Ref) {
	delete(d.nodes, n.Root)
	d.unviable[n.Root] = struct{}{}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		d.removeSubtree(c)
		c = next
	}
}

// PruneFinalized drops every node that is not finalizedRoot or a descendant
// of it, the way an in-memory-only fork-choice tree trims history once a
// checkpoint finalizes (§4.4 "prune_to").
func (d *DAG) PruneFinalized(finalizedRoot types.Root) {
	d.mu.Lock()
	defer d.mu.Unlock()
	kept := make(map[types.Root]*Ref, len(d.nodes))
	var mark func(n *Ref)
	mark = func(n *Ref) {
		kept[n.Root] = n
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			mark(c)
		}
	}
	if root, ok := d.nodes[finalizedRoot]; ok {
		root.Parent = nil
		mark(root)
	}
	for root := range d.nodes {
		if _, keptOk := kept[root]; !keptOk {
			d.unviable[root] = struct{}{}
		}
	}
	d.nodes = kept
}

// RebuildFromSummaries reconstructs the tree from the (root, slot,
// parentRoot) triples a database scan over block summaries yields at
// startup (§4.4). Entries are retried in subsequent passes until no more
// progress can be made, so callers may supply them in any order.
func RebuildFromSummaries(ctx context.Context, entries []types.BlockSummaryEntry) (*DAG, error) {
	d := New()
	pending := entries
	for len(pending) > 0 {
		var next []types.BlockSummaryEntry
		progressed := false
		for _, e := range pending {
			if err := d.AddBlock(ctx, e.Root, e.Slot, e.ParentRoot); err != nil {
				if errors.Is(err, types.ErrMissingParent) {
					next = append(next, e)
					continue
				}
				return nil, err
			}
			progressed = true
		}
		if !progressed {
			return nil, errors.Wrap(types.ErrMissingParent, "orphaned summaries cannot be linked to any root")
		}
		pending = next
	}
	return d, nil
}

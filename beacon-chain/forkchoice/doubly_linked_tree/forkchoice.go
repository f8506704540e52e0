// Package doubly_linked_tree implements the weighted-vote, LMD-GHOST-style
// fork choice of §4.5 directly over the blockchain/dag tree: attester
// weight accumulates per root and head selection walks from the justified
// root down through the heaviest child at each step, tie-broken by larger
// root (§4.5).
package doubly_linked_tree

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/nodecore-labs/sentinel/beacon-chain/blockchain/dag"
	types "github.com/nodecore-labs/sentinel/beacon-chain/core/types"
)

// ForkChoice tracks the block tree plus the weighted votes and checkpoints
// needed to pick a head. It holds no state that cannot be rebuilt from the
// database, per §4.5's "in-memory only" design note.
type ForkChoice struct {
	mu sync.RWMutex

	tree *dag.DAG

	// votes maps validator index to the root it last voted for; only the
	// latest vote per validator counts (LMD).
	votes map[uint64]types.Root
	// balances is the effective balance used to weight each validator's
	// vote, indexed by validator index.
	balances []uint64

	justified Checkpoint
	finalized Checkpoint
}

// Checkpoint pairs an epoch with the root finalized/justified at it.
type Checkpoint = types.Checkpoint

func New(justified, finalized Checkpoint) *ForkChoice {
	return &ForkChoice{
		tree:      dag.New(),
		votes:     make(map[uint64]types.Root),
		justified: justified,
		finalized: finalized,
	}
}

// ProcessBlock registers a new block in the tree. Mirrors dag.AddBlock but
// is the fork-choice-facing entry point so callers need not import dag
// directly.
func (f *ForkChoice) ProcessBlock(ctx context.Context, root types.Root, slot types.Slot, parentRoot types.Root) error {
	return f.tree.AddBlock(ctx, root, slot, parentRoot)
}

// ProcessAttestation records validatorIndex's vote for beaconBlockRoot,
// weighted by the validator's effective balance. Only the most recent vote
// per validator is kept (§4.5 LMD semantics); an older vote is silently
// replaced.
func (f *ForkChoice) ProcessAttestation(validatorIndex uint64, beaconBlockRoot types.Root, effectiveBalance uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.votes[validatorIndex] = beaconBlockRoot
	for uint64(len(f.balances)) <= validatorIndex {
		f.balances = append(f.balances, 0)
	}
	f.balances[validatorIndex] = effectiveBalance
}

// SetExecutionStatus forwards to the tree; see dag.ExecutionStatus.
func (f *ForkChoice) SetExecutionStatus(root types.Root, status dag.ExecutionStatus) error {
	return f.tree.SetExecutionStatus(root, status)
}

// PruneInvalid marks root (and descendants) unviable, per §4.5's
// mark_unviable behavior triggered by an execution-engine INVALID verdict.
func (f *ForkChoice) PruneInvalid(ctx context.Context, root types.Root) error {
	return f.tree.PruneInvalid(ctx, root)
}

// UpdateJustified sets the justified checkpoint used as the fork-choice
// search root.
func (f *ForkChoice) UpdateJustified(cp Checkpoint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.justified = cp
}

// UpdateFinalized sets the finalized checkpoint and prunes the tree to it,
// per §4.5's prune-on-finalize behavior.
func (f *ForkChoice) UpdateFinalized(cp Checkpoint) {
	f.mu.Lock()
	f.finalized = cp
	f.mu.Unlock()
	f.tree.PruneFinalized(cp.Root)
}

// weight returns the accumulated vote weight for root: the sum of every
// validator balance whose latest vote is for root or a descendant of root.
func (f *ForkChoice) weight(root types.Root) uint64 {
	var total uint64
	for idx, voted := range f.votes {
		if voted == root || f.tree.IsAncestorOf(root, voted) {
			if idx < uint64(len(f.balances)) {
				total += f.balances[idx]
			}
		}
	}
	return total
}

// Head runs LMD-GHOST from the justified root: at each node, descend into
// the child with the greatest accumulated weight, breaking ties by larger
// root value (§4.5), until a leaf is reached.
func (f *ForkChoice) Head(ctx context.Context) (types.Root, error) {
	if err := ctx.Err(); err != nil {
		return types.Root{}, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.tree.Has(f.justified.Root) {
		return types.Root{}, errors.Wrap(types.ErrNotFound, "justified root not in tree")
	}
	current := f.justified.Root
	for {
		children := f.tree.ChildrenOf(current)
		children = viableOnly(f.tree, children)
		if len(children) == 0 {
			return current, nil
		}
		best := children[0]
		bestWeight := f.weight(best)
		for _, c := range children[1:] {
			w := f.weight(c)
			if w > bestWeight || (w == bestWeight && greaterRoot(c, best)) {
				best, bestWeight = c, w
			}
		}
		current = best
	}
}

func viableOnly(tree *dag.DAG, roots []types.Root) []types.Root {
	out := roots[:0]
	for _, r := range roots {
		if tree.ExecutionStatusOf(r) != dag.ExecutionInvalid {
			out = append(out, r)
		}
	}
	return out
}

func greaterRoot(a, b types.Root) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] > b[i]
		}
	}
	return false
}

// NodeCount exposes the underlying tree size, used by tests to assert
// pruning results the way the teacher's store.NodeNumber() does.
func (f *ForkChoice) NodeCount() int {
	return f.tree.NodeCount()
}

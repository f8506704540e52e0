// Package quarantine holds orphan blocks — blocks received whose parent is
// not yet known — in a bounded LRU cache until the parent arrives, per
// §4.6. Draining releases every block whose parent has just become known,
// transitively.
package quarantine

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"

	types "github.com/nodecore-labs/sentinel/beacon-chain/core/types"
)

// DefaultCapacity bounds the number of orphans held at once (§4.6: bounded,
// to cap memory under a gossip flood of blocks with unknown parents).
const DefaultCapacity = 256

// Entry is a quarantined block awaiting its parent.
type Entry struct {
	Root       types.Root
	ParentRoot types.Root
	Slot       types.Slot
	Block      *types.Block
}

// Quarantine indexes orphans both by their own root and by the parent root
// they are waiting on, so Drain(parentRoot) is O(children of parentRoot)
// rather than a full scan.
type Quarantine struct {
	mu   sync.Mutex
	byRoot   *lru.Cache
	byParent map[types.Root]map[types.Root]struct{}
}

func New(capacity int) (*Quarantine, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	q := &Quarantine{byParent: make(map[types.Root]map[types.Root]struct{})}
	cache, err := lru.NewWithEvict(capacity, q.onEvict)
	if err != nil {
		return nil, err
	}
	q.byRoot = cache
	return q, nil
}

// onEvict keeps the byParent index consistent when the LRU evicts an entry
// to make room for a newer one.
func (q *Quarantine) onEvict(key, value interface{}) {
	e := value.(Entry)
	q.unindexParent(e)
}

func (q *Quarantine) unindexParent(e Entry) {
	set, ok := q.byParent[e.ParentRoot]
	if !ok {
		return
	}
	delete(set, e.Root)
	if len(set) == 0 {
		delete(q.byParent, e.ParentRoot)
	}
}

// Add quarantines a block whose parent is not yet known.
func (q *Quarantine) Add(root, parentRoot types.Root, slot types.Slot, block *types.Block) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.byRoot.Add(root, Entry{Root: root, ParentRoot: parentRoot, Slot: slot, Block: block})
	set, ok := q.byParent[parentRoot]
	if !ok {
		set = make(map[types.Root]struct{})
		q.byParent[parentRoot] = set
	}
	set[root] = struct{}{}
}

// Has reports whether root is currently quarantined.
func (q *Quarantine) Has(root types.Root) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.byRoot.Contains(root)
}

// Len returns the number of quarantined entries.
func (q *Quarantine) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.byRoot.Len()
}

// Drain releases every orphan directly waiting on parentRoot, removing them
// from quarantine and returning them for the caller to re-attempt
// processing. The caller is responsible for recursively calling Drain on
// each released root, since releasing a block can itself unblock further
// descendants.
func (q *Quarantine) Drain(parentRoot types.Root) []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	set, ok := q.byParent[parentRoot]
	if !ok {
		return nil
	}
	out := make([]Entry, 0, len(set))
	for root := range set {
		if v, ok := q.byRoot.Peek(root); ok {
			out = append(out, v.(Entry))
			q.byRoot.Remove(root)
		}
	}
	delete(q.byParent, parentRoot)
	return out
}

// DrainAll transitively releases parentRoot's descendants: every orphan
// directly waiting on parentRoot, then every orphan waiting on those, and
// so on, in breadth-first order.
func (q *Quarantine) DrainAll(parentRoot types.Root) []Entry {
	var all []Entry
	frontier := []types.Root{parentRoot}
	for len(frontier) > 0 {
		var next []types.Root
		for _, r := range frontier {
			released := q.Drain(r)
			all = append(all, released...)
			for _, e := range released {
				next = append(next, e.Root)
			}
		}
		frontier = next
	}
	return all
}

// MarkUnviable removes root and, transitively, every orphan still waiting
// on it, without returning them to the caller for reprocessing — the
// quarantine-side half of §4.5's mark_unviable propagation.
func (q *Quarantine) MarkUnviable(root types.Root) {
	q.mu.Lock()
	q.byRoot.Remove(root) // onEvict drops it from the byParent index too
	q.mu.Unlock()
	frontier := []types.Root{root}
	for len(frontier) > 0 {
		var next []types.Root
		for _, r := range frontier {
			for _, e := range q.Drain(r) {
				next = append(next, e.Root)
			}
		}
		frontier = next
	}
}

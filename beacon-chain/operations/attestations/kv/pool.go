// Package kv implements the attestation pool of §4.7: attestations are
// bucketed by (slot, committee_index), aggregated over disjoint
// participation bitfields using prysmaticlabs/go-bitfield, and the
// best-cover subset is selected for block building.
package kv

import (
	"sort"
	"sync"

	"github.com/prysmaticlabs/go-bitfield"

	types "github.com/nodecore-labs/sentinel/beacon-chain/core/types"
)

type bucketKey struct {
	slot           types.Slot
	committeeIndex uint64
}

// Pool holds unaggregated and aggregated attestations, bucketed by
// (slot, committee_index).
type Pool struct {
	mu           sync.Mutex
	unaggregated map[bucketKey][]*types.Attestation
	aggregated   map[bucketKey][]*types.Attestation
}

func NewPool() *Pool {
	return &Pool{
		unaggregated: make(map[bucketKey][]*types.Attestation),
		aggregated:   make(map[bucketKey][]*types.Attestation),
	}
}

func keyOf(data types.AttestationData) bucketKey {
	return bucketKey{slot: data.Slot, committeeIndex: data.CommitteeIndex}
}

// SaveUnaggregated adds att to its (slot, committee_index) bucket. Exact
// duplicates (identical data and bitfield) are dropped, keeping the
// operation idempotent.
func (p *Pool) SaveUnaggregated(att *types.Attestation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	k := keyOf(att.Data)
	for _, existing := range p.unaggregated[k] {
		if existing.Data == att.Data && bitsEqual(existing.AggregationBits, att.AggregationBits) {
			return
		}
	}
	p.unaggregated[k] = append(p.unaggregated[k], att)
}

// SaveAggregated adds a pre-aggregated attestation directly, e.g. one
// received over gossip rather than built locally.
func (p *Pool) SaveAggregated(att *types.Attestation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	k := keyOf(att.Data)
	for _, existing := range p.aggregated[k] {
		if existing.Data == att.Data && bitsEqual(existing.AggregationBits, att.AggregationBits) {
			return
		}
	}
	p.aggregated[k] = append(p.aggregated[k], att)
}

// UnaggregatedAttestations returns every attestation still awaiting
// aggregation, across all buckets.
func (p *Pool) UnaggregatedAttestations() []*types.Attestation {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*types.Attestation
	for _, bucket := range p.unaggregated {
		out = append(out, bucket...)
	}
	return out
}

// AggregatedAttestations returns every aggregated attestation across all
// buckets.
func (p *Pool) AggregatedAttestations() []*types.Attestation {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*types.Attestation
	for _, bucket := range p.aggregated {
		out = append(out, bucket...)
	}
	return out
}

func bitsEqual(a, b bitfield.Bitlist) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := uint64(0); i < a.Len(); i++ {
		if a.BitAt(i) != b.BitAt(i) {
			return false
		}
	}
	return true
}

// AggregateAttestations greedily merges, within each (slot, committee)
// bucket, every maximal set of pairwise-disjoint unaggregated attestations
// that share identical AttestationData into a single aggregate whose
// AggregationBits is the OR of the merged set (§4.7). Consumed attestations
// are removed from the unaggregated bucket; the merged result is moved into
// the aggregated bucket.
func (p *Pool) AggregateAttestations() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for k, atts := range p.unaggregated {
		byData := make(map[types.AttestationData][]*types.Attestation)
		var order []types.AttestationData
		for _, a := range atts {
			if _, ok := byData[a.Data]; !ok {
				order = append(order, a.Data)
			}
			byData[a.Data] = append(byData[a.Data], a)
		}
		for _, data := range order {
			group := byData[data]
			merged := aggregateDisjoint(group)
			p.aggregated[k] = append(p.aggregated[k], merged...)
		}
		delete(p.unaggregated, k)
	}
}

// aggregateDisjoint greedily combines attestations with non-overlapping
// bitfields, widest-first, into the fewest possible aggregates.
func aggregateDisjoint(atts []*types.Attestation) []*types.Attestation {
	sort.SliceStable(atts, func(i, j int) bool {
		return atts[i].AggregationBits.Count() > atts[j].AggregationBits.Count()
	})
	var merged []*types.Attestation
	used := make([]bool, len(atts))
	for i := range atts {
		if used[i] {
			continue
		}
		acc := &types.Attestation{
			AggregationBits: atts[i].AggregationBits,
			Data:            atts[i].Data,
			Signature:       atts[i].Signature,
		}
		used[i] = true
		for j := i + 1; j < len(atts); j++ {
			if used[j] {
				continue
			}
			if acc.AggregationBits.Overlaps(atts[j].AggregationBits) {
				continue
			}
			acc.AggregationBits = acc.AggregationBits.Or(atts[j].AggregationBits)
			used[j] = true
		}
		merged = append(merged, acc)
	}
	return merged
}

// BestCover selects, for a single (slot, committee_index) bucket, the
// smallest subset of aggregated attestations that covers as many
// participants as possible without double-counting an overlapping bit
// twice — the selection a block proposer runs to pick which aggregates to
// include (§4.7).
func (p *Pool) BestCover(slot types.Slot, committeeIndex uint64, max int) []*types.Attestation {
	p.mu.Lock()
	defer p.mu.Unlock()
	bucket := append([]*types.Attestation(nil), p.aggregated[bucketKey{slot, committeeIndex}]...)
	sort.SliceStable(bucket, func(i, j int) bool {
		return bucket[i].AggregationBits.Count() > bucket[j].AggregationBits.Count()
	})

	var covered bitfield.Bitlist
	var selected []*types.Attestation
	for _, a := range bucket {
		if len(selected) >= max {
			break
		}
		if covered != nil && covered.Overlaps(a.AggregationBits) {
			continue
		}
		selected = append(selected, a)
		if covered == nil {
			covered = a.AggregationBits
			continue
		}
		covered = covered.Or(a.AggregationBits)
	}
	return selected
}

// Package scorers computes each sub-score the peer pool's composite score
// is built from (§4.8): bad responses, block-providing usefulness, and
// gossip behavior. Service.Score combines them with fixed weights.
package scorers

import (
	"sync"

	"github.com/libp2p/go-libp2p-core/peer"
)

const (
	badResponsesWeight   = -5.0
	blockProviderWeight  = 1.0
	gossipWeight         = 1.0
	maxBadResponses      = 5
	badResponseDecayStep = 1
)

// BadResponsesScorer counts protocol-level misbehavior (malformed
// responses, invalid blocks) per peer, decaying the count periodically so a
// peer can recover.
type BadResponsesScorer struct {
	mu     sync.Mutex
	counts map[peer.ID]int
}

func NewBadResponsesScorer() *BadResponsesScorer {
	return &BadResponsesScorer{counts: make(map[peer.ID]int)}
}

// Increment records one more bad response from id.
func (b *BadResponsesScorer) Increment(id peer.ID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.counts[id] < maxBadResponses {
		b.counts[id]++
	}
}

// Decay reduces every tracked peer's count by one, never below zero.
func (b *BadResponsesScorer) Decay() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, c := range b.counts {
		if c <= badResponseDecayStep {
			delete(b.counts, id)
			continue
		}
		b.counts[id] = c - badResponseDecayStep
	}
}

// IsBad reports whether id has hit the maximum tolerated bad responses.
func (b *BadResponsesScorer) IsBad(id peer.ID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts[id] >= maxBadResponses
}

func (b *BadResponsesScorer) score(id peer.ID) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return float64(b.counts[id]) / maxBadResponses
}

// BlockProviderScorer rewards peers that have supplied useful (new,
// previously unseen) blocks over sync.
type BlockProviderScorer struct {
	mu       sync.Mutex
	provided map[peer.ID]int
}

func NewBlockProviderScorer() *BlockProviderScorer {
	return &BlockProviderScorer{provided: make(map[peer.ID]int)}
}

// IncrementProcessed records n newly-processed blocks credited to id.
func (bp *BlockProviderScorer) IncrementProcessed(id peer.ID, n int) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	bp.provided[id] += n
}

func (bp *BlockProviderScorer) score(id peer.ID) float64 {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	n := bp.provided[id]
	if n > 100 {
		n = 100
	}
	return float64(n) / 100
}

// GossipScorer tracks a libp2p-pubsub-derived topic score per peer,
// recomputed by the pubsub router itself; this scorer just holds the last
// value it was told.
type GossipScorer struct {
	mu     sync.Mutex
	scores map[peer.ID]float64
}

func NewGossipScorer() *GossipScorer {
	return &GossipScorer{scores: make(map[peer.ID]float64)}
}

// SetScore records pubsub's latest per-peer gossip score.
func (g *GossipScorer) SetScore(id peer.ID, score float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scores[id] = score
}

func (g *GossipScorer) score(id peer.ID) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.scores[id]
}

// Service composes the individual scorers into one weighted score, the
// value that drives connection-manager trimming decisions (§4.8).
type Service struct {
	BadResponses  *BadResponsesScorer
	BlockProvider *BlockProviderScorer
	Gossip        *GossipScorer
}

func NewService() *Service {
	return &Service{
		BadResponses:  NewBadResponsesScorer(),
		BlockProvider: NewBlockProviderScorer(),
		Gossip:        NewGossipScorer(),
	}
}

// Score returns id's composite score: a weighted sum of bad-responses
// (penalty), block-provider usefulness (reward), and gossip behavior
// (reward).
func (s *Service) Score(id peer.ID) float64 {
	return badResponsesWeight*s.BadResponses.score(id) +
		blockProviderWeight*s.BlockProvider.score(id) +
		gossipWeight*s.Gossip.score(id)
}

// IsBad reports whether id should be disconnected outright regardless of
// its composite score.
func (s *Service) IsBad(id peer.ID) bool {
	return s.BadResponses.IsBad(id)
}

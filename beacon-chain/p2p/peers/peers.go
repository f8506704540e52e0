// Package peers implements the peer pool of §4.8: per-peer connection
// state, score, throughput, and a request quota, plus a reason-scoped
// blacklist with per-reason TTLs. The seen table does not survive restart
// (§9 open question, resolved in DESIGN.md).
package peers

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/kevinms/leakybucket-go"
	"github.com/libp2p/go-libp2p-core/peer"
	"github.com/patrickmn/go-cache"
	"github.com/paulbellamy/ratecounter"
	"github.com/pkg/errors"
)

// ConnectionState mirrors libp2p's network.Connectedness lifecycle plus the
// two transitional states this pool tracks explicitly.
type ConnectionState uint8

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateDisconnecting
)

// Direction records which side dialed.
type Direction uint8

const (
	DirectionUnknown Direction = iota
	DirectionInbound
	DirectionOutbound
)

// BanReason scopes a blacklist entry's TTL (§4.8) and doubles as the
// disconnect reason's on-wire byte code (§6): an irrelevant-network peer is
// banned far longer than a transient fault.
type BanReason uint8

const (
	ReasonClientShutdown    BanReason = 1
	ReasonIrrelevantNetwork BanReason = 2
	ReasonFault             BanReason = 3
	ReasonLowScore          BanReason = 237
)

var banTTL = map[BanReason]time.Duration{
	ReasonClientShutdown:    10 * time.Minute,
	ReasonIrrelevantNetwork: 24 * time.Hour,
	ReasonFault:             10 * time.Minute,
	ReasonLowScore:          60 * time.Minute,
}

const (
	quotaRatePerSecond = 50
	quotaCapacity      = 500
	throughputWindow   = 10 * time.Second
	seenCacheSize      = 1 << 16
)

type record struct {
	id              peer.ID
	direction       Direction
	state           ConnectionState
	score           float64
	lastRequestTime time.Time
	throughput      *ratecounter.RateCounter
}

// Status is the peer pool: connection lifecycle, scoring, quota, and
// blacklist, keyed by peer ID.
type Status struct {
	mu        sync.RWMutex
	peers     map[peer.ID]*record
	quota     *leakybucket.Collector
	blacklist *cache.Cache
	seen      *lru.Cache
}

func New() (*Status, error) {
	seen, err := lru.New(seenCacheSize)
	if err != nil {
		return nil, err
	}
	return &Status{
		peers:     make(map[peer.ID]*record),
		quota:     leakybucket.NewCollector(quotaRatePerSecond, quotaCapacity, true),
		blacklist: cache.New(cache.NoExpiration, time.Minute),
		seen:      seen,
	}, nil
}

// Add registers a peer first seen with the given direction, defaulting to
// StateConnecting.
func (s *Status) Add(id peer.ID, direction Direction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.peers[id]; ok {
		return
	}
	s.peers[id] = &record{
		id:         id,
		direction:  direction,
		state:      StateConnecting,
		throughput: ratecounter.NewRateCounter(throughputWindow),
	}
}

// SetConnectionState transitions a known peer's connection state.
func (s *Status) SetConnectionState(id peer.ID, state ConnectionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.peers[id]
	if !ok {
		return errors.Errorf("unknown peer %s", id)
	}
	r.state = state
	return nil
}

// ConnectionState returns a peer's last known connection state.
func (s *Status) ConnectionState(id peer.ID) (ConnectionState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.peers[id]
	if !ok {
		return StateDisconnected, false
	}
	return r.state, true
}

// IsBad reports whether id is currently blacklisted under any reason.
func (s *Status) IsBad(id peer.ID) bool {
	_, found := s.blacklist.Get(string(id))
	return found
}

// Ban blacklists id for the duration associated with reason. Re-banning
// under a longer reason extends the existing TTL; a shorter reason never
// shortens an existing ban.
func (s *Status) Ban(id peer.ID, reason BanReason) {
	ttl := banTTL[reason]
	if existing, found := s.blacklist.Get(string(id)); found {
		if existingReason := existing.(BanReason); banTTL[existingReason] >= ttl {
			return
		}
	}
	s.blacklist.Set(string(id), reason, ttl)
}

// RecordThroughput adds n bytes to id's rolling throughput window.
func (s *Status) RecordThroughput(id peer.ID, n int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.peers[id]; ok {
		r.throughput.Incr(n)
		r.lastRequestTime = time.Now()
	}
}

// ThroughputRate returns id's rolling average throughput in bytes over the
// tracking window.
func (s *Status) ThroughputRate(id peer.ID) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.peers[id]
	if !ok {
		return 0
	}
	return r.throughput.Rate()
}

// SetScore records id's aggregate score, computed by scorers.Service.
func (s *Status) SetScore(id peer.ID, score float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.peers[id]; ok {
		r.score = score
	}
}

// Score returns id's last recorded score, or 0 for an unknown peer.
func (s *Status) Score(id peer.ID) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.peers[id]; ok {
		return r.score
	}
	return 0
}

// AllowRequest consumes cost units of id's request quota, returning false
// if the peer has exceeded its rate limit and the request should be
// refused (§4.8 request_quota).
func (s *Status) AllowRequest(id peer.ID, cost int64) bool {
	added := s.quota.Add(string(id), cost)
	return added == cost
}

// MarkSeen records a gossip message ID as processed; does not survive
// restart, matching §9.
func (s *Status) MarkSeen(msgID string) bool {
	if s.seen.Contains(msgID) {
		return false
	}
	s.seen.Add(msgID, struct{}{})
	return true
}

// Remove drops all bookkeeping for id, e.g. on final disconnect.
func (s *Status) Remove(id peer.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.peers, id)
}

// Len returns the number of tracked peers.
func (s *Status) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.peers)
}

// Connected returns the IDs of every peer currently in StateConnected.
func (s *Status) Connected() []peer.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []peer.ID
	for id, r := range s.peers {
		if r.state == StateConnected {
			out = append(out, id)
		}
	}
	return out
}

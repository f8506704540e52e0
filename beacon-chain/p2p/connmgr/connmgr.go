// Package connmgr provides the peer connection lifecycle workers described
// in §4.8: a bounded worker pool dials outbound peers, a trimmer
// disconnects the lowest-scored peers once over the high-water mark, and a
// metadata pinger keeps ENR/metadata fresh for connected peers. Each is a
// single call; the package starts no periodic loop of its own.
package connmgr

import (
	"context"
	"sort"
	"time"

	"github.com/libp2p/go-libp2p-core/peer"
	"golang.org/x/sync/errgroup"

	"github.com/nodecore-labs/sentinel/beacon-chain/p2p/peers"
	"github.com/nodecore-labs/sentinel/beacon-chain/p2p/peers/scorers"
)

// Config bounds the connection manager's behavior.
type Config struct {
	LowWaterMark  int
	HighWaterMark int
	TrimInterval  time.Duration
	PingInterval  time.Duration
	DialWorkers   int
}

func DefaultConfig() Config {
	return Config{
		LowWaterMark:  30,
		HighWaterMark: 70,
		TrimInterval:  time.Minute,
		PingInterval:  5 * time.Minute,
		DialWorkers:   4,
	}
}

// Dialer opens an outbound connection to a candidate peer address; a thin
// seam over the libp2p host's Connect so this package stays host-agnostic.
type Dialer interface {
	Dial(ctx context.Context, id peer.ID) error
}

// Pinger refreshes a connected peer's advertised metadata (ENR sequence
// number, subnet bitfields); a thin seam over the metadata wire exchange.
type Pinger interface {
	Ping(ctx context.Context, id peer.ID) error
}

// Manager holds the dial worker pool, trimmer, and pinger (DialBatch, Trim,
// PingAll). It runs no loop itself; TrimInterval and PingInterval are not
// read by this package.
type Manager struct {
	cfg     Config
	status  *peers.Status
	scores  *scorers.Service
	dialer  Dialer
	pinger  Pinger
}

func New(cfg Config, status *peers.Status, scores *scorers.Service, dialer Dialer, pinger Pinger) *Manager {
	return &Manager{cfg: cfg, status: status, scores: scores, dialer: dialer, pinger: pinger}
}

// DialBatch dials every candidate concurrently across cfg.DialWorkers,
// returning the first error encountered (each individual dial failure is
// still attempted; errgroup cancels the group context on the first error
// but does not abort dials already in flight).
func (m *Manager) DialBatch(ctx context.Context, candidates []peer.ID) error {
	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, m.cfg.DialWorkers)
	for _, id := range candidates {
		id := id
		sem <- struct{}{}
		g.Go(func() error {
			defer func() { <-sem }()
			if m.status.IsBad(id) {
				return nil
			}
			m.status.Add(id, peers.DirectionOutbound)
			if err := m.dialer.Dial(gctx, id); err != nil {
				return err
			}
			return m.status.SetConnectionState(id, peers.StateConnected)
		})
	}
	return g.Wait()
}

// Trim disconnects the lowest-scored connected peers until the connected
// count is back at or below HighWaterMark, stopping at LowWaterMark so it
// never overshoots (§4.8).
func (m *Manager) Trim(ctx context.Context, disconnect func(context.Context, peer.ID) error) error {
	connected := m.status.Connected()
	if len(connected) <= m.cfg.HighWaterMark {
		return nil
	}
	sort.Slice(connected, func(i, j int) bool {
		return m.scores.Score(connected[i]) < m.scores.Score(connected[j])
	})
	excess := len(connected) - m.cfg.LowWaterMark
	for i := 0; i < excess && i < len(connected); i++ {
		id := connected[i]
		if err := disconnect(ctx, id); err != nil {
			return err
		}
		if err := m.status.SetConnectionState(id, peers.StateDisconnected); err != nil {
			return err
		}
	}
	return nil
}

// PingAll pings every connected peer concurrently, ignoring individual
// ping failures — a stale peer is caught by the trimmer's scoring, not by
// this loop.
func (m *Manager) PingAll(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	for _, id := range m.status.Connected() {
		id := id
		g.Go(func() error {
			_ = m.pinger.Ping(gctx, id)
			return nil
		})
	}
	_ = g.Wait()
}

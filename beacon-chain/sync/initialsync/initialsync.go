// Package initialsync implements the forward and backward sync managers of
// §4.10: a sliding window of fixed-size chunk requests, a response queue
// that rewinds the window on a gap, and backfill down to genesis or a
// weak-subjectivity checkpoint.
package initialsync

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	types "github.com/nodecore-labs/sentinel/beacon-chain/core/types"
	"github.com/nodecore-labs/sentinel/config/params"
)

// ChunkRequest describes one fixed-size range request a peer should serve.
type ChunkRequest struct {
	StartSlot types.Slot
	Count     uint64
}

// Fetcher issues one ChunkRequest and returns the blocks it yielded,
// ordered by ascending slot. A thin seam over the req/resp wire protocol.
type Fetcher interface {
	FetchRange(ctx context.Context, req ChunkRequest) ([]*types.Block, error)
}

// BackfillStatus records how far backward sync has reached, per the §4A
// supplement: backfill runs down to genesis, or to a configured
// weak-subjectivity checkpoint when one is set.
type BackfillStatus struct {
	LowestSlot types.Slot
	Complete   bool
}

// ForwardSync slides a window of ChunkSize slots from the local head up to
// targetSlot, requesting each chunk in turn and rewinding the window by one
// chunk whenever a response leaves a gap (§4.10).
type ForwardSync struct {
	mu        sync.Mutex
	cfg       *params.BeaconChainConfig
	fetcher   Fetcher
	chunkSize uint64
}

func NewForwardSync(cfg *params.BeaconChainConfig, fetcher Fetcher, chunkSize uint64) *ForwardSync {
	if chunkSize == 0 {
		chunkSize = 64
	}
	return &ForwardSync{cfg: cfg, fetcher: fetcher, chunkSize: chunkSize}
}

// maxConsecutiveRewinds bounds how many times the window will rewind
// without making forward progress before Run gives up; a peer that keeps
// returning the same gap is unresponsive, not worth retrying forever.
const maxConsecutiveRewinds = 5

// Run drives the sliding window from startSlot (exclusive) to targetSlot
// (inclusive), invoking onBlock for every block received in ascending slot
// order. A chunk response whose first block does not continue directly
// from the last accepted slot causes the window to rewind by one chunk and
// retry, rather than accepting a gap.
func (s *ForwardSync) Run(ctx context.Context, startSlot, targetSlot types.Slot, onBlock func(*types.Block) error) error {
	cursor := startSlot
	rewinds := 0
	for cursor < targetSlot {
		if err := ctx.Err(); err != nil {
			return err
		}
		req := ChunkRequest{StartSlot: cursor + 1, Count: s.chunkSize}
		blocks, err := s.fetcher.FetchRange(ctx, req)
		if err != nil {
			return err
		}
		if len(blocks) == 0 {
			return errors.Wrap(types.ErrResourceUnavailable, "empty chunk response")
		}
		if blocks[0].Slot != cursor+1 {
			// Gap at the front of the window: rewind one chunk and retry,
			// rather than silently skipping ahead (§4.10).
			rewinds++
			if rewinds > maxConsecutiveRewinds {
				return errors.Wrap(types.ErrResourceUnavailable, "sync stalled: repeated gap at the same cursor")
			}
			cursor = rewind(cursor, s.chunkSize)
			continue
		}
		rewinds = 0
		last := cursor
		for _, b := range blocks {
			if b.Slot <= last {
				continue
			}
			if err := onBlock(b); err != nil {
				return err
			}
			last = b.Slot
		}
		cursor = last
	}
	return nil
}

func rewind(cursor types.Slot, chunkSize uint64) types.Slot {
	if uint64(cursor) < chunkSize {
		return 0
	}
	return cursor - types.Slot(chunkSize)
}

// BackwardSync walks from the current tail down toward genesis or a
// weak-subjectivity checkpoint, requesting fixed-size chunks in descending
// order (§4.10, §4A backfill supplement).
type BackwardSync struct {
	cfg       *params.BeaconChainConfig
	fetcher   Fetcher
	chunkSize uint64
	floor     types.Slot // weak-subjectivity checkpoint slot, or 0 for genesis.
}

func NewBackwardSync(cfg *params.BeaconChainConfig, fetcher Fetcher, chunkSize uint64, floor types.Slot) *BackwardSync {
	if chunkSize == 0 {
		chunkSize = 64
	}
	return &BackwardSync{cfg: cfg, fetcher: fetcher, chunkSize: chunkSize, floor: floor}
}

// Run backfills from tail down to b.floor, reporting progress through
// status after each chunk.
func (b *BackwardSync) Run(ctx context.Context, tail types.Slot, onBlock func(*types.Block) error) (BackfillStatus, error) {
	cursor := tail
	for cursor > b.floor {
		if err := ctx.Err(); err != nil {
			return BackfillStatus{LowestSlot: cursor}, err
		}
		start := b.floor
		if uint64(cursor-b.floor) > b.chunkSize {
			start = cursor - types.Slot(b.chunkSize)
		}
		req := ChunkRequest{StartSlot: start, Count: uint64(cursor - start)}
		blocks, err := b.fetcher.FetchRange(ctx, req)
		if err != nil {
			return BackfillStatus{LowestSlot: cursor}, err
		}
		if len(blocks) == 0 {
			return BackfillStatus{LowestSlot: cursor}, errors.Wrap(types.ErrResourceUnavailable, "empty backfill chunk")
		}
		for i := len(blocks) - 1; i >= 0; i-- {
			if err := onBlock(blocks[i]); err != nil {
				return BackfillStatus{LowestSlot: cursor}, err
			}
		}
		cursor = start
	}
	return BackfillStatus{LowestSlot: cursor, Complete: true}, nil
}

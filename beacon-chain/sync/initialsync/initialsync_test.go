package initialsync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	types "github.com/nodecore-labs/sentinel/beacon-chain/core/types"
	"github.com/nodecore-labs/sentinel/config/params"
)

type fakeFetcher struct {
	// chunks maps requested start slot to the blocks it returns.
	chunks map[types.Slot][]*types.Block
	// sequence, if set, maps a start slot to a queue of responses popped
	// one per call, so a flaky-then-healthy peer can be simulated.
	sequence map[types.Slot][][]*types.Block
	calls    int
}

func (f *fakeFetcher) FetchRange(ctx context.Context, req ChunkRequest) ([]*types.Block, error) {
	f.calls++
	if q, ok := f.sequence[req.StartSlot]; ok && len(q) > 0 {
		resp := q[0]
		f.sequence[req.StartSlot] = q[1:]
		return resp, nil
	}
	return f.chunks[req.StartSlot], nil
}

func blocksFrom(slots ...types.Slot) []*types.Block {
	var out []*types.Block
	for _, s := range slots {
		out = append(out, &types.Block{Slot: s})
	}
	return out
}

func TestForwardSync_HappyPath(t *testing.T) {
	f := &fakeFetcher{chunks: map[types.Slot][]*types.Block{
		1: blocksFrom(1, 2, 3),
		4: blocksFrom(4, 5),
	}}
	s := NewForwardSync(params.MinimalConfig(), f, 3)

	var received []types.Slot
	err := s.Run(context.Background(), 0, 5, func(b *types.Block) error {
		received = append(received, b.Slot)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []types.Slot{1, 2, 3, 4, 5}, received)
}

func TestForwardSync_GivesUpOnPersistentGap(t *testing.T) {
	// Every request at slot 1 returns a gapped response (first block is
	// slot 2, not 1); the window rewinds and retries but never makes
	// progress, so Run must surface an error rather than loop forever.
	f := &fakeFetcher{chunks: map[types.Slot][]*types.Block{
		1: blocksFrom(2, 3),
	}}
	s := NewForwardSync(params.MinimalConfig(), f, 3)

	err := s.Run(context.Background(), 0, 5, func(b *types.Block) error { return nil })
	require.ErrorIs(t, err, types.ErrResourceUnavailable)
	require.LessOrEqual(t, f.calls, maxConsecutiveRewinds+2)
}

func TestForwardSync_RecoversAfterOneRewind(t *testing.T) {
	// The first request for chunk starting at slot 1 is gapped once (first
	// block is slot 2), so the window rewinds from cursor 0 back to 0 and
	// retries — the second attempt at the same start slot resolves
	// cleanly.
	f := &fakeFetcher{
		sequence: map[types.Slot][][]*types.Block{
			1: {blocksFrom(2, 3), blocksFrom(1, 2, 3)},
		},
	}
	s := NewForwardSync(params.MinimalConfig(), f, 3)

	var received []types.Slot
	err := s.Run(context.Background(), 0, 3, func(b *types.Block) error {
		received = append(received, b.Slot)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []types.Slot{1, 2, 3}, received)
}

func TestBackwardSync_ReachesFloor(t *testing.T) {
	f := &fakeFetcher{chunks: map[types.Slot][]*types.Block{
		7: blocksFrom(7, 8, 9, 10),
		4: blocksFrom(4, 5, 6),
	}}
	s := NewBackwardSync(params.MinimalConfig(), f, 3, 4)

	var received []types.Slot
	status, err := s.Run(context.Background(), 10, func(b *types.Block) error {
		received = append(received, b.Slot)
		return nil
	})
	require.NoError(t, err)
	require.True(t, status.Complete)
	require.Equal(t, types.Slot(4), status.LowestSlot)
	require.Equal(t, []types.Slot{10, 9, 8, 7, 6, 5, 4}, received)
}

func TestBackwardSync_StopsAtWeakSubjectivityFloor(t *testing.T) {
	f := &fakeFetcher{chunks: map[types.Slot][]*types.Block{
		99: blocksFrom(99),
	}}
	s := NewBackwardSync(params.MinimalConfig(), f, 10, 99)
	status, err := s.Run(context.Background(), 100, func(b *types.Block) error { return nil })
	require.NoError(t, err)
	require.Equal(t, types.Slot(99), status.LowestSlot)
}

package kv

import (
	"context"
	"encoding/binary"

	bolt "go.etcd.io/bbolt"

	types "github.com/nodecore-labs/sentinel/beacon-chain/core/types"
)

// SaveBlockSummary writes the {slot, parent_root} pair the DAG rebuild walks
// backward from at startup (§4.2, §4.4).
func (s *Store) SaveBlockSummary(ctx context.Context, root types.Root, sum types.BlockSummary) error {
	val := make([]byte, 8+32)
	binary.BigEndian.PutUint64(val[:8], uint64(sum.Slot))
	copy(val[8:], sum.ParentRoot[:])
	return s.update(ctx, func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSummaries).Put(root[:], val)
	})
}

// BlockSummary reads back a previously saved summary. Readers tolerate a
// summary existing without its full body (§4.2): this method never touches
// the blocks buckets.
func (s *Store) BlockSummary(ctx context.Context, root types.Root) (types.BlockSummary, error) {
	var sum types.BlockSummary
	err := s.view(ctx, func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketSummaries).Get(root[:])
		if raw == nil {
			return types.ErrNotFound
		}
		if len(raw) != 8+32 {
			return types.ErrCorrupted
		}
		sum.Slot = types.Slot(binary.BigEndian.Uint64(raw[:8]))
		sum.ParentRoot = types.RootFromBytes(raw[8:])
		return nil
	})
	return sum, err
}

// SaveFinalizedBlock writes the dense slot -> root index entry (§4.2).
func (s *Store) SaveFinalizedBlock(ctx context.Context, slot types.Slot, root types.Root) error {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(slot))
	return s.update(ctx, func(tx *bolt.Tx) error {
		return tx.Bucket(bucketFinalizedBlocks).Put(key, root[:])
	})
}

// FinalizedBlockRoot reads the finalized index at slot.
func (s *Store) FinalizedBlockRoot(ctx context.Context, slot types.Slot) (types.Root, error) {
	var root types.Root
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(slot))
	err := s.view(ctx, func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketFinalizedBlocks).Get(key)
		if raw == nil {
			return types.ErrNotFound
		}
		root = types.RootFromBytes(raw)
		return nil
	})
	return root, err
}

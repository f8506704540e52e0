package kv

import (
	"context"
	"encoding/binary"

	bolt "go.etcd.io/bbolt"

	types "github.com/nodecore-labs/sentinel/beacon-chain/core/types"
)

// The key_values bucket holds the fixed pointers named in §4.2: head, tail,
// genesis, and the finalized checkpoint.

func (s *Store) SaveHeadBlockRoot(ctx context.Context, root types.Root) error {
	return s.putKeyValue(ctx, keyHeadBlockRoot, root[:])
}

func (s *Store) HeadBlockRoot(ctx context.Context) (types.Root, error) {
	return s.getRootKeyValue(ctx, keyHeadBlockRoot)
}

func (s *Store) SaveTailBlockRoot(ctx context.Context, root types.Root) error {
	return s.putKeyValue(ctx, keyTailBlockRoot, root[:])
}

func (s *Store) TailBlockRoot(ctx context.Context) (types.Root, error) {
	return s.getRootKeyValue(ctx, keyTailBlockRoot)
}

func (s *Store) SaveGenesisBlockRoot(ctx context.Context, root types.Root) error {
	return s.putKeyValue(ctx, keyGenesisBlockRoot, root[:])
}

func (s *Store) GenesisBlockRoot(ctx context.Context) (types.Root, error) {
	return s.getRootKeyValue(ctx, keyGenesisBlockRoot)
}

// SaveFinalizedCheckpoint persists the finalized checkpoint pointer. This is
// the only KV write on the finalization critical path; the block and state
// stores themselves are left in place and pruned separately (§4.4 prune_to).
func (s *Store) SaveFinalizedCheckpoint(ctx context.Context, cp types.Checkpoint) error {
	val := make([]byte, 8+32)
	binary.BigEndian.PutUint64(val[:8], uint64(cp.Epoch))
	copy(val[8:], cp.Root[:])
	return s.putKeyValue(ctx, keyFinalizedCheckpoint, val)
}

func (s *Store) FinalizedCheckpoint(ctx context.Context) (types.Checkpoint, error) {
	var cp types.Checkpoint
	err := s.view(ctx, func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketKeyValues).Get(keyFinalizedCheckpoint)
		if raw == nil {
			return types.ErrNotFound
		}
		if len(raw) != 8+32 {
			return types.ErrCorrupted
		}
		cp.Epoch = types.Epoch(binary.BigEndian.Uint64(raw[:8]))
		copy(cp.Root[:], raw[8:])
		return nil
	})
	return cp, err
}

func (s *Store) putKeyValue(ctx context.Context, key, value []byte) error {
	return s.update(ctx, func(tx *bolt.Tx) error {
		return tx.Bucket(bucketKeyValues).Put(key, value)
	})
}

func (s *Store) getRootKeyValue(ctx context.Context, key []byte) (types.Root, error) {
	var root types.Root
	err := s.view(ctx, func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketKeyValues).Get(key)
		if raw == nil {
			return types.ErrNotFound
		}
		if len(raw) != 32 {
			return types.ErrCorrupted
		}
		copy(root[:], raw)
		return nil
	})
	return root, err
}

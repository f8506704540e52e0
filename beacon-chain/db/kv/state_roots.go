package kv

import (
	"context"
	"encoding/binary"

	bolt "go.etcd.io/bbolt"

	types "github.com/nodecore-labs/sentinel/beacon-chain/core/types"
)

// state_roots keys are (slot_be || block_root) so that a prefix scan over a
// slot range returns state roots in ascending slot order (§4.2).
func stateRootKey(slot types.Slot, blockRoot types.Root) []byte {
	key := make([]byte, 8+32)
	binary.BigEndian.PutUint64(key[:8], uint64(slot))
	copy(key[8:], blockRoot[:])
	return key
}

// SaveStateRoot resolves at most one state root per (slot, block_root)
// pair, matching the invariant in §3.
func (s *Store) SaveStateRoot(ctx context.Context, slot types.Slot, blockRoot types.Root, stateRoot types.Root) error {
	return s.update(ctx, func(tx *bolt.Tx) error {
		return tx.Bucket(bucketStateRoots).Put(stateRootKey(slot, blockRoot), stateRoot[:])
	})
}

func (s *Store) StateRoot(ctx context.Context, slot types.Slot, blockRoot types.Root) (types.Root, error) {
	var root types.Root
	err := s.view(ctx, func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketStateRoots).Get(stateRootKey(slot, blockRoot))
		if raw == nil {
			return types.ErrNotFound
		}
		copy(root[:], raw)
		return nil
	})
	return root, err
}

// SaveStateDiff stores a diff against the prior epoch-boundary state,
// supporting the sparse-state storage strategy described in §3's lifecycle
// note (every epoch boundary stored in full, intervening slots as diffs).
func (s *Store) SaveStateDiff(ctx context.Context, stateRoot types.Root, diff []byte) error {
	return s.update(ctx, func(tx *bolt.Tx) error {
		return tx.Bucket(bucketStateDiffs).Put(stateRoot[:], diff)
	})
}

func (s *Store) StateDiff(ctx context.Context, stateRoot types.Root) ([]byte, error) {
	var out []byte
	err := s.view(ctx, func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketStateDiffs).Get(stateRoot[:])
		if raw == nil {
			return types.ErrNotFound
		}
		out = append([]byte(nil), raw...)
		return nil
	})
	return out, err
}

package kv

import (
	"context"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	types "github.com/nodecore-labs/sentinel/beacon-chain/core/types"
)

// SaveBlock persists a trusted block, compressed per its fork (§4.2). It is
// idempotent: saving the same root twice leaves a single record, matching
// the idempotence testable property in §8.
func (s *Store) SaveBlock(ctx context.Context, root types.Root, block *types.Block) error {
	raw, err := s.codec.MarshalBlock(block)
	if err != nil {
		return errors.Wrap(types.ErrInvalidSszBytes, err.Error())
	}
	compressed := snappyEncode(block.Fork, raw)
	value := append([]byte{byte(block.Fork)}, compressed...)
	return s.update(ctx, func(tx *bolt.Tx) error {
		return tx.Bucket(blockBucketFor(block.Fork)).Put(root[:], value)
	})
}

// Block retrieves and decompresses the block stored at root, scanning the
// per-fork bucket family since a bare root does not name its fork.
// Returns ErrNotFound (never a panic) if absent — NotFound is a normal
// signal per §7.
func (s *Store) Block(ctx context.Context, root types.Root) (*types.Block, error) {
	var out *types.Block
	err := s.view(ctx, func(tx *bolt.Tx) error {
		for _, bucket := range []([]byte){bucketBlocksPhase0, bucketBlocksAltair, bucketBlocksBellatrix} {
			raw := tx.Bucket(bucket).Get(root[:])
			if raw == nil {
				continue
			}
			if len(raw) < 1 {
				return errors.Wrap(types.ErrCorrupted, "empty block record")
			}
			fork := types.Fork(raw[0])
			decompressed, err := snappyDecode(fork, raw[1:])
			if err != nil {
				return errors.Wrap(types.ErrCorrupted, err.Error())
			}
			block, err := s.codec.UnmarshalBlock(fork, decompressed)
			if err != nil {
				return errors.Wrap(types.ErrInvalidSszBytes, err.Error())
			}
			out = block
			return nil
		}
		return types.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// HasBlock reports whether root is stored, without deserializing it.
func (s *Store) HasBlock(ctx context.Context, root types.Root) bool {
	found := false
	_ = s.view(ctx, func(tx *bolt.Tx) error {
		for _, bucket := range []([]byte){bucketBlocksPhase0, bucketBlocksAltair, bucketBlocksBellatrix} {
			if tx.Bucket(bucket).Get(root[:]) != nil {
				found = true
				return nil
			}
		}
		return nil
	})
	return found
}

// DeleteBlock removes root from whichever per-fork bucket holds it.
func (s *Store) DeleteBlock(ctx context.Context, root types.Root) error {
	return s.update(ctx, func(tx *bolt.Tx) error {
		for _, bucket := range []([]byte){bucketBlocksPhase0, bucketBlocksAltair, bucketBlocksBellatrix} {
			if err := tx.Bucket(bucket).Delete(root[:]); err != nil {
				return err
			}
		}
		return nil
	})
}

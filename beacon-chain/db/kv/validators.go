package kv

import (
	"context"

	bolt "go.etcd.io/bbolt"

	types "github.com/nodecore-labs/sentinel/beacon-chain/core/types"
)

// immutable_validators is append-only: (pubkey_uncompressed ||
// withdrawal_credentials) indexed positionally by validator index. A
// validator's pubkey and withdrawal credentials never change once set
// (§4.2 rationale), so this table is written once per index and read many
// times when reconstructing states.

// saveImmutableValidators writes any validator index not already present.
// Existing indices are left untouched — the table is append-only by
// contract, not merely by convention, so a divergent write here would
// indicate a bug upstream rather than a legitimate update.
func (s *Store) saveImmutableValidators(ctx context.Context, validators []*types.Validator) error {
	return s.update(ctx, func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketImmutableVals)
		for i, v := range validators {
			key := uint64ToBytes(uint64(i))
			if b.Get(key) != nil {
				continue
			}
			pubkey, withdrawalCreds := v.ImmutableFields()
			val := make([]byte, 48+32)
			copy(val[:48], pubkey[:])
			copy(val[48:], withdrawalCreds[:])
			if err := b.Put(key, val); err != nil {
				return err
			}
		}
		return nil
	})
}

// immutableValidatorFields reads back validator index i's pubkey and
// withdrawal credentials.
func (s *Store) immutableValidatorFields(ctx context.Context, index uint64) (pubkey [48]byte, withdrawalCreds [32]byte, err error) {
	err = s.view(ctx, func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketImmutableVals).Get(uint64ToBytes(index))
		if raw == nil {
			return types.ErrNotFound
		}
		if len(raw) != 48+32 {
			return types.ErrCorrupted
		}
		copy(pubkey[:], raw[:48])
		copy(withdrawalCreds[:], raw[48:])
		return nil
	})
	return
}

// immutableValidatorCount reports the number of rows in the immutable
// validator table without loading them.
func (s *Store) immutableValidatorCount(ctx context.Context) (uint64, error) {
	var count uint64
	err := s.view(ctx, func(tx *bolt.Tx) error {
		stats := tx.Bucket(bucketImmutableVals).Stats()
		count = uint64(stats.KeyN)
		return nil
	})
	return count, err
}

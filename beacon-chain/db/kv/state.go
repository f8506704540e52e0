package kv

import (
	"context"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	types "github.com/nodecore-labs/sentinel/beacon-chain/core/types"
)

// SaveState splits the state into its immutable validator fields (written
// once, append-only) and the remaining mutable record before persisting,
// per the §4.2 storage rationale: a typical state is >90% validator
// pubkeys, so this split reduces write amplification by roughly two orders
// of magnitude on repeat saves of the same validator set.
func (s *Store) SaveState(ctx context.Context, stateRoot types.Root, state *types.BeaconState) error {
	if err := s.saveImmutableValidators(ctx, state.Validators); err != nil {
		return errors.Wrap(err, "could not save immutable validator fields")
	}

	mutable := state.Copy()
	for _, v := range mutable.Validators {
		v.Pubkey = [48]byte{}
		v.WithdrawalCredentials = [32]byte{}
	}

	raw, err := s.codec.MarshalState(mutable)
	if err != nil {
		return errors.Wrap(types.ErrInvalidSszBytes, err.Error())
	}
	compressed := snappyEncode(state.Fork, raw)
	value := append([]byte{byte(state.Fork)}, compressed...)
	return s.update(ctx, func(tx *bolt.Tx) error {
		return tx.Bucket(bucketStateNoVal).Put(stateRoot[:], value)
	})
}

// State reconstructs a full BeaconState by reading the mutable record and
// re-attaching each validator's immutable fields from the append-only
// table.
func (s *Store) State(ctx context.Context, stateRoot types.Root) (*types.BeaconState, error) {
	var raw []byte
	err := s.view(ctx, func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketStateNoVal).Get(stateRoot[:])
		if v == nil {
			return types.ErrNotFound
		}
		raw = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(raw) < 1 {
		return nil, errors.Wrap(types.ErrCorrupted, "empty state record")
	}
	fork := types.Fork(raw[0])
	decompressed, err := snappyDecode(fork, raw[1:])
	if err != nil {
		return nil, errors.Wrap(types.ErrCorrupted, err.Error())
	}
	state, err := s.codec.UnmarshalState(fork, decompressed)
	if err != nil {
		return nil, errors.Wrap(types.ErrInvalidSszBytes, err.Error())
	}
	for i, v := range state.Validators {
		pubkey, withdrawalCreds, err := s.immutableValidatorFields(ctx, uint64(i))
		if err != nil {
			return nil, errors.Wrapf(err, "could not load immutable fields for validator %d", i)
		}
		v.Pubkey = pubkey
		v.WithdrawalCredentials = withdrawalCreds
	}
	return state, nil
}

// HasState reports whether stateRoot is stored, without full reconstruction.
func (s *Store) HasState(ctx context.Context, stateRoot types.Root) bool {
	found := false
	_ = s.view(ctx, func(tx *bolt.Tx) error {
		found = tx.Bucket(bucketStateNoVal).Get(stateRoot[:]) != nil
		return nil
	})
	return found
}

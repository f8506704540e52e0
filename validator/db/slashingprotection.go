// Package db is the validator client's local slashing-protection store
// (§4.11): a crash-consistent, write-before-sign record of every block and
// attestation this process has signed, used to refuse a double-propose,
// double-vote, or surround-vote before a signature is ever produced.
package db

import (
	"context"
	"encoding/binary"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
	"github.com/pkg/errors"

	types "github.com/nodecore-labs/sentinel/beacon-chain/core/types"
)

const fileName = "validator.db"

var (
	bucketHighestProposals  = []byte("highest-proposals")
	bucketAttestationSource = []byte("attestation-source-epochs")
	bucketAttestationTarget = []byte("attestation-target-epochs")
)

// ErrSlashableProposal is returned when a proposal would be a double- or
// lower-slot propose for a pubkey that has already signed a higher or
// equal slot.
var ErrSlashableProposal = errors.New("slashable proposal: not higher than last signed slot")

// ErrSlashableAttestation is returned when an attestation would be a
// double-vote (same target epoch already signed with a different record)
// or a surround-vote against a previously signed attestation.
var ErrSlashableAttestation = errors.New("slashable attestation: double-vote or surround-vote")

// Store is the bbolt-backed slashing protection database, one row set per
// validating pubkey.
type Store struct {
	db *bolt.DB
}

// Open creates or opens the slashing-protection database under dirPath.
func Open(dirPath string) (*Store, error) {
	db, err := bolt.Open(filepath.Join(dirPath, fileName), 0600, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open validator db")
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketHighestProposals, bucketAttestationSource, bucketAttestationTarget} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// CheckAndInsertBlockProposal durably records slot as signed for pubkey
// before returning success, rejecting the proposal first if slot is not
// strictly greater than the last slot signed for pubkey (§4.11 monotonic
// propose rule). The write happens before the caller is told it may
// proceed to sign, so a crash between this call returning and the actual
// network broadcast never loses the protection record.
func (s *Store) CheckAndInsertBlockProposal(ctx context.Context, pubkey [48]byte, slot types.Slot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketHighestProposals)
		key := pubkey[:]
		existing := b.Get(key)
		if existing != nil {
			last := types.Slot(binary.BigEndian.Uint64(existing))
			if slot <= last {
				return ErrSlashableProposal
			}
		}
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(slot))
		return b.Put(key, buf[:])
	})
}

// CheckAndInsertAttestation durably records (source, target) as signed for
// pubkey before returning success, rejecting the attestation first if it
// would be a double-vote (a different source already signed for the same
// target epoch) or a surround-vote against any previously signed
// attestation (§4.11, same surrounding rule as the state-transition
// attester-slashing check).
func (s *Store) CheckAndInsertAttestation(ctx context.Context, pubkey [48]byte, source, target types.Epoch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		targets := tx.Bucket(bucketAttestationTarget)
		sources := tx.Bucket(bucketAttestationSource)
		key := pubkey[:]

		if existing := targets.Get(attestationKey(key, target)); existing != nil {
			existingSource := types.Epoch(binary.BigEndian.Uint64(existing))
			if existingSource != source {
				return ErrSlashableAttestation
			}
		}

		if surrounds(targets, key, source, target) {
			return ErrSlashableAttestation
		}

		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(source))
		if err := targets.Put(attestationKey(key, target), buf[:]); err != nil {
			return err
		}
		binary.BigEndian.PutUint64(buf[:], uint64(target))
		return sources.Put(attestationKey(key, source), buf[:])
	})
}

func attestationKey(pubkey []byte, epoch types.Epoch) []byte {
	key := make([]byte, len(pubkey)+8)
	copy(key, pubkey)
	binary.BigEndian.PutUint64(key[len(pubkey):], uint64(epoch))
	return key
}

// surrounds scans every attestation previously signed by pubkey (indexed by
// target epoch, which holds exactly one source per target) for a
// surround-vote conflict against the candidate (source, target) pair. The
// per-pubkey attestation history is small (bounded by the number of epochs
// a validator is active), so a linear scan over its bucket keys is
// acceptable.
func surrounds(targets *bolt.Bucket, pubkey []byte, source, target types.Epoch) bool {
	c := targets.Cursor()
	prefix := pubkey
	for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
		existingTarget := types.Epoch(binary.BigEndian.Uint64(k[len(prefix):]))
		existingSource := types.Epoch(binary.BigEndian.Uint64(v))
		if existingSource == source && existingTarget == target {
			continue
		}
		newSurroundsOld := source < existingSource && existingTarget < target
		oldSurroundsNew := existingSource < source && target < existingTarget
		if newSurroundsOld || oldSurroundsNew {
			return true
		}
	}
	return false
}

func hasPrefix(k, prefix []byte) bool {
	if len(k) < len(prefix) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

// AttestationRecord is one previously signed (source, target) pair for a
// single pubkey, as returned by Export.
type AttestationRecord struct {
	Source types.Epoch
	Target types.Epoch
}

// PubkeyRecord is the full protection history for one validating pubkey:
// its highest signed proposal slot (if any) and every attestation signed,
// keyed by target epoch so Export produces one row per target.
type PubkeyRecord struct {
	Pubkey         [48]byte
	HighestSlot    *types.Slot
	Attestations   []AttestationRecord
}

// Export walks the whole protection database and groups every record by
// pubkey, the shape the `record create` CLI verb serializes to disk so an
// operator can migrate or back up a validator's slashing-protection
// history.
func (s *Store) Export(ctx context.Context) ([]PubkeyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	byPubkey := make(map[[48]byte]*PubkeyRecord)
	order := make([][48]byte, 0)

	get := func(pubkey [48]byte) *PubkeyRecord {
		rec, ok := byPubkey[pubkey]
		if !ok {
			rec = &PubkeyRecord{Pubkey: pubkey}
			byPubkey[pubkey] = rec
			order = append(order, pubkey)
		}
		return rec
	}

	err := s.db.View(func(tx *bolt.Tx) error {
		proposals := tx.Bucket(bucketHighestProposals)
		if err := proposals.ForEach(func(k, v []byte) error {
			var pubkey [48]byte
			copy(pubkey[:], k)
			slot := types.Slot(binary.BigEndian.Uint64(v))
			get(pubkey).HighestSlot = &slot
			return nil
		}); err != nil {
			return err
		}

		targets := tx.Bucket(bucketAttestationTarget)
		return targets.ForEach(func(k, v []byte) error {
			var pubkey [48]byte
			copy(pubkey[:], k[:48])
			target := types.Epoch(binary.BigEndian.Uint64(k[48:]))
			source := types.Epoch(binary.BigEndian.Uint64(v))
			rec := get(pubkey)
			rec.Attestations = append(rec.Attestations, AttestationRecord{Source: source, Target: target})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	out := make([]PubkeyRecord, 0, len(order))
	for _, pubkey := range order {
		out = append(out, *byPubkey[pubkey])
	}
	return out, nil
}

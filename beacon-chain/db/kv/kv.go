// Package kv is the bbolt-backed implementation of the Database interface
// described in §4.2: one embedded file holding the logical tables as
// top-level buckets.
package kv

import (
	"context"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prombbolt"
	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	types "github.com/nodecore-labs/sentinel/beacon-chain/core/types"
)

var log = logrus.WithField("prefix", "db")

// Bucket names, one per logical table in §4.2.
var (
	bucketKeyValues        = []byte("key-values")
	bucketBlocksPhase0     = []byte("blocks-phase0")
	bucketBlocksAltair     = []byte("blocks-altair")
	bucketBlocksBellatrix  = []byte("blocks-bellatrix")
	bucketStateNoVal       = []byte("state-no-validators")
	bucketImmutableVals    = []byte("immutable-validators")
	bucketStateRoots       = []byte("state-roots")
	bucketStateDiffs       = []byte("state-diffs")
	bucketSummaries        = []byte("summaries")
	bucketFinalizedBlocks  = []byte("finalized-blocks")
)

var allBuckets = [][]byte{
	bucketKeyValues, bucketBlocksPhase0, bucketBlocksAltair, bucketBlocksBellatrix,
	bucketStateNoVal, bucketImmutableVals, bucketStateRoots, bucketStateDiffs,
	bucketSummaries, bucketFinalizedBlocks,
}

// Fixed key_values keys (§4.2: "fixed pointers").
var (
	keyHeadBlockRoot        = []byte("head-block-root")
	keyTailBlockRoot        = []byte("tail-block-root")
	keyGenesisBlockRoot     = []byte("genesis-block-root")
	keyFinalizedCheckpoint  = []byte("finalized-checkpoint")
	keySchemaVersion        = []byte("schema-version")
)

// CurrentSchemaVersion is bumped whenever the on-disk layout changes. The
// KV-only (pre-split-validator) layout is version 1; the current
// split-validator layout (§4.2 rationale) is version 2. Writes always target
// CurrentSchemaVersion; readers have no version-1 read path.
const CurrentSchemaVersion = 2

// Store is the bbolt-backed Database implementation.
type Store struct {
	db    *bolt.DB
	codec types.SSZCodec
}

// Config controls Store construction.
type Config struct {
	// InitialMMapSize hints bbolt's initial mmap size to avoid repeated
	// remaps on a freshly created file holding many large states.
	InitialMMapSize int
}

// NewKVStore opens (creating if absent) the bbolt file at dirPath/beaconchain.db
// and ensures every logical-table bucket exists.
func NewKVStore(ctx context.Context, dirPath string, codec types.SSZCodec, cfg *Config) (*Store, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	datafile := filepath.Join(dirPath, "beaconchain.db")
	boltDB, err := bolt.Open(datafile, 0600, &bolt.Options{
		Timeout:         1 * time.Second,
		InitialMmapSize: cfg.InitialMMapSize,
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not open bolt db")
	}

	s := &Store{db: boltDB, codec: codec}
	if err := s.db.Update(func(tx *bolt.Tx) error {
		for _, b := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return errors.Wrapf(err, "could not create bucket %s", b)
			}
		}
		kv := tx.Bucket(bucketKeyValues)
		if kv.Get(keySchemaVersion) == nil {
			return kv.Put(keySchemaVersion, uint64ToBytes(CurrentSchemaVersion))
		}
		return nil
	}); err != nil {
		return nil, err
	}

	prombbolt.Describe(boltDB)
	return s, nil
}

// WithManyWrites runs body inside one bbolt read-write transaction. A
// non-panicking, nil-returning body commits; a returned error or a panic
// rolls back the entire transaction (§4.2 contract, §5 ordering guarantee).
func (s *Store) WithManyWrites(ctx context.Context, body func(ctx context.Context) error) (err error) {
	return s.db.Update(func(tx *bolt.Tx) error {
		return body(context.WithValue(ctx, txContextKey{}, tx))
	})
}

type txContextKey struct{}

// txFromContext returns the enclosing transaction set by WithManyWrites, or
// nil if the caller is operating outside one (each method then opens its
// own single-statement transaction).
func txFromContext(ctx context.Context) *bolt.Tx {
	tx, _ := ctx.Value(txContextKey{}).(*bolt.Tx)
	return tx
}

// SchemaVersion reports the on-disk schema version pointer (§4.2).
func (s *Store) SchemaVersion(ctx context.Context) (uint64, error) {
	var v uint64
	err := s.view(ctx, func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketKeyValues).Get(keySchemaVersion)
		if raw == nil {
			return nil
		}
		v = bytesToUint64(raw)
		return nil
	})
	return v, err
}

// Close closes the underlying bbolt file.
func (s *Store) Close() error {
	return s.db.Close()
}

// view runs fn against either the enclosing transaction (if WithManyWrites
// is active on ctx) or a fresh read-only transaction.
func (s *Store) view(ctx context.Context, fn func(tx *bolt.Tx) error) error {
	if tx := txFromContext(ctx); tx != nil {
		return fn(tx)
	}
	return s.db.View(fn)
}

// update runs fn against either the enclosing transaction or a fresh
// read-write transaction.
func (s *Store) update(ctx context.Context, fn func(tx *bolt.Tx) error) error {
	if tx := txFromContext(ctx); tx != nil {
		return fn(tx)
	}
	return s.db.Update(fn)
}

func uint64ToBytes(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[7-i] = byte(v >> (8 * i))
	}
	return b
}

func bytesToUint64(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

package kv

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RunMigrations brings an older on-disk layout up to CurrentSchemaVersion.
// It only bumps the version pointer and never rewrites existing records in
// place. State() reads only the split layout; a pre-split (version-1)
// record is not converted or read by this package.
func (s *Store) RunMigrations(ctx context.Context) error {
	version, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if version >= CurrentSchemaVersion {
		return nil
	}
	runID := uuid.New()
	log.WithFields(logrus.Fields{
		"from":  version,
		"to":    CurrentSchemaVersion,
		"runID": runID,
	}).Info("migrating chain database schema")

	return s.WithManyWrites(ctx, func(ctx context.Context) error {
		return s.putKeyValue(ctx, keySchemaVersion, uint64ToBytes(CurrentSchemaVersion))
	})
}

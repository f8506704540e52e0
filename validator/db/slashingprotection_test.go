package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestCheckAndInsertBlockProposal_RejectsNonIncreasingSlot(t *testing.T) {
	s := setup(t)
	pk := [48]byte{1}
	ctx := context.Background()

	require.NoError(t, s.CheckAndInsertBlockProposal(ctx, pk, 10))
	require.ErrorIs(t, s.CheckAndInsertBlockProposal(ctx, pk, 10), ErrSlashableProposal)
	require.ErrorIs(t, s.CheckAndInsertBlockProposal(ctx, pk, 9), ErrSlashableProposal)
	require.NoError(t, s.CheckAndInsertBlockProposal(ctx, pk, 11))
}

func TestCheckAndInsertAttestation_RejectsDoubleVote(t *testing.T) {
	s := setup(t)
	pk := [48]byte{2}
	ctx := context.Background()

	require.NoError(t, s.CheckAndInsertAttestation(ctx, pk, 1, 2))
	require.ErrorIs(t, s.CheckAndInsertAttestation(ctx, pk, 5, 2), ErrSlashableAttestation, "different source for the same target is a double-vote")
	require.NoError(t, s.CheckAndInsertAttestation(ctx, pk, 1, 2), "identical repeat is not slashable")
}

func TestCheckAndInsertAttestation_RejectsSurroundVote(t *testing.T) {
	s := setup(t)
	pk := [48]byte{3}
	ctx := context.Background()

	require.NoError(t, s.CheckAndInsertAttestation(ctx, pk, 4, 6))
	// (3, 7) surrounds the previously signed (4, 6).
	require.ErrorIs(t, s.CheckAndInsertAttestation(ctx, pk, 3, 7), ErrSlashableAttestation)
}

func TestCheckAndInsertAttestation_RejectsSurroundedVote(t *testing.T) {
	s := setup(t)
	pk := [48]byte{4}
	ctx := context.Background()

	require.NoError(t, s.CheckAndInsertAttestation(ctx, pk, 3, 7))
	// (4, 6) is surrounded by the previously signed (3, 7).
	require.ErrorIs(t, s.CheckAndInsertAttestation(ctx, pk, 4, 6), ErrSlashableAttestation)
}

func TestCheckAndInsertAttestation_NonConflictingVotesAllowed(t *testing.T) {
	s := setup(t)
	pk := [48]byte{5}
	ctx := context.Background()

	require.NoError(t, s.CheckAndInsertAttestation(ctx, pk, 1, 2))
	require.NoError(t, s.CheckAndInsertAttestation(ctx, pk, 2, 3))
	require.NoError(t, s.CheckAndInsertAttestation(ctx, pk, 3, 4))
}

func TestProtection_IsolatedPerPubkey(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	pk1 := [48]byte{6}
	pk2 := [48]byte{7}

	require.NoError(t, s.CheckAndInsertBlockProposal(ctx, pk1, 100))
	require.NoError(t, s.CheckAndInsertBlockProposal(ctx, pk2, 50))
}

func TestExport_GroupsRecordsByPubkey(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	pk1 := [48]byte{8}
	pk2 := [48]byte{9}

	require.NoError(t, s.CheckAndInsertBlockProposal(ctx, pk1, 42))
	require.NoError(t, s.CheckAndInsertAttestation(ctx, pk1, 1, 2))
	require.NoError(t, s.CheckAndInsertAttestation(ctx, pk1, 2, 3))
	require.NoError(t, s.CheckAndInsertAttestation(ctx, pk2, 5, 6))

	records, err := s.Export(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	byPubkey := make(map[[48]byte]PubkeyRecord)
	for _, r := range records {
		byPubkey[r.Pubkey] = r
	}

	rec1 := byPubkey[pk1]
	require.NotNil(t, rec1.HighestSlot)
	require.EqualValues(t, 42, *rec1.HighestSlot)
	require.Len(t, rec1.Attestations, 2)

	rec2 := byPubkey[pk2]
	require.Nil(t, rec2.HighestSlot)
	require.Len(t, rec2.Attestations, 1)
}

package blockchain

import (
	"testing"

	"github.com/stretchr/testify/require"

	types "github.com/nodecore-labs/sentinel/beacon-chain/core/types"
	attestationkv "github.com/nodecore-labs/sentinel/beacon-chain/operations/attestations/kv"
)

func TestAssembleBody_PullsBestCoverAcrossCommittees(t *testing.T) {
	pool := attestationkv.NewPool()
	pool.SaveAggregated(&types.Attestation{Data: types.AttestationData{Slot: 5, CommitteeIndex: 0}})
	pool.SaveAggregated(&types.Attestation{Data: types.AttestationData{Slot: 5, CommitteeIndex: 1}})
	pool.SaveAggregated(&types.Attestation{Data: types.AttestationData{Slot: 6, CommitteeIndex: 0}})

	a := NewAssembler(pool, 2)
	exits := []types.SignedVoluntaryExit{{ValidatorIndex: 3}}
	deposits := []types.Deposit{{Data: types.DepositData{Amount: 1}}}

	body := a.AssembleBody(5, []byte("reveal"), exits, deposits)
	require.Len(t, body.Attestations, 2)
	require.Equal(t, []byte("reveal"), body.RandaoReveal)
	require.Equal(t, exits, body.VoluntaryExits)
	require.Equal(t, deposits, body.Deposits)
}

func TestAssembleBody_DefaultsZeroCommitteeCountToOne(t *testing.T) {
	pool := attestationkv.NewPool()
	pool.SaveAggregated(&types.Attestation{Data: types.AttestationData{Slot: 1, CommitteeIndex: 0}})
	a := NewAssembler(pool, 0)
	body := a.AssembleBody(1, nil, nil, nil)
	require.Len(t, body.Attestations, 1)
}

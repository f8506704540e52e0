package gossip

import (
	"context"
	"testing"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p-core/peer"
	"github.com/stretchr/testify/require"

	types "github.com/nodecore-labs/sentinel/beacon-chain/core/types"
)

func TestDeliver_AcceptRunsHandler(t *testing.T) {
	r := NewRouter()
	called := false
	r.Register("blocks", func(ctx context.Context, from peer.ID, msg []byte) pubsub.ValidationResult {
		return pubsub.ValidationAccept
	}, func(ctx context.Context, from peer.ID, msg []byte) error {
		called = true
		return nil
	})

	result, err := r.Deliver(context.Background(), "blocks", "p1", []byte("data"))
	require.NoError(t, err)
	require.Equal(t, pubsub.ValidationAccept, result)
	require.True(t, called)
}

func TestDeliver_RejectSkipsHandler(t *testing.T) {
	r := NewRouter()
	called := false
	r.Register("blocks", func(ctx context.Context, from peer.ID, msg []byte) pubsub.ValidationResult {
		return pubsub.ValidationReject
	}, func(ctx context.Context, from peer.ID, msg []byte) error {
		called = true
		return nil
	})

	result, err := r.Deliver(context.Background(), "blocks", "p1", []byte("data"))
	require.NoError(t, err)
	require.Equal(t, pubsub.ValidationReject, result)
	require.False(t, called)
}

func TestDeliver_UnknownTopicIsIgnored(t *testing.T) {
	r := NewRouter()
	result, err := r.Deliver(context.Background(), "unknown", "p1", []byte("data"))
	require.Error(t, err)
	require.Equal(t, pubsub.ValidationIgnore, result)
}

func TestMessageID_DiffersAcrossForkBoundary(t *testing.T) {
	data := []byte("same payload")
	legacy := MessageID(types.ForkPhase0, "/eth2/blocks", data)
	postAltair := MessageID(types.ForkAltair, "/eth2/blocks", data)
	require.NotEqual(t, legacy, postAltair)
}

func TestMessageID_Deterministic(t *testing.T) {
	data := []byte("same payload")
	a := MessageID(types.ForkAltair, "/eth2/blocks", data)
	b := MessageID(types.ForkAltair, "/eth2/blocks", data)
	require.Equal(t, a, b)
}

func TestMessageID_Length(t *testing.T) {
	id := MessageID(types.ForkBellatrix, "/eth2/blocks", []byte("x"))
	require.Len(t, id, messageIDLength)
}

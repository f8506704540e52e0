package scorers

import (
	"testing"

	"github.com/libp2p/go-libp2p-core/peer"
	"github.com/stretchr/testify/require"
)

func TestBadResponsesScorer_CapsAtMax(t *testing.T) {
	b := NewBadResponsesScorer()
	id := peer.ID("p1")
	for i := 0; i < maxBadResponses+10; i++ {
		b.Increment(id)
	}
	require.True(t, b.IsBad(id))
}

func TestBadResponsesScorer_Decay(t *testing.T) {
	b := NewBadResponsesScorer()
	id := peer.ID("p1")
	b.Increment(id)
	b.Increment(id)
	b.Decay()
	b.Decay()
	require.False(t, b.IsBad(id))
	require.Equal(t, float64(0), b.score(id))
}

func TestBlockProviderScorer_RewardsThroughput(t *testing.T) {
	bp := NewBlockProviderScorer()
	id := peer.ID("p1")
	bp.IncrementProcessed(id, 50)
	require.InDelta(t, 0.5, bp.score(id), 0.001)
}

func TestService_CompositeScore(t *testing.T) {
	s := NewService()
	id := peer.ID("p1")
	s.BlockProvider.IncrementProcessed(id, 100)
	s.Gossip.SetScore(id, 2.0)
	require.InDelta(t, 3.0, s.Score(id), 0.001)

	s.BadResponses.Increment(id)
	require.Less(t, s.Score(id), 3.0)
}

func TestService_IsBad(t *testing.T) {
	s := NewService()
	id := peer.ID("p1")
	for i := 0; i < maxBadResponses; i++ {
		s.BadResponses.Increment(id)
	}
	require.True(t, s.IsBad(id))
}

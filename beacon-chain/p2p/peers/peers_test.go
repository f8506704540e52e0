package peers

import (
	"testing"
	"time"

	"github.com/libp2p/go-libp2p-core/peer"
	"github.com/stretchr/testify/require"
)

func testID(t *testing.T, s string) peer.ID {
	t.Helper()
	return peer.ID(s)
}

func TestAdd_IsIdempotent(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	id := testID(t, "peer-1")
	s.Add(id, DirectionOutbound)
	s.Add(id, DirectionInbound)
	require.Equal(t, 1, s.Len())
}

func TestConnectionStateLifecycle(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	id := testID(t, "peer-1")
	s.Add(id, DirectionOutbound)

	state, ok := s.ConnectionState(id)
	require.True(t, ok)
	require.Equal(t, StateConnecting, state)

	require.NoError(t, s.SetConnectionState(id, StateConnected))
	state, ok = s.ConnectionState(id)
	require.True(t, ok)
	require.Equal(t, StateConnected, state)

	require.Contains(t, s.Connected(), id)
}

func TestSetConnectionState_UnknownPeerErrors(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	require.Error(t, s.SetConnectionState(testID(t, "ghost"), StateConnected))
}

func TestBan_LongerReasonOutlastsShorter(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	id := testID(t, "peer-1")

	s.Ban(id, ReasonFault)
	require.True(t, s.IsBad(id))

	s.Ban(id, ReasonIrrelevantNetwork)
	require.True(t, s.IsBad(id))

	// A later, shorter ban must not shrink the existing longer one.
	s.Ban(id, ReasonClientShutdown)
	require.True(t, s.IsBad(id))
}

func TestThroughputAccumulates(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	id := testID(t, "peer-1")
	s.Add(id, DirectionInbound)

	s.RecordThroughput(id, 1000)
	s.RecordThroughput(id, 2000)

	require.GreaterOrEqual(t, s.ThroughputRate(id), int64(3000))
}

func TestScore(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	id := testID(t, "peer-1")
	s.Add(id, DirectionInbound)
	s.SetScore(id, -12.5)
	require.Equal(t, -12.5, s.Score(id))
}

func TestMarkSeen_DoesNotRepeat(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	require.True(t, s.MarkSeen("msg-1"))
	require.False(t, s.MarkSeen("msg-1"))
}

func TestAllowRequest_RespectsQuota(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	id := testID(t, "peer-1")
	allowed := 0
	for i := 0; i < quotaCapacity+50; i++ {
		if s.AllowRequest(id, 1) {
			allowed++
		}
	}
	require.Less(t, allowed, quotaCapacity+50, "quota must eventually refuse requests")
	_ = time.Millisecond
}

func TestRemove(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	id := testID(t, "peer-1")
	s.Add(id, DirectionInbound)
	s.Remove(id)
	require.Equal(t, 0, s.Len())
}

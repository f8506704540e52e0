package peers

import (
	"testing"

	"github.com/libp2p/go-libp2p-core/peer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestRegisterMetrics_ReportsConnectedCount(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	id := peer.ID("peer-a")
	s.Add(id, DirectionInbound)
	require.NoError(t, s.SetConnectionState(id, StateConnected))

	reg := prometheus.NewRegistry()
	require.NoError(t, s.RegisterMetrics(reg))

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	require.Equal(t, "p2p_connected_peers", families[0].GetName())
	require.Equal(t, float64(1), families[0].GetMetric()[0].GetGauge().GetValue())
}

package p2p

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildListenAddrs_RendersTCPAndUDP(t *testing.T) {
	addrs, err := BuildListenAddrs(ListenAddrConfig{Host: "0.0.0.0", TCPPort: 13000, UDPPort: 12000})
	require.NoError(t, err)
	require.Len(t, addrs, 2)
	require.Contains(t, addrs[0].String(), "/tcp/13000")
	require.Contains(t, addrs[1].String(), "/udp/12000")
}

func TestBuildListenAddrs_RejectsInvalidHost(t *testing.T) {
	_, err := BuildListenAddrs(ListenAddrConfig{Host: "not-an-ip", TCPPort: 13000, UDPPort: 12000})
	require.Error(t, err)
}

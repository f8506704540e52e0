// Package p2p holds the host-level configuration shared by the connmgr,
// peers, encoder, and gossip subpackages: the listen multiaddr this node
// advertises and dials from (§4.8).
package p2p

import (
	"fmt"

	"github.com/multiformats/go-multiaddr"
	"github.com/pkg/errors"
)

// ListenAddrConfig is the subset of §4.8's host config that shapes the
// libp2p listen multiaddr: an IPv4 host plus separate TCP and QUIC ports.
type ListenAddrConfig struct {
	Host    string
	TCPPort uint
	UDPPort uint
}

// BuildListenAddrs renders cfg into the TCP and UDP (QUIC/discv5) multiaddrs
// a libp2p host is constructed with, the way the real host bootstrap builds
// its swarm listen addresses from flag-derived host/port values.
func BuildListenAddrs(cfg ListenAddrConfig) ([]multiaddr.Multiaddr, error) {
	tcpAddr, err := multiaddr.NewMultiaddr(fmt.Sprintf("/ip4/%s/tcp/%d", cfg.Host, cfg.TCPPort))
	if err != nil {
		return nil, errors.Wrap(err, "invalid tcp listen address")
	}
	udpAddr, err := multiaddr.NewMultiaddr(fmt.Sprintf("/ip4/%s/udp/%d/quic", cfg.Host, cfg.UDPPort))
	if err != nil {
		return nil, errors.Wrap(err, "invalid udp listen address")
	}
	return []multiaddr.Multiaddr{tcpAddr, udpAddr}, nil
}

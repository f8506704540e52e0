package peers

import "github.com/prometheus/client_golang/prometheus"

// connectedPeersCollector exposes the pool's live connected-peer count as a
// prometheus gauge, the way the teacher's db/kv store registers a collector
// bound to live state rather than a value updated by hand on every mutation.
type connectedPeersCollector struct {
	status *Status
	desc   *prometheus.Desc
}

func newConnectedPeersCollector(s *Status) *connectedPeersCollector {
	return &connectedPeersCollector{
		status: s,
		desc: prometheus.NewDesc(
			"p2p_connected_peers",
			"Number of peers currently in the connected state.",
			nil, nil,
		),
	}
}

func (c *connectedPeersCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *connectedPeersCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(len(c.status.Connected())))
}

// RegisterMetrics registers s's prometheus collector with reg. Safe to call
// at most once per Status; callers that build more than one Status in the
// same process (tests) should use a private registry rather than the
// default one.
func (s *Status) RegisterMetrics(reg prometheus.Registerer) error {
	return reg.Register(newConnectedPeersCollector(s))
}

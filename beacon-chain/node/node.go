// Package node assembles the beacon chain's components (§1) into a single
// process: clock, database, block DAG, fork choice, quarantine,
// attestation pool, peer pool and scorers. None of these is registered with
// the runtime service registry; Start and Stop drive only the services
// added through Register.
package node

import (
	"context"
	"time"

	"github.com/multiformats/go-multiaddr"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/nodecore-labs/sentinel/beacon-chain/blockchain"
	"github.com/nodecore-labs/sentinel/beacon-chain/blockchain/dag"
	"github.com/nodecore-labs/sentinel/beacon-chain/clock"
	"github.com/nodecore-labs/sentinel/beacon-chain/db/iface"
	"github.com/nodecore-labs/sentinel/beacon-chain/db/kv"
	"github.com/nodecore-labs/sentinel/beacon-chain/forkchoice/doubly_linked_tree"
	attestationkv "github.com/nodecore-labs/sentinel/beacon-chain/operations/attestations/kv"
	p2pconf "github.com/nodecore-labs/sentinel/beacon-chain/p2p"
	"github.com/nodecore-labs/sentinel/beacon-chain/p2p/connmgr"
	"github.com/nodecore-labs/sentinel/beacon-chain/p2p/peers"
	"github.com/nodecore-labs/sentinel/beacon-chain/p2p/peers/scorers"
	"github.com/nodecore-labs/sentinel/beacon-chain/sync/quarantine"
	types "github.com/nodecore-labs/sentinel/beacon-chain/core/types"
	"github.com/nodecore-labs/sentinel/config/params"
	"github.com/nodecore-labs/sentinel/runtime"
)

var log = logrus.WithField("prefix", "node")

// Config collects the options needed to assemble a BeaconNode.
type Config struct {
	DataDir     string
	ConfigName  string // "mainnet" or "minimal"
	GenesisTime time.Time
	Codec       types.SSZCodec
	ListenHost  string
	TCPPort     uint
	UDPPort     uint
}

// BeaconNode wires every top-level component together and exposes them for
// the services layered on top (gRPC-free in this module; see SPEC_FULL.md
// domain stack for why).
type BeaconNode struct {
	cfg *params.BeaconChainConfig

	Clock       *clock.Clock
	DB          iface.Database
	DAG         *dag.DAG
	ForkChoice  *doubly_linked_tree.ForkChoice
	Quarantine  *quarantine.Quarantine
	Attestations *attestationkv.Pool
	Peers       *peers.Status
	Scorers     *scorers.Service
	ConnManager *connmgr.Manager
	ChainInfo   *blockchain.ChainInfo
	ListenAddrs []multiaddr.Multiaddr

	registry *runtime.Registry
}

// New assembles a BeaconNode from cfg and opens the database. The block DAG
// starts empty: stored block summaries are not read back into it.
func New(ctx context.Context, cfg Config) (*BeaconNode, error) {
	ctx, span := trace.StartSpan(ctx, "node.New")
	defer span.End()

	// automaxprocs quietly sets GOMAXPROCS to the container's cgroup CPU
	// quota rather than the host's core count, the way the teacher's
	// cmd/beacon-chain entrypoint does before anything else runs.
	if _, err := maxprocs.Set(maxprocs.Logger(log.Debugf)); err != nil {
		log.WithError(err).Warn("failed to set GOMAXPROCS")
	}

	beaconCfg, err := params.Load(cfg.ConfigName)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load beacon chain config")
	}

	store, err := kv.NewKVStore(ctx, cfg.DataDir, cfg.Codec, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	q, err := quarantine.New(quarantine.DefaultCapacity)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create quarantine")
	}

	peerStatus, err := peers.New()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create peer pool")
	}
	scorerSvc := scorers.NewService()
	blockDAG := dag.New()
	fc := doubly_linked_tree.New(types.Checkpoint{}, types.Checkpoint{})

	listenHost := cfg.ListenHost
	if listenHost == "" {
		listenHost = "0.0.0.0"
	}
	tcpPort, udpPort := cfg.TCPPort, cfg.UDPPort
	if tcpPort == 0 {
		tcpPort = 13000
	}
	if udpPort == 0 {
		udpPort = 12000
	}
	listenAddrs, err := p2pconf.BuildListenAddrs(p2pconf.ListenAddrConfig{Host: listenHost, TCPPort: tcpPort, UDPPort: udpPort})
	if err != nil {
		return nil, errors.Wrap(err, "failed to build listen addresses")
	}

	if err := peerStatus.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
		log.WithError(err).Warn("failed to register peer pool metrics")
	}

	n := &BeaconNode{
		cfg:          beaconCfg,
		Clock:        clock.New(beaconCfg, cfg.GenesisTime),
		DB:           store,
		DAG:          blockDAG,
		ForkChoice:   fc,
		Quarantine:   q,
		Attestations: attestationkv.NewPool(),
		Peers:        peerStatus,
		Scorers:      scorerSvc,
		ChainInfo:    blockchain.NewChainInfo(blockDAG, fc, store),
		ListenAddrs:  listenAddrs,
		registry:     runtime.NewRegistry(),
	}
	return n, nil
}

// Start starts every registered background service.
func (n *BeaconNode) Start(ctx context.Context) error {
	return n.registry.StartAll(ctx)
}

// Stop stops every registered background service and closes the database.
func (n *BeaconNode) Stop() error {
	n.registry.StopAll()
	return n.DB.Close()
}

// Register adds svc to the services started by Start and stopped by Stop.
func (n *BeaconNode) Register(svc runtime.Service) {
	n.registry.Register(svc)
}

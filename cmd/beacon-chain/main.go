// Command beacon-chain launches the consensus engine described in
// SPEC_FULL.md: it assembles a node.BeaconNode from flags, starts its
// registered services, and blocks until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	joonix "github.com/joonix/log"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/nodecore-labs/sentinel/beacon-chain/node"
	"github.com/nodecore-labs/sentinel/beacon-chain/node/registration"
	types "github.com/nodecore-labs/sentinel/beacon-chain/core/types"
	"github.com/nodecore-labs/sentinel/config/params"
)

var log = logrus.WithField("prefix", "main")

// sszCodec is left nil: this module treats SSZ (de)serialization as an
// external collaborator consumed only through types.SSZCodec (§6A), never
// implemented here. A real deployment links a concrete codec into this
// variable at build time; commands that need one fail fast with a nil
// dereference if none is linked, rather than this module faking one.
var sszCodec types.SSZCodec

func loadBeaconConfig(ctx *cli.Context) (*params.BeaconChainConfig, error) {
	return params.Load(ctx.String(networkProfileFlag.Name))
}

var (
	dataDirFlag = &cli.StringFlag{
		Name:  registration.DataDirFlagName,
		Usage: "data directory for the beacon chain database",
	}
	networkProfileFlag = &cli.StringFlag{
		Name:  registration.ConfigNameFlagName,
		Usage: "network profile to run (mainnet, minimal)",
	}
	genesisTimeFlag = &cli.Int64Flag{
		Name:  registration.GenesisTimeFlagName,
		Usage: "unix timestamp of genesis; defaults to now for a fresh local testnet",
	}
	logFormatFlag = &cli.StringFlag{
		Name:  "log-format",
		Usage: "log format: text, json, fluentd",
		Value: "text",
	}
	p2pHostFlag = &cli.StringFlag{
		Name:  "p2p-host",
		Usage: "IPv4 address this node listens and advertises on",
		Value: "0.0.0.0",
	}
	p2pTCPPortFlag = &cli.UintFlag{
		Name:  "p2p-tcp-port",
		Usage: "TCP port for the libp2p listener",
		Value: 13000,
	}
	p2pUDPPortFlag = &cli.UintFlag{
		Name:  "p2p-udp-port",
		Usage: "UDP port for discovery",
		Value: 12000,
	}
)

func run(ctx *cli.Context) error {
	format := ctx.String(logFormatFlag.Name)
	switch format {
	case "text":
		formatter := new(prefixed.TextFormatter)
		formatter.TimestampFormat = "2006-01-02 15:04:05"
		formatter.FullTimestamp = true
		logrus.SetFormatter(formatter)
	case "fluentd":
		logrus.SetFormatter(joonix.NewFormatter())
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %s", format)
	}

	dataDir, err := registration.DataDirPreregistration(ctx)
	if err != nil {
		return err
	}
	configName, err := registration.ConfigNamePreregistration(ctx)
	if err != nil {
		return err
	}
	genesisTime, err := registration.GenesisTimePreregistration(ctx, time.Now())
	if err != nil {
		return err
	}

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n, err := node.New(rootCtx, node.Config{
		DataDir:     dataDir,
		ConfigName:  configName,
		GenesisTime: genesisTime,
		Codec:       sszCodec,
		ListenHost:  ctx.String(p2pHostFlag.Name),
		TCPPort:     ctx.Uint(p2pTCPPortFlag.Name),
		UDPPort:     ctx.Uint(p2pUDPPortFlag.Name),
	})
	if err != nil {
		return fmt.Errorf("could not assemble beacon node: %w", err)
	}

	if err := n.Start(rootCtx); err != nil {
		return fmt.Errorf("could not start beacon node: %w", err)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	log.Info("shutting down, received interrupt signal")

	return n.Stop()
}

func main() {
	app := cli.NewApp()
	app.Name = "beacon-chain"
	app.Usage = "runs a beacon chain consensus client"
	app.Action = run
	app.Flags = []cli.Flag{
		dataDirFlag,
		networkProfileFlag,
		genesisTimeFlag,
		logFormatFlag,
		p2pHostFlag,
		p2pTCPPortFlag,
		p2pUDPPortFlag,
	}
	app.Commands = []*cli.Command{
		depositsCommand,
		recordCommand,
		trustedNodeSyncCommand,
	}

	if err := app.Run(os.Args); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

// Package registration resolves cli.Context flags into the values node.New
// needs, the way the teacher's registration package turns flags into
// pre-registration values before the node is assembled.
package registration

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

// Flag names shared between cmd/beacon-chain and this package.
const (
	DataDirFlagName      = "datadir"
	ConfigNameFlagName   = "network-profile"
	GenesisTimeFlagName  = "genesis-time"
	DefaultDataDirSuffix = ".sentinel"
)

// DefaultDataDir returns the platform default data directory, mirroring the
// teacher's cmd.DefaultDataDir helper.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "." + DefaultDataDirSuffix
	}
	return filepath.Join(home, DefaultDataDirSuffix)
}

// DataDirPreregistration resolves the --datadir flag, falling back to
// DefaultDataDir when it is unset.
func DataDirPreregistration(ctx *cli.Context) (string, error) {
	dataDir := ctx.String(DataDirFlagName)
	if dataDir == "" {
		dataDir = DefaultDataDir()
	}
	return dataDir, nil
}

// ConfigNamePreregistration resolves the --network-profile flag, validating
// it is one of the profiles config/params.Load recognizes.
func ConfigNamePreregistration(ctx *cli.Context) (string, error) {
	name := ctx.String(ConfigNameFlagName)
	switch name {
	case "", "mainnet", "minimal":
		return name, nil
	default:
		return "", errors.Errorf("unknown network profile %q", name)
	}
}

// GenesisTimePreregistration resolves the --genesis-time flag (a unix
// timestamp), defaulting to the current time when unset so a fresh local
// testnet can start immediately.
func GenesisTimePreregistration(ctx *cli.Context, now time.Time) (time.Time, error) {
	unix := ctx.Int64(GenesisTimeFlagName)
	if unix == 0 {
		return now, nil
	}
	return time.Unix(unix, 0), nil
}

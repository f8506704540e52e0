package params

import "github.com/pkg/errors"

// ErrUnknownProfile is returned by Load for a network_profile name the
// binary was not built with a matching config for.
var ErrUnknownProfile = errors.New("unknown network profile")

// Load resolves a network_profile name into its BeaconChainConfig. This is
// the only place a profile name is translated into constants; every other
// package receives the resolved *BeaconChainConfig explicitly.
func Load(profile string) (*BeaconChainConfig, error) {
	switch profile {
	case "", "mainnet":
		return MainnetConfig(), nil
	case "minimal":
		return MinimalConfig(), nil
	default:
		return nil, errors.Wrap(ErrUnknownProfile, profile)
	}
}

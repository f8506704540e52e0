// Package params defines the fork schedule and preset constants that every
// other package treats as an immutable value passed down the call stack, not
// a global singleton (see the "Global state" design note).
package params

import "time"

// BeaconChainConfig holds all preset and fork-schedule constants for a single
// network. A value of this type is selected once at startup by network
// profile name and never mutated afterward.
type BeaconChainConfig struct {
	// Time parameters.
	SecondsPerSlot      uint64 // e.g. 12
	SlotsPerEpoch       uint64 // e.g. 32
	EpochsPerSyncPeriod uint64 // e.g. 256
	IntervalsPerSlot    uint64 // e.g. 3 (propose / attest / aggregate)

	// Genesis.
	GenesisTime           time.Time
	GenesisForkVersion    [4]byte
	MinGenesisActiveCount uint64

	// Fork schedule, ascending by epoch.
	ForkSchedule []ForkEntry

	// Gossip / networking.
	MaxChunkSize        uint64
	TtfbTimeout         time.Duration
	RespTimeout         time.Duration
	MaximumGossipClockDisparity time.Duration

	// Weak subjectivity.
	WeakSubjectivityCheckpointEpoch uint64
}

// ForkEntry names the epoch at which a fork activates and the 4-byte version
// used in its fork digest.
type ForkEntry struct {
	Name    string
	Epoch   uint64
	Version [4]byte
}

// FarFutureEpoch and FarFutureSlot are saturation sentinels; arithmetic that
// would otherwise overflow clamps to these instead of wrapping.
const (
	FarFutureEpoch = ^uint64(0)
	FarFutureSlot  = ^uint64(0)
)

// ForkAtEpoch returns the active fork entry for the given epoch, i.e. the
// last entry in ForkSchedule whose Epoch is <= epoch.
func (c *BeaconChainConfig) ForkAtEpoch(epoch uint64) ForkEntry {
	active := c.ForkSchedule[0]
	for _, f := range c.ForkSchedule {
		if f.Epoch > epoch {
			break
		}
		active = f
	}
	return active
}

// ForkDigest returns the 4-byte digest identifying the active fork's gossip
// topics and request/response context bytes.
func (c *BeaconChainConfig) ForkDigest(epoch uint64) [4]byte {
	return c.ForkAtEpoch(epoch).Version
}

package params

import "time"

// MainnetConfig is the default network_profile: a plausible mainnet-shaped
// schedule with phase0/altair/bellatrix forks, matching the fork names the
// rest of this module is written against.
func MainnetConfig() *BeaconChainConfig {
	return &BeaconChainConfig{
		SecondsPerSlot:      12,
		SlotsPerEpoch:       32,
		EpochsPerSyncPeriod: 256,
		IntervalsPerSlot:    3,

		GenesisForkVersion:    [4]byte{0x00, 0x00, 0x00, 0x00},
		MinGenesisActiveCount: 16384,

		ForkSchedule: []ForkEntry{
			{Name: "phase0", Epoch: 0, Version: [4]byte{0x00, 0x00, 0x00, 0x01}},
			{Name: "altair", Epoch: 74240, Version: [4]byte{0x01, 0x00, 0x00, 0x01}},
			{Name: "bellatrix", Epoch: 144896, Version: [4]byte{0x02, 0x00, 0x00, 0x01}},
		},

		MaxChunkSize:                10 << 20, // 10 MiB
		TtfbTimeout:                 5 * time.Second,
		RespTimeout:                 10 * time.Second,
		MaximumGossipClockDisparity: 500 * time.Millisecond,

		WeakSubjectivityCheckpointEpoch: 0,
	}
}

// MinimalConfig is a fast local-testnet profile used by unit tests and
// `--network-profile=minimal`.
func MinimalConfig() *BeaconChainConfig {
	c := MainnetConfig()
	c.SlotsPerEpoch = 8
	c.EpochsPerSyncPeriod = 8
	c.MinGenesisActiveCount = 64
	for i := range c.ForkSchedule {
		c.ForkSchedule[i].Epoch = 0
	}
	return c
}

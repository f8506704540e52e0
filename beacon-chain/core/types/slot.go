// Package types defines the fork-tagged data model shared by every
// consensus-core package: slot/epoch/time arithmetic, the Block and
// BeaconState variants, and the block-identity types the DAG indexes.
package types

import (
	"github.com/nodecore-labs/sentinel/config/params"
)

// Slot, Epoch and SyncPeriod are unsigned 64-bit counters from genesis.
// FarFutureSlot/FarFutureEpoch are saturation sentinels: arithmetic that
// would otherwise carry past them clamps instead of wrapping.
type Slot uint64
type Epoch uint64
type SyncPeriod uint64

const (
	FarFutureSlot  = Slot(params.FarFutureSlot)
	FarFutureEpoch = Epoch(params.FarFutureEpoch)
)

// EpochOf returns slot/SlotsPerEpoch, saturating at FarFutureEpoch.
func EpochOf(cfg *params.BeaconChainConfig, s Slot) Epoch {
	if s == FarFutureSlot {
		return FarFutureEpoch
	}
	return Epoch(uint64(s) / cfg.SlotsPerEpoch)
}

// SyncPeriodOf returns epoch/EpochsPerSyncPeriod, saturating likewise.
func SyncPeriodOf(cfg *params.BeaconChainConfig, e Epoch) SyncPeriod {
	if e == FarFutureEpoch {
		return SyncPeriod(params.FarFutureEpoch)
	}
	return SyncPeriod(uint64(e) / cfg.EpochsPerSyncPeriod)
}

// StartSlot returns the first slot of epoch e, saturating at FarFutureSlot.
func StartSlot(cfg *params.BeaconChainConfig, e Epoch) Slot {
	if e == FarFutureEpoch {
		return FarFutureSlot
	}
	// Saturate rather than overflow on pathological huge epochs.
	if uint64(e) > (uint64(params.FarFutureSlot))/cfg.SlotsPerEpoch {
		return FarFutureSlot
	}
	return Slot(uint64(e) * cfg.SlotsPerEpoch)
}

// SaturatingSub returns a-b, clamped to zero instead of wrapping. All
// balance/slot arithmetic in this module uses this rather than raw `-`.
func SaturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// SaturatingAdd returns a+b, clamped to math.MaxUint64 instead of wrapping.
func SaturatingAdd(a, b uint64) uint64 {
	if a > ^uint64(0)-b {
		return ^uint64(0)
	}
	return a + b
}

// Package clock maps wall time to slot/epoch/sync-period and emits the
// per-duty deadlines the validator duty engine schedules against.
package clock

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nodecore-labs/sentinel/config/params"
	types "github.com/nodecore-labs/sentinel/beacon-chain/core/types"
)

var log = logrus.WithField("prefix", "clock")

// BeaconTime is signed nanoseconds relative to genesis; negative means
// pre-genesis. Unlike a time.Duration between two wall timestamps, a
// TimeDiff may legitimately be negative on its own.
type BeaconTime int64

// TimeDiff is a nanosecond delta, possibly negative.
type TimeDiff int64

// FarFutureBeaconTime is the sentinel BeaconTime corresponding to
// FarFutureSlot; toSlot(FarFutureBeaconTime) == FarFutureSlot per §8.
const FarFutureBeaconTime = BeaconTime(int64(^uint64(0) >> 1))

// Clock converts between wall time and slot/epoch/sync-period for one
// genesis time + fork schedule. Time flows are strictly monotone within a
// process: Now() is computed from time.Now() each call, never cached, and
// a wall-clock jump backward across genesis is logged and tolerated, not
// corrected (see design note).
type Clock struct {
	cfg         *params.BeaconChainConfig
	genesis     time.Time
	slotNanos   int64
	warnedOnce  bool
	nowFunc     func() time.Time
}

// New builds a Clock from the genesis time embedded in the beacon state and
// the network's fork-schedule constants.
func New(cfg *params.BeaconChainConfig, genesisTime time.Time) *Clock {
	return &Clock{
		cfg:       cfg,
		genesis:   genesisTime,
		slotNanos: int64(cfg.SecondsPerSlot) * int64(time.Second),
		nowFunc:   time.Now,
	}
}

// Now returns the current BeaconTime relative to genesis.
func (c *Clock) Now() BeaconTime {
	d := c.nowFunc().Sub(c.genesis)
	bt := BeaconTime(d.Nanoseconds())
	if bt < 0 && !c.warnedOnce {
		c.warnedOnce = true
		log.WithField("beaconTime", int64(bt)).Warn("wall clock is behind genesis time")
	}
	return bt
}

// SlotOf returns the slot containing BeaconTime t. A pre-genesis t maps to
// slot |t|/slotDuration with afterGenesis=false (§8 boundary behavior).
func (c *Clock) SlotOf(t BeaconTime) (slot types.Slot, afterGenesis bool) {
	if t == FarFutureBeaconTime {
		return types.FarFutureSlot, true
	}
	if t < 0 {
		return types.Slot(uint64(-int64(t)) / uint64(c.slotNanos)), false
	}
	return types.Slot(uint64(t) / uint64(c.slotNanos)), true
}

// CurrentSlot is a convenience wrapper returning SlotOf(Now()) — callers that
// don't care about the pre-genesis flag use this.
func (c *Clock) CurrentSlot() types.Slot {
	s, _ := c.SlotOf(c.Now())
	return s
}

// StartTime returns the BeaconTime at which slot begins.
// StartTime(FarFutureSlot) == FarFutureBeaconTime (§8 boundary behavior).
func (c *Clock) StartTime(slot types.Slot) BeaconTime {
	if slot == types.FarFutureSlot {
		return FarFutureBeaconTime
	}
	return BeaconTime(uint64(slot) * uint64(c.slotNanos))
}

// WallStartTime converts StartTime(slot) back into an absolute time.Time,
// for scheduling a timer against.
func (c *Clock) WallStartTime(slot types.Slot) time.Time {
	return c.genesis.Add(time.Duration(c.StartTime(slot)))
}

// DutyDeadlines are the fractional-slot deadlines a single slot schedules:
// block production at slot start, attestation at 1/3, aggregate/
// sync-contribution at 2/3, sync-committee message at 1/3.
type DutyDeadlines struct {
	Block            time.Time
	Attest           time.Time
	Aggregate        time.Time
	SyncMessage      time.Time
	SyncContribution time.Time
}

// Deadlines returns the wall-clock deadlines for the given slot's duties.
func (c *Clock) Deadlines(slot types.Slot) DutyDeadlines {
	start := c.WallStartTime(slot)
	third := time.Duration(c.slotNanos) / time.Duration(c.cfg.IntervalsPerSlot)
	return DutyDeadlines{
		Block:            start,
		Attest:           start.Add(third),
		SyncMessage:      start.Add(third),
		Aggregate:        start.Add(2 * third),
		SyncContribution: start.Add(2 * third),
	}
}

// Epoch returns the epoch containing the given slot, saturating at
// FarFutureEpoch per §8.
func (c *Clock) Epoch(slot types.Slot) types.Epoch {
	return types.EpochOf(c.cfg, slot)
}

// WithNowFunc overrides the wall-clock source, used by tests to simulate
// specific instants (and backward jumps) deterministically.
func (c *Clock) WithNowFunc(f func() time.Time) {
	c.nowFunc = f
}

package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nodecore-labs/sentinel/config/params"
	types "github.com/nodecore-labs/sentinel/beacon-chain/core/types"
)

func TestClock_SlotOf_Boundary(t *testing.T) {
	cfg := params.MainnetConfig()
	genesis := time.Unix(1606824023, 0)
	c := New(cfg, genesis)

	t.Run("far future round trips", func(t *testing.T) {
		slot, afterGenesis := c.SlotOf(FarFutureBeaconTime)
		require.Equal(t, types.FarFutureSlot, slot)
		require.True(t, afterGenesis)
		require.Equal(t, FarFutureBeaconTime, c.StartTime(types.FarFutureSlot))
	})

	t.Run("negative time maps pre-genesis", func(t *testing.T) {
		slot, afterGenesis := c.SlotOf(BeaconTime(-int64(cfg.SecondsPerSlot) * int64(time.Second) * 3))
		require.False(t, afterGenesis)
		require.Equal(t, types.Slot(3), slot)
	})

	t.Run("epoch saturates", func(t *testing.T) {
		require.Equal(t, types.FarFutureEpoch, c.Epoch(types.FarFutureSlot))
	})
}

func TestClock_Deadlines(t *testing.T) {
	cfg := params.MainnetConfig()
	genesis := time.Unix(1606824023, 0)
	c := New(cfg, genesis)

	d := c.Deadlines(types.Slot(10))
	start := c.WallStartTime(types.Slot(10))
	require.Equal(t, start, d.Block)
	require.True(t, d.Attest.After(d.Block))
	require.True(t, d.Aggregate.After(d.Attest))
}

func TestClock_BackwardJumpTolerated(t *testing.T) {
	cfg := params.MainnetConfig()
	genesis := time.Now()
	c := New(cfg, genesis)
	// Simulate wall clock observed before genesis: Now() must not panic and
	// must still report a (negative) BeaconTime rather than crashing.
	c.WithNowFunc(func() time.Time { return genesis.Add(-time.Hour) })
	bt := c.Now()
	require.True(t, bt < 0)
	slot, afterGenesis := c.SlotOf(bt)
	require.False(t, afterGenesis)
	require.Equal(t, types.Slot(3600/12), slot)
}

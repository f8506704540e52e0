package async_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nodecore-labs/sentinel/async"
)

func TestRunEvery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var i int32
	async.RunEvery(ctx, 20*time.Millisecond, func() {
		atomic.AddInt32(&i, 1)
	})

	time.Sleep(100 * time.Millisecond)
	if atomic.LoadInt32(&i) == 0 {
		t.Error("counter failed to increment with ticker")
	}

	cancel()
	time.Sleep(30 * time.Millisecond)
	last := atomic.LoadInt32(&i)

	time.Sleep(60 * time.Millisecond)
	if atomic.LoadInt32(&i) != last {
		t.Error("counter incremented after cancel")
	}
}

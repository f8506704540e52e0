// Package async holds small scheduling helpers shared by the connection
// manager, sync manager, and validator duty loops.
package async

import (
	"context"
	"time"
)

// RunEvery runs fn on every tick of interval until ctx is canceled, in its
// own goroutine. The first run happens after one interval, not
// immediately.
func RunEvery(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}

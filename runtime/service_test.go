package runtime

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	startErr  error
	stopped   *bool
	blockUntil chan struct{}
}

func (f fakeService) Start(ctx context.Context) error {
	if f.blockUntil != nil {
		select {
		case <-f.blockUntil:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.startErr
}

func (f fakeService) Stop() error {
	if f.stopped != nil {
		*f.stopped = true
	}
	return nil
}

func TestStartAll_PropagatesFirstError(t *testing.T) {
	r := NewRegistry()
	block := make(chan struct{})
	r.Register(fakeService{blockUntil: block})
	r.Register(fakeService{startErr: errors.New("boom")})

	err := r.StartAll(context.Background())
	require.Error(t, err)
	close(block)
}

func TestStopAll_StopsInReverseOrder(t *testing.T) {
	r := NewRegistry()
	var order []int
	r.Register(recordingService{id: 1, order: &order})
	r.Register(recordingService{id: 2, order: &order})
	r.Register(recordingService{id: 3, order: &order})

	r.StopAll()
	require.Equal(t, []int{3, 2, 1}, order)
}

type recordingService struct {
	id    int
	order *[]int
}

func (r recordingService) Start(ctx context.Context) error { return nil }
func (r recordingService) Stop() error {
	*r.order = append(*r.order, r.id)
	return nil
}

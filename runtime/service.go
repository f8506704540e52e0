// Package runtime provides the service-registry pattern the beacon node
// and validator client both start from: a fixed set of long-running
// services, started concurrently and stopped in reverse registration order,
// with golang.org/x/sync/errgroup propagating the first failure.
package runtime

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
	"golang.org/x/sync/errgroup"
)

var log = logrus.WithField("prefix", "runtime")

// Service is anything the registry can start and stop as a unit.
type Service interface {
	Start(ctx context.Context) error
	Stop() error
}

// Registry holds services in registration order and drives their
// lifecycle.
type Registry struct {
	services []Service
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends svc to the set started by StartAll.
func (r *Registry) Register(svc Service) {
	r.services = append(r.services, svc)
}

// StartAll starts every registered service concurrently, returning the
// first error any of them returns; the group's context is canceled the
// moment one service errors, so the others can observe it and unwind.
func (r *Registry) StartAll(ctx context.Context) error {
	ctx, span := trace.StartSpan(ctx, "runtime.Registry.StartAll")
	defer span.End()

	g, gctx := errgroup.WithContext(ctx)
	for _, svc := range r.services {
		svc := svc
		g.Go(func() error {
			spanCtx, svcSpan := trace.StartSpan(gctx, fmt.Sprintf("runtime.Registry.StartAll/%T", svc))
			defer svcSpan.End()
			return svc.Start(spanCtx)
		})
	}
	return g.Wait()
}

// StopAll stops every registered service in reverse registration order,
// logging (but not aborting on) individual stop errors so one stuck
// service cannot prevent the others from shutting down.
func (r *Registry) StopAll() {
	for i := len(r.services) - 1; i >= 0; i-- {
		if err := r.services[i].Stop(); err != nil {
			log.WithError(err).Error("failed to stop service cleanly")
		}
	}
}

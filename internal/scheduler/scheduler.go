package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Scheduler owns the long-lived background loops. Each loop runs its job
// once immediately, then on a fixed interval, and observes cancellation
// between runs and mid-wait. Job errors are logged and never stop a loop.
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	g      *errgroup.Group
}

// New creates a scheduler whose loops stop when the parent context is
// cancelled or Stop is called
func New(parent context.Context) *Scheduler {
	ctx, cancel := context.WithCancel(parent)
	g, ctx := errgroup.WithContext(ctx)
	return &Scheduler{ctx: ctx, cancel: cancel, g: g}
}

// Every starts a named loop running job at the given interval
func (s *Scheduler) Every(name string, interval time.Duration, job func(context.Context) error) {
	s.g.Go(func() error {
		log.Info().Str("job", name).Dur("interval", interval).Msg("Background loop started")

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			if err := job(s.ctx); err != nil && s.ctx.Err() == nil {
				log.Error().Err(err).Str("job", name).Msg("Background job failed")
			}
			select {
			case <-s.ctx.Done():
				log.Info().Str("job", name).Msg("Background loop stopped")
				return nil
			case <-ticker.C:
			}
		}
	})
}

// Stop cancels every loop and waits for each to exit
func (s *Scheduler) Stop() {
	s.cancel()
	_ = s.g.Wait()
}

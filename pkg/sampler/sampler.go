package sampler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"locpulse/pkg/model"
)

// Source abstracts the device position API.
type Source interface {
	// Watch returns a channel of event-driven fixes. The channel is closed
	// when ctx is cancelled.
	Watch(ctx context.Context) (<-chan model.LocationFix, error)
	// Current acquires a single fresh high-accuracy fix. Implementations
	// must not serve cached positions.
	Current(ctx context.Context) (model.LocationFix, error)
}

// Sampler runs three producers against one Source: a continuous watch, a
// fixed-interval poll, and an on-demand manual trigger. All three publish
// into the same intake channel, so the consumer never knows which fired.
// Watch-based position APIs go quiet on some platforms; the poll producer
// papers over that.
type Sampler struct {
	source   Source
	interval time.Duration
	intake   chan model.LocationFix
	manual   chan struct{}
	tracking atomic.Bool
}

// New creates a Sampler. pollInterval <= 0 defaults to 1 second.
func New(source Source, pollInterval time.Duration) *Sampler {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	s := &Sampler{
		source:   source,
		interval: pollInterval,
		intake:   make(chan model.LocationFix, 16),
		manual:   make(chan struct{}, 1),
	}
	s.tracking.Store(true)
	return s
}

// Fixes returns the single intake channel all producers publish into.
func (s *Sampler) Fixes() <-chan model.LocationFix {
	return s.intake
}

// SetTracking gates new acquisitions. In-flight acquisitions complete and
// their results are discarded at the intake gate.
func (s *Sampler) SetTracking(on bool) {
	s.tracking.Store(on)
	slog.Info("Sampler tracking toggled", "tracking", on)
}

// IsTracking reports whether acquisition is active.
func (s *Sampler) IsTracking() bool {
	return s.tracking.Load()
}

// TriggerNow requests a one-shot acquisition (manual override). It always
// fires, even when continuous tracking is off.
func (s *Sampler) TriggerNow() {
	select {
	case s.manual <- struct{}{}:
	default:
		// A manual acquisition is already pending.
	}
}

// Run drives all three producers until ctx is cancelled. The intake channel
// is left open; consumers stop via their own context.
func (s *Sampler) Run(ctx context.Context) {
	watchCh, err := s.source.Watch(ctx)
	if err != nil {
		// The poll producer still works without a watch stream.
		slog.Warn("Sampler watch unavailable, polling only", "error", err)
		watchCh = nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case fix, ok := <-watchCh:
			if !ok {
				watchCh = nil
				continue
			}
			s.publish(ctx, fix, false)

		case <-ticker.C:
			if !s.tracking.Load() {
				continue
			}
			// Acquisition may block on hardware; never stall the loop.
			go s.acquire(ctx, false)

		case <-s.manual:
			go s.acquire(ctx, true)
		}
	}
}

// acquire performs a one-shot acquisition and publishes the result. Errors
// are logged and dropped; a failed acquisition must never stop the loop.
func (s *Sampler) acquire(ctx context.Context, force bool) {
	acqCtx, cancel := context.WithTimeout(ctx, s.interval*5)
	defer cancel()

	fix, err := s.source.Current(acqCtx)
	if err != nil {
		slog.Debug("Sampler acquisition failed", "error", err)
		return
	}
	s.publish(ctx, fix, force)
}

// publish is the single intake gate. Results arriving after tracking was
// disabled are discarded here, unless forced by a manual trigger.
func (s *Sampler) publish(ctx context.Context, fix model.LocationFix, force bool) {
	if !force && !s.tracking.Load() {
		return
	}
	if fix.CapturedAt.IsZero() {
		fix.CapturedAt = time.Now()
	}

	select {
	case s.intake <- fix:
	case <-ctx.Done():
	default:
		// Consumer is behind; raw fixes are ephemeral, dropping is fine.
		slog.Debug("Sampler intake full, fix dropped")
	}
}

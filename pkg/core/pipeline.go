// Package core wires the sampler, detector, resolver, and dispatcher into
// the processing pipeline.
package core

import (
	"context"
	"log/slog"

	"locpulse/pkg/detector"
	"locpulse/pkg/dispatcher"
	"locpulse/pkg/geo"
	"locpulse/pkg/model"
	"locpulse/pkg/store"
)

// PlaceResolver names a coordinate pair. Implementations never fail; they
// return a fallback name instead.
type PlaceResolver interface {
	Resolve(ctx context.Context, lat, lng float64) string
}

// Pipeline is the single serialized consumer of the sampler intake. One fix
// at a time: significance gate, place resolve, dispatch. Serializing here
// means the detector always compares against the record the previous fix
// produced.
type Pipeline struct {
	fixes      <-chan model.LocationFix
	detector   *detector.Detector
	resolver   PlaceResolver
	dispatcher *dispatcher.Dispatcher
	store      store.LocationStore
	track      *geo.Track
}

// New creates a Pipeline consuming fixes.
func New(fixes <-chan model.LocationFix, det *detector.Detector, res PlaceResolver, disp *dispatcher.Dispatcher, st store.LocationStore, track *geo.Track) *Pipeline {
	return &Pipeline{
		fixes:      fixes,
		detector:   det,
		resolver:   res,
		dispatcher: disp,
		store:      st,
		track:      track,
	}
}

// Run consumes fixes until ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context) {
	slog.Info("Pipeline started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("Pipeline stopped")
			return
		case fix := <-p.fixes:
			p.process(ctx, fix)
		}
	}
}

// process handles one fix. A panic in any stage is logged and the loop
// continues with the next fix.
func (p *Pipeline) process(ctx context.Context, fix model.LocationFix) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic while processing fix", "recovered", r, "lat", fix.Lat, "lng", fix.Lng)
		}
	}()

	if p.track != nil {
		p.track.Add(fix)
	}

	move, significant := p.detector.Evaluate(ctx, fix)

	// The raw fix is persisted after evaluation so the very first fix of a
	// fresh install doesn't seed its own baseline.
	if err := p.store.SaveLastFix(ctx, fix); err != nil {
		slog.Warn("Failed to persist raw fix", "error", err)
	}

	if !significant {
		return
	}

	placeName := p.resolver.Resolve(ctx, fix.Lat, fix.Lng)

	if err := p.dispatcher.Dispatch(ctx, move, placeName); err != nil {
		slog.Error("Dispatch failed", "place", placeName, "error", err)
	}
}

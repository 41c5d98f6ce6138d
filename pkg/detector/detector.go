package detector

import (
	"context"
	"log/slog"

	"locpulse/pkg/geo"
	"locpulse/pkg/model"
	"locpulse/pkg/store"
)

// Detector decides whether a fix represents a significant move. It always
// compares against the last NOTIFIED location, never against the previous
// raw fix, so slow random-walk drift cannot accumulate into phantom moves.
// This cheap geometric gate runs before the rate-limited reverse geocode.
type Detector struct {
	store       store.LocationStore
	minDistance float64 // meters
}

// New creates a Detector with the given significance threshold in meters.
func New(st store.LocationStore, minDistanceMeters float64) *Detector {
	if minDistanceMeters <= 0 {
		minDistanceMeters = 5
	}
	return &Detector{store: st, minDistance: minDistanceMeters}
}

// Evaluate returns the move and true when the fix is significant. The very
// first fix (no record, no seed) is always significant.
func (d *Detector) Evaluate(ctx context.Context, fix model.LocationFix) (model.Move, bool) {
	baseline, ok := d.baseline(ctx)
	if !ok {
		slog.Info("First fix, always significant", "lat", fix.Lat, "lng", fix.Lng)
		return model.Move{Fix: fix}, true
	}

	from := geo.Point{Lat: baseline.Lat, Lng: baseline.Lng}
	to := geo.Point{Lat: fix.Lat, Lng: fix.Lng}
	dist := geo.Distance(from, to)

	if dist < d.minDistance {
		return model.Move{}, false
	}

	return model.Move{
		Fix:            fix,
		DistanceMeters: dist,
		Direction:      geo.Direction(from, to),
	}, true
}

// baseline is the notified record's coordinates, falling back to the
// persisted raw fix as a cross-session seed when no record exists yet.
func (d *Detector) baseline(ctx context.Context) (geo.Point, bool) {
	rec, err := d.store.LastNotified(ctx)
	if err != nil {
		slog.Warn("Failed to load notified location, treating as first fix", "error", err)
		return geo.Point{}, false
	}
	if rec != nil {
		return geo.Point{Lat: rec.Lat, Lng: rec.Lng}, true
	}

	seed, err := d.store.LastFix(ctx)
	if err != nil || seed == nil {
		return geo.Point{}, false
	}
	return geo.Point{Lat: seed.Lat, Lng: seed.Lng}, true
}

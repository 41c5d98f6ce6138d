package geo

import (
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"locpulse/pkg/model"
)

// Track keeps a bounded in-memory breadcrumb of recent fixes for the UI.
// Oldest fixes are evicted first.
type Track struct {
	mu    sync.Mutex
	fixes []model.LocationFix
	max   int
}

// NewTrack creates a track holding at most max fixes.
func NewTrack(max int) *Track {
	if max <= 0 {
		max = 500
	}
	return &Track{max: max}
}

// Add appends a fix, evicting the oldest if the track is full.
func (t *Track) Add(fix model.LocationFix) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.fixes = append(t.fixes, fix)
	if len(t.fixes) > t.max {
		t.fixes = t.fixes[len(t.fixes)-t.max:]
	}
}

// Len returns the number of fixes currently held.
func (t *Track) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.fixes)
}

// Fixes returns a copy of the current breadcrumb.
func (t *Track) Fixes() []model.LocationFix {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]model.LocationFix, len(t.fixes))
	copy(out, t.fixes)
	return out
}

// ToGeoJSON renders the breadcrumb as a GeoJSON LineString feature
// (or an empty feature collection when fewer than two fixes exist).
func (t *Track) ToGeoJSON() *geojson.FeatureCollection {
	t.mu.Lock()
	defer t.mu.Unlock()

	fc := geojson.NewFeatureCollection()
	if len(t.fixes) < 2 {
		return fc
	}

	line := make(orb.LineString, 0, len(t.fixes))
	for _, f := range t.fixes {
		line = append(line, orb.Point{f.Lng, f.Lat})
	}

	feature := geojson.NewFeature(line)
	feature.Properties["points"] = len(line)
	feature.Properties["start"] = t.fixes[0].CapturedAt
	feature.Properties["end"] = t.fixes[len(t.fixes)-1].CapturedAt
	fc.Append(feature)
	return fc
}

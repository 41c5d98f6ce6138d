package api

import (
	"net/http"

	"locpulse/pkg/tracker"
)

// StatsHandler exposes tracker counters and breadcrumb size.
type StatsHandler struct {
	tracker *tracker.Tracker
	track   trackSizer
}

type trackSizer interface {
	Len() int
}

// NewStatsHandler creates a StatsHandler.
func NewStatsHandler(t *tracker.Tracker, track trackSizer) *StatsHandler {
	return &StatsHandler{tracker: t, track: track}
}

// ProviderStatsDTO is the wire form of one provider's counters.
type ProviderStatsDTO struct {
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
	APISuccess  int64 `json:"api_success"`
	APIFailures int64 `json:"api_errors"`
	Delivered   int64 `json:"delivered"`
	Suppressed  int64 `json:"suppressed"`
	HitRate     int64 `json:"hit_rate"`
}

// StatsResponse is the /api/stats payload.
type StatsResponse struct {
	Providers  map[string]ProviderStatsDTO `json:"providers"`
	TrackFixes int                         `json:"track_fixes"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snapshot := h.tracker.Snapshot()

	resp := StatsResponse{Providers: make(map[string]ProviderStatsDTO)}
	for name, s := range snapshot {
		dto := ProviderStatsDTO{
			CacheHits:   s.CacheHits,
			CacheMisses: s.CacheMisses,
			APISuccess:  s.APISuccess,
			APIFailures: s.APIFailures,
			Delivered:   s.Delivered,
			Suppressed:  s.Suppressed,
		}
		if total := s.CacheHits + s.CacheMisses; total > 0 {
			dto.HitRate = s.CacheHits * 100 / total
		}
		resp.Providers[name] = dto
	}
	if h.track != nil {
		resp.TrackFixes = h.track.Len()
	}

	writeJSON(w, resp)
}

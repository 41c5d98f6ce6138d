package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"locpulse/pkg/geo"
	"locpulse/pkg/model"
	"locpulse/pkg/sampler"
	"locpulse/pkg/store"
)

// LocationHandler serves the notified record, history, the breadcrumb
// track, and accepts position reports from page clients.
type LocationHandler struct {
	store   store.LocationStore
	track   *geo.Track
	push    *sampler.PushSource
	sampler Sampler
}

// Sampler is the subset of the sampler the API needs.
type Sampler interface {
	TriggerNow()
	SetTracking(on bool)
	IsTracking() bool
}

// NewLocationHandler creates a LocationHandler. push may be nil when the
// configured source is not "push"; reports are then rejected.
func NewLocationHandler(st store.LocationStore, track *geo.Track, push *sampler.PushSource, smp Sampler) *LocationHandler {
	return &LocationHandler{store: st, track: track, push: push, sampler: smp}
}

// HandleLast returns the notified-location record.
func (h *LocationHandler) HandleLast(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.LastNotified(r.Context())
	if err != nil {
		http.Error(w, "failed to load record", http.StatusInternalServerError)
		return
	}
	if rec == nil {
		http.Error(w, "no notified location yet", http.StatusNotFound)
		return
	}
	writeJSON(w, rec)
}

// HandleHistory returns recent notification history, newest first.
func (h *LocationHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	entries, err := h.store.RecentHistory(r.Context(), limit)
	if err != nil {
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, entries)
}

// HandleTrack returns the in-memory breadcrumb as GeoJSON.
func (h *LocationHandler) HandleTrack(w http.ResponseWriter, r *http.Request) {
	fc := h.track.ToGeoJSON()
	data, err := fc.MarshalJSON()
	if err != nil {
		http.Error(w, "failed to encode track", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	if _, err := w.Write(data); err != nil {
		slog.Error("Failed to write track response", "error", err)
	}
}

type reportRequest struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Accuracy float64 `json:"accuracy"`
}

// HandleReport accepts a raw position from a page client.
func (h *LocationHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	if h.push == nil {
		http.Error(w, "position reports not accepted for this source", http.StatusConflict)
		return
	}
	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid report", http.StatusBadRequest)
		return
	}
	if req.Lat < -90 || req.Lat > 90 || req.Lng < -180 || req.Lng > 180 {
		http.Error(w, "coordinates out of range", http.StatusBadRequest)
		return
	}
	h.push.Report(model.LocationFix{
		Lat:        req.Lat,
		Lng:        req.Lng,
		Accuracy:   req.Accuracy,
		CapturedAt: time.Now(),
	})
	w.WriteHeader(http.StatusAccepted)
}

// HandleRefresh triggers a one-shot acquisition, bypassing the tracking gate.
func (h *LocationHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	h.sampler.TriggerNow()
	w.WriteHeader(http.StatusAccepted)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

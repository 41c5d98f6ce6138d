package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// TrackingHandler toggles the sampler's tracking gate.
type TrackingHandler struct {
	sampler Sampler
}

// NewTrackingHandler creates a TrackingHandler.
func NewTrackingHandler(smp Sampler) *TrackingHandler {
	return &TrackingHandler{sampler: smp}
}

type trackingState struct {
	Tracking bool `json:"tracking"`
}

// HandleGet returns the current tracking state.
func (h *TrackingHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, trackingState{Tracking: h.sampler.IsTracking()})
}

// HandleSet switches tracking on or off.
func (h *TrackingHandler) HandleSet(w http.ResponseWriter, r *http.Request) {
	var req trackingState
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid tracking request", http.StatusBadRequest)
		return
	}
	h.sampler.SetTracking(req.Tracking)
	slog.Info("Tracking toggled", "tracking", req.Tracking)
	writeJSON(w, trackingState{Tracking: h.sampler.IsTracking()})
}

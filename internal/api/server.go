package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"locpulse/pkg/version"
)

// NewServer creates and configures the HTTP server.
// It accepts handlers for all API endpoints and a shutdownFunc for graceful shutdown.
func NewServer(addr string, loc *LocationHandler, trk *TrackingHandler, stats *StatsHandler, click *ClickHandler, ws *WSHandler, shutdown func()) *http.Server {
	mux := http.NewServeMux()

	// 1. Health Endpoint
	mux.HandleFunc("GET /health", handleHealth)

	// 2. Version Endpoint
	mux.HandleFunc("GET /api/version", handleVersion)

	// 3. Location Endpoints
	mux.HandleFunc("GET /api/location/last", loc.HandleLast)
	mux.HandleFunc("GET /api/location/history", loc.HandleHistory)
	mux.HandleFunc("GET /api/location/track", loc.HandleTrack)
	mux.HandleFunc("POST /api/location/report", loc.HandleReport)
	mux.HandleFunc("POST /api/location/refresh", loc.HandleRefresh)

	// 4. Tracking Toggle
	mux.HandleFunc("GET /api/tracking", trk.HandleGet)
	mux.HandleFunc("POST /api/tracking", trk.HandleSet)

	// 5. Stats Endpoint
	mux.Handle("GET /api/stats", stats)

	// 6. Notification Click Callback
	mux.HandleFunc("POST /api/notifications/click", click.HandleClick)

	// 7. Page Client Socket
	mux.HandleFunc("GET /api/ws", ws.HandleWS)

	// 8. Shutdown Endpoint
	mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Graceful shutdown initiated via API")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("Shutting down...")); err != nil {
			slog.Error("Failed to write shutdown response", "error", err)
		}
		// Call shutdown in a goroutine to allow response to flush
		go func() {
			time.Sleep(100 * time.Millisecond)
			shutdown()
		}()
	})

	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprintf(w, `{"version": "%s"}`, version.Version); err != nil {
		slog.Error("Failed to write version response", "error", err)
	}
}

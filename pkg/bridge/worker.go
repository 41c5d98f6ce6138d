package bridge

import (
	"context"
	"encoding/json"
	"log/slog"

	"locpulse/pkg/model"
	"locpulse/pkg/notify"
)

// Worker is the background message loop. It owns an inbox channel and runs
// independently of any page: pages come and go, the worker keeps running.
// Unknown message types are dropped without logging noise.
type Worker struct {
	inbox    chan model.Message
	notifier notify.Notifier
	registry *ClientRegistry
	router   *ClickRouter
}

// NewWorker creates a background worker.
func NewWorker(notifier notify.Notifier, registry *ClientRegistry, router *ClickRouter) *Worker {
	return &Worker{
		inbox:    make(chan model.Message, 32),
		notifier: notifier,
		registry: registry,
		router:   router,
	}
}

// Post puts a message in the worker inbox. Non-blocking: when the inbox is
// full the message is dropped, matching at-most-once semantics.
func (w *Worker) Post(msg model.Message) {
	select {
	case w.inbox <- msg:
	default:
		slog.Warn("Worker inbox full, message dropped", "type", msg.Type)
	}
}

// Router exposes the click router for platform click callbacks.
func (w *Worker) Router() *ClickRouter {
	return w.router
}

// Run processes the inbox until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	slog.Info("Background worker started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("Background worker stopped")
			return
		case msg := <-w.inbox:
			w.handle(ctx, msg)
		}
	}
}

func (w *Worker) handle(ctx context.Context, msg model.Message) {
	switch msg.Type {
	case model.MsgLocationChanged:
		var p model.LocationChangedPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			slog.Warn("Malformed LOCATION_CHANGED payload", "error", err)
			return
		}
		slog.Debug("Location changed", "lat", p.Lat, "lng", p.Lng)

	case model.MsgLocationNotification:
		var n model.Notification
		if err := json.Unmarshal(msg.Payload, &n); err != nil {
			slog.Warn("Malformed LOCATION_NOTIFICATION payload", "error", err)
			return
		}
		w.router.Displayed(n)
		if !w.notifier.Ready() {
			slog.Warn("Notifier not ready, notification dropped", "title", n.Title)
			return
		}
		if err := w.notifier.Show(ctx, n); err != nil {
			slog.Error("Notification delivery failed", "title", n.Title, "error", err)
		}

	default:
		// Unknown types are ignored so protocol additions don't break
		// older workers.
	}
}

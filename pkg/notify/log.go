package notify

import (
	"context"
	"log/slog"

	"locpulse/pkg/model"
)

// LogNotifier writes notifications to the log. It is the channel of last
// resort and is always ready.
type LogNotifier struct{}

func (LogNotifier) Ready() bool { return true }

func (LogNotifier) Show(_ context.Context, n model.Notification) error {
	slog.Info("Notification", "title", n.Title, "body", n.Body, "place", n.PlaceName)
	return nil
}

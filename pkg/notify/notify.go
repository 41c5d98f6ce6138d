// Package notify delivers platform notifications. Delivery is fire and
// forget: a channel either shows the notification or it doesn't, and the
// pipeline moves on either way.
package notify

import (
	"context"

	"locpulse/pkg/model"
)

// Notifier is one delivery channel for notifications.
type Notifier interface {
	// Ready reports whether the channel can currently deliver. A channel
	// that is not ready is skipped without error.
	Ready() bool
	// Show delivers the notification. Errors are logged by callers and
	// never retried; there is no delivery receipt.
	Show(ctx context.Context, n model.Notification) error
}

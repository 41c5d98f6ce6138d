package notify

import (
	"context"

	"locpulse/pkg/model"
)

// PageBroadcaster is the page-client fanout the toast channel delivers
// through.
type PageBroadcaster interface {
	Len() int
	Broadcast(msg model.Message)
}

// Toast delivers a notification as an in-page toast: the notification is
// broadcast to every connected page, which renders it itself. Ready only
// while at least one page is connected.
type Toast struct {
	pages PageBroadcaster
}

// NewToast creates a toast channel over the given page fanout.
func NewToast(pages PageBroadcaster) *Toast {
	return &Toast{pages: pages}
}

func (t *Toast) Ready() bool {
	return t.pages.Len() > 0
}

func (t *Toast) Show(_ context.Context, n model.Notification) error {
	t.pages.Broadcast(model.NewMessage(model.MsgLocationNotification, n))
	return nil
}

package bridge

import (
	"log/slog"
	"sync"

	"locpulse/pkg/model"
)

// ClickState tracks what happened to the displayed notification.
type ClickState int

const (
	StateIdle ClickState = iota
	StateDisplayed
	StateDismissed
	StateActionTriggered
)

// ClickRouter handles notification click callbacks from the platform. Each
// displayed notification moves through Displayed and settles in either
// Dismissed or ActionTriggered; a settled notification ignores further
// clicks.
type ClickRouter struct {
	registry *ClientRegistry
	opener   WindowOpener
	url      string
	tab      string

	mu      sync.Mutex
	state   ClickState
	current model.Notification
}

// NewClickRouter creates a router targeting the given page URL and tab.
func NewClickRouter(registry *ClientRegistry, opener WindowOpener, targetURL, targetTab string) *ClickRouter {
	return &ClickRouter{
		registry: registry,
		opener:   opener,
		url:      targetURL,
		tab:      targetTab,
	}
}

// Displayed records that a notification is now on screen.
func (r *ClickRouter) Displayed(n model.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = StateDisplayed
	r.current = n
}

// State returns the current click state.
func (r *ClickRouter) State() ClickState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Click routes a user interaction with the displayed notification.
func (r *ClickRouter) Click(intent model.ClickIntent) {
	r.mu.Lock()
	if r.state != StateDisplayed {
		r.mu.Unlock()
		slog.Debug("Click on settled notification ignored", "action", intent.Action)
		return
	}
	current := r.current
	if intent.Action == model.ActionClose {
		r.state = StateDismissed
	} else {
		r.state = StateActionTriggered
	}
	state := r.state
	r.mu.Unlock()

	// Regardless of which button was pressed, a click on a notification
	// that carries a place name refreshes every open page's record copy.
	if current.PlaceName != "" {
		r.registry.Broadcast(model.NewMessage(model.MsgUpdateLastNotified, model.UpdateLastNotifiedPayload{
			Lat:       current.Data.Lat,
			Lng:       current.Data.Lng,
			PlaceName: current.PlaceName,
		}))
	}

	if state == StateDismissed {
		return
	}

	url, tab := intent.URL, intent.Tab
	if url == "" {
		url, tab = r.url, r.tab
	}

	clients := r.registry.Clients()
	if len(clients) == 0 {
		if r.opener == nil {
			slog.Warn("No clients and no window opener, click dropped")
			return
		}
		if err := r.opener.OpenWindow(url); err != nil {
			slog.Error("Failed to open window", "url", url, "error", err)
		}
		return
	}

	// Exactly one client navigates; focusing more than one page would
	// fight the window manager.
	target := clients[0]
	if err := target.Post(model.NewMessage(model.MsgNavigate, model.NavigatePayload{URL: url, Tab: tab})); err != nil {
		slog.Error("Failed to post NAVIGATE", "client", target.ID(), "error", err)
		return
	}
	if err := target.Focus(); err != nil {
		slog.Warn("Failed to focus client", "client", target.ID(), "error", err)
	}
}

// Package nav models page-side navigation driven by NAVIGATE messages.
package nav

import (
	"sync"

	"locpulse/pkg/model"
)

// Event is one navigation a page performed.
type Event struct {
	URL string
	Tab string
}

// Router applies NAVIGATE messages to a page's location state. Navigating to
// the URL the page is already on still emits an event (the tab may differ,
// and listeners re-render on history replace).
type Router struct {
	mu         sync.Mutex
	currentURL string
	currentTab string
	onNavigate func(Event)
}

// NewRouter creates a Router starting at url.
func NewRouter(url string) *Router {
	return &Router{currentURL: url}
}

// OnNavigate registers the callback invoked on every navigation.
func (r *Router) OnNavigate(fn func(Event)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onNavigate = fn
}

// Current returns the page's current URL and tab.
func (r *Router) Current() (string, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentURL, r.currentTab
}

// Navigate applies a NAVIGATE payload.
func (r *Router) Navigate(p model.NavigatePayload) {
	r.mu.Lock()
	r.currentURL = p.URL
	r.currentTab = p.Tab
	fn := r.onNavigate
	r.mu.Unlock()

	if fn != nil {
		fn(Event{URL: p.URL, Tab: p.Tab})
	}
}

// Package bridge connects the background worker to connected page clients.
// Messaging across the boundary is fire and forget: a posted message is
// delivered at most once, and neither side acknowledges or retries.
package bridge

import (
	"sync"

	"github.com/google/uuid"

	"locpulse/pkg/model"
)

// Client is one connected page. Post and Focus may fail when the page is
// gone; the registry drops clients on their first failed Post.
type Client interface {
	ID() string
	Post(msg model.Message) error
	Focus() error
}

// WindowOpener opens a fresh page when no client is connected.
type WindowOpener interface {
	OpenWindow(url string) error
}

// ClientRegistry tracks connected page clients.
type ClientRegistry struct {
	mu      sync.RWMutex
	clients map[string]Client
}

// NewRegistry creates an empty registry.
func NewRegistry() *ClientRegistry {
	return &ClientRegistry{clients: make(map[string]Client)}
}

// NewClientID returns a fresh identifier for a connecting page.
func NewClientID() string {
	return uuid.NewString()
}

// Add registers a client.
func (r *ClientRegistry) Add(c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ID()] = c
}

// Remove unregisters a client by id.
func (r *ClientRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, id)
}

// Clients returns a snapshot of connected clients.
func (r *ClientRegistry) Clients() []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}

// Len returns the number of connected clients.
func (r *ClientRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Broadcast posts msg to every connected client. Failed clients are removed;
// there is no retry.
func (r *ClientRegistry) Broadcast(msg model.Message) {
	for _, c := range r.Clients() {
		if err := c.Post(msg); err != nil {
			r.Remove(c.ID())
		}
	}
}

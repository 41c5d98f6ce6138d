package store

import (
	"context"
	"time"

	"locpulse/pkg/model"
)

// StateStore handles persistent key-value application state.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool)
	SetState(ctx context.Context, key, val string) error
	DeleteState(ctx context.Context, key string) error
}

// CacheStore handles generic key-value caching for the HTTP client.
type CacheStore interface {
	GetCache(ctx context.Context, key string) ([]byte, bool)
	SetCache(ctx context.Context, key string, val []byte) error
}

// HistoryEntry is one row of the append-only notification history.
type HistoryEntry struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	PlaceName  string    `json:"placeName"`
	DistanceM  float64   `json:"distanceMeters"`
	Direction  string    `json:"direction"`
	NotifiedAt time.Time `json:"notifiedAt"`
}

// LocationStore handles the notified-location record and the raw-fix seed.
type LocationStore interface {
	// LastNotified returns the single durable record, or nil if none exists.
	LastNotified(ctx context.Context) (*model.NotifiedLocation, error)
	// SaveNotified overwrites the record unconditionally (last-writer-wins)
	// and returns the stored revision.
	SaveNotified(ctx context.Context, rec model.NotifiedLocation) (int64, error)
	// CompareAndSwapNotified overwrites the record only when the current
	// revision matches expected. Returns ErrRevisionConflict otherwise.
	CompareAndSwapNotified(ctx context.Context, rec model.NotifiedLocation, expected int64) (int64, error)

	// LastFix returns the last persisted raw fix, used as a fallback seed
	// for distance comparison across restarts.
	LastFix(ctx context.Context) (*model.LocationFix, error)
	SaveLastFix(ctx context.Context, fix model.LocationFix) error

	// AppendHistory records a dispatched (or suppressed) notification.
	AppendHistory(ctx context.Context, e HistoryEntry) error
	// RecentHistory returns up to limit entries, newest first.
	RecentHistory(ctx context.Context, limit int) ([]HistoryEntry, error)
}

// Store composes all sub-interfaces for full store access.
// Consumers should depend on specific sub-interfaces when possible.
type Store interface {
	StateStore
	CacheStore
	LocationStore

	// Close closes the store connection.
	Close() error
}

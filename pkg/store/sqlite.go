package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"locpulse/pkg/db"
	"locpulse/pkg/model"
)

// State keys used in persistent_state. Exactly two keys back the pipeline:
// the serialized notified-location record and the last raw fix.
const (
	keyNotifiedLocation = "notified_location"
	keyLastFix          = "last_fix"
)

// ErrRevisionConflict is returned by CompareAndSwapNotified when another
// writer got there first.
var ErrRevisionConflict = errors.New("notified location revision conflict")

// SQLiteStore implements Store.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(db *db.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- State ---

func (s *SQLiteStore) GetState(ctx context.Context, key string) (string, bool) {
	var val string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM persistent_state WHERE key = ?", key).Scan(&val)
	if err != nil {
		return "", false
	}
	return val, true
}

func (s *SQLiteStore) SetState(ctx context.Context, key, val string) error {
	query := `INSERT OR REPLACE INTO persistent_state (key, value, created_at) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, key, val, time.Now())
	return err
}

func (s *SQLiteStore) DeleteState(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM persistent_state WHERE key = ?", key)
	return err
}

// --- Cache ---

func (s *SQLiteStore) GetCache(ctx context.Context, key string) ([]byte, bool) {
	var val []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM cache WHERE key = ?", key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		// Treat read errors as a miss; the caller re-fetches.
		return nil, false
	}
	return val, true
}

func (s *SQLiteStore) SetCache(ctx context.Context, key string, val []byte) error {
	query := `INSERT OR REPLACE INTO cache (key, value, created_at) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, key, val, time.Now())
	return err
}

// --- Notified location record ---

func (s *SQLiteStore) LastNotified(ctx context.Context) (*model.NotifiedLocation, error) {
	raw, ok := s.GetState(ctx, keyNotifiedLocation)
	if !ok {
		return nil, nil
	}

	var rec model.NotifiedLocation
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("corrupt notified location record: %w", err)
	}
	return &rec, nil
}

func (s *SQLiteStore) SaveNotified(ctx context.Context, rec model.NotifiedLocation) (int64, error) {
	return s.writeNotified(ctx, rec, -1)
}

func (s *SQLiteStore) CompareAndSwapNotified(ctx context.Context, rec model.NotifiedLocation, expected int64) (int64, error) {
	return s.writeNotified(ctx, rec, expected)
}

// writeNotified stores the record inside a transaction, bumping the revision.
// expected < 0 means unconditional last-writer-wins.
func (s *SQLiteStore) writeNotified(ctx context.Context, rec model.NotifiedLocation, expected int64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var current int64
	var raw string
	err = tx.QueryRowContext(ctx, "SELECT value FROM persistent_state WHERE key = ?", keyNotifiedLocation).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		current = 0
	case err != nil:
		return 0, err
	default:
		var prev model.NotifiedLocation
		if jsonErr := json.Unmarshal([]byte(raw), &prev); jsonErr == nil {
			current = prev.Revision
		}
	}

	if expected >= 0 && current != expected {
		return current, ErrRevisionConflict
	}

	rec.Revision = current + 1
	data, err := json.Marshal(rec)
	if err != nil {
		return 0, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO persistent_state (key, value, created_at) VALUES (?, ?, ?)`,
		keyNotifiedLocation, string(data), time.Now())
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return rec.Revision, nil
}

// --- Raw fix seed ---

func (s *SQLiteStore) LastFix(ctx context.Context) (*model.LocationFix, error) {
	raw, ok := s.GetState(ctx, keyLastFix)
	if !ok {
		return nil, nil
	}

	var fix model.LocationFix
	if err := json.Unmarshal([]byte(raw), &fix); err != nil {
		return nil, fmt.Errorf("corrupt last fix: %w", err)
	}
	return &fix, nil
}

func (s *SQLiteStore) SaveLastFix(ctx context.Context, fix model.LocationFix) error {
	data, err := json.Marshal(fix)
	if err != nil {
		return err
	}
	return s.SetState(ctx, keyLastFix, string(data))
}

// --- History ---

func (s *SQLiteStore) AppendHistory(ctx context.Context, e HistoryEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notified_history (lat, lng, place_name, distance_m, direction, notified_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.Lat, e.Lng, e.PlaceName, e.DistanceM, e.Direction, e.NotifiedAt)
	return err
}

func (s *SQLiteStore) RecentHistory(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT lat, lng, place_name, distance_m, direction, notified_at
		 FROM notified_history ORDER BY notified_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.Lat, &e.Lng, &e.PlaceName, &e.DistanceM, &e.Direction, &e.NotifiedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

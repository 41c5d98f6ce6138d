package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locpulse/pkg/db"
	"locpulse/pkg/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	d, err := db.Init(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return NewSQLiteStore(d)
}

func TestStateRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, ok := s.GetState(ctx, "missing")
	assert.False(t, ok)

	require.NoError(t, s.SetState(ctx, "k", "v1"))
	val, ok := s.GetState(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "v1", val)

	// Overwrite
	require.NoError(t, s.SetState(ctx, "k", "v2"))
	val, _ = s.GetState(ctx, "k")
	assert.Equal(t, "v2", val)

	require.NoError(t, s.DeleteState(ctx, "k"))
	_, ok = s.GetState(ctx, "k")
	assert.False(t, ok)
}

func TestNotifiedRecordOverwrite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec, err := s.LastNotified(ctx)
	require.NoError(t, err)
	assert.Nil(t, rec, "no record before first dispatch")

	rev, err := s.SaveNotified(ctx, model.NotifiedLocation{
		Lat: 1, Lng: 2, PlaceName: "Old Town", NotifiedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rev)

	// Exactly one record lives in storage; a second save replaces it.
	rev, err = s.SaveNotified(ctx, model.NotifiedLocation{
		Lat: 3, Lng: 4, PlaceName: "New Town", NotifiedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), rev)

	rec, err = s.LastNotified(ctx)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "New Town", rec.PlaceName)
	assert.Equal(t, 3.0, rec.Lat)
	assert.Equal(t, int64(2), rec.Revision)
}

func TestNotifiedRecordCAS(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// First write against an empty record expects revision 0.
	rev, err := s.CompareAndSwapNotified(ctx, model.NotifiedLocation{PlaceName: "A"}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rev)

	// Stale expected revision is rejected.
	_, err = s.CompareAndSwapNotified(ctx, model.NotifiedLocation{PlaceName: "B"}, 0)
	assert.ErrorIs(t, err, ErrRevisionConflict)

	rec, _ := s.LastNotified(ctx)
	assert.Equal(t, "A", rec.PlaceName, "conflicting write must not clobber")

	// Matching revision succeeds.
	rev, err = s.CompareAndSwapNotified(ctx, model.NotifiedLocation{PlaceName: "B"}, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rev)
}

func TestLastFixSeed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	fix, err := s.LastFix(ctx)
	require.NoError(t, err)
	assert.Nil(t, fix)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.SaveLastFix(ctx, model.LocationFix{Lat: 9, Lng: 8, CapturedAt: now}))

	fix, err = s.LastFix(ctx)
	require.NoError(t, err)
	require.NotNil(t, fix)
	assert.Equal(t, 9.0, fix.Lat)
	assert.True(t, fix.CapturedAt.Equal(now))
}

func TestHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		require.NoError(t, s.AppendHistory(ctx, HistoryEntry{
			Lat: float64(i), Lng: 0, PlaceName: "P",
			DistanceM: 10, Direction: "N",
			NotifiedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	entries, err := s.RecentHistory(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 2.0, entries[0].Lat, "newest first")
	assert.Equal(t, 1.0, entries[1].Lat)
}

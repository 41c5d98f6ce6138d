package detector

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locpulse/pkg/db"
	"locpulse/pkg/model"
	"locpulse/pkg/store"
)

func newTestDetector(t *testing.T) (*Detector, *store.SQLiteStore) {
	t.Helper()
	database, err := db.Init(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	st := store.NewSQLiteStore(database)
	return New(st, 5), st
}

func TestFirstFixAlwaysSignificant(t *testing.T) {
	d, _ := newTestDetector(t)
	ctx := context.Background()

	fix := model.LocationFix{Lat: 52.52, Lng: 13.405, CapturedAt: time.Now()}
	move, significant := d.Evaluate(ctx, fix)
	assert.True(t, significant)
	assert.Equal(t, fix, move.Fix)
	assert.Zero(t, move.DistanceMeters)
}

func TestInsignificantMovementIsIdempotent(t *testing.T) {
	d, st := newTestDetector(t)
	ctx := context.Background()

	_, err := st.SaveNotified(ctx, model.NotifiedLocation{Lat: 52.52, Lng: 13.405, PlaceName: "Berlin"})
	require.NoError(t, err)

	// ~2m east of the notified record, well under the 5m threshold.
	fix := model.LocationFix{Lat: 52.52, Lng: 13.40503}
	for i := 0; i < 3; i++ {
		_, significant := d.Evaluate(ctx, fix)
		assert.False(t, significant, "evaluation %d", i)
	}
}

func TestComparesAgainstNotifiedRecordNotRawFix(t *testing.T) {
	d, st := newTestDetector(t)
	ctx := context.Background()

	_, err := st.SaveNotified(ctx, model.NotifiedLocation{Lat: 52.52, Lng: 13.405})
	require.NoError(t, err)

	// Creep in 3m steps. Each step is under the threshold relative to the
	// notified record until the cumulative drift crosses it; the raw fixes
	// between evaluations must not reset the baseline.
	steps := []model.LocationFix{
		{Lat: 52.52, Lng: 13.40504}, // ~2.7m
		{Lat: 52.52, Lng: 13.40506}, // ~4.1m
		{Lat: 52.52, Lng: 13.40510}, // ~6.8m
	}
	_, sig := d.Evaluate(ctx, steps[0])
	assert.False(t, sig)
	_, sig = d.Evaluate(ctx, steps[1])
	assert.False(t, sig)
	move, sig := d.Evaluate(ctx, steps[2])
	assert.True(t, sig)
	assert.Greater(t, move.DistanceMeters, 5.0)
	assert.Equal(t, "E", move.Direction)
}

func TestLastFixSeedsBaseline(t *testing.T) {
	d, st := newTestDetector(t)
	ctx := context.Background()

	// No notified record, but a persisted raw fix from a prior session.
	require.NoError(t, st.SaveLastFix(ctx, model.LocationFix{Lat: 52.52, Lng: 13.405}))

	_, significant := d.Evaluate(ctx, model.LocationFix{Lat: 52.52, Lng: 13.40502})
	assert.False(t, significant, "near the seed, should not fire")

	move, significant := d.Evaluate(ctx, model.LocationFix{Lat: 52.521, Lng: 13.405})
	assert.True(t, significant)
	assert.Equal(t, "N", move.Direction)
}

func TestSignificantMoveCarriesDistanceAndDirection(t *testing.T) {
	d, st := newTestDetector(t)
	ctx := context.Background()

	_, err := st.SaveNotified(ctx, model.NotifiedLocation{Lat: 0, Lng: 0})
	require.NoError(t, err)

	move, significant := d.Evaluate(ctx, model.LocationFix{Lat: 0, Lng: 0.01})
	require.True(t, significant)
	assert.InDelta(t, 1113, move.DistanceMeters, 10)
	assert.Equal(t, "E", move.Direction)
}

// Package dispatcher turns significant moves into delivered notifications
// and keeps the durable notified-location record in sync.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"locpulse/pkg/geo"
	"locpulse/pkg/model"
	"locpulse/pkg/notify"
	"locpulse/pkg/store"
	"locpulse/pkg/tracker"
)

// Broadcaster fans a message out to every connected page.
type Broadcaster interface {
	Broadcast(msg model.Message)
}

// Dispatcher deduplicates per quantized bucket, delivers through the first
// ready channel, then overwrites the record. Delivery is fire and forget:
// channel errors are logged and ignored, and the record updates regardless.
type Dispatcher struct {
	store       store.LocationStore
	tracker     *tracker.Tracker
	quantizer   geo.Quantizer
	channels    []notify.Notifier
	broadcaster Broadcaster
	dedupCap    int
	targetURL   string
	targetTab   string

	mu   sync.Mutex
	seen map[string]int // bucket key -> notifications sent this session
}

// Config holds dispatcher settings.
type Config struct {
	DedupCap  int
	TargetURL string
	TargetTab string
}

// New creates a Dispatcher. Channels are tried in order; the first one that
// reports Ready gets the notification.
func New(st store.LocationStore, tr *tracker.Tracker, q geo.Quantizer, channels []notify.Notifier, b Broadcaster, cfg Config) *Dispatcher {
	if cfg.DedupCap <= 0 {
		cfg.DedupCap = 2
	}
	return &Dispatcher{
		store:       st,
		tracker:     tr,
		quantizer:   q,
		channels:    channels,
		broadcaster: b,
		dedupCap:    cfg.DedupCap,
		targetURL:   cfg.TargetURL,
		targetTab:   cfg.TargetTab,
		seen:        make(map[string]int),
	}
}

// Dispatch handles one significant move. The notified-location record is
// updated even when delivery is suppressed or fails, so the detector's
// baseline always reflects the latest significant position.
func (d *Dispatcher) Dispatch(ctx context.Context, move model.Move, placeName string) error {
	suppressed := d.bumpBucket(move.Fix)

	if suppressed {
		d.tracker.TrackSuppressed("dispatch")
		slog.Debug("Notification suppressed by dedup cap", "place", placeName)
	} else {
		d.deliver(ctx, move, placeName)
	}

	if err := d.updateRecord(ctx, move, placeName); err != nil {
		return fmt.Errorf("failed to update notified record: %w", err)
	}

	if d.broadcaster != nil {
		d.broadcaster.Broadcast(model.NewMessage(model.MsgUpdateLastNotified, model.UpdateLastNotifiedPayload{
			Lat:       move.Fix.Lat,
			Lng:       move.Fix.Lng,
			PlaceName: placeName,
		}))
	}
	return nil
}

// bumpBucket counts the fix against its quantized bucket and reports whether
// the per-session cap is already exhausted.
func (d *Dispatcher) bumpBucket(fix model.LocationFix) bool {
	key := d.quantizer.Key(geo.Point{Lat: fix.Lat, Lng: fix.Lng})
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen[key] >= d.dedupCap {
		return true
	}
	d.seen[key]++
	return false
}

func (d *Dispatcher) deliver(ctx context.Context, move model.Move, placeName string) {
	n := model.Notification{
		Title:              "You've moved!",
		Body:               fmt.Sprintf("%s (%s %s)", placeName, geo.FormatDistance(move.DistanceMeters), move.Direction),
		PlaceName:          placeName,
		RequireInteraction: true,
		Data: model.NotificationData{
			Lat:       move.Fix.Lat,
			Lng:       move.Fix.Lng,
			PlaceName: placeName,
			URL:       d.targetURL,
			Tab:       d.targetTab,
		},
		Actions: []model.NotificationAction{
			{Action: string(model.ActionUpdate), Title: "Update"},
			{Action: string(model.ActionClose), Title: "Close"},
		},
	}
	if move.DistanceMeters == 0 {
		// First fix ever: there is no delta to describe.
		n.Body = placeName
	}

	for _, ch := range d.channels {
		if !ch.Ready() {
			continue
		}
		if err := ch.Show(ctx, n); err != nil {
			slog.Warn("Notification channel failed", "error", err)
		} else {
			d.tracker.TrackDelivered("dispatch")
		}
		return
	}
	slog.Warn("No ready notification channel", "place", placeName)
}

// updateRecord overwrites the notified-location record. It tries a CAS
// against the revision it read; on conflict it retries once with the fresh
// revision, then falls back to last-writer-wins.
func (d *Dispatcher) updateRecord(ctx context.Context, move model.Move, placeName string) error {
	rec := model.NotifiedLocation{
		Lat:        move.Fix.Lat,
		Lng:        move.Fix.Lng,
		PlaceName:  placeName,
		NotifiedAt: time.Now(),
	}

	if err := d.writeWithCAS(ctx, rec); err != nil {
		return err
	}

	if err := d.store.SaveLastFix(ctx, move.Fix); err != nil {
		slog.Warn("Failed to persist raw fix seed", "error", err)
	}
	if err := d.store.AppendHistory(ctx, store.HistoryEntry{
		Lat:        rec.Lat,
		Lng:        rec.Lng,
		PlaceName:  placeName,
		DistanceM:  move.DistanceMeters,
		Direction:  move.Direction,
		NotifiedAt: rec.NotifiedAt,
	}); err != nil {
		slog.Warn("Failed to append history", "error", err)
	}
	return nil
}

func (d *Dispatcher) writeWithCAS(ctx context.Context, rec model.NotifiedLocation) error {
	for attempt := 0; attempt < 2; attempt++ {
		current, err := d.store.LastNotified(ctx)
		if err != nil {
			return err
		}
		var expected int64
		if current != nil {
			expected = current.Revision
		}
		_, err = d.store.CompareAndSwapNotified(ctx, rec, expected)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrRevisionConflict) {
			return err
		}
	}
	// Two losses in a row: take the write anyway, newest state wins.
	_, err := d.store.SaveNotified(ctx, rec)
	return err
}

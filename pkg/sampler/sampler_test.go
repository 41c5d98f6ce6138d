package sampler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"locpulse/pkg/model"
)

// stubSource lets tests control the watch stream and one-shot acquisitions.
type stubSource struct {
	watch      chan model.LocationFix
	currentErr error
	current    atomic.Int64 // counts Current calls
}

func newStubSource() *stubSource {
	return &stubSource{watch: make(chan model.LocationFix, 8)}
}

func (s *stubSource) Watch(ctx context.Context) (<-chan model.LocationFix, error) {
	return s.watch, nil
}

func (s *stubSource) Current(ctx context.Context) (model.LocationFix, error) {
	s.current.Add(1)
	if s.currentErr != nil {
		return model.LocationFix{}, s.currentErr
	}
	return model.LocationFix{Lat: 50, Lng: 8, CapturedAt: time.Now()}, nil
}

func collect(t *testing.T, ch <-chan model.LocationFix, timeout time.Duration) *model.LocationFix {
	t.Helper()
	select {
	case fix := <-ch:
		return &fix
	case <-time.After(timeout):
		return nil
	}
}

func TestAllProducersShareOneIntake(t *testing.T) {
	src := newStubSource()
	s := New(src, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	// Watch producer
	src.watch <- model.LocationFix{Lat: 1, Lng: 1, CapturedAt: time.Now()}
	if fix := collect(t, s.Fixes(), time.Second); fix == nil || fix.Lat != 1 {
		t.Fatalf("expected watch fix on intake, got %+v", fix)
	}

	// Poll producer fires on its own
	if fix := collect(t, s.Fixes(), time.Second); fix == nil || fix.Lat != 50 {
		t.Fatalf("expected polled fix on intake, got %+v", fix)
	}

	// Manual producer
	s.TriggerNow()
	if fix := collect(t, s.Fixes(), time.Second); fix == nil {
		t.Fatal("expected manual fix on intake")
	}
}

func TestTrackingDisabledStopsAcquisition(t *testing.T) {
	src := newStubSource()
	s := New(src, 10*time.Millisecond)
	s.SetTracking(false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	// Watch results are discarded at the intake gate.
	src.watch <- model.LocationFix{Lat: 1, Lng: 1, CapturedAt: time.Now()}
	if fix := collect(t, s.Fixes(), 100*time.Millisecond); fix != nil {
		t.Fatalf("expected no fixes while tracking disabled, got %+v", fix)
	}

	// The poll producer must not acquire at all.
	before := src.current.Load()
	time.Sleep(50 * time.Millisecond)
	if src.current.Load() != before {
		t.Error("poll producer acquired while tracking disabled")
	}
}

func TestManualTriggerBypassesTrackingGate(t *testing.T) {
	src := newStubSource()
	s := New(src, time.Hour) // poll effectively off
	s.SetTracking(false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	s.TriggerNow()
	if fix := collect(t, s.Fixes(), time.Second); fix == nil {
		t.Fatal("manual trigger should acquire even when tracking is off")
	}
}

func TestAcquisitionFailureDoesNotStopSampling(t *testing.T) {
	src := newStubSource()
	src.currentErr = errors.New("permission denied")
	s := New(src, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	// Polls fail, but the watch producer keeps flowing.
	time.Sleep(30 * time.Millisecond)
	src.watch <- model.LocationFix{Lat: 7, Lng: 7, CapturedAt: time.Now()}
	if fix := collect(t, s.Fixes(), time.Second); fix == nil || fix.Lat != 7 {
		t.Fatalf("watch producer should survive poll failures, got %+v", fix)
	}
}

func TestPushSourceCurrentWaitsForFreshFix(t *testing.T) {
	p := NewPushSource()

	// No cached position: Current times out without a report.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := p.Current(ctx); err == nil {
		t.Fatal("expected timeout without a fresh report")
	}

	done := make(chan model.LocationFix, 1)
	go func() {
		fix, err := p.Current(context.Background())
		if err == nil {
			done <- fix
		}
	}()
	time.Sleep(10 * time.Millisecond)
	p.Report(model.LocationFix{Lat: 4, Lng: 5, CapturedAt: time.Now()})

	select {
	case fix := <-done:
		if fix.Lat != 4 {
			t.Errorf("unexpected fix %+v", fix)
		}
	case <-time.After(time.Second):
		t.Fatal("Current never saw the report")
	}
}

func TestMockGPSWalks(t *testing.T) {
	m := NewMockGPS(mockCfg())

	a, err := m.Current(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.Current(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if a.Lat == b.Lat && a.Lng == b.Lng {
		t.Error("mock source should move between acquisitions")
	}
}

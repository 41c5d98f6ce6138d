package sampler

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"locpulse/pkg/config"
	"locpulse/pkg/model"
)

// MockGPS is a random-walk position source for development and tests.
type MockGPS struct {
	mu       sync.Mutex
	lat, lng float64
	stepM    float64
	interval time.Duration
	rng      *rand.Rand
}

// NewMockGPS creates a mock source at the configured start position.
func NewMockGPS(cfg config.MockGPSConfig) *MockGPS {
	stepM := cfg.StepM
	if stepM <= 0 {
		stepM = 3.0
	}
	interval := time.Duration(cfg.Interval)
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &MockGPS{
		lat:      cfg.StartLat,
		lng:      cfg.StartLng,
		stepM:    stepM,
		interval: interval,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// step advances the walk by one random step and returns the new fix.
func (m *MockGPS) step() model.LocationFix {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Roughly stepM meters in a random direction.
	bearing := m.rng.Float64() * 2 * math.Pi
	dLat := (m.stepM / 111320.0) * math.Cos(bearing)
	dLng := (m.stepM / (111320.0 * math.Cos(m.lat*math.Pi/180))) * math.Sin(bearing)
	m.lat += dLat
	m.lng += dLng

	return model.LocationFix{
		Lat:        m.lat,
		Lng:        m.lng,
		Accuracy:   m.stepM,
		CapturedAt: time.Now(),
	}
}

// Watch implements Source.
func (m *MockGPS) Watch(ctx context.Context) (<-chan model.LocationFix, error) {
	out := make(chan model.LocationFix)

	go func() {
		defer close(out)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				select {
				case out <- m.step():
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Current implements Source.
func (m *MockGPS) Current(ctx context.Context) (model.LocationFix, error) {
	if err := ctx.Err(); err != nil {
		return model.LocationFix{}, err
	}
	return m.step(), nil
}

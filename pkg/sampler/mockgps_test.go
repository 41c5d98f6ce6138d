package sampler

import (
	"time"

	"locpulse/pkg/config"
)

func mockCfg() config.MockGPSConfig {
	return config.MockGPSConfig{
		StartLat: 51.6845,
		StartLng: 14.4234,
		StepM:    3.0,
		Interval: config.Duration(10 * time.Millisecond),
	}
}

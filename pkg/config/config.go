package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	DB       DBConfig       `yaml:"db"`
	Log      LogConfig      `yaml:"log"`
	Request  RequestConfig  `yaml:"request"`
	Sampler  SamplerConfig  `yaml:"sampler"`
	Detector DetectorConfig `yaml:"detector"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Resolver ResolverConfig `yaml:"resolver"`
	Push     PushConfig     `yaml:"push"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// RequestConfig holds HTTP client settings.
type RequestConfig struct {
	Retries int           `yaml:"retries"`
	Timeout Duration      `yaml:"timeout"`
	Backoff BackoffConfig `yaml:"backoff"`
}

// BackoffConfig holds exponential backoff settings.
type BackoffConfig struct {
	BaseDelay Duration `yaml:"base_delay"`
	MaxDelay  Duration `yaml:"max_delay"`
}

// SamplerConfig holds position acquisition settings.
type SamplerConfig struct {
	Source       string        `yaml:"source"` // "push", "mock"
	PollInterval Duration      `yaml:"poll_interval"`
	TrackSize    int           `yaml:"track_size"`
	Mock         MockGPSConfig `yaml:"mock"`
}

// MockGPSConfig holds settings for the random-walk mock source.
type MockGPSConfig struct {
	StartLat float64  `yaml:"start_lat"`
	StartLng float64  `yaml:"start_lng"`
	StepM    float64  `yaml:"step_m"`
	Interval Duration `yaml:"interval"`
}

// DetectorConfig holds significance gating settings.
type DetectorConfig struct {
	MinDistance Distance `yaml:"min_distance"`
}

// DispatchConfig holds notification dedup and routing settings.
type DispatchConfig struct {
	DedupCap      int    `yaml:"dedup_cap"`
	Quantizer     string `yaml:"quantizer"` // "decimal", "cell"
	Precision     int    `yaml:"precision"` // decimal places for "decimal"
	CellRes       int    `yaml:"cell_resolution"`
	TargetURL     string `yaml:"target_url"`
	TargetTab     string `yaml:"target_tab"`
}

// ResolverConfig holds reverse-geocoding settings.
type ResolverConfig struct {
	Endpoint string `yaml:"endpoint"`
	Language string `yaml:"language"`
	Fallback string `yaml:"fallback"`
}

// PushConfig holds push-provider settings for background delivery.
type PushConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Key      string `yaml:"key"`
	Token    string `yaml:"token"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address: "localhost:1930",
		},
		DB: DBConfig{
			Path: "./data/locpulse.db",
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
		},
		Request: RequestConfig{
			Retries: 3,
			Timeout: Duration(30 * time.Second),
			Backoff: BackoffConfig{
				BaseDelay: Duration(500 * time.Millisecond),
				MaxDelay:  Duration(30 * time.Second),
			},
		},
		Sampler: SamplerConfig{
			Source:       "push",
			PollInterval: Duration(1 * time.Second),
			TrackSize:    500,
			Mock: MockGPSConfig{
				StartLat: 51.6845,
				StartLng: 14.4234,
				StepM:    3.0,
				Interval: Duration(2 * time.Second),
			},
		},
		Detector: DetectorConfig{
			MinDistance: Distance(5), // 5m, dedup absorbs jitter downstream
		},
		Dispatch: DispatchConfig{
			DedupCap:  2,
			Quantizer: "decimal",
			Precision: 6,
			CellRes:   15,
			TargetURL: "/settings/profile",
			TargetTab: "location",
		},
		Resolver: ResolverConfig{
			Endpoint: "https://nominatim.openstreetmap.org/reverse",
			Language: "en",
			Fallback: "Unknown location",
		},
		Push: PushConfig{
			Enabled:  false,
			Endpoint: "https://api.webpushr.com/v1/notification/send/all",
		},
	}
}

// Load loads the configuration from the given path. If the file does not
// exist, it is created with default values. Existing files are merged over
// defaults but never written back (user formatting is preserved).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else {
		if err := Save(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to save config file: %w", err)
		}
	}

	// Secrets fall back to env, never written to disk.
	if cfg.Push.Key == "" {
		cfg.Push.Key = os.Getenv("WEBPUSHR_KEY")
	}
	if cfg.Push.Token == "" {
		cfg.Push.Token = os.Getenv("WEBPUSHR_TOKEN")
	}

	return cfg, nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# locpulse Configuration
# ----------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)
#   Distance: m (meters), km (kilometers)

`)
	data = append(header, data...)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return Save(path, DefaultConfig())
}

// Package probe runs startup checks before the server accepts traffic.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Probe is one startup check. Critical failures abort startup; the rest are
// logged and the application runs degraded.
type Probe struct {
	Name     string
	Critical bool
	Timeout  time.Duration // 0 means the 5s default
	Check    func(ctx context.Context) error
}

// Result is the outcome of one probe.
type Result struct {
	Name     string
	Critical bool
	Err      error
	Took     time.Duration
}

const perProbeTimeout = 5 * time.Second

// Run executes probes in order and logs each outcome. It returns an error
// joining every critical failure, nil when startup may proceed.
func Run(ctx context.Context, probes []Probe) error {
	var critical []error

	slog.Info("Startup checks")
	for _, p := range probes {
		r := runOne(ctx, p)
		status := "PASS"
		if r.Err != nil {
			status = "FAIL"
		}
		msg := fmt.Sprintf("[%s] %-20s (%v)", status, r.Name, r.Took.Round(time.Millisecond))
		if r.Err != nil {
			slog.Error(msg, "error", r.Err)
			if r.Critical {
				critical = append(critical, fmt.Errorf("%s: %w", r.Name, r.Err))
			}
		} else {
			slog.Info(msg)
		}
	}

	return errors.Join(critical...)
}

func runOne(ctx context.Context, p Probe) Result {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = perProbeTimeout
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := p.Check(probeCtx)
	return Result{Name: p.Name, Critical: p.Critical, Err: err, Took: time.Since(start)}
}

package sampler

import (
	"context"
	"sync"

	"locpulse/pkg/model"
)

// PushSource is fed by the device itself: the host page reports geolocation
// fixes over HTTP and every report fans out to watch subscribers. Current
// waits for the next report rather than serving a cached position.
type PushSource struct {
	mu   sync.Mutex
	subs []chan model.LocationFix
}

// NewPushSource creates an empty source; fixes arrive via Report.
func NewPushSource() *PushSource {
	return &PushSource{}
}

// Report injects a device-reported fix. Slow subscribers are skipped, never
// blocked on.
func (p *PushSource) Report(fix model.LocationFix) {
	p.mu.Lock()
	subs := make([]chan model.LocationFix, len(p.subs))
	copy(subs, p.subs)
	p.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- fix:
		default:
		}
	}
}

func (p *PushSource) subscribe() chan model.LocationFix {
	ch := make(chan model.LocationFix, 8)
	p.mu.Lock()
	p.subs = append(p.subs, ch)
	p.mu.Unlock()
	return ch
}

func (p *PushSource) unsubscribe(ch chan model.LocationFix) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, c := range p.subs {
		if c == ch {
			p.subs = append(p.subs[:i], p.subs[i+1:]...)
			return
		}
	}
}

// Watch implements Source.
func (p *PushSource) Watch(ctx context.Context) (<-chan model.LocationFix, error) {
	ch := p.subscribe()
	out := make(chan model.LocationFix)

	go func() {
		defer close(out)
		defer p.unsubscribe(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case fix := <-ch:
				select {
				case out <- fix:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Current implements Source: it blocks until the device reports a fresh fix
// or the context expires. There is no cached position to fall back on.
func (p *PushSource) Current(ctx context.Context) (model.LocationFix, error) {
	ch := p.subscribe()
	defer p.unsubscribe(ch)

	select {
	case fix := <-ch:
		return fix, nil
	case <-ctx.Done():
		return model.LocationFix{}, ctx.Err()
	}
}

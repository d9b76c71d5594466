// Package poller drives periodic work on a fixed interval.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"

	"github.com/urmzd/homai-tivo/pkg/metrics"
)

// Loop calls Run once on start and then every Interval. Ticks never overlap:
// a slow Run delays the next tick instead of running beside it.
type Loop struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Start blocks until ctx is cancelled.
func (l Loop) Start(ctx context.Context) {
	logger := log.With().Str("loop", l.Name).Dur("interval", l.Interval).Logger()
	logger.Debug().Msg("Poll loop started")
	defer logger.Debug().Msg("Poll loop stopped")

	ticker := time.NewTicker(l.Interval)
	defer ticker.Stop()

	for {
		l.tick(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (l Loop) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	err := l.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return
	}
	metrics.PollTick(l.Name, err)
	if err != nil {
		log.Warn().Err(err).Str("loop", l.Name).Msg("Poll failed")
	}
}

// Group runs named loops on their own goroutines.
type Group struct {
	wg     conc.WaitGroup
	parent context.Context

	mu     sync.Mutex
	cancel map[string]context.CancelFunc
}

// NewGroup creates a group whose loops stop when ctx is cancelled.
func NewGroup(ctx context.Context) *Group {
	return &Group{parent: ctx, cancel: map[string]context.CancelFunc{}}
}

// Go starts l, replacing any loop already running under the same name.
func (g *Group) Go(l Loop) {
	ctx, cancel := context.WithCancel(g.parent)

	g.mu.Lock()
	if prev, ok := g.cancel[l.Name]; ok {
		prev()
	}
	g.cancel[l.Name] = cancel
	g.mu.Unlock()

	g.wg.Go(func() { l.Start(ctx) })
}

// Stop cancels the loop with the given name, if any. It does not wait.
func (g *Group) Stop(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cancel, ok := g.cancel[name]; ok {
		cancel()
		delete(g.cancel, name)
	}
}

// Running returns the number of loops started and not yet stopped.
func (g *Group) Running() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.cancel)
}

// Wait cancels every loop and waits for them to return. A panic inside a
// loop is re-raised here.
func (g *Group) Wait() {
	g.mu.Lock()
	for name, cancel := range g.cancel {
		cancel()
		delete(g.cancel, name)
	}
	g.mu.Unlock()

	g.wg.Wait()
}

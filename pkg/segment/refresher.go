package segment

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrymomot/gatekit/pkg/config"
	"github.com/dmitrymomot/gatekit/pkg/logger"
)

// RefresherConfig holds the refresh schedule, loadable from the
// environment via the config package.
type RefresherConfig struct {
	Interval time.Duration `env:"SEGMENT_REFRESH_INTERVAL" envDefault:"15m"` // Interval between full refresh sweeps.
}

// Refresher periodically recomputes the membership of every dynamic
// segment. Staleness policy beyond the fixed interval is the caller's
// concern: the engine records LastCalculatedAt and nothing expires on
// its own.
type Refresher struct {
	engine   *Engine
	interval time.Duration

	stop    chan struct{}
	done    chan struct{}
	startMu sync.Mutex
	started bool
}

// NewRefresher creates a refresher for the engine's dynamic segments.
// A non-positive interval falls back to 15 minutes.
func NewRefresher(engine *Engine, cfg RefresherConfig) *Refresher {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Refresher{
		engine:   engine,
		interval: interval,
	}
}

// NewRefresherFromEnv builds a refresher with the schedule read from
// the environment (SEGMENT_REFRESH_INTERVAL) through the config
// package.
func NewRefresherFromEnv(engine *Engine) (*Refresher, error) {
	var cfg RefresherConfig
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	return NewRefresher(engine, cfg), nil
}

// Start launches the refresh loop. The first sweep runs after one full
// interval. Calling Start twice is a no-op; a stopped refresher may be
// started again.
func (r *Refresher) Start(ctx context.Context) {
	r.startMu.Lock()
	defer r.startMu.Unlock()
	if r.started {
		return
	}
	r.started = true
	r.stop = make(chan struct{})
	r.done = make(chan struct{})

	go r.run(ctx)
}

// Stop terminates the refresh loop and waits for an in-flight sweep to
// finish.
func (r *Refresher) Stop() {
	r.startMu.Lock()
	defer r.startMu.Unlock()
	if !r.started {
		return
	}

	close(r.stop)
	<-r.done
	r.started = false
}

func (r *Refresher) run(ctx context.Context) {
	defer close(r.done)

	r.engine.log.InfoContext(ctx, "segment refresher started",
		logger.Component("segment.refresher"), logger.Duration(r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.RefreshAll(ctx)
		case <-r.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// RefreshAll runs one sweep over all dynamic segments immediately.
// Failures are logged per segment and do not abort the sweep.
func (r *Refresher) RefreshAll(ctx context.Context) {
	segments, err := r.engine.store.ListSegments(ctx)
	if err != nil {
		r.engine.log.ErrorContext(ctx, "segment refresh sweep failed to list segments",
			logger.Error(err))
		return
	}

	for _, seg := range segments {
		if !seg.computed() || !seg.Active {
			continue
		}
		if err := r.engine.RefreshMemberships(ctx, seg.Slug); err != nil {
			r.engine.log.ErrorContext(ctx, "segment refresh failed",
				logger.Segment(seg.Slug), logger.Error(err))
		}
	}
}

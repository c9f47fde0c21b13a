package refrate

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Refresher periodically refreshes a Provider's cache on a cron schedule.
type Refresher struct {
	provider *Provider
	cron     *cron.Cron
	timeout  time.Duration
	logger   *zap.Logger
}

// NewRefresher schedules provider refreshes using a standard five-field cron
// spec or a descriptor such as "@every 6h". Each run is bounded by timeout.
func NewRefresher(provider *Provider, spec string, timeout time.Duration, logger *zap.Logger) (*Refresher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Refresher{
		provider: provider,
		cron:     cron.New(),
		timeout:  timeout,
		logger:   logger,
	}
	if _, err := r.cron.AddFunc(spec, r.run); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	return r, nil
}

// Start begins running scheduled refreshes in the background.
func (r *Refresher) Start() {
	r.cron.Start()
	r.logger.Info("reference rate refresher started",
		zap.String("op", "refrate.Refresher.Start"),
		zap.Time("next", r.Next()),
	)
}

// Stop halts scheduling and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
}

// Next returns the time of the next scheduled refresh, or the zero time when
// the refresher has not been started.
func (r *Refresher) Next() time.Time {
	entries := r.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (r *Refresher) run() {
	ctx := context.Background()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	if _, err := r.provider.Refresh(ctx); err != nil {
		r.logger.Warn("scheduled reference rate refresh failed",
			zap.String("op", "refrate.Refresher.run"),
			zap.Error(err),
		)
	}
}

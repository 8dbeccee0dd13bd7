package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/five82/moor/internal/resource"
)

const defaultPollInterval = time.Second

// poller refreshes one entity kind at a fixed cadence.
type poller struct {
	kind     resource.Kind
	interval time.Duration
	refresh  func(context.Context) error
	logger   *slog.Logger
}

// run refreshes immediately and then on every tick until ctx is cancelled.
// Failures are logged and retried on the next tick.
func (p poller) run(ctx context.Context) error {
	interval := p.interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := p.refresh(ctx); err != nil && ctx.Err() == nil {
			p.logger.Warn("poll failed", "kind", p.kind.String(), "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

package monitoring

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

const HEALTHCHECK_TIMER = 15

type HealthChecker interface {
	HealthCheck(ctx context.Context) bool
}

// MonitorScorerHealth probes checker once immediately and then every
// HEALTHCHECK_TIMER seconds, storing the result in healthy until ctx ends.
func MonitorScorerHealth(ctx context.Context, clock clockwork.Clock, checker HealthChecker, healthy *atomic.Bool) {
	probe := func() {
		isHealthy := checker.HealthCheck(ctx)
		if healthy.Swap(isHealthy) != isHealthy && !isHealthy {
			slog.Warn("[HealthCheck] Scorer is unhealthy")
		}
	}

	probe()

	ticker := clock.NewTicker(time.Second * HEALTHCHECK_TIMER)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			probe()
		}
	}
}

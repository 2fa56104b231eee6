package monitoring

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

type flipChecker struct {
	healthy atomic.Bool
	calls   atomic.Int32
}

func (f *flipChecker) HealthCheck(context.Context) bool {
	f.calls.Add(1)
	return f.healthy.Load()
}

func TestMonitorScorerHealth(t *testing.T) {
	clock := clockwork.NewFakeClock()
	checker := &flipChecker{}
	checker.healthy.Store(true)

	var healthy atomic.Bool
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		MonitorScorerHealth(ctx, clock, checker, &healthy)
		close(done)
	}()

	assert.Eventually(t, healthy.Load, time.Second, 5*time.Millisecond)

	checker.healthy.Store(false)
	assert.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(HEALTHCHECK_TIMER * time.Second)

	assert.Eventually(t, func() bool { return !healthy.Load() }, time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, checker.calls.Load(), int32(2))

	cancel()
	<-done
}

package scheduler

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultCacheHealthInterval = 30 * time.Second
	cachePingTimeout           = 3 * time.Second
)

// Pinger is the part of the redis client the health monitor needs
type Pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// StartCacheHealthMonitor periodically pings Redis to detect connectivity issues.
// The returned function stops the monitor and waits for it to exit.
func StartCacheHealthMonitor(parent context.Context, client Pinger, interval time.Duration, logger *zap.Logger) func() {
	if interval <= 0 {
		interval = defaultCacheHealthInterval
	}
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		failures := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				pingCtx, pingCancel := context.WithTimeout(ctx, cachePingTimeout)
				err := client.Ping(pingCtx).Err()
				pingCancel()

				switch {
				case err != nil && ctx.Err() == nil:
					failures++
					logger.Warn("Redis healthcheck failed", zap.Int("consecutive_failures", failures), zap.Error(err))
				case err == nil && failures > 0:
					logger.Info("Redis healthcheck recovered", zap.Int("failures", failures))
					failures = 0
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

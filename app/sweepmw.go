package app

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type reconciler interface {
	Reconcile(ctx context.Context)
}

// TriggerSweep reconciles stale sessions before the request is handled, so a
// reservation past its window or a rental past its deadline is never read or
// acted upon unreconciled. A redis SetNX throttle keeps the reconcile from
// running more than once per `throttle` across all instances; the cron
// schedule in main is the backstop. When redis is unreachable the reconcile
// runs anyway: staleness protection must not depend on the throttle's health.
func TriggerSweep(sweeper reconciler, rdb *redis.Client, throttle time.Duration, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	const throttleKey = "rental:sweep:pre_request"
	return func(c *gin.Context) {
		ok, err := rdb.SetNX(c.Request.Context(), throttleKey, "1", throttle).Result()
		if err != nil {
			log.Warn("sweep throttle unavailable, reconciling anyway", zap.Error(err))
			ok = true
		}
		if ok {
			sweeper.Reconcile(c.Request.Context())
		}
		c.Next()
	}
}

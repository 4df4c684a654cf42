package middleware

import (
	"strconv"
	"time"

	"github.com/akc-construction/crm/internal/metrics"
	"github.com/gofiber/fiber/v2"
)

// MetricsMiddleware observes request latency by route pattern, so ids in the
// path do not create new series.
func MetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(c.Method(), c.Route().Path, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
		return err
	}
}

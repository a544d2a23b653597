package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/metrics"
)

// Metrics records request latency per matched route. The route pattern is
// used instead of the raw path to keep label cardinality bounded.
func Metrics() fiber.Handler {
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

		route := "unmatched"
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}

		metrics.HTTPRequestDuration.
			WithLabelValues(c.Method(), route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
		return err
	}
}

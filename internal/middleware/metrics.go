package middleware

import (
	"strconv"
	"time"

	"catalog-service/prometheus"

	"github.com/labstack/echo/v4"
)

// MetricsMiddleware records request counts and durations by route
func MetricsMiddleware(m *prometheus.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			m.RecordHTTPRequest(c.Request().Method, path, strconv.Itoa(status), time.Since(start))

			return err
		}
	}
}

package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// SecurityHeaders sets the headers a JSON API holding patient data needs:
// no sniffing, no framing, no referrer and no caching of responses. HSTS is
// sent only when hsts is positive, which production deployments behind TLS
// should set; development servers speak plain HTTP.
func SecurityHeaders(hsts time.Duration) echo.MiddlewareFunc {
	var hstsValue string
	if hsts > 0 {
		hstsValue = "max-age=" + strconv.FormatInt(int64(hsts/time.Second), 10) + "; includeSubDomains"
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Cache-Control", "no-store")
			if hstsValue != "" {
				h.Set("Strict-Transport-Security", hstsValue)
			}
			return next(c)
		}
	}
}

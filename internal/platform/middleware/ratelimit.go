package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// ThrottleConfig limits how often one client address may hit a route.
type ThrottleConfig struct {
	PerMinute int
	Burst     int
	// IdleAfter drops a client's bucket once it has been full this long.
	IdleAfter time.Duration
}

func DefaultThrottleConfig() ThrottleConfig {
	return ThrottleConfig{PerMinute: 10, Burst: 5, IdleAfter: 10 * time.Minute}
}

type bucket struct {
	tokens float64
	last   time.Time
}

type throttle struct {
	mu      sync.Mutex
	cfg     ThrottleConfig
	rate    float64 // tokens per second
	buckets map[string]*bucket
	now     func() time.Time
	swept   time.Time
}

func newThrottle(cfg ThrottleConfig, now func() time.Time) *throttle {
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	return &throttle{
		cfg:     cfg,
		rate:    float64(cfg.PerMinute) / 60,
		buckets: make(map[string]*bucket),
		now:     now,
		swept:   now(),
	}
}

// take spends one token for key. When none is left it returns the number of
// seconds until one is.
func (t *throttle) take(key string) (ok bool, retryAfter int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.evict(now)

	b, found := t.buckets[key]
	if !found {
		b = &bucket{tokens: float64(t.cfg.Burst), last: now}
		t.buckets[key] = b
	}
	b.tokens += now.Sub(b.last).Seconds() * t.rate
	if max := float64(t.cfg.Burst); b.tokens > max {
		b.tokens = max
	}
	b.last = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	if t.rate <= 0 {
		return false, 60
	}
	return false, int((1-b.tokens)/t.rate) + 1
}

func (t *throttle) evict(now time.Time) {
	if t.cfg.IdleAfter <= 0 || now.Sub(t.swept) < t.cfg.IdleAfter {
		return
	}
	for k, b := range t.buckets {
		if now.Sub(b.last) >= t.cfg.IdleAfter {
			delete(t.buckets, k)
		}
	}
	t.swept = now
}

// Throttle rejects a client address with 429 once it runs out of tokens.
// It guards the credential endpoints against password guessing.
func Throttle(cfg ThrottleConfig) echo.MiddlewareFunc {
	return throttleWithClock(cfg, time.Now)
}

func throttleWithClock(cfg ThrottleConfig, now func() time.Time) echo.MiddlewareFunc {
	t := newThrottle(cfg, now)
	limit := strconv.Itoa(cfg.PerMinute)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ok, retry := t.take(c.RealIP())
			c.Response().Header().Set("X-RateLimit-Limit", limit)
			if !ok {
				c.Response().Header().Set("Retry-After", strconv.Itoa(retry))
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many attempts, try again later")
			}
			return next(c)
		}
	}
}

package middleware

import (
	"context"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/MikeLinPlan/account-system/internal/api/metrics"
)

// Allower is the request-counting contract the critical limiter middleware
// depends on. Satisfied by the Redis-backed limiter in production.
type Allower interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// GlobalRateLimit applies an in-memory per-IP token bucket over the whole API
// surface. Limiter state is process-local; the map is dropped wholesale when
// it grows past a threshold rather than aged per entry.
func GlobalRateLimit(requests int, perSeconds int64) echo.MiddlewareFunc {
	const maxTracked = 65536

	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)

	limiterFor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		if len(limiters) > maxTracked {
			limiters = make(map[string]*rate.Limiter)
		}
		l, ok := limiters[ip]
		if !ok {
			l = rate.NewLimiter(rate.Limit(float64(requests)/float64(perSeconds)), requests)
			limiters[ip] = l
		}
		return l
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !limiterFor(c.RealIP()).Allow() {
				metrics.RateLimitDropsTotal.WithLabelValues("global").Inc()
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, please try again later")
			}
			return next(c)
		}
	}
}

// CriticalRateLimit guards credential endpoints (login, register) with a
// shared per-IP counter. A limiter backend failure lets the request through.
func CriticalRateLimit(limiter Allower) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ok, err := limiter.Allow(c.Request().Context(), c.RealIP())
			if err == nil && !ok {
				metrics.RateLimitDropsTotal.WithLabelValues("critical").Inc()
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many attempts, please try again later")
			}
			return next(c)
		}
	}
}

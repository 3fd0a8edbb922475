package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/mgiraldodev/templaria-backend/api/responses"
	pkgerrors "github.com/mgiraldodev/templaria-backend/pkg/errors"
	"github.com/mgiraldodev/templaria-backend/pkg/logger"
)

const (
	rateLimitRequests = 120
	rateLimitWindow   = time.Minute
)

type fixedWindowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimit applies a fixed-window limit per caller. Authenticated
// requests are keyed by customer id, anonymous ones by client IP. The
// limiter failing open is deliberate: redis being down should not take
// the API with it.
func RateLimit(limiter fixedWindowLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			scope := CustomerIDFromContext(r.Context())
			if scope == "" {
				scope = "ip:" + clientIP(r)
			}

			allowed, _, err := limiter.FixedWindowAllow(r.Context(), scope, rateLimitRequests, rateLimitWindow)
			if err != nil {
				if logg != nil {
					logg.Error(r.Context(), "rate limit check failed", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		if idx := strings.Index(fwd, ","); idx > 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

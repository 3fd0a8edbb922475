package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mgiraldodev/templaria-backend/pkg/metrics"
)

// Metrics records per-request counters and latency using the chi route
// pattern as the route label so path parameters do not blow up cardinality.
func Metrics(collector *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if collector == nil {
				next.ServeHTTP(w, r)
				return
			}

			collector.IncInFlight()
			defer collector.DecInFlight()

			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()

			next.ServeHTTP(rec, r)

			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			collector.ObserveRequest(r.Method, routePattern(r), strconv.Itoa(rec.status), time.Since(start))
		})
	}
}

package controllers

import (
	"net/http"
	"time"

	"github.com/mgiraldodev/templaria-backend/api/responses"
	"github.com/mgiraldodev/templaria-backend/api/validators"
	"github.com/mgiraldodev/templaria-backend/internal/analytics/query"
	"github.com/mgiraldodev/templaria-backend/internal/analytics/types"
	pkgerrors "github.com/mgiraldodev/templaria-backend/pkg/errors"
	"github.com/mgiraldodev/templaria-backend/pkg/logger"
)

// defaultRevenueWindow is the lookback applied when the range is omitted.
const defaultRevenueWindow = 30 * 24 * time.Hour

// AdminRevenueSummary serves the store revenue dashboard from the
// BigQuery event sink.
func AdminRevenueSummary(svc query.RevenueService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		now := time.Now().UTC()

		end, err := validators.ParseQueryDate(r, "end", now)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		start, err := validators.ParseQueryDate(r, "start", end.Add(-defaultRevenueWindow))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Query(r.Context(), types.RevenueQueryRequest{Start: start, End: end})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}

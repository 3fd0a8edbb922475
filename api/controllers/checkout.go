package controllers

import (
	"net/http"

	"github.com/mgiraldodev/templaria-backend/api/responses"
	"github.com/mgiraldodev/templaria-backend/api/validators"
	"github.com/mgiraldodev/templaria-backend/internal/checkout"
	pkgerrors "github.com/mgiraldodev/templaria-backend/pkg/errors"
	"github.com/mgiraldodev/templaria-backend/pkg/logger"
)

// BeginCheckout turns the active cart into a pending order and returns
// the hosted payment link for its final total.
func BeginCheckout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		customerID, err := customerIDFromRequest(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkout.BeginCheckoutInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.BeginCheckout(r.Context(), customerID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

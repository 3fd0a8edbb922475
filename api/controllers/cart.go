package controllers

import (
	"net/http"
	"strings"

	"github.com/mgiraldodev/templaria-backend/api/responses"
	"github.com/mgiraldodev/templaria-backend/api/validators"
	"github.com/mgiraldodev/templaria-backend/internal/cart"
	pkgerrors "github.com/mgiraldodev/templaria-backend/pkg/errors"
	"github.com/mgiraldodev/templaria-backend/pkg/logger"
)

// UpsertCart replaces the customer's active cart with the posted lines
// and returns the repriced cart.
func UpsertCart(svc cart.Service, taxRateBps int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		customerID, err := customerIDFromRequest(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload upsertCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(taxRateBps)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.UpsertCart(r.Context(), customerID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// GetCart returns the customer's active cart with its stored pricing.
func GetCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		customerID, err := customerIDFromRequest(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.GetActiveCart(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// QuoteCart reprices the active cart against current catalog state.
func QuoteCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		customerID, err := customerIDFromRequest(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.QuoteActiveCart(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, quote)
	}
}

// ClearCart abandons the customer's active cart.
func ClearCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		customerID, err := customerIDFromRequest(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ClearCart(r.Context(), customerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}

type upsertCartRequest struct {
	ProductIDs []string `json:"product_ids" validate:"required,min=1,dive,required"`
	CouponCode *string  `json:"coupon_code,omitempty"`
}

func (r upsertCartRequest) toInput(taxRateBps int) (cart.UpsertCartInput, error) {
	productIDs, err := parseUUIDList(r.ProductIDs)
	if err != nil {
		return cart.UpsertCartInput{}, err
	}

	input := cart.UpsertCartInput{
		ProductIDs: productIDs,
		TaxRateBps: taxRateBps,
	}
	if r.CouponCode != nil {
		code := strings.TrimSpace(*r.CouponCode)
		if code != "" {
			input.CouponCode = &code
		}
	}
	return input, nil
}

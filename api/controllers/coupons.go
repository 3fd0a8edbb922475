package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/mgiraldodev/templaria-backend/api/responses"
	"github.com/mgiraldodev/templaria-backend/api/validators"
	"github.com/mgiraldodev/templaria-backend/internal/coupons"
	"github.com/mgiraldodev/templaria-backend/pkg/enums"
	pkgerrors "github.com/mgiraldodev/templaria-backend/pkg/errors"
	"github.com/mgiraldodev/templaria-backend/pkg/logger"
)

// AdminCreateCoupon creates a coupon code.
func AdminCreateCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		var payload couponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := svc.CreateCoupon(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, coupon)
	}
}

// AdminUpdateCoupon replaces a coupon's definition.
func AdminUpdateCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		couponID, err := uuidURLParam(r, "couponId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload couponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := svc.UpdateCoupon(r.Context(), couponID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, coupon)
	}
}

// AdminDeleteCoupon retires a coupon code.
func AdminDeleteCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		couponID, err := uuidURLParam(r, "couponId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteCoupon(r.Context(), couponID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// AdminGetCoupon returns one coupon by id.
func AdminGetCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		couponID, err := uuidURLParam(r, "couponId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := svc.GetCoupon(r.Context(), couponID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, coupon)
	}
}

// AdminListCoupons lists every coupon, expired ones included.
func AdminListCoupons(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		result, err := svc.ListCoupons(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type couponRequest struct {
	Code                 string     `json:"code" validate:"required"`
	Name                 string     `json:"name" validate:"required"`
	Description          *string    `json:"description,omitempty"`
	Type                 string     `json:"type" validate:"required"`
	PercentBps           *int       `json:"percent_bps,omitempty" validate:"omitempty,min=0,max=10000"`
	AmountCents          *int64     `json:"amount_cents,omitempty" validate:"omitempty,min=0"`
	PriorityOrder        int        `json:"priority_order" validate:"omitempty,min=0"`
	CanStackWithBundles  *bool      `json:"can_stack_with_bundles,omitempty"`
	RequiresBundleInCart bool       `json:"requires_bundle_in_cart"`
	MinimumCartCents     *int64     `json:"minimum_cart_cents,omitempty" validate:"omitempty,min=0"`
	MaximumDiscountCents *int64     `json:"maximum_discount_cents,omitempty" validate:"omitempty,min=0"`
	IsActive             *bool      `json:"is_active,omitempty"`
	StartsAt             *time.Time `json:"starts_at,omitempty"`
	ExpiresAt            *time.Time `json:"expires_at,omitempty"`
}

func (r couponRequest) toInput() (coupons.CouponInput, error) {
	couponType, err := enums.ParseCouponType(strings.TrimSpace(r.Type))
	if err != nil {
		return coupons.CouponInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid coupon type")
	}

	input := coupons.CouponInput{
		Code:                 strings.TrimSpace(r.Code),
		Name:                 strings.TrimSpace(r.Name),
		Description:          r.Description,
		Type:                 couponType,
		PercentBps:           r.PercentBps,
		AmountCents:          r.AmountCents,
		PriorityOrder:        r.PriorityOrder,
		CanStackWithBundles:  true,
		RequiresBundleInCart: r.RequiresBundleInCart,
		MinimumCartCents:     r.MinimumCartCents,
		MaximumDiscountCents: r.MaximumDiscountCents,
		IsActive:             true,
		StartsAt:             r.StartsAt,
		ExpiresAt:            r.ExpiresAt,
	}
	if r.CanStackWithBundles != nil {
		input.CanStackWithBundles = *r.CanStackWithBundles
	}
	if r.IsActive != nil {
		input.IsActive = *r.IsActive
	}
	return input, nil
}

package controllers

import (
	"net/http"
	"strings"

	"github.com/mgiraldodev/templaria-backend/api/responses"
	"github.com/mgiraldodev/templaria-backend/api/validators"
	"github.com/mgiraldodev/templaria-backend/internal/bundles"
	pkgerrors "github.com/mgiraldodev/templaria-backend/pkg/errors"
	"github.com/mgiraldodev/templaria-backend/pkg/logger"
)

// AdminCreateBundle creates a multi-product bundle offer.
func AdminCreateBundle(svc bundles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bundle service unavailable"))
			return
		}

		var payload bundleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bundle, err := svc.CreateBundle(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, bundle)
	}
}

// AdminUpdateBundle replaces a bundle's definition.
func AdminUpdateBundle(svc bundles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bundle service unavailable"))
			return
		}

		bundleID, err := uuidURLParam(r, "bundleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload bundleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bundle, err := svc.UpdateBundle(r.Context(), bundleID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, bundle)
	}
}

// AdminDeleteBundle retires a bundle offer.
func AdminDeleteBundle(svc bundles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bundle service unavailable"))
			return
		}

		bundleID, err := uuidURLParam(r, "bundleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteBundle(r.Context(), bundleID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// AdminGetBundle returns one bundle regardless of active state.
func AdminGetBundle(svc bundles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bundle service unavailable"))
			return
		}

		bundleID, err := uuidURLParam(r, "bundleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bundle, err := svc.GetBundle(r.Context(), bundleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, bundle)
	}
}

// AdminListBundles lists every bundle, retired ones included.
func AdminListBundles(svc bundles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bundle service unavailable"))
			return
		}

		result, err := svc.ListBundles(r.Context(), true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// ListBundles serves the storefront's active bundle offers.
func ListBundles(svc bundles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bundle service unavailable"))
			return
		}

		result, err := svc.ListBundles(r.Context(), false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type bundleRequest struct {
	Name             string   `json:"name" validate:"required"`
	Description      *string  `json:"description,omitempty"`
	BundlePriceCents int64    `json:"bundle_price_cents" validate:"required,min=0"`
	IsActive         *bool    `json:"is_active,omitempty"`
	ProductIDs       []string `json:"product_ids" validate:"required,min=2,dive,required"`
}

func (r bundleRequest) toInput() (bundles.BundleInput, error) {
	productIDs, err := parseUUIDList(r.ProductIDs)
	if err != nil {
		return bundles.BundleInput{}, err
	}

	input := bundles.BundleInput{
		Name:             strings.TrimSpace(r.Name),
		Description:      r.Description,
		BundlePriceCents: r.BundlePriceCents,
		IsActive:         true,
		ProductIDs:       productIDs,
	}
	if r.IsActive != nil {
		input.IsActive = *r.IsActive
	}
	return input, nil
}

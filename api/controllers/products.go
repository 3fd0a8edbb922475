package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mgiraldodev/templaria-backend/api/responses"
	"github.com/mgiraldodev/templaria-backend/api/validators"
	"github.com/mgiraldodev/templaria-backend/internal/catalog"
	"github.com/mgiraldodev/templaria-backend/pkg/enums"
	pkgerrors "github.com/mgiraldodev/templaria-backend/pkg/errors"
	"github.com/mgiraldodev/templaria-backend/pkg/logger"
	"github.com/mgiraldodev/templaria-backend/pkg/pagination"
)

// AdminCreateProduct handles template listing creation.
func AdminCreateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toCreateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// AdminUpdateProduct applies a partial update to a listing.
func AdminUpdateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := uuidURLParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toUpdateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// AdminDeleteProduct soft-deletes a listing.
func AdminDeleteProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := uuidURLParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// AdminGetProduct returns one listing including hidden ones.
func AdminGetProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := uuidURLParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// AdminListProducts lists the catalog including hidden listings.
func AdminListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		params, filters, err := parseListQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.IncludeHidden = true

		result, err := svc.ListProducts(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// ListProducts serves the public storefront catalog with filters.
func ListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		params, filters, err := parseListQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListProducts(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// GetProductBySlug serves the public product detail page payload.
func GetProductBySlug(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		slug := strings.TrimSpace(chi.URLParam(r, "slug"))
		if slug == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "slug required"))
			return
		}

		product, err := svc.GetProductBySlug(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

func parseListQuery(r *http.Request) (pagination.Params, catalog.ListFilters, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, catalog.ListFilters{}, err
	}

	params := pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}

	filters := catalog.ListFilters{
		FeaturedOnly: validators.ParseQueryBool(r, "featured"),
		Query:        strings.TrimSpace(r.URL.Query().Get("q")),
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
		category, err := enums.ParseProductCategory(raw)
		if err != nil {
			return pagination.Params{}, catalog.ListFilters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
		}
		filters.Category = &category
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("tag")); raw != "" {
		filters.Tag = &raw
	}

	if filters.PriceMinCents, err = validators.ParseQueryInt64(r, "price_min_cents"); err != nil {
		return pagination.Params{}, catalog.ListFilters{}, err
	}
	if filters.PriceMaxCents, err = validators.ParseQueryInt64(r, "price_max_cents"); err != nil {
		return pagination.Params{}, catalog.ListFilters{}, err
	}

	return params, filters, nil
}

type createProductRequest struct {
	Slug                string   `json:"slug" validate:"required"`
	Title               string   `json:"title" validate:"required"`
	Subtitle            *string  `json:"subtitle,omitempty"`
	Description         *string  `json:"description,omitempty"`
	Category            string   `json:"category" validate:"required"`
	Tags                []string `json:"tags,omitempty"`
	PriceCents          int64    `json:"price_cents" validate:"required,min=0"`
	CompareAtPriceCents *int64   `json:"compare_at_price_cents,omitempty" validate:"omitempty,min=0"`
	PreviewURL          *string  `json:"preview_url,omitempty"`
	AssetObjectKey      string   `json:"asset_object_key" validate:"required"`
	IsActive            *bool    `json:"is_active,omitempty"`
	IsFeatured          *bool    `json:"is_featured,omitempty"`
}

func (r createProductRequest) toCreateInput() (catalog.CreateProductInput, error) {
	category, err := enums.ParseProductCategory(strings.TrimSpace(r.Category))
	if err != nil {
		return catalog.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
	}

	input := catalog.CreateProductInput{
		Slug:                strings.TrimSpace(r.Slug),
		Title:               strings.TrimSpace(r.Title),
		Subtitle:            r.Subtitle,
		Description:         r.Description,
		Category:            category,
		Tags:                r.Tags,
		PriceCents:          r.PriceCents,
		CompareAtPriceCents: r.CompareAtPriceCents,
		PreviewURL:          r.PreviewURL,
		AssetObjectKey:      strings.TrimSpace(r.AssetObjectKey),
		IsActive:            true,
	}
	if r.IsActive != nil {
		input.IsActive = *r.IsActive
	}
	if r.IsFeatured != nil {
		input.IsFeatured = *r.IsFeatured
	}
	return input, nil
}

type updateProductRequest struct {
	Slug                *string   `json:"slug,omitempty"`
	Title               *string   `json:"title,omitempty"`
	Subtitle            *string   `json:"subtitle,omitempty"`
	Description         *string   `json:"description,omitempty"`
	Category            *string   `json:"category,omitempty"`
	Tags                *[]string `json:"tags,omitempty"`
	PriceCents          *int64    `json:"price_cents,omitempty" validate:"omitempty,min=0"`
	CompareAtPriceCents *int64    `json:"compare_at_price_cents,omitempty" validate:"omitempty,min=0"`
	PreviewURL          *string   `json:"preview_url,omitempty"`
	AssetObjectKey      *string   `json:"asset_object_key,omitempty"`
	IsActive            *bool     `json:"is_active,omitempty"`
	IsFeatured          *bool     `json:"is_featured,omitempty"`
}

func (r updateProductRequest) toUpdateInput() (catalog.UpdateProductInput, error) {
	input := catalog.UpdateProductInput{
		Slug:                r.Slug,
		Title:               r.Title,
		Subtitle:            r.Subtitle,
		Description:         r.Description,
		Tags:                r.Tags,
		PriceCents:          r.PriceCents,
		CompareAtPriceCents: r.CompareAtPriceCents,
		PreviewURL:          r.PreviewURL,
		AssetObjectKey:      r.AssetObjectKey,
		IsActive:            r.IsActive,
		IsFeatured:          r.IsFeatured,
	}
	if r.Category != nil {
		category, err := enums.ParseProductCategory(strings.TrimSpace(*r.Category))
		if err != nil {
			return catalog.UpdateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
		}
		input.Category = &category
	}
	return input, nil
}

package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mgiraldodev/templaria-backend/internal/catalog"
	"github.com/mgiraldodev/templaria-backend/pkg/enums"
	pkgerrors "github.com/mgiraldodev/templaria-backend/pkg/errors"
	"github.com/mgiraldodev/templaria-backend/pkg/pagination"
)

type stubCatalogService struct {
	product     *catalog.ProductDTO
	list        *catalog.ListResult
	err         error
	gotFilters  catalog.ListFilters
	gotParams   pagination.Params
	createInput *catalog.CreateProductInput
}

func (s *stubCatalogService) CreateProduct(_ context.Context, input catalog.CreateProductInput) (*catalog.ProductDTO, error) {
	s.createInput = &input
	return s.product, s.err
}

func (s *stubCatalogService) UpdateProduct(_ context.Context, _ uuid.UUID, _ catalog.UpdateProductInput) (*catalog.ProductDTO, error) {
	return s.product, s.err
}

func (s *stubCatalogService) DeleteProduct(_ context.Context, _ uuid.UUID) error {
	return s.err
}

func (s *stubCatalogService) GetProduct(_ context.Context, _ uuid.UUID) (*catalog.ProductDTO, error) {
	return s.product, s.err
}

func (s *stubCatalogService) GetProductBySlug(_ context.Context, _ string) (*catalog.ProductDTO, error) {
	return s.product, s.err
}

func (s *stubCatalogService) ListProducts(_ context.Context, params pagination.Params, filters catalog.ListFilters) (*catalog.ListResult, error) {
	s.gotParams = params
	s.gotFilters = filters
	return s.list, s.err
}

func slugRequest(target, slug string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rc := chi.NewRouteContext()
	rc.URLParams.Add("slug", slug)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestListProductsParsesFilters(t *testing.T) {
	svc := &stubCatalogService{list: &catalog.ListResult{Products: []catalog.ProductDTO{}}}
	handler := ListProducts(svc, nil)

	target := "/api/v1/products?limit=10&category=landing_page&tag=saas&price_min_cents=1000&price_max_cents=5000&featured=true&q=dashboard"
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, target, nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.gotParams.Limit != 10 {
		t.Fatalf("expected limit 10, got %d", svc.gotParams.Limit)
	}
	if svc.gotFilters.Category == nil || *svc.gotFilters.Category != enums.CategoryLandingPage {
		t.Fatalf("expected landing_page category filter, got %v", svc.gotFilters.Category)
	}
	if svc.gotFilters.Tag == nil || *svc.gotFilters.Tag != "saas" {
		t.Fatalf("expected tag filter, got %v", svc.gotFilters.Tag)
	}
	if svc.gotFilters.PriceMinCents == nil || *svc.gotFilters.PriceMinCents != 1000 {
		t.Fatalf("expected price floor, got %v", svc.gotFilters.PriceMinCents)
	}
	if svc.gotFilters.PriceMaxCents == nil || *svc.gotFilters.PriceMaxCents != 5000 {
		t.Fatalf("expected price ceiling, got %v", svc.gotFilters.PriceMaxCents)
	}
	if !svc.gotFilters.FeaturedOnly {
		t.Fatalf("expected featured filter")
	}
	if svc.gotFilters.Query != "dashboard" {
		t.Fatalf("expected search query, got %q", svc.gotFilters.Query)
	}
	if svc.gotFilters.IncludeHidden {
		t.Fatalf("public listing must not include hidden products")
	}
}

func TestListProductsRejectsUnknownCategory(t *testing.T) {
	handler := ListProducts(&stubCatalogService{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/products?category=nope", nil))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminListProductsIncludesHidden(t *testing.T) {
	svc := &stubCatalogService{list: &catalog.ListResult{}}
	handler := AdminListProducts(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/admin/v1/products", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !svc.gotFilters.IncludeHidden {
		t.Fatalf("admin listing must include hidden products")
	}
}

func TestGetProductBySlugNotFound(t *testing.T) {
	svc := &stubCatalogService{err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}
	handler := GetProductBySlug(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, slugRequest("/api/v1/products/missing", "missing"))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestGetProductBySlugSuccess(t *testing.T) {
	productID := uuid.New()
	svc := &stubCatalogService{product: &catalog.ProductDTO{ID: productID, Slug: "saas-landing"}}
	handler := GetProductBySlug(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, slugRequest("/api/v1/products/saas-landing", "saas-landing"))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data catalog.ProductDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != productID {
		t.Fatalf("unexpected product id: %s", envelope.Data.ID)
	}
}

func TestAdminCreateProductRejectsUnknownCategory(t *testing.T) {
	handler := AdminCreateProduct(&stubCatalogService{}, nil)

	body := `{"slug":"x","title":"X","category":"nope","price_cents":100,"asset_object_key":"assets/x.zip"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/admin/v1/products", strings.NewReader(body)))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminCreateProductDefaultsActive(t *testing.T) {
	svc := &stubCatalogService{product: &catalog.ProductDTO{ID: uuid.New()}}
	handler := AdminCreateProduct(svc, nil)

	body := `{"slug":"saas-landing","title":"SaaS Landing","category":"landing_page","price_cents":4900,"asset_object_key":"assets/saas.zip"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/admin/v1/products", strings.NewReader(body)))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if svc.createInput == nil {
		t.Fatalf("expected create to reach the service")
	}
	if !svc.createInput.IsActive {
		t.Fatalf("new products should default to active")
	}
	if svc.createInput.Category != enums.CategoryLandingPage {
		t.Fatalf("unexpected category: %v", svc.createInput.Category)
	}
}

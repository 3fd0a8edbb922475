package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mgiraldodev/templaria-backend/internal/catalog"
	pkgauth "github.com/mgiraldodev/templaria-backend/pkg/auth"
	"github.com/mgiraldodev/templaria-backend/pkg/config"
	"github.com/mgiraldodev/templaria-backend/pkg/enums"
	"github.com/mgiraldodev/templaria-backend/pkg/pagination"
)

type stubCatalog struct{}

func (stubCatalog) CreateProduct(context.Context, catalog.CreateProductInput) (*catalog.ProductDTO, error) {
	return &catalog.ProductDTO{}, nil
}

func (stubCatalog) UpdateProduct(context.Context, uuid.UUID, catalog.UpdateProductInput) (*catalog.ProductDTO, error) {
	return &catalog.ProductDTO{}, nil
}

func (stubCatalog) DeleteProduct(context.Context, uuid.UUID) error { return nil }

func (stubCatalog) GetProduct(context.Context, uuid.UUID) (*catalog.ProductDTO, error) {
	return &catalog.ProductDTO{}, nil
}

func (stubCatalog) GetProductBySlug(context.Context, string) (*catalog.ProductDTO, error) {
	return &catalog.ProductDTO{Slug: "saas-landing"}, nil
}

func (stubCatalog) ListProducts(context.Context, pagination.Params, catalog.ListFilters) (*catalog.ListResult, error) {
	return &catalog.ListResult{Products: []catalog.ProductDTO{}}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "templaria-test",
			Audience:          "templaria",
			ExpirationMinutes: 15,
		},
	}
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	return NewRouter(Dependencies{
		Config:  testConfig(),
		Catalog: stubCatalog{},
	})
}

func mintToken(t *testing.T, cfg *config.Config, role enums.CustomerRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		CustomerID: uuid.New(),
		Email:      "buyer@example.com",
		Role:       role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestRouterHealthLive(t *testing.T) {
	router := testRouter(t)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if env := resp.Header().Get("X-Templaria-Env"); env != "test" {
		t.Fatalf("expected env header, got %q", env)
	}
}

func TestRouterPublicCatalogNeedsNoAuth(t *testing.T) {
	router := testRouter(t)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestRouterCartRequiresAuth(t *testing.T) {
	router := testRouter(t)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestRouterAdminRejectsCustomerToken(t *testing.T) {
	cfg := testConfig()
	router := NewRouter(Dependencies{Config: cfg, Catalog: stubCatalog{}})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/products", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.RoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestRouterAdminAllowsAdminToken(t *testing.T) {
	cfg := testConfig()
	router := NewRouter(Dependencies{Config: cfg, Catalog: stubCatalog{}})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/products", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.RoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestRouterMetricsEndpointExposed(t *testing.T) {
	router := testRouter(t)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/mgiraldodev/templaria-backend/pkg/auth"
	"github.com/mgiraldodev/templaria-backend/pkg/config"
	"github.com/mgiraldodev/templaria-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "templaria-test",
		Audience:          "templaria",
		ExpirationMinutes: 15,
	}
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	mw := Auth(testJWTConfig(), nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not run without credentials")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsGarbageToken(t *testing.T) {
	mw := Auth(testJWTConfig(), nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not run with an invalid token")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthSeedsContextFromValidToken(t *testing.T) {
	cfg := testJWTConfig()
	customerID := uuid.New()
	token, err := pkgauth.MintAccessToken(cfg, time.Now(), pkgauth.AccessTokenPayload{
		CustomerID: customerID,
		Email:      "buyer@example.com",
		Role:       enums.RoleCustomer,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	mw := Auth(cfg, nil)
	var gotCustomer, gotRole string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCustomer = CustomerIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotCustomer != customerID.String() {
		t.Fatalf("expected customer id %s in context, got %q", customerID, gotCustomer)
	}
	if gotRole != string(enums.RoleCustomer) {
		t.Fatalf("expected role %q in context, got %q", enums.RoleCustomer, gotRole)
	}
}

func TestRequireRoleBlocksWrongRole(t *testing.T) {
	mw := RequireRole("admin", nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not run for non-admin caller")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/coupons", nil)
	req = req.WithContext(WithRole(req.Context(), string(enums.RoleCustomer)))
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestRequireRoleAllowsMatchingRole(t *testing.T) {
	mw := RequireRole("admin", nil)
	var called bool
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/coupons", nil)
	req = req.WithContext(WithRole(req.Context(), "admin"))
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if !called {
		t.Fatalf("expected handler to run for admin caller")
	}
}

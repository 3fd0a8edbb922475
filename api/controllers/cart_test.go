package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/mgiraldodev/templaria-backend/api/middleware"
	cartsvc "github.com/mgiraldodev/templaria-backend/internal/cart"
	pkgerrors "github.com/mgiraldodev/templaria-backend/pkg/errors"
)

type stubCartService struct {
	cart      *cartsvc.CartDTO
	quote     *cartsvc.QuoteDTO
	err       error
	upsertIn  *cartsvc.UpsertCartInput
	clearedBy uuid.UUID
}

func (s *stubCartService) UpsertCart(_ context.Context, _ uuid.UUID, input cartsvc.UpsertCartInput) (*cartsvc.CartDTO, error) {
	s.upsertIn = &input
	return s.cart, s.err
}

func (s *stubCartService) GetActiveCart(_ context.Context, _ uuid.UUID) (*cartsvc.CartDTO, error) {
	return s.cart, s.err
}

func (s *stubCartService) QuoteActiveCart(_ context.Context, _ uuid.UUID) (*cartsvc.QuoteDTO, error) {
	return s.quote, s.err
}

func (s *stubCartService) ClearCart(_ context.Context, customerID uuid.UUID) error {
	s.clearedBy = customerID
	return s.err
}

func authedRequest(method, target string, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(middleware.WithCustomerID(req.Context(), uuid.NewString()))
}

func TestGetCartSuccess(t *testing.T) {
	cartID := uuid.New()
	svc := &stubCartService{cart: &cartsvc.CartDTO{ID: cartID, Status: "active", Currency: "USD"}}
	handler := GetCart(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/cart", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data cartsvc.CartDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != cartID {
		t.Fatalf("unexpected cart id: %s", envelope.Data.ID)
	}
}

func TestGetCartNotFound(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeNotFound, "no active cart")}
	handler := GetCart(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/cart", ""))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestGetCartMissingCustomerContext(t *testing.T) {
	handler := GetCart(&stubCartService{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestUpsertCartForwardsCouponAndTaxRate(t *testing.T) {
	productID := uuid.New()
	svc := &stubCartService{cart: &cartsvc.CartDTO{ID: uuid.New()}}
	handler := UpsertCart(svc, 875, nil)

	body := `{"product_ids":["` + productID.String() + `"],"coupon_code":"  SUMMER25 "}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPut, "/api/v1/cart", body))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.upsertIn == nil {
		t.Fatalf("expected service call")
	}
	if len(svc.upsertIn.ProductIDs) != 1 || svc.upsertIn.ProductIDs[0] != productID {
		t.Fatalf("unexpected product ids: %v", svc.upsertIn.ProductIDs)
	}
	if svc.upsertIn.CouponCode == nil || *svc.upsertIn.CouponCode != "SUMMER25" {
		t.Fatalf("expected trimmed coupon code, got %v", svc.upsertIn.CouponCode)
	}
	if svc.upsertIn.TaxRateBps != 875 {
		t.Fatalf("expected tax rate forwarded, got %d", svc.upsertIn.TaxRateBps)
	}
}

func TestUpsertCartRejectsMalformedProductID(t *testing.T) {
	handler := UpsertCart(&stubCartService{}, 0, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPut, "/api/v1/cart", `{"product_ids":["not-a-uuid"]}`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestClearCartSuccess(t *testing.T) {
	svc := &stubCartService{}
	handler := ClearCart(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodDelete, "/api/v1/cart", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.clearedBy == uuid.Nil {
		t.Fatalf("expected clear to reach the service")
	}
}

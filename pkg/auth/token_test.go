package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mgiraldodev/templaria-backend/pkg/config"
	"github.com/mgiraldodev/templaria-backend/pkg/enums"
)

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "templaria",
		Audience:          "templaria",
		ExpirationMinutes: 30,
	}
	now := time.Now().UTC()
	customerID := uuid.New()

	payload := AccessTokenPayload{
		CustomerID: customerID,
		Email:      "buyer@example.com",
		Role:       enums.RoleCustomer,
	}

	token, err := MintAccessToken(cfg, now, payload)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	if claims.CustomerID != customerID {
		t.Fatalf("expected customer_id %s, got %s", customerID, claims.CustomerID)
	}
	if claims.Email != "buyer@example.com" {
		t.Fatalf("email not preserved: %s", claims.Email)
	}
	if claims.Role != enums.RoleCustomer {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.IsAdmin() {
		t.Fatal("customer token must not grant admin access")
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}

	exp := now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)
	diff := claims.ExpiresAt.Sub(exp)
	if diff < 0 {
		diff = -diff
	}
	if diff >= time.Second {
		t.Fatalf("expected exp roughly %v, got %v (diff %v)", exp.UTC(), claims.ExpiresAt.UTC(), diff)
	}
}

func TestParseAccessTokenInvalidSignature(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "templaria",
		Audience:          "templaria",
		ExpirationMinutes: 10,
	}
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{
		CustomerID: uuid.New(),
		Role:       enums.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	if _, err = ParseAccessToken(cfg, token+"x"); err == nil {
		t.Fatal("expected invalid signature error")
	}
}

func TestParseAccessTokenExpired(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "templaria",
		Audience:          "templaria",
		ExpirationMinutes: 15,
	}
	token, err := MintAccessToken(cfg, time.Now().Add(-time.Hour), AccessTokenPayload{
		CustomerID: uuid.New(),
		Role:       enums.RoleCustomer,
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	_, err = ParseAccessToken(cfg, token)
	if err == nil {
		t.Fatal("expected expiration error")
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseAccessTokenWrongAudience(t *testing.T) {
	mintCfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "templaria",
		Audience:          "other-service",
		ExpirationMinutes: 15,
	}
	token, err := MintAccessToken(mintCfg, time.Now(), AccessTokenPayload{
		CustomerID: uuid.New(),
		Role:       enums.RoleCustomer,
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	parseCfg := mintCfg
	parseCfg.Audience = "templaria"
	if _, err = ParseAccessToken(parseCfg, token); err == nil {
		t.Fatal("expected audience validation error")
	}
}

func TestMintAccessTokenInvalidRole(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "templaria",
		ExpirationMinutes: 5,
	}
	payload := AccessTokenPayload{
		CustomerID: uuid.New(),
		Role:       "",
	}

	if _, err := MintAccessToken(cfg, time.Now(), payload); err == nil {
		t.Fatal("expected invalid role error")
	}
}

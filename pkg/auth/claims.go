package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mgiraldodev/templaria-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	CustomerID uuid.UUID
	Email      string
	Role       enums.CustomerRole
	JTI        string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	CustomerID uuid.UUID          `json:"customer_id"`
	Email      string             `json:"email,omitempty"`
	Role       enums.CustomerRole `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the token grants back-office access.
func (c *AccessTokenClaims) IsAdmin() bool {
	return c != nil && c.Role == enums.RoleAdmin
}

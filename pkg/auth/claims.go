package auth

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the JWT claims accepted by the calculator services.
// The subject identifies the operator or API client.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

// HasRole checks if the claims include the specified role.
func (c Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// Role constants
const (
	// RoleAdmin may replace rate tables.
	RoleAdmin = "admin"
	// RoleAPIClient may request quotes and submit messages.
	RoleAPIClient = "api_client"
)

package auth

import "github.com/golang-jwt/jwt/v5"

// Claims are the operator token claims accepted by the record read API.
// Subject identifies the operator; Role is checked by internal/rbac.
type Claims struct {
	jwt.RegisteredClaims

	Role string `json:"role"`
}

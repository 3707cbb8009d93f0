package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims is the payload of identity provider access tokens. Role is not part of the
// token; it is resolved from the role whitelist on every request.
type JWTClaims struct {
	Email    string   `json:"email"`
	Name     string   `json:"name,omitempty"`
	Role     UserRole `json:"-"`
	jwt.RegisteredClaims
}

// UserID returns the stable subject identifier issued by the identity provider.
func (c *JWTClaims) UserID() string {
	if c == nil {
		return ""
	}
	return c.Subject
}

// Actor identifies the caller of an admin operation for audit records.
type Actor struct {
	UserID    string
	Email     string
	Role      UserRole
	IPAddress string
	UserAgent string
}

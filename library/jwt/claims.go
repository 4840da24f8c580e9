package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// UserClaims is the payload of the access tokens issued on login.
type UserClaims struct {
	jwt.RegisteredClaims
	// UserID is the hex object id of the user
	UserID string `json:"uid"`
	Role   string `json:"role"`
	Name   string `json:"name,omitempty"`
}

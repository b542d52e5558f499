package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims represents the JWT claims carried by an access token
type TokenClaims struct {
	UserID   int64    `json:"uid"`
	Username string   `json:"name"`
	Scopes   []string `json:"scopes"`
	jwt.RegisteredClaims
}

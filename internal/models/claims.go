package models

import "github.com/golang-jwt/jwt/v5"

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

type UserClaims struct {
	jwt.RegisteredClaims
	UserID       uint     `json:"user_id"`
	Username     string   `json:"username"`
	Roles        []string `json:"roles"`
	TokenVersion int      `json:"token_version"`
	TokenType    string   `json:"token_type"`
}

// ClaimsFor builds the token claims for a user.
func ClaimsFor(u *User) *UserClaims {
	return &UserClaims{
		UserID:       u.ID,
		Username:     u.Username,
		Roles:        u.Roles.Names(),
		TokenVersion: u.TokenVersion,
	}
}

package utils

import (
	"errors"
	"strconv"
	"time"

	"sitex/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "sitex-api"

var ErrInvalidToken = errors.New("invalid token")

// TokenManager signs and verifies access and refresh tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// GenerateTokens generates an access token and a refresh token for the given user claims.
func (m *TokenManager) GenerateTokens(claims *models.UserClaims) (accessToken string, refreshToken string, err error) {
	if len(m.secret) == 0 {
		return "", "", errors.New("JWT secret not configured")
	}
	now := time.Now()

	accessToken, err = m.sign(claims, models.TokenTypeAccess, now, m.accessTTL)
	if err != nil {
		return "", "", err
	}
	refreshToken, err = m.sign(claims, models.TokenTypeRefresh, now, m.refreshTTL)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func (m *TokenManager) sign(base *models.UserClaims, tokenType string, now time.Time, ttl time.Duration) (string, error) {
	c := models.UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatUint(uint64(base.UserID), 10),
		},
		UserID:       base.UserID,
		Username:     base.Username,
		Roles:        base.Roles,
		TokenVersion: base.TokenVersion,
		TokenType:    tokenType,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
}

// ParseToken validates tokenStr and checks it is of the expected type.
func (m *TokenManager) ParseToken(tokenStr, tokenType string) (*models.UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &models.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*models.UserClaims)
	if !ok || !token.Valid || claims.TokenType != tokenType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

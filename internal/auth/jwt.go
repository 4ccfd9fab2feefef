package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	RoleAccount = "account"
	RoleAdmin   = "admin"

	TokenTypeAccess = "access"
)

var ErrInvalidToken = errors.New("invalid access token")

type JWTManager struct {
	issuer   string
	audience string
	secret   []byte
}

// Claims bind a token to one ledger account. The account is what the pool
// engine compares against the account an operation moves funds for.
type Claims struct {
	Account   string `json:"acc"`
	Role      string `json:"role"`
	SessionID string `json:"sid"`
	Type      string `json:"typ"`
	jwt.RegisteredClaims
}

func NewJWTManager(issuer, audience, signingKey string) *JWTManager {
	return &JWTManager{
		issuer:   issuer,
		audience: audience,
		secret:   []byte(signingKey),
	}
}

func (m *JWTManager) Mint(account, role string, ttl time.Duration) (string, error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return "", errors.New("account is required")
	}
	if role == "" {
		role = RoleAccount
	}
	now := time.Now().UTC()
	claims := Claims{
		Account:   account,
		Role:      role,
		SessionID: uuid.NewString(),
		Type:      TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   account,
			Audience:  []string{m.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(m.secret)
}

// Parse verifies signature, issuer, audience and expiry, and accepts only
// access tokens bound to an account.
func (m *JWTManager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Type != TokenTypeAccess || strings.TrimSpace(claims.Account) == "" {
		return nil, fmt.Errorf("%w: not an account access token", ErrInvalidToken)
	}
	return claims, nil
}

package adapters

import (
	"context"
	"crypto/rsa"
	"fmt"
	"strings"

	"zapshift/internal/core/apperror"

	"github.com/golang-jwt/jwt/v5"
)

// JWTVerifier verifies signed identity tokens carrying an email claim.
type JWTVerifier struct {
	key     any
	methods []string
}

// NewHMACVerifier verifies HS256 tokens signed with secret.
func NewHMACVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{
		key:     []byte(secret),
		methods: []string{jwt.SigningMethodHS256.Alg()},
	}
}

// NewRSAVerifier verifies RS256 tokens signed by the owner of key.
func NewRSAVerifier(key *rsa.PublicKey) *JWTVerifier {
	return &JWTVerifier{
		key:     key,
		methods: []string{jwt.SigningMethodRS256.Alg()},
	}
}

// Verify checks signature, algorithm and expiry and returns the lower-cased email claim.
func (v *JWTVerifier) Verify(_ context.Context, tokenString string) (string, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	},
		jwt.WithValidMethods(v.methods),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: invalid token", apperror.ErrUnauthorized)
	}

	email, _ := claims["email"].(string)
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("%w: token has no email claim", apperror.ErrUnauthorized)
	}
	return email, nil
}

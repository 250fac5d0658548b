package middleware

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// HMACValidator validates HS256 bearer tokens issued by the institution
// onboarding flow. It satisfies JWTValidator.
type HMACValidator struct {
	signingKey []byte
}

// NewHMACValidator builds a validator over the shared signing key.
func NewHMACValidator(signingKey string) *HMACValidator {
	return &HMACValidator{signingKey: []byte(signingKey)}
}

type tokenClaims struct {
	InstitutionID string `json:"institution_id"`
	ClientID      string `json:"client_id"`
	jwt.RegisteredClaims
}

// ValidateToken parses and verifies the token signature and expiry.
func (v *HMACValidator) ValidateToken(tokenString string) (*JWTClaims, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.signingKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}
	return &JWTClaims{
		InstitutionID: claims.InstitutionID,
		ClientID:      claims.ClientID,
	}, nil
}

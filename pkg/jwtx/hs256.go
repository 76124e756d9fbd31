package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Signer produces signed access tokens.
type Signer interface {
	Sign(claims Claims) (string, error)
}

// Verifier parses and validates access tokens.
type Verifier interface {
	Verify(token string) (*Claims, error)
}

// HS256Signer signs tokens with a shared HMAC-SHA256 secret. Every service
// that verifies tokens must be configured with the same secret.
type HS256Signer struct {
	secret []byte
}

// NewHS256Signer creates a signer over the shared secret.
func NewHS256Signer(secret []byte) *HS256Signer {
	return &HS256Signer{secret: secret}
}

// Sign produces a compact JWS for the given claims.
func (s *HS256Signer) Sign(claims Claims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(s.secret)
}

// HS256Verifier validates tokens signed with the shared secret. A small
// leeway absorbs clock skew between services.
type HS256Verifier struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// NewHS256Verifier creates a verifier. issuer may be empty to skip the
// iss check.
func NewHS256Verifier(secret []byte, issuer string, leeway time.Duration) *HS256Verifier {
	return &HS256Verifier{secret: secret, issuer: issuer, leeway: leeway}
}

// Verify parses the compact serialization, checks the signature and the
// registered time claims, and returns the decoded claims. The algorithm
// check lives in the keyfunc so an HS384 or alg=none token surfaces as
// ErrAlgorithm rather than a generic signature failure.
func (v *HS256Verifier) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrAlgorithm
		}
		return v.secret, nil
	}, jwt.WithLeeway(v.leeway))
	if err != nil {
		return nil, mapParseError(err)
	}
	if err := claims.ValidateIssuer(v.issuer); err != nil {
		return nil, err
	}
	return claims, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, ErrAlgorithm):
		return ErrAlgorithm
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrSignature
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	default:
		return ErrMalformed
	}
}

// Package token issues and verifies the short-lived signed tokens that
// authorize follow-up actions initiated via emailed links. Tokens are
// never stored server-side: verification is a pure function of the token
// string, the server secret, and the current time.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Purpose names the action a token authorizes. A token is only valid for
// the purpose it was issued for.
type Purpose string

const (
	PurposeChangeEmail   Purpose = "change-email"
	PurposeResetPassword Purpose = "reset-password"
	PurposeDeleteAccount Purpose = "delete-account"
)

var (
	// ErrMalformed is returned when the token cannot be parsed at all.
	ErrMalformed = errors.New("malformed token")

	// ErrSignature is returned when the token's signature does not verify.
	ErrSignature = errors.New("invalid token signature")

	// ErrExpired is returned when the token's embedded expiration has passed.
	ErrExpired = errors.New("expired token")

	// ErrWrongPurpose is returned when an otherwise valid token was issued
	// for a different purpose than the expected one.
	ErrWrongPurpose = errors.New("token issued for a different purpose")

	// ErrPayload is returned when the payload misses fields required for
	// the expected purpose.
	ErrPayload = errors.New("invalid token payload")
)

// Claims is the decoded payload of an action token.
type Claims struct {
	Purpose  Purpose
	UserID   uint
	NewEmail string
	// ExpiresAt is the embedded expiration time.
	ExpiresAt time.Time
}

type actionClaims struct {
	Purpose  string `json:"prp"`
	UserID   uint   `json:"uid"`
	NewEmail string `json:"new_email,omitempty"`
	jwt.RegisteredClaims
}

// Issuer creates and verifies action tokens with a shared secret.
type Issuer struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

// NewIssuer returns an issuer signing with the given secret. validity is
// the default lifetime of issued tokens.
func NewIssuer(secret []byte, validity time.Duration) *Issuer {
	return &Issuer{
		secret:   secret,
		validity: validity,
		now:      time.Now,
	}
}

// Validity returns the default token lifetime.
func (i *Issuer) Validity() time.Duration {
	return i.validity
}

// ValidityMinutes returns the default token lifetime in whole minutes,
// for display in emails.
func (i *Issuer) ValidityMinutes() int {
	return int(i.validity / time.Minute)
}

// Issue creates a signed token for the given purpose. The NewEmail field
// of the claims is only meaningful for PurposeChangeEmail.
func (i *Issuer) Issue(purpose Purpose, claims Claims) (string, error) {
	if claims.UserID == 0 {
		return "", fmt.Errorf("%w: missing user id", ErrPayload)
	}
	if purpose == PurposeChangeEmail && claims.NewEmail == "" {
		return "", fmt.Errorf("%w: missing new email address", ErrPayload)
	}

	now := i.now()
	jwtClaims := &actionClaims{
		Purpose:  string(purpose),
		UserID:   claims.UserID,
		NewEmail: claims.NewEmail,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(i.validity)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims).SignedString(i.secret)
}

// Verify decodes and validates the given token against the expected
// purpose. It returns the decoded claims or one of the typed errors
// ErrMalformed, ErrSignature, ErrExpired, ErrWrongPurpose, ErrPayload.
func (i *Issuer) Verify(tokenString string, expected Purpose) (*Claims, error) {
	// Claims validation is skipped so the expiration can be checked
	// against the issuer's clock instead of the package-global one.
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	parsed, err := parser.ParseWithClaims(tokenString, &actionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		var validationErr *jwt.ValidationError
		if errors.As(err, &validationErr) {
			switch {
			case validationErr.Errors&jwt.ValidationErrorMalformed != 0:
				return nil, ErrMalformed
			case validationErr.Errors&jwt.ValidationErrorSignatureInvalid != 0:
				return nil, ErrSignature
			}
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	decoded, ok := parsed.Claims.(*actionClaims)
	if !ok {
		return nil, ErrMalformed
	}
	if decoded.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing expiration", ErrMalformed)
	}
	if !i.now().Before(decoded.ExpiresAt.Time) {
		return nil, ErrExpired
	}
	if decoded.NotBefore != nil && i.now().Before(decoded.NotBefore.Time) {
		return nil, ErrExpired
	}

	if decoded.Purpose != string(expected) {
		return nil, fmt.Errorf("%w: expected %q, got %q", ErrWrongPurpose, expected, decoded.Purpose)
	}
	if decoded.UserID == 0 {
		return nil, fmt.Errorf("%w: missing user id", ErrPayload)
	}
	if expected == PurposeChangeEmail && decoded.NewEmail == "" {
		return nil, fmt.Errorf("%w: missing new email address", ErrPayload)
	}

	claims := &Claims{
		Purpose:  Purpose(decoded.Purpose),
		UserID:   decoded.UserID,
		NewEmail: decoded.NewEmail,
	}
	if decoded.ExpiresAt != nil {
		claims.ExpiresAt = decoded.ExpiresAt.Time
	}
	return claims, nil
}

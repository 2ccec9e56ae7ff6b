// Package auth provides session tokens and the go-restful filters that
// enforce authentication and permissions.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	restful "github.com/emicklei/go-restful/v3"
	"github.com/golang-jwt/jwt/v4"

	"aerarium/models"
)

// sessionValidity is how long a login session stays valid.
const sessionValidity = 24 * time.Hour

// attributeUserID is the request attribute under which the filter stores
// the authenticated user's ID.
const attributeUserID = "user_id"

// SessionClaims are the claims of a login session token.
type SessionClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// SessionManager issues and validates login session tokens.
type SessionManager struct {
	signingKey []byte
}

// NewSessionManager creates a manager signing sessions with the given key.
func NewSessionManager(signingKey []byte) *SessionManager {
	return &SessionManager{signingKey: signingKey}
}

// Generate creates a new session token for the given user.
func (m *SessionManager) Generate(user *models.User) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionValidity)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "aerarium",
			Subject:   "user-session",
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.signingKey)
}

// Parse validates the given session token and returns its claims.
func (m *SessionManager) Parse(tokenString string) (*SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.signingKey, nil
	})
	if err != nil {
		var validationErr *jwt.ValidationError
		if errors.As(err, &validationErr) {
			switch {
			case validationErr.Errors&jwt.ValidationErrorMalformed != 0:
				return nil, errors.New("malformed token")
			case validationErr.Errors&(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0:
				return nil, errors.New("token is either expired or not active yet")
			case validationErr.Errors&jwt.ValidationErrorSignatureInvalid != 0:
				return nil, errors.New("invalid token signature")
			}
		}
		return nil, fmt.Errorf("couldn't handle this token: %w", err)
	}

	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Filter creates a go-restful filter that requires a valid bearer token
// and stores the authenticated user's ID as a request attribute.
func (m *SessionManager) Filter() restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		authHeader := req.HeaderParameter("Authorization")
		if authHeader == "" {
			_ = resp.WriteHeaderAndJson(http.StatusUnauthorized, map[string]string{"message": "Authorization header required"}, restful.MIME_JSON)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			_ = resp.WriteHeaderAndJson(http.StatusUnauthorized, map[string]string{"message": "Invalid authorization header format"}, restful.MIME_JSON)
			return
		}

		claims, err := m.Parse(parts[1])
		if err != nil {
			_ = resp.WriteHeaderAndJson(http.StatusUnauthorized, map[string]string{"message": err.Error()}, restful.MIME_JSON)
			return
		}

		req.SetAttribute(attributeUserID, claims.UserID)
		chain.ProcessFilter(req, resp)
	}
}

// UserID extracts the authenticated user's ID set by the session filter.
func UserID(req *restful.Request) (uint, bool) {
	attr := req.Attribute(attributeUserID)
	if attr == nil {
		return 0, false
	}
	userID, ok := attr.(uint)
	return userID, ok
}

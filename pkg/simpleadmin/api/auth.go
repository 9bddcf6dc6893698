package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth"
)

// NewTokenAuth returns an HS256 token authority for operator bearer tokens
func NewTokenAuth(secret string) *jwtauth.JWTAuth {
	return jwtauth.New("HS256", []byte(secret), nil)
}

// IssueToken signs an operator token for subject valid for ttl
func IssueToken(ta *jwtauth.JWTAuth, subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("subject is required")
	}
	claims := map[string]interface{}{
		"sub":  subject,
		"role": "admin",
	}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiryIn(claims, ttl)

	_, token, err := ta.Encode(claims)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// RequireToken verifies the bearer token and rejects requests without a
// valid one.
func RequireToken(ta *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	verify := jwtauth.Verifier(ta)
	return func(next http.Handler) http.Handler {
		return verify(jwtauth.Authenticator(requireAdmin(next)))
	}
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || claims["role"] != "admin" {
			renderMessage(w, r, http.StatusForbidden, "Operator role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// OperatorFromContext returns the token subject of an authenticated request
func OperatorFromContext(ctx context.Context) string {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return ""
	}
	sub, _ := claims["sub"].(string)
	return sub
}

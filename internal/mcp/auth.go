package mcp

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenIssuer = "studyhall"

// tokenClaims carries the subject identity embedded in MCP bearer tokens.
type tokenClaims struct {
	jwt.RegisteredClaims
}

// MintToken signs a bearer token for the HTTP transport. Operators mint
// tokens out of band and hand them to MCP clients.
func MintToken(secret, issuer, subject string, ttl time.Duration) (string, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return "", fmt.Errorf("signing secret is required")
	}
	if issuer == "" {
		issuer = defaultTokenIssuer
	}
	if ttl <= 0 {
		return "", fmt.Errorf("token ttl must be positive")
	}

	now := time.Now().UTC()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// verifyToken checks signature, expiry, and issuer, returning the subject.
func verifyToken(token, secret, issuer string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("bearer token is required")
	}
	if issuer == "" {
		issuer = defaultTokenIssuer
	}

	var claims tokenClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("verify bearer token: %w", err)
	}
	return claims.Subject, nil
}

// requireBearer rejects requests without a valid bearer token before they
// reach the MCP handler.
func requireBearer(secret, issuer string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "bearer token required", http.StatusUnauthorized)
			return
		}
		if _, err := verifyToken(token, secret, issuer); err != nil {
			http.Error(w, "invalid bearer token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

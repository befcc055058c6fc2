package taskwell

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// for use in request.Context
type contextKey int

const contextOwnerID contextKey = iota

// requireAuth wraps a handler so it only runs for requests carrying a valid
// bearer token, stuffing the token's subject into the context as the owner ID.
// Handlers never accept a caller supplied owner ID.
func (s *server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !found || token == "" {
			WriteUnauthorized(r.Context(), w, fmt.Errorf("missing bearer token"))
			return
		}

		ownerID, err := verifyToken(token, s.rt.Config.JWTSecret)
		if err != nil {
			WriteUnauthorized(r.Context(), w, err)
			return
		}

		ctx := context.WithValue(r.Context(), contextOwnerID, ownerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// verifyToken parses the given token with the given secret and returns its
// subject claim
func verifyToken(tokenString string, secret string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		// we only allow HMAC signing
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("token missing subject claim")
	}
	return sub, nil
}

// ownerID returns the authenticated owner ID stuffed into the given context
func ownerID(ctx context.Context) string {
	id, _ := ctx.Value(contextOwnerID).(string)
	return id
}

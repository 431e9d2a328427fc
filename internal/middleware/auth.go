package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const userIDKey contextKey = "userID"

// Auth guards the API with bearer-token authentication. The auth
// endpoints, the raw preview stream and the static/dashboard pages stay
// open; everything else under /api requires a valid token, whose subject
// is placed in the request context as the user ID.
func Auth(secret string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") ||
			strings.HasPrefix(r.URL.Path, "/api/auth/") {
			next.ServeHTTP(w, r)
			return
		}

		userID, ok := parseToken(r, secret)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// parseToken validates the Authorization header and extracts the subject.
func parseToken(r *http.Request, secret string) (int64, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		// Websocket clients cannot set headers from the browser API, so
		// the token may arrive as a query parameter instead.
		if t := r.URL.Query().Get("token"); t != "" {
			header = "Bearer " + t
		} else {
			return 0, false
		}
	}
	tokenString := strings.TrimPrefix(header, "Bearer ")

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return 0, false
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return 0, false
	}
	userID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return 0, false
	}

	return userID, true
}

// UserID returns the authenticated user ID from the request context.
func UserID(r *http.Request) (int64, bool) {
	id, ok := r.Context().Value(userIDKey).(int64)
	return id, ok
}

// WithUserID injects a user ID into a request context. Exported for
// handler tests that bypass the middleware.
func WithUserID(r *http.Request, userID int64) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
}

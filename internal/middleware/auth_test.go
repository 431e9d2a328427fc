package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, secret string, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims(sub string) jwt.MapClaims {
	return jwt.MapClaims{
		"sub": sub,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
}

func newAuthProbe() (http.Handler, *int64, *bool) {
	var gotUserID int64
	var reached bool
	h := Auth(testSecret, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		gotUserID, _ = UserID(r)
		w.WriteHeader(http.StatusOK)
	}))
	return h, &gotUserID, &reached
}

func TestAuth_OpenPathsBypassToken(t *testing.T) {
	for _, path := range []string{"/", "/static/app.js", "/live/preview", "/api/auth/login", "/logs/info"} {
		t.Run(path, func(t *testing.T) {
			h, _, reached := newAuthProbe()
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.True(t, *reached)
		})
	}
}

func TestAuth_ProtectedPathRejections(t *testing.T) {
	expired := signToken(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{
		"sub": "1",
		"iat": time.Now().Add(-2 * time.Hour).Unix(),
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	tests := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"garbage token", "not-a-jwt"},
		{"wrong secret", signToken(t, jwt.SigningMethodHS256, "other-secret", validClaims("1"))},
		{"wrong signing method", signToken(t, jwt.SigningMethodHS384, testSecret, validClaims("1"))},
		{"expired", expired},
		{"non-numeric subject", signToken(t, jwt.SigningMethodHS256, testSecret, validClaims("alice"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, reached := newAuthProbe()
			req := httptest.NewRequest(http.MethodGet, "/api/zones", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, *reached)
		})
	}
}

func TestAuth_ValidHeaderToken(t *testing.T) {
	h, gotUserID, _ := newAuthProbe()

	req := httptest.NewRequest(http.MethodGet, "/api/zones", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.SigningMethodHS256, testSecret, validClaims("42")))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(42), *gotUserID)
}

func TestAuth_QueryTokenForWebsocketClients(t *testing.T) {
	h, gotUserID, _ := newAuthProbe()

	token := signToken(t, jwt.SigningMethodHS256, testSecret, validClaims("7"))
	req := httptest.NewRequest(http.MethodGet, "/api/live/ws?token="+token, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), *gotUserID)
}

func TestUserID_AbsentWithoutMiddleware(t *testing.T) {
	_, ok := UserID(httptest.NewRequest(http.MethodGet, "/api/zones", nil))
	assert.False(t, ok)
}

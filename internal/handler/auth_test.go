package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crowdwatch/internal/config"
	"crowdwatch/internal/logger"
	"crowdwatch/internal/middleware"
	"crowdwatch/internal/repository/sqlite"
)

func newTestRepos(t *testing.T) (*sqlite.DB, *logger.Logger) {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, logger.New(t.TempDir())
}

func postJSON(t *testing.T, h http.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestRegisterHandler(t *testing.T) {
	db, log := newTestRepos(t)
	users := sqlite.NewUserRepository(db)
	h := RegisterHandler(users, log)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid", `{"username":"alice","email":"alice@example.com","password":"secret1"}`, http.StatusCreated},
		{"duplicate email", `{"username":"alice2","email":"alice@example.com","password":"secret1"}`, http.StatusBadRequest},
		{"missing fields", `{"username":"bob"}`, http.StatusBadRequest},
		{"short password", `{"username":"bob","email":"bob@example.com","password":"abc"}`, http.StatusBadRequest},
		{"malformed body", `{"username":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h, "/api/auth/register", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}

	// Stored credentials are hashed, never the raw password.
	user, err := users.GetByEmail("alice@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", user.PasswordHash)
}

func TestRegisterHandler_MethodNotAllowed(t *testing.T) {
	db, log := newTestRepos(t)
	h := RegisterHandler(sqlite.NewUserRepository(db), log)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/register", nil)
	rec := httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestLoginHandler(t *testing.T) {
	db, log := newTestRepos(t)
	users := sqlite.NewUserRepository(db)
	cfg := &config.Config{JWTSecret: "test-secret"}

	rec := postJSON(t, RegisterHandler(users, log), "/api/auth/register",
		`{"username":"alice","email":"alice@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	login := LoginHandler(users, cfg, log)

	t.Run("wrong password", func(t *testing.T) {
		rec := postJSON(t, login, "/api/auth/login", `{"email":"alice@example.com","password":"wrong"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown account", func(t *testing.T) {
		rec := postJSON(t, login, "/api/auth/login", `{"email":"nobody@example.com","password":"secret1"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid credentials issue usable token", func(t *testing.T) {
		rec := postJSON(t, login, "/api/auth/login", `{"email":"alice@example.com","password":"secret1"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]string
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "alice", resp["username"])
		require.NotEmpty(t, resp["token"])

		// The issued token must round-trip through the auth middleware.
		var gotUserID int64
		protected := middleware.Auth(cfg.JWTSecret, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUserID, _ = middleware.UserID(r)
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/zones", nil)
		req.Header.Set("Authorization", "Bearer "+resp["token"])
		authRec := httptest.NewRecorder()
		protected.ServeHTTP(authRec, req)

		assert.Equal(t, http.StatusOK, authRec.Code)
		assert.Equal(t, int64(1), gotUserID)
	})
}

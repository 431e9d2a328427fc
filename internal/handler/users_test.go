package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crowdwatch/internal/dto"
	"crowdwatch/internal/model"
	"crowdwatch/internal/repository/sqlite"
)

func TestProfilesHandler(t *testing.T) {
	db, log := newTestRepos(t)
	users := sqlite.NewUserRepository(db)

	aliceID, err := users.Insert(&model.User{Username: "alice", Email: "alice@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	_, err = users.Insert(&model.User{Username: "bob", Email: "bob@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	h := ProfilesHandler(users, log)

	rec := httptest.NewRecorder()
	h(rec, authedRequest(http.MethodGet, "/api/profiles", "", aliceID))
	require.Equal(t, http.StatusOK, rec.Code)

	var list dto.ProfileList
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list.Profiles, 2)

	assert.Equal(t, "alice", list.Profiles[0].Username)
	assert.True(t, list.Profiles[0].IsCurrent)
	assert.Equal(t, "Active", list.Profiles[0].Status)

	assert.Equal(t, "bob", list.Profiles[1].Username)
	assert.False(t, list.Profiles[1].IsCurrent)
	assert.Equal(t, "Inactive", list.Profiles[1].Status)

	// Password hashes never leak into the payload.
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestProfilesHandler_Unauthenticated(t *testing.T) {
	db, log := newTestRepos(t)
	h := ProfilesHandler(sqlite.NewUserRepository(db), log)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/profiles", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCurrentUserHandler(t *testing.T) {
	db, log := newTestRepos(t)
	users := sqlite.NewUserRepository(db)

	id, err := users.Insert(&model.User{Username: "alice", Email: "alice@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	h := CurrentUserHandler(users, log)

	t.Run("known account", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h(rec, authedRequest(http.MethodGet, "/api/current-user", "", id))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]string
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "alice", resp["username"])
	})

	t.Run("stale token subject", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h(rec, authedRequest(http.MethodGet, "/api/current-user", "", 999))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

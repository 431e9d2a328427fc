package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crowdwatch/internal/model"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestZoneRepository_InsertAndGet(t *testing.T) {
	repo := NewZoneRepository(newTestDB(t))

	polygon := []model.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}
	id, err := repo.Insert(&model.Zone{UserID: 1, Name: "entrance", Polygon: polygon})
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	zone, err := repo.GetByID(id)
	require.NoError(t, err)
	assert.Equal(t, "entrance", zone.Name)
	assert.Equal(t, int64(1), zone.UserID)
	assert.Equal(t, polygon, zone.Polygon)
}

func TestZoneRepository_GetByUser(t *testing.T) {
	repo := NewZoneRepository(newTestDB(t))

	polygon := []model.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}
	_, err := repo.Insert(&model.Zone{UserID: 1, Name: "a", Polygon: polygon})
	require.NoError(t, err)
	_, err = repo.Insert(&model.Zone{UserID: 1, Name: "b", Polygon: polygon})
	require.NoError(t, err)
	_, err = repo.Insert(&model.Zone{UserID: 2, Name: "c", Polygon: polygon})
	require.NoError(t, err)

	zones, err := repo.GetByUser(1)
	require.NoError(t, err)
	require.Len(t, zones, 2)
	assert.Equal(t, "a", zones[0].Name)
	assert.Equal(t, "b", zones[1].Name)

	empty, err := repo.GetByUser(42)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestZoneRepository_GetByIDNotFound(t *testing.T) {
	repo := NewZoneRepository(newTestDB(t))

	_, err := repo.GetByID(99)
	assert.ErrorIs(t, err, ErrZoneNotFound)
}

func TestZoneRepository_Delete(t *testing.T) {
	repo := NewZoneRepository(newTestDB(t))

	polygon := []model.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}
	id, err := repo.Insert(&model.Zone{UserID: 1, Name: "doomed", Polygon: polygon})
	require.NoError(t, err)

	// Another user cannot delete it.
	err = repo.Delete(id, 2)
	assert.ErrorIs(t, err, ErrZoneNotFound)

	require.NoError(t, repo.Delete(id, 1))

	_, err = repo.GetByID(id)
	assert.ErrorIs(t, err, ErrZoneNotFound)

	// Deleting again reports not found.
	err = repo.Delete(id, 1)
	assert.ErrorIs(t, err, ErrZoneNotFound)
}

func TestUserRepository_InsertAndLookup(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))

	id, err := repo.Insert(&model.User{Username: "alice", Email: "alice@example.com", PasswordHash: "hash"})
	require.NoError(t, err)

	byEmail, err := repo.GetByEmail("alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, byEmail.ID)
	assert.Equal(t, "alice", byEmail.Username)
	assert.Equal(t, "hash", byEmail.PasswordHash)

	byID, err := repo.GetByID(id)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", byID.Email)

	_, err = repo.GetByEmail("nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = repo.GetByID(999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_GetAll(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))

	empty, err := repo.GetAll()
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = repo.Insert(&model.User{Username: "alice", Email: "alice@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	_, err = repo.Insert(&model.User{Username: "bob", Email: "bob@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	users, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)
}

func TestUserRepository_DuplicateEmailRejected(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))

	_, err := repo.Insert(&model.User{Username: "alice", Email: "alice@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	_, err = repo.Insert(&model.User{Username: "alice2", Email: "alice@example.com", PasswordHash: "h"})
	assert.Error(t, err)
}

func TestAnalyticsRepository_DailySummary(t *testing.T) {
	db := newTestDB(t)
	zones := NewZoneRepository(db)
	analytics := NewAnalyticsRepository(db)

	polygon := []model.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}
	lobbyID, err := zones.Insert(&model.Zone{UserID: 1, Name: "lobby", Polygon: polygon})
	require.NoError(t, err)
	hallID, err := zones.Insert(&model.Zone{UserID: 1, Name: "hall", Polygon: polygon})
	require.NoError(t, err)

	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.Local)
	at := func(hour, minute int) time.Time {
		return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	}

	records := []*model.AnalyticsRecord{
		{UserID: 1, Timestamp: at(9, 0), ZoneID: lobbyID, PeopleCount: 2, Entries: 2, Exits: 0},
		{UserID: 1, Timestamp: at(9, 30), ZoneID: lobbyID, PeopleCount: 4, Entries: 3, Exits: 1},
		{UserID: 1, Timestamp: at(10, 0), ZoneID: lobbyID, PeopleCount: 5, Entries: 1, Exits: 0},
		{UserID: 1, Timestamp: at(9, 15), ZoneID: hallID, PeopleCount: 1, Entries: 1, Exits: 0},
		// Different user and different day must not bleed in.
		{UserID: 2, Timestamp: at(9, 0), ZoneID: lobbyID, PeopleCount: 50, Entries: 50, Exits: 50},
		{UserID: 1, Timestamp: at(9, 0).AddDate(0, 0, -1), ZoneID: lobbyID, PeopleCount: 9, Entries: 9, Exits: 9},
	}
	for _, rec := range records {
		require.NoError(t, analytics.Insert(rec))
	}

	summary, err := analytics.DailySummary(1, day)
	require.NoError(t, err)

	assert.Equal(t, 7, summary.TotalEntries)
	assert.Equal(t, 1, summary.TotalExits)

	lobby, ok := summary.HourlyTrendByZone["lobby"]
	require.True(t, ok)
	require.Len(t, lobby, 24)
	assert.InDelta(t, 3.0, lobby[9], 1e-9)
	assert.InDelta(t, 5.0, lobby[10], 1e-9)
	assert.Zero(t, lobby[8])

	hall := summary.HourlyTrendByZone["hall"]
	require.Len(t, hall, 24)
	assert.InDelta(t, 1.0, hall[9], 1e-9)
}

func TestAnalyticsRepository_SummaryForEmptyDay(t *testing.T) {
	analytics := NewAnalyticsRepository(newTestDB(t))

	summary, err := analytics.DailySummary(1, time.Now())
	require.NoError(t, err)
	assert.Zero(t, summary.TotalEntries)
	assert.Zero(t, summary.TotalExits)
	assert.Empty(t, summary.HourlyTrendByZone)
}

func TestAnalyticsRepository_HistorySurvivesZoneDeletion(t *testing.T) {
	db := newTestDB(t)
	zones := NewZoneRepository(db)
	analytics := NewAnalyticsRepository(db)

	polygon := []model.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}
	id, err := zones.Insert(&model.Zone{UserID: 1, Name: "gone", Polygon: polygon})
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, analytics.Insert(&model.AnalyticsRecord{
		UserID: 1, Timestamp: now, ZoneID: id, PeopleCount: 3, Entries: 3, Exits: 0,
	}))

	require.NoError(t, zones.Delete(id, 1))

	// Totals are append-only history; the per-zone trend drops the name
	// because there is no zone row left to join against.
	summary, err := analytics.DailySummary(1, now)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalEntries)
	assert.Empty(t, summary.HourlyTrendByZone)
}

package repository

import (
	"time"

	"crowdwatch/internal/dto"
	"crowdwatch/internal/model"
)

// ZoneRepository defines the interface for zone data operations.
type ZoneRepository interface {
	Insert(zone *model.Zone) (int64, error)
	GetByID(id int64) (*model.Zone, error)
	GetByUser(userID int64) ([]model.Zone, error)
	// Delete removes the zone only if it belongs to userID. Returns
	// sql.ErrNoRows-style not-found via ErrZoneNotFound.
	Delete(id, userID int64) error
}

// AnalyticsRepository defines the interface for zone analytics operations.
// Rows are append-only history; there are no update or delete operations.
type AnalyticsRepository interface {
	Insert(rec *model.AnalyticsRecord) error
	// DailySummary aggregates entries/exits totals and per-zone hourly
	// average occupancy for the given user and calendar day.
	DailySummary(userID int64, day time.Time) (*dto.DailySummary, error)
}

// UserRepository defines the interface for account data operations.
type UserRepository interface {
	Insert(user *model.User) (int64, error)
	GetByEmail(email string) (*model.User, error)
	GetByID(id int64) (*model.User, error)
	GetAll() ([]model.User, error)
}

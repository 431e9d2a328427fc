package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"crowdwatch/internal/model"
)

// ErrZoneNotFound is returned when a zone does not exist or is not owned by
// the requesting user.
var ErrZoneNotFound = errors.New("zone not found")

// ZoneRepository implements repository.ZoneRepository for SQLite.
type ZoneRepository struct {
	db *DB
}

// NewZoneRepository creates a new SQLite zone repository.
func NewZoneRepository(db *DB) *ZoneRepository {
	return &ZoneRepository{db: db}
}

// Insert adds a new zone and returns its ID. The polygon is stored as a
// JSON array of {x,y} points in the coordinates column.
func (r *ZoneRepository) Insert(zone *model.Zone) (int64, error) {
	coords, err := json.Marshal(zone.Polygon)
	if err != nil {
		return 0, fmt.Errorf("failed to encode polygon: %w", err)
	}

	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO zones (user_id, name, coordinates) VALUES (?, ?, ?)
	`, zone.UserID, zone.Name, string(coords))
	if err != nil {
		return 0, fmt.Errorf("failed to insert zone: %w", err)
	}

	return result.LastInsertId()
}

// GetByID retrieves a single zone.
func (r *ZoneRepository) GetByID(id int64) (*model.Zone, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var zone model.Zone
	var coords string
	err := r.db.Conn().QueryRow(`
		SELECT id, user_id, name, coordinates FROM zones WHERE id = ?
	`, id).Scan(&zone.ID, &zone.UserID, &zone.Name, &coords)
	if err == sql.ErrNoRows {
		return nil, ErrZoneNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query zone: %w", err)
	}

	if err := json.Unmarshal([]byte(coords), &zone.Polygon); err != nil {
		return nil, fmt.Errorf("failed to decode polygon for zone %d: %w", zone.ID, err)
	}

	return &zone, nil
}

// GetByUser retrieves all zones owned by a user.
func (r *ZoneRepository) GetByUser(userID int64) ([]model.Zone, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, user_id, name, coordinates FROM zones WHERE user_id = ? ORDER BY id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query zones: %w", err)
	}
	defer rows.Close()

	var zones []model.Zone
	for rows.Next() {
		var zone model.Zone
		var coords string
		if err := rows.Scan(&zone.ID, &zone.UserID, &zone.Name, &coords); err != nil {
			return nil, fmt.Errorf("failed to scan zone: %w", err)
		}
		if err := json.Unmarshal([]byte(coords), &zone.Polygon); err != nil {
			return nil, fmt.Errorf("failed to decode polygon for zone %d: %w", zone.ID, err)
		}
		zones = append(zones, zone)
	}

	return zones, rows.Err()
}

// Delete removes a zone owned by the given user. Historical zone_analysis
// rows referencing the zone are left in place.
func (r *ZoneRepository) Delete(id, userID int64) error {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`DELETE FROM zones WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete zone: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrZoneNotFound
	}

	return nil
}

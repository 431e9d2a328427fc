package sqlite

import (
	"fmt"
	"time"

	"crowdwatch/internal/dto"
	"crowdwatch/internal/model"
)

// AnalyticsRepository implements repository.AnalyticsRepository for SQLite.
type AnalyticsRepository struct {
	db *DB
}

// NewAnalyticsRepository creates a new SQLite analytics repository.
func NewAnalyticsRepository(db *DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// Insert appends one zone_analysis row.
func (r *AnalyticsRepository) Insert(rec *model.AnalyticsRecord) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`
		INSERT INTO zone_analysis (user_id, timestamp, zone_id, people_count, entries, exits)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.UserID, rec.Timestamp.Format("2006-01-02 15:04:05"), rec.ZoneID, rec.PeopleCount, rec.Entries, rec.Exits)
	if err != nil {
		return fmt.Errorf("failed to insert analytics record: %w", err)
	}

	return nil
}

// DailySummary aggregates entry/exit totals and the hourly average
// occupancy per zone name for one user on one calendar day. Hours without
// samples stay at zero in the 24-slot series.
func (r *AnalyticsRepository) DailySummary(userID int64, day time.Time) (*dto.DailySummary, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	date := day.Format("2006-01-02")

	summary := &dto.DailySummary{
		HourlyTrendByZone: make(map[string][]float64),
	}

	err := r.db.Conn().QueryRow(`
		SELECT COALESCE(SUM(entries), 0), COALESCE(SUM(exits), 0)
		FROM zone_analysis
		WHERE user_id = ? AND date(timestamp) = ?
	`, userID, date).Scan(&summary.TotalEntries, &summary.TotalExits)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily totals: %w", err)
	}

	rows, err := r.db.Conn().Query(`
		SELECT CAST(strftime('%H', za.timestamp) AS INTEGER) AS hour,
		       AVG(za.people_count) AS avg_people_count,
		       z.name AS zone_name
		FROM zone_analysis za
		JOIN zones z ON za.zone_id = z.id
		WHERE za.user_id = ? AND date(za.timestamp) = ?
		GROUP BY hour, z.name
		ORDER BY hour
	`, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly trend: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var hour int
		var avg float64
		var zoneName string
		if err := rows.Scan(&hour, &avg, &zoneName); err != nil {
			return nil, fmt.Errorf("failed to scan hourly trend row: %w", err)
		}

		if _, ok := summary.HourlyTrendByZone[zoneName]; !ok {
			summary.HourlyTrendByZone[zoneName] = make([]float64, 24)
		}
		if hour >= 0 && hour < 24 {
			summary.HourlyTrendByZone[zoneName][hour] = avg
		}
	}

	return summary, rows.Err()
}

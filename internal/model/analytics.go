package model

import "time"

// AnalyticsRecord is one append-only zone_analysis row: the occupancy of a
// single zone at a single analyzed frame. Records are never updated or
// deleted by the engine; deleting a zone leaves its history dangling.
type AnalyticsRecord struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Timestamp   time.Time `json:"timestamp"`
	ZoneID      int64     `json:"zone_id"`
	PeopleCount int       `json:"people_count"`
	Entries     int       `json:"entries"`
	Exits       int       `json:"exits"`
}

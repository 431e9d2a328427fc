package dto

// DailySummary aggregates today's analytics for one user: entry/exit totals
// plus a 24-slot hourly average occupancy series per zone name.
type DailySummary struct {
	TotalEntries      int                  `json:"total_entries"`
	TotalExits        int                  `json:"total_exits"`
	HourlyTrendByZone map[string][]float64 `json:"hourly_trend_by_zone"`
}

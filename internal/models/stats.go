package models

// EnumeratorStats are the gamification counters shown on the enumerator
// dashboard. Points accrue per saved record; the streak counts
// consecutive days with at least one record.
type EnumeratorStats struct {
	Points         int    `json:"points"`
	Streak         int    `json:"streak"`
	LastRecordDate string `json:"last_record_date"` // local date string, e.g. "2026-08-28"
}

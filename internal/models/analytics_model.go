package models

import "time"

// AnalyticsDaily aggregates conversions and revenue for one store and one UTC
// calendar day. The document ID is the day formatted as 2006-01-02. Both
// counters are mutated exclusively with atomic increments, never overwritten,
// since multiple purchases can be reconciled concurrently.
type AnalyticsDaily struct {
	Date        string    `json:"date" firestore:"-"` // Document ID, YYYY-MM-DD
	Conversions int64     `json:"conversions" firestore:"conversions"`
	Revenue     float64   `json:"revenue" firestore:"revenue"` // major units
	UpdatedAt   time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// AnalyticsDay formats a timestamp as the analytics document ID for its UTC day.
func AnalyticsDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

package models

import "time"

// UnspecifiedBucket labels reports with an empty category or building.
const UnspecifiedBucket = "Unspecified"

// ReportStats aggregates publicly visible reports for the admin dashboard.
type ReportStats struct {
	Total       int            `json:"total"`
	ByCategory  map[string]int `json:"byCategory"`
	ByLocation  map[string]int `json:"byLocation"`
	GeneratedAt time.Time      `json:"generatedAt"`
	Cached      bool           `json:"-"`
}

// ReportCount is one grouped row of visible reports.
type ReportCount struct {
	Category string `db:"category"`
	Building string `db:"location_building"`
	Count    int    `db:"total"`
}

// SystemMetrics is a lightweight snapshot of process counters for the admin API.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	DBQueryCount             uint64    `json:"dbQueryCount"`
	AverageDBQueryDurationMs float64   `json:"averageDbQueryDurationMs"`
	Transitions              uint64    `json:"transitions"`
	IntegrityEvents          uint64    `json:"integrityEvents"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}

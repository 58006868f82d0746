package models

import "time"

// SystemMetrics is a lightweight snapshot of service counters.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	ImportPreviews           uint64    `json:"import_previews"`
	ImportCommits            uint64    `json:"import_commits"`
	SlotsCreated             uint64    `json:"slots_created"`
	SlotsRejected            uint64    `json:"slots_rejected"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

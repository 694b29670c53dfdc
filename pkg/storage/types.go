package storage

import "time"

// Lookup is one search (or one observable of a page scan) and its outcome.
type Lookup struct {
	ID          int64     `json:"id"`
	OccurredAt  time.Time `json:"occurredAt"`
	Query       string    `json:"query"`
	SourceURL   string    `json:"sourceUrl,omitempty"`
	RecordCount int       `json:"recordCount"`
	HitCount    int       `json:"hitCount"`
}

// Hit is one platform match recorded for a lookup.
type Hit struct {
	LookupID   int64  `json:"lookupId"`
	RecordKey  string `json:"recordKey"`
	EntityType string `json:"entityType"`
	Name       string `json:"name"`
	PlatformID string `json:"platformId"`
	EntityID   string `json:"entityId,omitempty"`
}

// PlatformStats summarises the history of one platform.
type PlatformStats struct {
	Platform       string `json:"platform"`
	LookupCount    int    `json:"lookupCount"`
	HitCount       int    `json:"hitCount"`
	DistinctEntity int    `json:"distinctEntities"`
}

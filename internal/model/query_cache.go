package model

import (
	"encoding/json"
	"time"
)

type QueryCacheEntry struct {
	Key            string          `json:"key"`
	QueryText      string          `json:"query_text"`
	Scope          string          `json:"scope"`
	Response       json.RawMessage `json:"response"`
	QueryVector    []float32       `json:"query_vector,omitempty"`
	HitCount       int             `json:"hit_count"`
	TTLSeconds     int             `json:"ttl_seconds"`
	CreatedAt      time.Time       `json:"created_at"`
	LastAccessedAt time.Time       `json:"last_accessed_at"`
	ExpiresAt      time.Time       `json:"expires_at"`
}

// ExpiryFor is the only place an expiry time is derived.
func ExpiryFor(createdAt time.Time, ttlSeconds int) time.Time {
	return createdAt.Add(time.Duration(ttlSeconds) * time.Second)
}

func (e *QueryCacheEntry) ExpiredAt(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

type Feedback struct {
	ID         string    `json:"id"`
	CacheKey   string    `json:"cache_key"`
	TenantID   string    `json:"tenant_id"`
	DocumentID string    `json:"document_id,omitempty"`
	Question   string    `json:"question"`
	Helpful    bool      `json:"helpful"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

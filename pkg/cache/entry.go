package cache

import (
	"time"

	"github.com/Sternrassler/catalog-probe/pkg/catalog"
)

// Entry is a cached probe outcome.
type Entry struct {
	// Identifier is the probed catalog identifier
	Identifier catalog.Identifier `json:"identifier"`

	// Exists is the probe outcome
	Exists bool `json:"exists"`

	// CheckedAt is when the catalog was probed
	CheckedAt time.Time `json:"checked_at"`

	// Expires is when the entry stops being trusted
	Expires time.Time `json:"expires"`
}

// NewEntry creates an entry checked now and valid for ttl.
func NewEntry(id catalog.Identifier, exists bool, ttl time.Duration) *Entry {
	now := time.Now()
	return &Entry{
		Identifier: id,
		Exists:     exists,
		CheckedAt:  now,
		Expires:    now.Add(ttl),
	}
}

// IsExpired returns true if the entry has expired.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// Result converts the entry to a probe result.
func (e *Entry) Result() catalog.Result {
	return catalog.Result{Identifier: e.Identifier, Exists: e.Exists}
}

package pool

import (
	"fmt"
	"strings"
)

// Strategy selects how the coordinator replenishes work.
type Strategy string

const (
	// SpawnPerBatch creates a fresh worker for every batch.
	SpawnPerBatch Strategy = "spawn"

	// PersistentReuse feeds successive batches to a fixed set of workers.
	PersistentReuse Strategy = "reuse"
)

// ParseStrategy converts a configuration string to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "spawn", "spawn-per-batch", "new":
		return SpawnPerBatch, nil
	case "reuse", "persistent", "persistent-reuse":
		return PersistentReuse, nil
	default:
		return "", fmt.Errorf("unknown strategy %q (want %q or %q)", s, SpawnPerBatch, PersistentReuse)
	}
}

// String implements fmt.Stringer.
func (s Strategy) String() string {
	return string(s)
}

// reusesWorkers reports whether workers wait for further batches.
func (s Strategy) reusesWorkers() bool {
	return s == PersistentReuse
}

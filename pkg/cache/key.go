package cache

import (
	"strings"

	"github.com/Sternrassler/catalog-probe/pkg/catalog"
)

// KeyPrefix namespaces all probe cache keys in Redis.
const KeyPrefix = "catalog:probe"

// Key returns the Redis key for an identifier.
//
// Example:
//
//	catalog:probe:9781838823818
func Key(id catalog.Identifier) string {
	return KeyPrefix + ":" + strings.TrimSpace(string(id))
}

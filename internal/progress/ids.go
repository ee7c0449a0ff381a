package progress

import (
	"fmt"
	"strings"
)

// IDCacheLimit bounds the number of remembered (category, name) pairs.
const IDCacheLimit = 1000

type idKey struct {
	category Category
	name     string
}

// IDGenerator hands out readable task IDs namespaced per category.
// It is not safe for concurrent use on its own; the Registry calls it with
// its lock held.
type IDGenerator struct {
	counters map[Category]int
	cache    map[idKey]string
	order    []idKey
	limit    int
}

// NewIDGenerator returns a generator whose cache holds at most limit entries.
// A non-positive limit selects IDCacheLimit.
func NewIDGenerator(limit int) *IDGenerator {
	if limit <= 0 {
		limit = IDCacheLimit
	}
	return &IDGenerator{
		counters: make(map[Category]int),
		cache:    make(map[idKey]string),
		limit:    limit,
	}
}

// Generate returns the ID for rawName in category. The same pair yields the
// same ID until the entry is evicted or Clear is called.
func (g *IDGenerator) Generate(category Category, rawName string) string {
	key := idKey{category: category, name: rawName}
	if id, ok := g.cache[key]; ok {
		return id
	}

	g.counters[category]++
	id := fmt.Sprintf("%s_%d_%s", category.Prefix(), g.counters[category], sanitizeName(rawName))

	if len(g.order) >= g.limit {
		oldest := g.order[0]
		g.order = g.order[1:]
		delete(g.cache, oldest)
	}
	g.cache[key] = id
	g.order = append(g.order, key)
	return id
}

// Clear resets all counters and forgets every cached ID.
func (g *IDGenerator) Clear() {
	g.counters = make(map[Category]int)
	g.cache = make(map[idKey]string)
	g.order = nil
}

// Len returns the number of cached IDs.
func (g *IDGenerator) Len() int {
	return len(g.cache)
}

func sanitizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "unnamed"
	}
	return b.String()
}

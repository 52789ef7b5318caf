// Package cache avoids recomputing source-direction predictions for corpus
// files that share the same underlying sentence group.
package cache

import (
	"path/filepath"
	"strings"
)

// GroupLabel tags a corpus file as belonging to a comparison group whose
// files share source-side sentences. Files carrying the same label under the
// same checkpoint yield identical source-direction predictions.
type GroupLabel string

const (
	// GroupARP marks the automatically generated paraphrase group.
	GroupARP GroupLabel = "arp"
	// GroupWMTP marks the WMT paraphrase group.
	GroupWMTP GroupLabel = "wmtp"
)

// LabelFor classifies a corpus file name into a group label. Files matching
// neither naming tag are never cache-eligible; each one is computed
// independently, which is expected behavior rather than an error.
func LabelFor(filename string) (GroupLabel, bool) {
	base := filepath.Base(filename)
	switch {
	case strings.Contains(base, string(GroupARP)):
		return GroupARP, true
	case strings.Contains(base, string(GroupWMTP)):
		return GroupWMTP, true
	default:
		return "", false
	}
}

// Cache holds the most recent source-direction probability vector computed
// per group label under the current checkpoint. Entries live only for the
// duration of one checkpoint's processing loop and are never persisted.
type Cache struct {
	checkpointID string
	entries      map[GroupLabel][]float64
}

// New returns an empty cache bound to no checkpoint.
func New() *Cache {
	return &Cache{entries: make(map[GroupLabel][]float64)}
}

// Reset drops every entry and re-keys the cache to a new checkpoint. A
// vector computed under one checkpoint must never be served under another.
func (c *Cache) Reset(checkpointID string) {
	c.checkpointID = checkpointID
	c.entries = make(map[GroupLabel][]float64)
}

// CheckpointID returns the checkpoint the cache is currently scoped to.
func (c *Cache) CheckpointID() string {
	return c.checkpointID
}

// Lookup returns the cached vector for a group label, if one was stored
// under the current checkpoint.
func (c *Cache) Lookup(label GroupLabel) ([]float64, bool) {
	probs, ok := c.entries[label]
	return probs, ok
}

// Store records a freshly computed probability vector for a group label. The
// vector is copied so later mutation by the caller cannot corrupt the cache.
func (c *Cache) Store(label GroupLabel, probs []float64) {
	stored := make([]float64, len(probs))
	copy(stored, probs)
	c.entries[label] = stored
}

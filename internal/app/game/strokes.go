package game

import (
	"encoding/json"

	"github.com/dkeye/DrawQuiz/internal/domain"
)

const DefaultStrokeCacheSize = 200

type Stroke struct {
	Author domain.Identity
	Data   json.RawMessage
}

// StrokeCache keeps the most recent strokes so (re)joining clients can redraw.
// Oldest entries are dropped beyond the limit.
type StrokeCache struct {
	limit   int
	entries []Stroke
}

func NewStrokeCache(limit int) *StrokeCache {
	if limit <= 0 {
		limit = DefaultStrokeCacheSize
	}
	return &StrokeCache{limit: limit, entries: make([]Stroke, 0, limit)}
}

func (c *StrokeCache) Append(author domain.Identity, data json.RawMessage) {
	if len(c.entries) >= c.limit {
		n := len(c.entries) - c.limit + 1
		copy(c.entries, c.entries[n:])
		c.entries = c.entries[:len(c.entries)-n]
	}
	c.entries = append(c.entries, Stroke{Author: author, Data: data})
}

// ClearAuthor drops every cached stroke of author.
func (c *StrokeCache) ClearAuthor(author domain.Identity) {
	kept := c.entries[:0]
	for _, s := range c.entries {
		if s.Author != author {
			kept = append(kept, s)
		}
	}
	c.entries = kept
}

func (c *StrokeCache) Clear() { c.entries = c.entries[:0] }

func (c *StrokeCache) Len() int { return len(c.entries) }

// ByAuthor groups cached strokes by author, preserving order.
func (c *StrokeCache) ByAuthor() map[domain.Identity][]json.RawMessage {
	out := make(map[domain.Identity][]json.RawMessage)
	for _, s := range c.entries {
		out[s.Author] = append(out[s.Author], s.Data)
	}
	return out
}

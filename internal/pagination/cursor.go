// Package pagination implements opaque resume cursors for the listing
// endpoints. A cursor names the last chunk of the previous page; the
// next page resumes just past it in the index's insertion order.
package pagination

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"
)

// Cursor is a decoded resume position.
type Cursor struct {
	LastName  string
	CreatedAt time.Time
}

// Page is one page of a listing plus the cursor for the next one.
type Page[T any] struct {
	Items   []T    `json:"items"`
	Cursor  string `json:"cursor,omitempty"`
	HasMore bool   `json:"has_more"`
}

var ErrInvalidCursor = errors.New("invalid cursor")

// Encode builds an opaque cursor from the last item of a page. Chunk
// names never contain the separator, so the encoding is unambiguous.
func Encode(lastName string, createdAt time.Time) string {
	if lastName == "" {
		return ""
	}
	raw := lastName + "|" + createdAt.UTC().Format(time.RFC3339Nano)
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// Decode parses a cursor. An empty string is a nil cursor, meaning the
// listing starts from the beginning.
func Decode(raw string) (*Cursor, error) {
	if raw == "" {
		return nil, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	name, ts, found := strings.Cut(string(decoded), "|")
	if !found || name == "" {
		return nil, ErrInvalidCursor
	}

	createdAt, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	return &Cursor{LastName: name, CreatedAt: createdAt}, nil
}

// ResumeIndex returns the offset just past the cursor's item in a
// stably ordered listing. A nil cursor, or one naming an item that has
// since been deleted, starts the listing over from zero rather than
// guessing a position.
func ResumeIndex[T any](items []T, c *Cursor, name func(T) string) int {
	if c == nil {
		return 0
	}
	for i, item := range items {
		if name(item) == c.LastName {
			return i + 1
		}
	}
	return 0
}

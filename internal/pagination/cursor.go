// Package pagination holds the keyset cursor used by infinite-scroll lists and
// the offset/window math used by admin tables.
package pagination

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultLimit = 10
	MaxLimit     = 50
)

var ErrInvalidCursor = errors.New("invalid cursor")

// Cursor is the (created_at, id) key of the last row on a page.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// Params is what a list endpoint receives.
type Params struct {
	Limit  int
	Cursor *Cursor
}

// Page is one slice of a keyset-ordered list.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// EncodeCursor renders c as an opaque URL-safe token.
func EncodeCursor(c Cursor) string {
	raw := c.CreatedAt.UTC().Format(time.RFC3339Nano) + "|" + c.ID.String()
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a token produced by EncodeCursor.
func DecodeCursor(token string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}

	createdAt, id, ok := strings.Cut(string(raw), "|")
	if !ok {
		return Cursor{}, ErrInvalidCursor
	}

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}

	return Cursor{CreatedAt: ts, ID: uid}, nil
}

// ParseParams builds Params from raw query values. An empty cursor means the
// first page.
func ParseParams(limit int, cursor string) (Params, error) {
	p := Params{Limit: NormalizeLimit(limit)}
	if cursor == "" {
		return p, nil
	}

	c, err := DecodeCursor(cursor)
	if err != nil {
		return Params{}, err
	}
	p.Cursor = &c
	return p, nil
}

// NormalizeLimit applies the default and clamps to MaxLimit.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// NewPage trims rows fetched with limit+1 down to limit and derives the next
// cursor from the last kept row.
func NewPage[T any](rows []T, limit int, keyOf func(T) Cursor) Page[T] {
	if len(rows) <= limit {
		if rows == nil {
			rows = []T{}
		}
		return Page[T]{Items: rows}
	}

	items := rows[:limit]
	return Page[T]{
		Items:      items,
		NextCursor: EncodeCursor(keyOf(items[len(items)-1])),
	}
}

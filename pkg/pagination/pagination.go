// Package pagination pages the payout audit listing with a keyset cursor.
// Rows are served oldest first, ordered by (created_at, id); the cursor names
// the last row of the previous page.
package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultLimit is the page size used when the caller does not pick one.
	DefaultLimit = 25
	// MaxLimit caps how many payout rows a single page may carry.
	MaxLimit = 100
)

// Params carries the paging inputs of one listing request.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor pins the keyset position after one audit row.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// NormalizeLimit clamps the requested page size, substituting DefaultLimit
// when the caller sent none.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// LimitWithBuffer asks for one row beyond the page so the repository can tell
// whether another page follows without a second query.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// Encode renders the cursor as url-safe base64 over "<rfc3339nano>,<uuid>".
// The shape is opaque to clients; only Decode understands it.
func (c Cursor) Encode() string {
	payload := c.CreatedAt.UTC().Format(time.RFC3339Nano) + "," + c.ID.String()
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// Decode parses a cursor produced by Encode. A blank value decodes to nil so
// the first page and a cursorless request read the same.
func Decode(value string) (*Cursor, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("cursor is not valid base64: %w", err)
	}
	createdAtPart, idPart, ok := strings.Cut(string(raw), ",")
	if !ok {
		return nil, fmt.Errorf("cursor is missing its separator")
	}

	createdAt, err := time.Parse(time.RFC3339Nano, createdAtPart)
	if err != nil {
		return nil, fmt.Errorf("cursor timestamp: %w", err)
	}
	id, err := uuid.Parse(idPart)
	if err != nil {
		return nil, fmt.Errorf("cursor id: %w", err)
	}
	return &Cursor{CreatedAt: createdAt, ID: id}, nil
}

// Package pagination implements the keyset cursor used by the platform
// ledger listing. Entries are served newest first, ordered by
// (created_at DESC, id DESC); a token names the last row of the page it
// follows, so a retried or repeated request never skips entries that were
// appended in between.
package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultLimit is the page size when the caller does not ask for one.
	DefaultLimit = 25
	// MaxLimit caps how many ledger rows a single page can return.
	MaxLimit = 100
)

// Params carries the paging inputs taken from a listing request.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor is a decoded keyset position: creation time and id of the last
// entry already served.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// Clamp folds a requested limit into [1, MaxLimit], defaulting when unset.
func Clamp(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// NextToken encodes the keyset position of the last entry on a page.
func NextToken(createdAt time.Time, id uuid.UUID) string {
	payload := strconv.FormatInt(createdAt.UTC().UnixNano(), 10) + ":" + id.String()
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// ParseToken decodes a token produced by NextToken. An empty token means
// start from the newest entry and yields (nil, nil).
func ParseToken(value string) (*Cursor, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor token: %w", err)
	}
	nanos, rawID, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return nil, fmt.Errorf("malformed cursor token")
	}

	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed cursor timestamp: %w", err)
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("malformed cursor id: %w", err)
	}
	return &Cursor{CreatedAt: time.Unix(0, n).UTC(), ID: id}, nil
}

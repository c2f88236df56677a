package pagination

import (
	"net/http"
	"strconv"
	"strings"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 10
	// MaxLimit caps how many rows any paginated query can request.
	MaxLimit = 100
)

// Params holds offset pagination inputs from controllers.
type Params struct {
	Page  int
	Limit int
}

// FromRequest extracts page/limit query parameters with defaults applied.
func FromRequest(r *http.Request) Params {
	return Params{
		Page:  parsePositive(r.URL.Query().Get("page"), 1),
		Limit: NormalizeLimit(parsePositive(r.URL.Query().Get("limit"), DefaultLimit)),
	}
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Offset converts the page number into a row offset.
func (p Params) Offset() int {
	page := p.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * NormalizeLimit(p.Limit)
}

func parsePositive(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// LimitMode selects how a log query's limit is applied to the filtered entries.
type LimitMode string

const (
	// LimitSuffix keeps the last N filtered entries in the store's native order.
	LimitSuffix LimitMode = "suffix"
	// LimitRecent sorts the filtered entries newest first and keeps the first N.
	LimitRecent LimitMode = "recent"
)

// ParseLimitMode validates a configured limit mode. Empty selects LimitSuffix.
func ParseLimitMode(raw string) (LimitMode, error) {
	switch LimitMode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", LimitSuffix:
		return LimitSuffix, nil
	case LimitRecent:
		return LimitRecent, nil
	default:
		return "", fmt.Errorf("unknown log limit mode %q", raw)
	}
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseDate accepts a calendar date or timestamp. Values without a zone are UTC.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

// LogQuery holds the parsed filters of a log request. Nil bounds and a zero
// limit mean "unbounded".
type LogQuery struct {
	UserID string
	From   *time.Time
	To     *time.Time
	Limit  int
}

// NewLogQuery parses raw query values. Unparseable bounds and non-positive
// limits are dropped rather than rejected.
func NewLogQuery(userID, from, to, limit string) LogQuery {
	q := LogQuery{UserID: strings.TrimSpace(userID)}
	if ts, ok := ParseDate(from); ok {
		q.From = &ts
	}
	if ts, ok := ParseDate(to); ok {
		q.To = &ts
	}
	if n, err := strconv.Atoi(strings.TrimSpace(limit)); err == nil && n > 0 {
		q.Limit = n
	}
	return q
}

// FilterExercises applies the inclusive date bounds and then the limit.
// The input slice is not modified.
func FilterExercises(exercises []Exercise, q LogQuery, mode LimitMode) []Exercise {
	out := make([]Exercise, 0, len(exercises))
	for _, e := range exercises {
		if q.From != nil && e.Date.Before(*q.From) {
			continue
		}
		if q.To != nil && e.Date.After(*q.To) {
			continue
		}
		out = append(out, e)
	}

	if mode == LimitRecent {
		slices.SortStableFunc(out, func(a, b Exercise) int {
			return b.Date.Compare(a.Date)
		})
		if q.Limit > 0 && q.Limit < len(out) {
			out = out[:q.Limit]
		}
		return out
	}

	// Suffix of whatever order the store produced; no re-sort.
	if q.Limit > 0 && q.Limit < len(out) {
		out = out[len(out)-q.Limit:]
	}
	return out
}

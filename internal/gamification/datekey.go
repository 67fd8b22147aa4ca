// Package gamification implements the classroom gamification engine: XP and
// levels, scoring and attendance streaks, badge rules, and the pure state
// transitions that tie them together. Every function in this package is a
// deterministic computation over in-memory values; persistence and event
// dispatch belong to the callers.
package gamification

import "time"

// dateKeyLayout is the calendar date key format used everywhere streaks are
// involved. Keys compare by day count, never by timestamp, so time-of-day and
// timezone drift cannot split or merge streak days.
const dateKeyLayout = "2006-01-02"

// FormatDateKey renders a time as a YYYY-MM-DD date key in its own location.
func FormatDateKey(t time.Time) string {
	return t.Format(dateKeyLayout)
}

// ParseDateKey parses a YYYY-MM-DD date key into a UTC midnight time.
func ParseDateKey(key string) (time.Time, error) {
	return time.Parse(dateKeyLayout, key)
}

// ExemptSet is a set of date keys that do not break streaks (weekends,
// holidays, other no-class days).
type ExemptSet map[string]struct{}

// NewExemptSet builds an ExemptSet from date keys.
func NewExemptSet(keys ...string) ExemptSet {
	set := make(ExemptSet, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// Contains reports whether the set holds the given date key.
func (s ExemptSet) Contains(key string) bool {
	_, ok := s[key]
	return ok
}

// IsConsecutive reports whether nextKey extends a streak that last advanced on
// lastKey. A gap of exactly one day is always consecutive. A larger gap counts
// only when every calendar day strictly between the two keys is exempt, so a
// Friday check-in followed by a Monday check-in bridges an exempt weekend.
// Equal or non-increasing dates are never consecutive; same-day repeats are
// the caller's no-op case, not a streak continuation.
func IsConsecutive(lastKey, nextKey string, exempt ExemptSet) bool {
	last, err := ParseDateKey(lastKey)
	if err != nil {
		return false
	}
	next, err := ParseDateKey(nextKey)
	if err != nil {
		return false
	}

	diffDays := int(next.Sub(last).Hours() / 24)
	if diffDays <= 0 {
		return false
	}
	if diffDays == 1 {
		return true
	}
	for i := 1; i < diffDays; i++ {
		day := FormatDateKey(last.AddDate(0, 0, i))
		if !exempt.Contains(day) {
			return false
		}
	}
	return true
}

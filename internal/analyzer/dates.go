// Package analyzer computes streaks, completion rates and calendar views from a
// habit's completion history. Every function is pure: "today" and the reference
// location are supplied by the caller, and malformed dates are treated as absent.
package analyzer

import (
	"strings"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
)

const secondsPerDay = 24 * 60 * 60

// epochDay numbers calendar days from 1970-01-01. Arithmetic on it is calendar
// arithmetic, so DST shifts in the reference location cannot skew it.
type epochDay int64

func civilDay(year int, month time.Month, day int) epochDay {
	return epochDay(time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay)
}

func (d epochDay) String() string {
	return time.Unix(int64(d)*secondsPerDay, 0).UTC().Format(constants.DateFormat)
}

// daySet is the set of distinct calendar days carrying a completion
type daySet map[epochDay]struct{}

func (s daySet) has(d epochDay) bool {
	_, ok := s[d]
	return ok
}

// completionDays collects the distinct, well-formed completion dates.
func completionDays(completions []models.Completion) daySet {
	days := make(daySet, len(completions))
	for _, c := range completions {
		if d, ok := parseDay(c.Date); ok {
			days[d] = struct{}{}
		}
	}
	return days
}

func parseDay(s string) (epochDay, bool) {
	t, err := time.Parse(constants.DateFormat, strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return civilDay(t.Year(), t.Month(), t.Day()), true
}

// ParseDay parses a YYYY-MM-DD calendar date. The result is midnight UTC.
func ParseDay(s string) (time.Time, bool) {
	t, err := time.Parse(constants.DateFormat, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Layouts accepted by ParseTimestamp, tried in order. Only the first one
// carries an offset; the rest are civil times in the reference location.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	constants.DateFormat,
}

// ParseTimestamp parses a creation or toggle timestamp in any of the formats
// written by current or legacy collaborators. Values without an offset are
// read as wall-clock times in loc (UTC when nil), so a bare date stays on its
// own calendar day. ok is false for malformed input.
func ParseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseTimestamp parses s in the analyzer's reference location.
func (a *Analyzer) ParseTimestamp(s string) (time.Time, bool) {
	return ParseTimestamp(s, a.loc)
}

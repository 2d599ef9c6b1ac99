package policy

import (
	"strings"
	"time"

	domainauth "github.com/target/staff-portal/internal/domain/auth"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

func meetsTenure(claims domainauth.Claims, req MinimumTenure, now time.Time) bool {
	raw, ok := claims.Lookup(req.ClaimType)
	if !ok {
		return false
	}
	start, ok := ParseClaimDate(raw, now.Location())
	if !ok {
		return false
	}
	years, ok := FullYears(start, now)
	return ok && years >= req.Years
}

// ParseClaimDate parses a date-valued claim in loc. Timestamps carrying an offset are
// converted to loc before their calendar date is taken.
func ParseClaimDate(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, raw, loc)
		if err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}

// FullYears counts whole calendar years from start to now. A year is complete once its
// anniversary date has been reached; a Feb 29 start has its anniversary on Feb 28 in common
// years. ok is false when start is after now.
func FullYears(start, now time.Time) (int, bool) {
	sy, sm, sd := start.In(now.Location()).Date()
	ny, nm, nd := now.Date()

	if sy > ny || (sy == ny && (sm > nm || (sm == nm && sd > nd))) {
		return 0, false
	}

	years := ny - sy
	annivDay := min(sd, daysIn(sm, ny))
	if nm < sm || (nm == sm && nd < annivDay) {
		years--
	}
	return years, true
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

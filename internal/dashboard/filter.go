package dashboard

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar-date format accepted in filters.
const DateLayout = "2006-01-02"

// Filter narrows ListActivities. Empty fields disable their predicate.
type Filter struct {
	Tags      []string
	Types     []string
	StartDate *time.Time
}

// ParseFilter validates raw filter values. Blank entries are dropped and the
// start date must be YYYY-MM-DD.
func ParseFilter(tags, types []string, startDate string) (Filter, error) {
	f := Filter{
		Tags:  compact(tags),
		Types: compact(types),
	}

	if startDate = strings.TrimSpace(startDate); startDate != "" {
		d, err := ParseDate(startDate)
		if err != nil {
			return Filter{}, err
		}
		f.StartDate = &d
	}

	return f, nil
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: start date %q must be YYYY-MM-DD", ErrInvalidFilter, s)
	}
	return d, nil
}

// ParseActivityID parses a positive activity id.
func ParseActivityID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: activity id %q", ErrInvalidFilter, s)
	}
	return id, nil
}

// ParseLapNumbers parses a comma-separated list of lap numbers ("1,3,4").
func ParseLapNumbers(s string) ([]int64, error) {
	var laps []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: lap number %q", ErrInvalidFilter, part)
		}
		laps = append(laps, n)
	}
	return laps, nil
}

// SplitTags splits a comma-delimited tag field into trimmed, non-empty tags,
// keeping their original casing.
func SplitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// matchesTags reports whether any of the activity's tags equals any wanted
// tag, ignoring case and surrounding whitespace.
func matchesTags(activityTags []string, wanted []string) bool {
	for _, have := range activityTags {
		for _, w := range wanted {
			if strings.EqualFold(have, w) {
				return true
			}
		}
	}
	return false
}

func compact(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

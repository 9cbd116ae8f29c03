package suggest

import (
	"math"
	"time"
)

// MatchPercent converts a vector-space distance into the displayed match
// percentage: round((1 - distance) * 100), clamped to [0, 100]. Distances
// can exceed 1 for very dissimilar records.
func MatchPercent(distance float64) int {
	percent := int(math.Round((1 - distance) * 100))
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// displayDateLayouts are tried in order when formatting a record date
var displayDateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
}

// FormatDate renders a record date as "Jan 2, 2006". Unparseable values are
// returned unchanged rather than blanked; the upstream schema never pinned
// a date format.
func FormatDate(value string) string {
	if value == "" {
		return ""
	}
	for _, layout := range displayDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("Jan 2, 2006")
		}
	}
	return value
}

package search

import "time"

// dateFormats are tried in order of increasing specificity. The layouts
// mirror the accepted request formats: YYYY, YYYY-MM, YYYY-MM-DD and the
// same with hour, minute and second precision.
var dateFormats = []string{
	"2006",
	"2006-01",
	"2006-01-02",
	"2006-01-02 15",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

// ResolveDate parses a partial date string into a concrete bound. Start
// dates keep the start-of-period instant that falls out of partial parsing
// ("2020" is Jan 1 00:00:00). End dates expand truncated precision to the
// last second of the period: "2020" becomes Dec 31 23:59:59, "2020-02"
// becomes Feb 29 23:59:59 on a leap year. Formats already exact to the
// second are returned unmodified.
//
// The second return value is false when no format matches; the caller must
// then render the bound unsatisfiable rather than dropping the filter.
func ResolveDate(value string, isEndDate bool) (time.Time, bool) {
	for _, format := range dateFormats {
		t, err := time.Parse(format, value)
		if err != nil {
			continue
		}
		if !isEndDate {
			return t, true
		}

		switch format {
		case "2006":
			t = time.Date(t.Year(), time.December, 31, 23, 59, 59, 0, t.Location())
		case "2006-01":
			// Day zero of the next month normalizes to the last
			// calendar day of this month, leap Februaries included.
			t = time.Date(t.Year(), t.Month()+1, 0, 23, 59, 59, 0, t.Location())
		case "2006-01-02":
			t = time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
		}
		return t, true
	}
	return time.Time{}, false
}

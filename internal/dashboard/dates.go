package dashboard

import (
	"errors"
	"strings"
	"time"
)

var errInvalidDate = errors.New("invalid date")

// dateLayouts are accepted in order. Bare dates are read in the store
// location; timestamps keep their instant and are moved to it.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseDate parses a date filter value in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, value, loc)
		if err == nil {
			return t.In(loc), nil
		}
	}
	return time.Time{}, errInvalidDate
}

package stash

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar date without a time of day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate returns the Date for year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// ParseDate accepts YYYY-MM-DD, YYYY-MM, YYYY or an RFC 3339 timestamp.
// Partial dates are completed with the first month or day.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{dateLayout, "2006-01", "2006", time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t.Year(), t.Month(), t.Day()), nil
		}
	}
	return Date{}, fmt.Errorf("stash: invalid date %q", s)
}

// Time returns midnight UTC on d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	return d.Time().Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("stash: date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// optionalDate parses a wire date where null, a missing key and "" all mean
// no date.
func optionalDate(raw Optional[string]) (Optional[Date], error) {
	s, ok := raw.Get()
	if !ok || strings.TrimSpace(s) == "" {
		return None[Date](), nil
	}
	d, err := ParseDate(s)
	if err != nil {
		return None[Date](), err
	}
	return Some(d), nil
}

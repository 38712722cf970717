package dates

import (
	"fmt"
	"time"
)

// ReferenceZone is the single timezone every calendar calculation in the
// system runs in. Day boundaries, deadlines and completion keys are all
// computed here; callers must never do their own timezone math.
var ReferenceZone = time.UTC

// DateKey identifies one calendar date in the reference timezone. It is a
// comparable value type: two DateKeys built from different encodings of
// the same calendar date are equal, which is what makes it safe to use as
// a map key for completion state.
type DateKey struct {
	Year  int
	Month time.Month
	Day   int
}

// layouts accepted by Parse, in the order they are tried. The backing
// store emits plain dates, clients tend to send RFC 3339 instants, and
// older check-in rows carry a space-separated timestamp.
var parseLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02/01/2006",
}

// KeyOf returns the DateKey of the calendar date that instant t falls on
// in the reference timezone.
func KeyOf(t time.Time) DateKey {
	t = t.In(ReferenceZone)
	y, m, d := t.Date()
	return DateKey{Year: y, Month: m, Day: d}
}

// Parse normalizes a textual date into a DateKey. Encodings that carry a
// time component are first converted to the reference timezone so the
// calendar date is resolved there, not in the sender's zone.
func Parse(s string) (DateKey, error) {
	for _, layout := range parseLayouts {
		t, err := time.ParseInLocation(layout, s, ReferenceZone)
		if err == nil {
			return KeyOf(t), nil
		}
	}
	return DateKey{}, fmt.Errorf("unrecognized date %q", s)
}

// MustParse is a test helper; it panics on malformed input.
func MustParse(s string) DateKey {
	k, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return k
}

// String renders the canonical encoding, YYYY-MM-DD.
func (k DateKey) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", k.Year, int(k.Month), k.Day)
}

// IsZero reports whether k is the zero value, which no real date maps to.
func (k DateKey) IsZero() bool {
	return k == DateKey{}
}

// Time returns midnight of the key's date in the reference timezone.
func (k DateKey) Time() time.Time {
	return time.Date(k.Year, k.Month, k.Day, 0, 0, 0, 0, ReferenceZone)
}

// AddDays shifts t by n calendar days while preserving its time-of-day in
// the reference timezone. Start instants carry precise hours and minutes
// that must survive day arithmetic, so this goes through time.Date rather
// than adding 24h multiples.
func AddDays(t time.Time, n int) time.Time {
	t = t.In(ReferenceZone)
	return time.Date(t.Year(), t.Month(), t.Day()+n, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), ReferenceZone)
}

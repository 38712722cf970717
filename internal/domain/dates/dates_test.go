package dates

import (
	"testing"
	"time"
)

func TestParse_EquivalentEncodingsCompareEqual(t *testing.T) {
	// Different textual encodings of the same calendar date must collapse
	// into one DateKey.
	encodings := []string{
		"2024-01-05",
		"2024-01-05T10:30:00Z",
		"2024-01-05T10:30:00",
		"2024-01-05 10:30:00",
		"05/01/2024",
	}

	want := DateKey{Year: 2024, Month: time.January, Day: 5}
	for _, enc := range encodings {
		got, err := Parse(enc)
		if err != nil {
			t.Fatalf("Parse(%q): unexpected error: %v", enc, err)
		}
		if got != want {
			t.Fatalf("Parse(%q) = %v, want %v", enc, got, want)
		}
	}
}

func TestParse_RejectsGarbage(t *testing.T) {
	for _, bad := range []string{"", "not-a-date", "2024-13-45", "tomorrow"} {
		if _, err := Parse(bad); err == nil {
			t.Fatalf("Parse(%q): expected error", bad)
		}
	}
}

func TestKeyOf_NormalizesToReferenceZone(t *testing.T) {
	// 2024-01-02T01:30+05:00 is still 2024-01-01 in the reference zone.
	offset := time.FixedZone("UTC+5", 5*3600)
	instant := time.Date(2024, time.January, 2, 1, 30, 0, 0, offset)

	got := KeyOf(instant)
	want := DateKey{Year: 2024, Month: time.January, Day: 1}
	if got != want {
		t.Fatalf("KeyOf = %v, want %v", got, want)
	}
}

func TestAddDays_PreservesTimeOfDay(t *testing.T) {
	start := time.Date(2024, time.January, 1, 8, 15, 30, 0, ReferenceZone)

	got := AddDays(start, 9)
	want := time.Date(2024, time.January, 10, 8, 15, 30, 0, ReferenceZone)
	if !got.Equal(want) {
		t.Fatalf("AddDays(+9) = %v, want %v", got, want)
	}

	// Month rollover.
	got = AddDays(start, 31)
	want = time.Date(2024, time.February, 1, 8, 15, 30, 0, ReferenceZone)
	if !got.Equal(want) {
		t.Fatalf("AddDays(+31) = %v, want %v", got, want)
	}

	// Negative shifts work the same way.
	got = AddDays(start, -1)
	want = time.Date(2023, time.December, 31, 8, 15, 30, 0, ReferenceZone)
	if !got.Equal(want) {
		t.Fatalf("AddDays(-1) = %v, want %v", got, want)
	}
}

func TestDateKey_StringRoundTrips(t *testing.T) {
	key := DateKey{Year: 2024, Month: time.March, Day: 7}
	if key.String() != "2024-03-07" {
		t.Fatalf("String() = %q, want %q", key.String(), "2024-03-07")
	}

	parsed, err := Parse(key.String())
	if err != nil {
		t.Fatalf("Parse(String()): %v", err)
	}
	if parsed != key {
		t.Fatalf("round trip = %v, want %v", parsed, key)
	}
}

func TestFixedClock_ReportsInjectedInstant(t *testing.T) {
	instant := time.Date(2024, time.June, 1, 12, 0, 0, 0, ReferenceZone)
	clock := FixedClock{Instant: instant}

	if !clock.Now().Equal(instant) {
		t.Fatalf("FixedClock.Now() = %v, want %v", clock.Now(), instant)
	}
	if !clock.Now().Equal(clock.Now()) {
		t.Fatal("FixedClock must be stable across calls")
	}
}

package clock

import (
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	c := RealClock{}
	before := time.Now()
	got := c.Now()
	after := time.Now()

	if got.Before(before) || got.After(after) {
		t.Errorf("RealClock.Now() = %v, want between %v and %v", got, before, after)
	}
}

func TestMockClock_SetAndAdvance(t *testing.T) {
	start := time.Date(2025, 12, 8, 10, 0, 0, 0, Belgrade())
	c := NewMockClock(start)

	if !c.Now().Equal(start) {
		t.Errorf("Now() = %v, want %v", c.Now(), start)
	}

	c.Advance(90 * time.Minute)
	want := start.Add(90 * time.Minute)
	if !c.Now().Equal(want) {
		t.Errorf("after Advance: Now() = %v, want %v", c.Now(), want)
	}

	later := time.Date(2025, 12, 9, 1, 5, 0, 0, Belgrade())
	c.Set(later)
	if !c.Now().Equal(later) {
		t.Errorf("after Set: Now() = %v, want %v", c.Now(), later)
	}
}

func TestTimestampFormats(t *testing.T) {
	at := time.Date(2025, 12, 8, 14, 5, 3, 0, Belgrade())

	if got, want := Timestamp(at), "08.12.2025. 14:05:03"; got != want {
		t.Errorf("Timestamp = %q, want %q", got, want)
	}
	if got, want := DateOnly(at), "08.12.2025."; got != want {
		t.Errorf("DateOnly = %q, want %q", got, want)
	}
}

func TestTimestamp_ConvertsToBelgrade(t *testing.T) {
	// 23:30 UTC in winter is 00:30 the next day in Belgrade.
	at := time.Date(2025, 12, 8, 23, 30, 0, 0, time.UTC)
	if got, want := DateOnly(at), "09.12.2025."; got != want {
		t.Errorf("DateOnly = %q, want %q", got, want)
	}
}

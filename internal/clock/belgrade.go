package clock

import (
	"sync"
	"time"
)

// Sheet cells carry these renderings of local time. Both are written and
// compared verbatim, so they must stay byte-stable.
const (
	// TimestampLayout renders e.g. "08.12.2025. 14:05:03".
	TimestampLayout = "02.01.2006. 15:04:05"
	// DateLayout renders e.g. "08.12.2025."
	DateLayout = "02.01.2006."
)

var (
	belgradeOnce sync.Once
	belgradeLoc  *time.Location
)

// Belgrade returns the Europe/Belgrade location. If tzdata is unavailable
// it falls back to a fixed CET offset.
func Belgrade() *time.Location {
	belgradeOnce.Do(func() {
		loc, err := time.LoadLocation("Europe/Belgrade")
		if err != nil {
			loc = time.FixedZone("CET", 1*60*60)
		}
		belgradeLoc = loc
	})
	return belgradeLoc
}

// Timestamp formats t as a local sheet timestamp.
func Timestamp(t time.Time) string {
	return t.In(Belgrade()).Format(TimestampLayout)
}

// DateOnly formats t as a local sheet date.
func DateOnly(t time.Time) string {
	return t.In(Belgrade()).Format(DateLayout)
}

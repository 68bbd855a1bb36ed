package utils

import (
	"sync/atomic"
	"time"
)

// DisplayLayout is used wherever a timestamp is shown to a person
const DisplayLayout = "2006-01-02 15:04:05"

var displayLoc atomic.Pointer[time.Location]

func init() {
	displayLoc.Store(time.UTC)
}

// SetLocation selects the display time zone by IANA name. Unknown names and
// missing tzdata fall back to UTC.
func SetLocation(name string) *time.Location {
	loc := time.UTC
	if name != "" {
		if l, err := time.LoadLocation(name); err == nil {
			loc = l
		}
	}
	displayLoc.Store(loc)
	return loc
}

// GetLocation returns the display *time.Location
func GetLocation() *time.Location {
	return displayLoc.Load()
}

// Now returns the current time in the display zone
func Now() time.Time {
	return time.Now().In(GetLocation())
}

// FormatDisplay renders t in the display zone
func FormatDisplay(t time.Time) string {
	return t.In(GetLocation()).Format(DisplayLayout)
}

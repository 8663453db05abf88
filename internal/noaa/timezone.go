package noaa

import "time"

// Display time layouts.
const (
	ClockLayout     = "3:04 PM"
	TimestampLayout = "2006-01-02T15:04"
)

// In converts t for display. gmt renders UTC, lst_ldt renders loc with daylight
// time, and lst renders loc's standard offset all year. A nil loc means time.Local.
func (m TimezoneMode) In(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	switch m {
	case TimezoneGMT:
		return t.UTC()
	case TimezoneLST:
		return t.In(standardZone(t, loc))
	default:
		return t.In(loc)
	}
}

// Format renders t in the mode's zone with the given layout.
func (m TimezoneMode) Format(t time.Time, loc *time.Location, layout string) string {
	return m.In(t, loc).Format(layout)
}

// standardZone returns a fixed zone at loc's standard (non-daylight) offset for
// the year containing t. The standard offset is the smaller of the January and
// July offsets, which holds in both hemispheres.
func standardZone(t time.Time, loc *time.Location) *time.Location {
	year := t.In(loc).Year()
	janName, janOff := time.Date(year, time.January, 1, 12, 0, 0, 0, loc).Zone()
	julName, julOff := time.Date(year, time.July, 1, 12, 0, 0, 0, loc).Zone()
	if julOff < janOff {
		return time.FixedZone(julName, julOff)
	}
	return time.FixedZone(janName, janOff)
}

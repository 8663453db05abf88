package tides

import (
	"math"
	"time"
)

// Factor estimates where now sits between two extrema on a 0-100 scale using a
// half-cosine fit: 0 at low water, 100 at high water. It reports false when a
// bound is missing or the period is not positive.
//
// now must lie within [last.Time, next.Time]; outside that range the curve
// keeps oscillating and the value has no meaning.
func Factor(last, next *Event, now time.Time) (float64, bool) {
	if last == nil || next == nil {
		return 0, false
	}

	period := next.Time.Sub(last.Time)
	if period <= 0 {
		return 0, false
	}

	phase := float64(now.Sub(last.Time)) * math.Pi / float64(period)
	if next.Kind == High {
		return 50 - 50*math.Cos(phase), true
	}
	return 50 + 50*math.Cos(phase), true
}

package units

import (
	"fmt"
	"math"
	"strings"
)

// System is the measurement system requested from NOAA and used for display.
type System string

const (
	English System = "english"
	Metric  System = "metric"
)

// Temperature unit labels exposed to consumers.
const (
	Celsius    = "°C"
	Fahrenheit = "°F"
)

// NDBC feed unit codes.
const (
	DegC = "degC"
	DegF = "degF"
)

// ParseSystem accepts "english" or "metric" (case-insensitive).
func ParseSystem(s string) (System, error) {
	switch System(strings.ToLower(strings.TrimSpace(s))) {
	case English:
		return English, nil
	case Metric:
		return Metric, nil
	default:
		return "", fmt.Errorf("unknown unit system %q", s)
	}
}

// FromHostUnits maps the host's global unit preference onto a System.
// Anything other than "imperial" is treated as metric.
func FromHostUnits(host string) System {
	if strings.EqualFold(strings.TrimSpace(host), "imperial") {
		return English
	}
	return Metric
}

// TemperatureUnit returns the display label for temperatures in this system.
func (s System) TemperatureUnit() string {
	if s == English {
		return Fahrenheit
	}
	return Celsius
}

func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

func FahrenheitToCelsius(f float64) float64 {
	return (f - 32) * 5 / 9
}

// Round1 rounds to one decimal place, half away from zero.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

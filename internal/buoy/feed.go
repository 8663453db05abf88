// Package buoy parses NDBC realtime meteorological text feeds.
//
// # Feed layout
//
// The realtime2 ".txt" files are newest-first, whitespace-delimited tables:
//
//	#YY  MM DD hh mm WDIR WSPD GST  WVHT   DPD   APD MWD   PRES  ATMP  WTMP  DEWP  VIS PTDY  TIDE
//	#yr  mo dy hr mn degT m/s  m/s     m   sec   sec degT   hPa  degC  degC  degC  nmi  hPa    ft
//	2024 06 01 18 40 270  5.0  6.0   0.5     6   4.6 264 1019.5  10.1  11.2   5.4   MM -1.2    MM
//
// Line one names the fields, line two carries their units, and line three is
// the latest observation. "MM" marks a value the buoy did not report; it is kept
// as [Missing] and never coerced to a number.
//
// The observation time comes from the YY, MM, DD, hh and mm columns and is UTC.
// Older feed revisions used a two-digit year, so YY values below 100 are
// shifted into the 2000s.
package buoy

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MissingToken is the sentinel NDBC writes for unreported values.
const MissingToken = "MM"

// ErrMalformedFeed is returned when the feed text does not have the expected shape.
var ErrMalformedFeed = errors.New("malformed buoy feed")

// timeFields are the columns that make up the observation timestamp.
var timeFields = []string{"YY", "MM", "DD", "hh", "mm"}

// IsTimeField reports whether code is one of the timestamp columns.
func IsTimeField(code string) bool {
	for _, f := range timeFields {
		if f == code {
			return true
		}
	}
	return false
}

// Field is a single column of an observation.
type Field struct {
	Unit  string
	Value Value
}

// Observation is the latest row of a feed keyed by field code.
type Observation struct {
	codes  []string
	fields map[string]Field
}

// Codes returns the field codes in feed order.
func (o Observation) Codes() []string {
	out := make([]string, len(o.codes))
	copy(out, o.codes)
	return out
}

// Field looks up a column by code.
func (o Observation) Field(code string) (Field, bool) {
	f, ok := o.fields[code]
	return f, ok
}

// HasTime reports whether every timestamp column is present.
func (o Observation) HasTime() bool {
	for _, code := range timeFields {
		if _, ok := o.fields[code]; !ok {
			return false
		}
	}
	return true
}

// Time builds the UTC observation instant from the timestamp columns.
func (o Observation) Time() (time.Time, error) {
	parts := make([]int, len(timeFields))
	for i, code := range timeFields {
		f, ok := o.fields[code]
		if !ok {
			return time.Time{}, fmt.Errorf("%w: missing %s column", ErrMalformedFeed, code)
		}
		n, ok := f.Value.Int()
		if !ok {
			return time.Time{}, fmt.Errorf("%w: %s is not an integer", ErrMalformedFeed, code)
		}
		parts[i] = int(n)
	}

	year := normalizeYear(parts[0])
	t := time.Date(year, time.Month(parts[1]), parts[2], parts[3], parts[4], 0, 0, time.UTC)
	// time.Date normalizes out-of-range parts, so a changed field means an impossible date.
	if t.Year() != year || int(t.Month()) != parts[1] || t.Day() != parts[2] ||
		t.Hour() != parts[3] || t.Minute() != parts[4] {
		return time.Time{}, fmt.Errorf("%w: invalid timestamp %04d-%02d-%02d %02d:%02d",
			ErrMalformedFeed, year, parts[1], parts[2], parts[3], parts[4])
	}
	return t, nil
}

func normalizeYear(y int) int {
	if y < 100 {
		return y + 2000
	}
	return y
}

// Parse reads the header, unit and latest data rows of a feed.
func Parse(text string) (Observation, error) {
	lines := nonEmptyLines(text)
	if len(lines) < 3 {
		return Observation{}, fmt.Errorf("%w: expected at least 3 lines, got %d", ErrMalformedFeed, len(lines))
	}

	codes := strings.Fields(strings.TrimLeft(lines[0], "#"))
	unitsRow := strings.Fields(strings.TrimLeft(lines[1], "#"))
	values := strings.Fields(lines[2])

	if len(codes) == 0 {
		return Observation{}, fmt.Errorf("%w: empty header row", ErrMalformedFeed)
	}
	if len(unitsRow) < len(codes) {
		return Observation{}, fmt.Errorf("%w: %d units for %d fields", ErrMalformedFeed, len(unitsRow), len(codes))
	}
	if len(values) < len(codes) {
		return Observation{}, fmt.Errorf("%w: %d values for %d fields", ErrMalformedFeed, len(values), len(codes))
	}

	obs := Observation{
		codes:  codes,
		fields: make(map[string]Field, len(codes)),
	}
	for i, code := range codes {
		v, err := ParseValue(values[i])
		if err != nil {
			return Observation{}, fmt.Errorf("%w: field %s: %v", ErrMalformedFeed, code, err)
		}
		obs.fields[code] = Field{Unit: unitsRow[i], Value: v}
	}

	return obs, nil
}

// ParseValue classifies a single token: the missing sentinel, a float when it
// contains a decimal point, otherwise an integer.
func ParseValue(token string) (Value, error) {
	if token == MissingToken {
		return Missing(), nil
	}
	if strings.Contains(token, ".") {
		f, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return Value{}, err
		}
		return Float(f), nil
	}
	n, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return Value{}, err
	}
	return Int(n), nil
}

func nonEmptyLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

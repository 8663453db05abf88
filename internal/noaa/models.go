package noaa

import (
	"fmt"
	"strings"
	"time"

	"github.com/i474232898/noaa-tides/internal/units"
)

// Kind identifies which sensor variant a station is configured as.
type Kind string

const (
	KindTides       Kind = "tides"
	KindTemperature Kind = "temp"
	KindBuoy        Kind = "buoy"
)

// ParseKind accepts the configured station type. "temperature" is an alias for "temp".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tides":
		return KindTides, nil
	case "temp", "temperature":
		return KindTemperature, nil
	case "buoy":
		return KindBuoy, nil
	default:
		return "", fmt.Errorf("unknown station type %q", s)
	}
}

// TimezoneMode controls how timestamps are rendered for display.
type TimezoneMode string

const (
	TimezoneGMT    TimezoneMode = "gmt"
	TimezoneLST    TimezoneMode = "lst"
	TimezoneLSTLDT TimezoneMode = "lst_ldt"
)

// ParseTimezoneMode accepts gmt, lst or lst_ldt.
func ParseTimezoneMode(s string) (TimezoneMode, error) {
	switch m := TimezoneMode(strings.ToLower(strings.TrimSpace(s))); m {
	case TimezoneGMT, TimezoneLST, TimezoneLSTLDT:
		return m, nil
	default:
		return "", fmt.Errorf("unknown time zone mode %q", s)
	}
}

// Product is a CO-OPS datagetter product name.
type Product string

const (
	ProductPredictions      Product = "predictions"
	ProductWaterTemperature Product = "water_temperature"
	ProductAirTemperature   Product = "air_temperature"
)

// Device classes reported to consumers.
const (
	DeviceClassTemperature = "temperature"
	DeviceClassTimestamp   = "timestamp"
)

// Attribution strings for the two upstream providers.
const (
	AttributionNOAA = "Data provided by NOAA"
	AttributionNDBC = "Data provided by NDBC"
)

// AttrAttribution is the attribute key carrying the attribution string.
const AttrAttribution = "attribution"

// DefaultName is used when a sensor has no configured name.
const DefaultName = "NOAA Tides"

// Query is a single CO-OPS datagetter request.
type Query struct {
	Station  string
	Begin    time.Time
	End      time.Time
	Product  Product
	Datum    string
	Interval string
	Units    units.System
	TimeZone TimezoneMode
}

// Row is one entry of a datagetter response. Type is only set for hi/lo predictions.
type Row struct {
	Time  time.Time
	Value float64
	Type  string
}

// TemperatureReading is the latest sample of a temperature product.
type TemperatureReading struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
	Unit  string    `json:"unit"`
}

// Attributes is the descriptive state a sensor exposes next to its value.
type Attributes map[string]any

// Overlay returns a new map holding a's entries replaced or extended by fresh.
// Keys absent from fresh keep their prior value.
func (a Attributes) Overlay(fresh Attributes) Attributes {
	out := make(Attributes, len(a)+len(fresh))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range fresh {
		out[k] = v
	}
	return out
}

// Snapshot is a point-in-time copy of a sensor's exposed state.
type Snapshot struct {
	SensorID    string         `json:"sensor_id"`
	Name        string         `json:"name"`
	Kind        Kind           `json:"kind"`
	Station     string         `json:"station"`
	Timestamp   time.Time      `json:"timestamp"` // always UTC
	Available   bool           `json:"available"`
	Value       any            `json:"value"`
	Unit        string         `json:"unit,omitempty"`
	DeviceClass string         `json:"device_class"`
	Attributes  map[string]any `json:"attributes"`
	LastUpdated *time.Time     `json:"last_updated,omitempty"`
	LastError   string         `json:"last_error,omitempty"`
}

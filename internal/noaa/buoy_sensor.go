package noaa

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/noaa-tides/internal/buoy"
	"github.com/i474232898/noaa-tides/internal/units"
)

const waterTemperatureField = "WTMP"

// BuoySensor reports NDBC meteorological observations. The value is the water
// temperature; every other reported field becomes an attribute.
type BuoySensor struct {
	*identity
	source FeedFetcher

	observation *buoy.Observation
	attrs       Attributes
}

// NewBuoySensor creates a buoy sensor backed by the NDBC feed.
func NewBuoySensor(cfg SensorConfig, source FeedFetcher, clock clockwork.Clock, logger *slog.Logger) *BuoySensor {
	return &BuoySensor{
		identity: newIdentity(KindBuoy, cfg, clock, logger),
		source:   source,
		attrs:    Attributes{},
	}
}

// Refresh downloads and parses the feed. Fields reported as missing keep the
// attribute values from earlier refreshes.
func (s *BuoySensor) Refresh(ctx context.Context) (Outcome, error) {
	text, err := s.source.FetchFeed(ctx, s.station)
	if err != nil {
		return s.fail(fmt.Errorf("fetch buoy feed: %w", err))
	}

	obs, err := buoy.Parse(text)
	if err != nil {
		return s.fail(fmt.Errorf("%w: %w", ErrMalformedResponse, err))
	}
	// Trimmed feeds without timestamp columns are stamped with the fetch time.
	observedAt := s.clock.Now()
	if obs.HasTime() {
		if observedAt, err = obs.Time(); err != nil {
			return s.fail(fmt.Errorf("%w: %w", ErrMalformedResponse, err))
		}
	}

	fresh := s.observationAttributes(obs, observedAt)

	s.mu.Lock()
	s.observation = &obs
	s.attrs = s.attrs.Overlay(fresh)
	s.status = Status{LastUpdated: s.clock.Now()}
	s.mu.Unlock()

	s.logger.Debug("buoy observation refreshed",
		"observed_at", observedAt.Format(time.RFC3339),
		"fields", len(fresh)/3,
	)
	return OutcomeUpdated, nil
}

// observationAttributes renders every present, non-timestamp field as
// {K}, {K}_unit and {K}_time.
func (s *BuoySensor) observationAttributes(obs buoy.Observation, observedAt time.Time) Attributes {
	stamp := s.formatTime(observedAt, TimestampLayout)

	out := Attributes{}
	for _, code := range obs.Codes() {
		if buoy.IsTimeField(code) {
			continue
		}
		field, ok := obs.Field(code)
		if !ok || field.Value.IsMissing() {
			continue
		}

		out[code+"_time"] = stamp
		unit, value := s.displayValue(field)
		out[code+"_unit"] = unit
		out[code] = value
	}
	return out
}

// displayValue converts Celsius readings to Fahrenheit for the english system.
func (s *BuoySensor) displayValue(field buoy.Field) (string, any) {
	if s.cfg.Units == units.English && field.Unit == units.DegC {
		c, _ := field.Value.Float()
		return units.DegF, units.Round1(units.CelsiusToFahrenheit(c))
	}
	return field.Unit, field.Value.Any()
}

// CurrentValue is the latest water temperature. It is unavailable when not
// reported or when the feed unit cannot be shown in UnitOfMeasurement.
func (s *BuoySensor) CurrentValue() (any, bool) {
	s.mu.RLock()
	obs := s.observation
	s.mu.RUnlock()
	if obs == nil {
		return nil, false
	}

	field, ok := obs.Field(waterTemperatureField)
	if !ok || field.Value.IsMissing() {
		return nil, false
	}
	unit, value := s.displayValue(field)
	if unit != s.feedUnit() {
		return nil, false
	}
	return value, true
}

// feedUnit is the NDBC unit code matching UnitOfMeasurement.
func (s *BuoySensor) feedUnit() string {
	if s.cfg.Units == units.English {
		return units.DegF
	}
	return units.DegC
}

func (s *BuoySensor) Attributes() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attrs.Overlay(Attributes{AttrAttribution: AttributionNDBC})
}

func (s *BuoySensor) UnitOfMeasurement() string { return s.cfg.Units.TemperatureUnit() }
func (s *BuoySensor) DeviceClass() string       { return DeviceClassTemperature }

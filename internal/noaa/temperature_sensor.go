package noaa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// temperatureWindow is how far back each temperature product is queried.
const temperatureWindow = 60 * time.Minute

// TemperatureSensor reports water temperature, falling back to air temperature.
// The two products are fetched independently; either may be unknown.
type TemperatureSensor struct {
	*identity
	source DataGetter

	water *TemperatureReading
	air   *TemperatureReading
}

// NewTemperatureSensor creates a temperature sensor backed by a CO-OPS data getter.
func NewTemperatureSensor(cfg SensorConfig, source DataGetter, clock clockwork.Clock, logger *slog.Logger) *TemperatureSensor {
	return &TemperatureSensor{
		identity: newIdentity(KindTemperature, cfg, clock, logger),
		source:   source,
	}
}

// Refresh fetches the latest water and air temperature samples. A failed
// product keeps its previous reading; the other one is still updated.
func (s *TemperatureSensor) Refresh(ctx context.Context) (Outcome, error) {
	now := s.clock.Now()
	begin := now.Add(-temperatureWindow)

	water, werr := s.latest(ctx, ProductWaterTemperature, begin, now)
	air, aerr := s.latest(ctx, ProductAirTemperature, begin, now)

	if werr != nil && aerr != nil {
		return s.fail(errors.Join(werr, aerr))
	}

	s.mu.Lock()
	if werr == nil {
		s.water = &water
	}
	if aerr == nil {
		s.air = &air
	}
	partial := errors.Join(werr, aerr)
	s.status = Status{LastUpdated: now, LastError: partial}
	s.mu.Unlock()

	if partial != nil {
		s.logger.Warn("temperature refresh partially failed", "error", partial)
		return OutcomePartial, partial
	}

	s.logger.Debug("temperature refreshed", "water", water.Value, "air", air.Value)
	return OutcomeUpdated, nil
}

func (s *TemperatureSensor) latest(ctx context.Context, product Product, begin, end time.Time) (TemperatureReading, error) {
	rows, err := s.source.Query(ctx, Query{
		Station:  s.station,
		Begin:    begin,
		End:      end,
		Product:  product,
		Units:    s.cfg.Units,
		TimeZone: TimezoneGMT,
	})
	if err != nil {
		return TemperatureReading{}, fmt.Errorf("fetch %s: %w", product, err)
	}
	if len(rows) == 0 {
		return TemperatureReading{}, fmt.Errorf("fetch %s: %w", product, ErrNoData)
	}

	newest := rows[0]
	for _, r := range rows[1:] {
		if r.Time.After(newest.Time) {
			newest = r
		}
	}
	return TemperatureReading{
		Time:  newest.Time,
		Value: newest.Value,
		Unit:  s.cfg.Units.TemperatureUnit(),
	}, nil
}

func (s *TemperatureSensor) readings() (water, air *TemperatureReading) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.water, s.air
}

// CurrentValue prefers the water temperature and falls back to air.
func (s *TemperatureSensor) CurrentValue() (any, bool) {
	water, air := s.readings()
	switch {
	case water != nil:
		return water.Value, true
	case air != nil:
		return air.Value, true
	default:
		return nil, false
	}
}

func (s *TemperatureSensor) Attributes() map[string]any {
	attrs := map[string]any{AttrAttribution: AttributionNOAA}

	water, air := s.readings()
	if water != nil {
		attrs["temperature"] = water.Value
		attrs["temperature_time"] = s.formatTime(water.Time, TimestampLayout)
	}
	if air != nil {
		attrs["air_temperature"] = air.Value
		attrs["air_temperature_time"] = s.formatTime(air.Time, TimestampLayout)
	}
	return attrs
}

func (s *TemperatureSensor) UnitOfMeasurement() string { return s.cfg.Units.TemperatureUnit() }
func (s *TemperatureSensor) DeviceClass() string       { return DeviceClassTemperature }

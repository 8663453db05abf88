package noaa

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/noaa-tides/internal/tides"
)

const (
	// predictionWindow is fetched on each side of now. 24h each way always
	// brackets now with several extrema under normal semidiurnal periods.
	predictionWindow = 24 * time.Hour
	// refreshSkipHorizon: a cached set whose next tide is further out than this
	// is considered fresh enough and no fetch is made.
	refreshSkipHorizon = 3 * time.Hour

	predictionDatum    = "MLLW"
	predictionInterval = "hilo"
)

// TideSensor reports the next predicted tide and the interpolated tide factor.
type TideSensor struct {
	*identity
	source DataGetter

	predictions *tides.PredictionSet
}

// NewTideSensor creates a tide sensor backed by a CO-OPS data getter.
func NewTideSensor(cfg SensorConfig, source DataGetter, clock clockwork.Clock, logger *slog.Logger) *TideSensor {
	return &TideSensor{
		identity: newIdentity(KindTides, cfg, clock, logger),
		source:   source,
	}
}

// Refresh fetches hi/lo predictions around now unless the cached set already
// knows a next tide more than three hours away.
func (s *TideSensor) Refresh(ctx context.Context) (Outcome, error) {
	now := s.clock.Now()

	if s.fresh(now) {
		s.logger.Debug("cached predictions still bracket a distant tide, skipping fetch")
		return OutcomeSkipped, nil
	}

	begin := now.Add(-predictionWindow)
	rows, err := s.source.Query(ctx, Query{
		Station:  s.station,
		Begin:    begin,
		End:      now.Add(predictionWindow),
		Product:  ProductPredictions,
		Datum:    predictionDatum,
		Interval: predictionInterval,
		Units:    s.cfg.Units,
		TimeZone: TimezoneGMT,
	})
	if err != nil {
		return s.fail(fmt.Errorf("fetch predictions: %w", err))
	}

	set, err := predictionSetFromRows(rows)
	if err != nil {
		return s.fail(err)
	}

	s.mu.Lock()
	s.predictions = &set
	s.status = Status{LastUpdated: now}
	s.mu.Unlock()

	s.logger.Debug("tide predictions refreshed",
		"events", set.Len(),
		"begin", begin.UTC().Format(time.RFC3339),
	)
	return OutcomeUpdated, nil
}

func (s *TideSensor) fresh(now time.Time) bool {
	s.mu.RLock()
	cached := s.predictions
	s.mu.RUnlock()
	if cached == nil {
		return false
	}
	_, next := cached.Bracket(now)
	return next != nil && next.Time.Sub(now) > refreshSkipHorizon
}

func predictionSetFromRows(rows []Row) (tides.PredictionSet, error) {
	if len(rows) == 0 {
		return tides.PredictionSet{}, fmt.Errorf("%w: empty prediction window", ErrNoData)
	}

	events := make([]tides.Event, 0, len(rows))
	for _, r := range rows {
		kind, err := tides.ParseKind(r.Type)
		if err != nil {
			return tides.PredictionSet{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		events = append(events, tides.Event{Time: r.Time, Kind: kind, Level: r.Value})
	}

	set, err := tides.NewPredictionSet(events)
	if err != nil {
		return tides.PredictionSet{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return set, nil
}

// bracket returns the events around now from the cached set.
func (s *TideSensor) bracket(now time.Time) (last, next *tides.Event) {
	s.mu.RLock()
	cached := s.predictions
	s.mu.RUnlock()
	if cached == nil {
		return nil, nil
	}
	return cached.Bracket(now)
}

// CurrentValue is "{High|Low} tide at {time}" for the next predicted tide.
func (s *TideSensor) CurrentValue() (any, bool) {
	_, next := s.bracket(s.clock.Now())
	if next == nil {
		return nil, false
	}
	return fmt.Sprintf("%s tide at %s", next.Kind, s.formatTime(next.Time, ClockLayout)), true
}

// Attributes describes the surrounding tides. Tide fields are only present
// when both the last and the next tide are known.
func (s *TideSensor) Attributes() map[string]any {
	attrs := map[string]any{AttrAttribution: AttributionNOAA}

	now := s.clock.Now()
	last, next := s.bracket(now)
	if last == nil || next == nil {
		return attrs
	}

	attrs["last_tide_type"] = string(last.Kind)
	attrs["last_tide_time"] = s.formatTime(last.Time, ClockLayout)
	attrs["next_tide_type"] = string(next.Kind)
	attrs["next_tide_time"] = s.formatTime(next.Time, ClockLayout)
	if next.Kind == tides.High {
		attrs["high_tide_level"] = next.Level
	} else {
		attrs["low_tide_level"] = next.Level
	}
	if f, ok := tides.Factor(last, next, now); ok {
		attrs["tide_factor"] = f
	}
	return attrs
}

func (s *TideSensor) UnitOfMeasurement() string { return "" }
func (s *TideSensor) DeviceClass() string       { return DeviceClassTimestamp }

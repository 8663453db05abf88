package noaa

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/i474232898/noaa-tides/internal/units"
)

// Outcome describes what a Refresh call did.
type Outcome string

const (
	OutcomeUpdated Outcome = "updated"
	OutcomePartial Outcome = "partial"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Sensor is the capability shared by the tide, temperature and buoy variants.
//
// Refresh blocks on the network. It must not be called concurrently on the same
// instance; the Service serializes calls. CurrentValue and Attributes are safe to
// call at any time and always reflect the last successful refresh.
type Sensor interface {
	ID() string
	Name() string
	Kind() Kind
	Station() string

	Refresh(ctx context.Context) (Outcome, error)
	CurrentValue() (any, bool)
	Attributes() map[string]any
	UnitOfMeasurement() string
	DeviceClass() string
	Status() Status
}

// Status is the bookkeeping a sensor keeps about its refreshes.
type Status struct {
	LastUpdated time.Time
	LastError   error
}

// SensorConfig is the per-station configuration handed to a sensor.
type SensorConfig struct {
	Name     string
	Station  string
	Timezone TimezoneMode
	Units    units.System
	// Location is the display zone for lst and lst_ldt. Nil means time.Local.
	Location *time.Location
}

// Dependencies are the collaborators a sensor needs; nil fields get defaults
// where one exists.
type Dependencies struct {
	DataGetter DataGetter
	Feed       FeedFetcher
	Clock      clockwork.Clock
	Logger     *slog.Logger
}

// SensorID derives a stable unique id for a station/kind pair.
func SensorID(kind Kind, station string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("noaa-tides://"+string(kind)+"/"+station)).String()
}

// NewSensor builds the sensor variant for kind.
func NewSensor(kind Kind, cfg SensorConfig, deps Dependencies) (Sensor, error) {
	switch kind {
	case KindTides:
		if deps.DataGetter == nil {
			return nil, fmt.Errorf("tides sensor %s: data getter is required", cfg.Station)
		}
		return NewTideSensor(cfg, deps.DataGetter, deps.Clock, deps.Logger), nil
	case KindTemperature:
		if deps.DataGetter == nil {
			return nil, fmt.Errorf("temperature sensor %s: data getter is required", cfg.Station)
		}
		return NewTemperatureSensor(cfg, deps.DataGetter, deps.Clock, deps.Logger), nil
	case KindBuoy:
		if deps.Feed == nil {
			return nil, fmt.Errorf("buoy sensor %s: feed fetcher is required", cfg.Station)
		}
		return NewBuoySensor(cfg, deps.Feed, deps.Clock, deps.Logger), nil
	default:
		return nil, fmt.Errorf("unknown sensor kind %q", kind)
	}
}

// identity carries the fields every variant reports about itself. It holds no
// behaviour beyond accessors.
type identity struct {
	id      string
	name    string
	kind    Kind
	station string
	cfg     SensorConfig
	clock   clockwork.Clock
	logger  *slog.Logger

	mu     sync.RWMutex
	status Status
}

func newIdentity(kind Kind, cfg SensorConfig, clock clockwork.Clock, logger *slog.Logger) *identity {
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.Timezone == "" {
		cfg.Timezone = TimezoneLSTLDT
	}
	if cfg.Units == "" {
		cfg.Units = units.Metric
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &identity{
		id:      SensorID(kind, cfg.Station),
		name:    cfg.Name,
		kind:    kind,
		station: cfg.Station,
		cfg:     cfg,
		clock:   clock,
		logger:  logger.With("sensor", cfg.Name, "kind", string(kind), "station", cfg.Station),
	}
}

func (i *identity) ID() string      { return i.id }
func (i *identity) Name() string    { return i.name }
func (i *identity) Kind() Kind      { return i.kind }
func (i *identity) Station() string { return i.station }

func (i *identity) Status() Status {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.status
}

// fail records and logs a refresh error without touching the payload.
func (i *identity) fail(err error) (Outcome, error) {
	i.mu.Lock()
	i.status.LastError = err
	i.mu.Unlock()
	i.logger.Error("refresh failed, keeping previous data", "error", err)
	return OutcomeFailed, err
}

func (i *identity) formatTime(t time.Time, layout string) string {
	return i.cfg.Timezone.Format(t, i.cfg.Location, layout)
}

package noaa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/noaa-tides/internal/observability"
)

// ServiceOptions are the optional collaborators of a Service.
type ServiceOptions struct {
	Publisher Publisher
	Metrics   *observability.Metrics
	Clock     clockwork.Clock
	Logger    *slog.Logger
}

// Service owns the configured sensors, refreshes them and persists a snapshot
// after every refresh.
type Service struct {
	store     Store
	publisher Publisher
	metrics   *observability.Metrics
	clock     clockwork.Clock
	logger    *slog.Logger

	order   []string
	sensors map[string]Sensor
	// locks serializes Refresh per sensor; a sensor must not refresh concurrently.
	locks map[string]*sync.Mutex
}

// NewService creates a Service. Sensor ids must be unique.
func NewService(store Store, sensors []Sensor, opts ServiceOptions) (*Service, error) {
	if store == nil {
		return nil, errors.New("noaa service: store is required")
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Service{
		store:     store,
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
		clock:     opts.Clock,
		logger:    opts.Logger,
		sensors:   make(map[string]Sensor, len(sensors)),
		locks:     make(map[string]*sync.Mutex, len(sensors)),
	}
	for _, sensor := range sensors {
		id := sensor.ID()
		if _, dup := s.sensors[id]; dup {
			return nil, fmt.Errorf("noaa service: duplicate sensor %s (%s %s)", id, sensor.Kind(), sensor.Station())
		}
		s.order = append(s.order, id)
		s.sensors[id] = sensor
		s.locks[id] = &sync.Mutex{}
	}
	return s, nil
}

// Initialize performs the first refresh of every sensor. A sensor that fails
// stays registered and unavailable until a later refresh succeeds.
func (s *Service) Initialize(ctx context.Context) {
	s.logger.Info("initializing sensors", "count", len(s.order))

	s.each(func(id string) error {
		snap, err := s.Refresh(ctx, id)
		if err != nil && !snap.Available {
			s.logger.Error("first call to NOAA data API failed, configuration may be wrong",
				"sensor_id", id,
				"station", snap.Station,
				"kind", string(snap.Kind),
				"error", err,
			)
		}
		return nil
	})
}

// RefreshAll refreshes every sensor concurrently and returns the joined errors.
func (s *Service) RefreshAll(ctx context.Context) error {
	return s.each(func(id string) error {
		_, err := s.Refresh(ctx, id)
		return err
	})
}

func (s *Service) each(fn func(id string) error) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, id := range s.order {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(id); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

// Refresh refreshes one sensor and records the resulting snapshot. The snapshot
// is returned even when the refresh failed; it then carries the previous data.
func (s *Service) Refresh(ctx context.Context, id string) (Snapshot, error) {
	sensor, ok := s.sensors[id]
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrSensorNotFound, id)
	}

	lock := s.locks[id]
	lock.Lock()
	defer lock.Unlock()

	start := s.clock.Now()
	outcome, err := sensor.Refresh(ctx)
	elapsed := s.clock.Since(start)

	snap := s.snapshotOf(sensor)
	s.record(sensor, outcome, err, elapsed, snap.Available)
	s.store.SaveSnapshot(snap)
	s.publish(ctx, snap)

	if err != nil {
		return snap, fmt.Errorf("refresh %s %s: %w", sensor.Kind(), sensor.Station(), err)
	}
	return snap, nil
}

func (s *Service) record(sensor Sensor, outcome Outcome, err error, elapsed time.Duration, available bool) {
	if s.metrics == nil {
		return
	}
	kind := string(sensor.Kind())
	s.metrics.RefreshTotal.WithLabelValues(kind, string(outcome)).Inc()
	s.metrics.RefreshDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	if err != nil {
		s.metrics.RefreshErrors.WithLabelValues(kind, ErrorClass(err)).Inc()
	}
	gauge := 0.0
	if available {
		gauge = 1
	}
	s.metrics.SensorAvailable.WithLabelValues(sensor.ID(), kind).Set(gauge)
}

func (s *Service) publish(ctx context.Context, snap Snapshot) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, snap); err != nil {
		s.logger.Warn("publish snapshot failed", "sensor_id", snap.SensorID, "error", err)
		if s.metrics != nil {
			s.metrics.PublishFailures.Inc()
		}
	}
}

func (s *Service) snapshotOf(sensor Sensor) Snapshot {
	value, ok := sensor.CurrentValue()
	if !ok {
		value = nil
	}
	status := sensor.Status()

	snap := Snapshot{
		SensorID:    sensor.ID(),
		Name:        sensor.Name(),
		Kind:        sensor.Kind(),
		Station:     sensor.Station(),
		Timestamp:   s.clock.Now().UTC(),
		Available:   ok,
		Value:       value,
		Unit:        sensor.UnitOfMeasurement(),
		DeviceClass: sensor.DeviceClass(),
		Attributes:  sensor.Attributes(),
	}
	if !status.LastUpdated.IsZero() {
		updated := status.LastUpdated.UTC()
		snap.LastUpdated = &updated
	}
	if status.LastError != nil {
		snap.LastError = status.LastError.Error()
	}
	return snap
}

// Sensors returns the current snapshot of every sensor in configuration order.
func (s *Service) Sensors() []Snapshot {
	out := make([]Snapshot, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.snapshotOf(s.sensors[id]))
	}
	return out
}

// Snapshot returns the current state of one sensor.
func (s *Service) Snapshot(id string) (Snapshot, error) {
	sensor, ok := s.sensors[id]
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrSensorNotFound, id)
	}
	return s.snapshotOf(sensor), nil
}

// History returns the stored snapshots of one sensor between from and to.
func (s *Service) History(id string, from, to time.Time) ([]Snapshot, error) {
	if _, ok := s.sensors[id]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrSensorNotFound, id)
	}
	return s.store.GetRange(id, from, to)
}

package store

import (
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/noaa-tides/internal/noaa"
)

var (
	// ErrNotFound is returned when no snapshot is available for a sensor.
	ErrNotFound = errors.New("no snapshots for sensor")
)

// history holds the time-ordered snapshots of one sensor.
type history struct {
	snapshots []noaa.Snapshot
}

// MemoryStore is a concurrency-safe in-memory snapshot store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: sensor id
	data map[string]*history

	maxHistory int           // max number of snapshots per sensor
	maxAge     time.Duration // optional max age for snapshots
	clock      clockwork.Clock
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited; the same goes for maxAge.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return NewMemoryStoreWithClock(maxHistory, maxAge, clockwork.NewRealClock())
}

// NewMemoryStoreWithClock is NewMemoryStore with an injected clock for age retention.
func NewMemoryStoreWithClock(maxHistory int, maxAge time.Duration, clock clockwork.Clock) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*history),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		clock:      clock,
	}
}

// SaveSnapshot appends a snapshot for its sensor and enforces retention.
func (s *MemoryStore) SaveSnapshot(snapshot noaa.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.data[snapshot.SensorID]
	if !ok {
		h = &history{}
		s.data[snapshot.SensorID] = h
	}

	h.snapshots = append(h.snapshots, snapshot)

	if s.maxHistory > 0 && len(h.snapshots) > s.maxHistory {
		over := len(h.snapshots) - s.maxHistory
		h.snapshots = h.snapshots[over:]
	}

	// The newest snapshot is always kept, however old.
	if s.maxAge > 0 {
		cutoff := s.clock.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(h.snapshots)-1; i++ {
			if !h.snapshots[i].Timestamp.Before(cutoff) {
				break
			}
		}
		h.snapshots = h.snapshots[i:]
	}
}

// GetLatest returns the most recent snapshot for a sensor.
func (s *MemoryStore) GetLatest(sensorID string) (noaa.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.data[sensorID]
	if !ok || len(h.snapshots) == 0 {
		return noaa.Snapshot{}, ErrNotFound
	}
	return h.snapshots[len(h.snapshots)-1], nil
}

// GetRange returns all snapshots for a sensor between from and to (inclusive).
func (s *MemoryStore) GetRange(sensorID string, from, to time.Time) ([]noaa.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.data[sensorID]
	if !ok || len(h.snapshots) == 0 {
		return nil, ErrNotFound
	}

	var result []noaa.Snapshot
	for _, snap := range h.snapshots {
		if !snap.Timestamp.Before(from) && !snap.Timestamp.After(to) {
			result = append(result, snap)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}

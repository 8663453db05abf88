package tides

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Kind is the type of a tide extremum.
type Kind string

const (
	High Kind = "High"
	Low  Kind = "Low"
)

// ErrDuplicateTime is returned when two predicted extrema share a timestamp.
var ErrDuplicateTime = errors.New("duplicate tide event timestamp")

// ParseKind maps a CO-OPS hi/lo code onto a Kind. Mixed-tide stations report
// HH, LH, HL and LL; the final letter decides.
func ParseKind(code string) (Kind, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	switch {
	case strings.HasSuffix(code, "H"):
		return High, nil
	case strings.HasSuffix(code, "L"):
		return Low, nil
	default:
		return "", fmt.Errorf("unknown tide type %q", code)
	}
}

// Event is a single predicted high or low tide.
type Event struct {
	Time  time.Time `json:"time"`
	Kind  Kind      `json:"kind"`
	Level float64   `json:"level"`
}

// PredictionSet is an ascending, duplicate-free sequence of tide events.
type PredictionSet struct {
	events []Event
}

// NewPredictionSet copies and sorts events by time.
func NewPredictionSet(events []Event) (PredictionSet, error) {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Time.Equal(sorted[i-1].Time) {
			return PredictionSet{}, fmt.Errorf("%w: %s", ErrDuplicateTime, sorted[i].Time.Format(time.RFC3339))
		}
	}

	return PredictionSet{events: sorted}, nil
}

// Len returns the number of events in the set.
func (s PredictionSet) Len() int {
	return len(s.events)
}

// Events returns a copy of the ordered events.
func (s PredictionSet) Events() []Event {
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Bracket returns the latest event at or before now and the first event after it.
// Either may be nil: last is nil when now precedes every event, next is nil when
// no event lies after now.
func (s PredictionSet) Bracket(now time.Time) (last, next *Event) {
	for i := range s.events {
		e := s.events[i]
		if !e.Time.After(now) {
			last = &e
			continue
		}
		next = &e
		return last, next
	}
	return last, nil
}

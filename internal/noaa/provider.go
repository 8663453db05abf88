package noaa

import (
	"context"
	"time"
)

// DataGetter abstracts the CO-OPS datagetter API (tide predictions, temperatures).
type DataGetter interface {
	Name() string
	Query(ctx context.Context, q Query) ([]Row, error)
}

// FeedFetcher abstracts the NDBC realtime text feed.
type FeedFetcher interface {
	Name() string
	FetchFeed(ctx context.Context, station string) (string, error)
}

// Store is the contract the in-memory store (and any future persistent store) must satisfy.
type Store interface {
	SaveSnapshot(snapshot Snapshot)
	GetLatest(sensorID string) (Snapshot, error)
	GetRange(sensorID string, from, to time.Time) ([]Snapshot, error)
}

// Publisher pushes snapshots to an external consumer such as an MQTT broker.
type Publisher interface {
	Publish(ctx context.Context, snapshot Snapshot) error
}

package noaa

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"time"
)

type fakeGetter struct {
	mu      sync.Mutex
	rows    map[Product][]Row
	errs    map[Product]error
	queries []Query
}

func newFakeGetter() *fakeGetter {
	return &fakeGetter{rows: map[Product][]Row{}, errs: map[Product]error{}}
}

func (f *fakeGetter) Name() string { return "fake-coops" }

func (f *fakeGetter) Query(_ context.Context, q Query) ([]Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if err := f.errs[q.Product]; err != nil {
		return nil, err
	}
	return f.rows[q.Product], nil
}

func (f *fakeGetter) set(p Product, rows []Row, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[p] = rows
	f.errs[p] = err
}

func (f *fakeGetter) calls() []Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Query, len(f.queries))
	copy(out, f.queries)
	return out
}

type fakeFeed struct {
	mu   sync.Mutex
	text string
	err  error
}

func (f *fakeFeed) Name() string { return "fake-ndbc" }

func (f *fakeFeed) FetchFeed(context.Context, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.text, f.err
}

func (f *fakeFeed) set(text string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text, f.err = text, err
}

type memStore struct {
	mu    sync.Mutex
	saved []Snapshot
}

func (m *memStore) SaveSnapshot(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, s)
}

func (m *memStore) GetLatest(id string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.saved) - 1; i >= 0; i-- {
		if m.saved[i].SensorID == id {
			return m.saved[i], nil
		}
	}
	return Snapshot{}, ErrNoData
}

func (m *memStore) GetRange(id string, from, to time.Time) ([]Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Snapshot
	for _, s := range m.saved {
		if s.SensorID == id && !s.Timestamp.Before(from) && !s.Timestamp.After(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) count(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.saved {
		if s.SensorID == id {
			n++
		}
	}
	return n
}

type recordingPublisher struct {
	mu        sync.Mutex
	published []Snapshot
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, s Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, s)
	return p.err
}

// syncBuffer lets concurrent refreshes log into one buffer.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func bufferLogger() (*slog.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

func discardLogger() *slog.Logger {
	l, _ := bufferLogger()
	return l
}

func utc(hour, minute int) time.Time {
	return time.Date(2024, 6, 1, hour, minute, 0, 0, time.UTC)
}

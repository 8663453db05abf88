package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/noaa-tides/internal/noaa"
)

type doneToken struct {
	done chan struct{}
	err  error
}

func newDoneToken(err error) *doneToken {
	t := &doneToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *doneToken) Wait() bool                     { <-t.done; return true }
func (t *doneToken) WaitTimeout(time.Duration) bool { return true }
func (t *doneToken) Done() <-chan struct{}          { return t.done }
func (t *doneToken) Error() error                   { return t.err }

type message struct {
	topic    string
	retained bool
	qos      byte
	payload  []byte
}

// fakeClient overrides the calls Publisher makes; anything else panics.
type fakeClient struct {
	paho.Client

	mu        sync.Mutex
	connected bool
	err       error
	sent      []message
}

func (c *fakeClient) IsConnected() bool { return c.connected }

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, message{topic: topic, qos: qos, retained: retained, payload: payload.([]byte)})
	return newDoneToken(c.err)
}

func (c *fakeClient) Disconnect(uint) { c.connected = false }

func newTestPublisher(client *fakeClient) *Publisher {
	return &Publisher{
		client:    client,
		cfg:       Config{TopicPrefix: "noaa"},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		connected: true,
		stopCh:    make(chan struct{}),
	}
}

func testSnapshot() noaa.Snapshot {
	return noaa.Snapshot{
		SensorID:   "abc",
		Available:  true,
		Value:      15.5,
		Unit:       "°C",
		Timestamp:  time.Date(2024, 6, 1, 19, 0, 0, 0, time.UTC),
		Attributes: map[string]any{"WTMP": 15.5, "attribution": noaa.AttributionNDBC},
	}
}

func TestPublish_RetainedStateAndAttributes(t *testing.T) {
	client := &fakeClient{connected: true}
	p := newTestPublisher(client)

	require.NoError(t, p.Publish(context.Background(), testSnapshot()))

	require.Len(t, client.sent, 2)
	state, attrs := client.sent[0], client.sent[1]

	assert.Equal(t, "noaa/abc/state", state.topic)
	assert.True(t, state.retained)
	assert.Equal(t, byte(1), state.qos)
	assert.JSONEq(t, `{"value":15.5,"available":true,"unit":"°C","timestamp":"2024-06-01T19:00:00Z"}`, string(state.payload))

	assert.Equal(t, "noaa/abc/attributes", attrs.topic)
	assert.True(t, attrs.retained)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(attrs.payload, &decoded))
	assert.Equal(t, 15.5, decoded["WTMP"])
}

func TestPublish_NotConnected(t *testing.T) {
	client := &fakeClient{connected: false}
	p := newTestPublisher(client)

	err := p.Publish(context.Background(), testSnapshot())
	assert.ErrorIs(t, err, errNotConnected)
	assert.Empty(t, client.sent)
}

func TestPublish_BrokerError(t *testing.T) {
	client := &fakeClient{connected: true, err: errors.New("not authorized")}
	p := newTestPublisher(client)

	err := p.Publish(context.Background(), testSnapshot())
	assert.ErrorContains(t, err, "not authorized")
	assert.Len(t, client.sent, 1, "attributes are not sent after the state publish fails")
}

func TestPayloads_Unavailable(t *testing.T) {
	state, attrs, err := Payloads(noaa.Snapshot{SensorID: "x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":null,"available":false,"timestamp":"0001-01-01T00:00:00Z"}`, string(state))
	assert.JSONEq(t, `{}`, string(attrs))
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "noaa/id/state", StateTopic("noaa", "id"))
	assert.Equal(t, "home/noaa/id/attributes", AttributesTopic("/home/noaa/", "id"))
	assert.Equal(t, "id/state", StateTopic("", "id"))
}

func TestDisconnect_Idempotent(t *testing.T) {
	client := &fakeClient{connected: true}
	p := newTestPublisher(client)

	p.Disconnect()
	p.Disconnect()
	assert.False(t, p.IsConnected())

	err := p.Connect(context.Background())
	assert.Error(t, err)
}

func TestNewPublisher(t *testing.T) {
	p := NewPublisher(Config{Broker: "localhost", Port: 1883, ClientID: "noaa-tides", TopicPrefix: "noaa"}, nil)
	require.NotNil(t, p.client)
	assert.False(t, p.IsConnected())
}

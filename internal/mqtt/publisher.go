// Package mqtt publishes sensor snapshots to an MQTT broker as retained
// state and attribute messages.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/i474232898/noaa-tides/internal/noaa"
)

const (
	publishQoS     = 1
	publishTimeout = 5 * time.Second
)

var errNotConnected = errors.New("mqtt client not connected")

// Config addresses the broker and the topic namespace.
type Config struct {
	Broker      string
	Port        int
	ClientID    string
	TopicPrefix string
}

// Publisher implements noaa.Publisher over paho.
type Publisher struct {
	client mqtt.Client
	cfg    Config
	logger *slog.Logger

	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

// State is the retained message on {prefix}/{sensor_id}/state.
type State struct {
	Value     any       `json:"value"`
	Available bool      `json:"available"`
	Unit      string    `json:"unit,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewPublisher configures a paho client with auto-reconnect. Call Connect before publishing.
func NewPublisher(cfg Config, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{
		cfg:    cfg,
		logger: logger.With("component", "mqtt"),
		stopCh: make(chan struct{}),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port))
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		p.setConnected(true)
		p.logger.Info("mqtt connected", "broker", cfg.Broker, "port", cfg.Port)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		p.setConnected(false)
		p.logger.Warn("mqtt connection lost", "error", err)
	})

	p.client = mqtt.NewClient(opts)
	return p
}

// Connect waits for the initial connection, honouring ctx and Disconnect.
func (p *Publisher) Connect(ctx context.Context) error {
	select {
	case <-p.stopCh:
		return errors.New("mqtt publisher stopped")
	default:
	}

	if p.IsConnected() {
		return nil
	}

	token := p.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stopCh:
			return errors.New("mqtt publisher stopped")
		default:
		}
	}
}

// Publish sends the snapshot state and attributes as retained messages.
func (p *Publisher) Publish(ctx context.Context, snap noaa.Snapshot) error {
	if !p.IsConnected() {
		return errNotConnected
	}

	state, attrs, err := Payloads(snap)
	if err != nil {
		return err
	}

	if err := p.publish(ctx, StateTopic(p.cfg.TopicPrefix, snap.SensorID), state); err != nil {
		return err
	}
	if err := p.publish(ctx, AttributesTopic(p.cfg.TopicPrefix, snap.SensorID), attrs); err != nil {
		return err
	}

	p.logger.Debug("published snapshot", "sensor_id", snap.SensorID, "available", snap.Available)
	return nil
}

func (p *Publisher) publish(ctx context.Context, topic string, payload []byte) error {
	token := p.client.Publish(topic, publishQoS, true, payload)

	timer := time.NewTimer(publishTimeout)
	defer timer.Stop()

	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("publish %s: %w", topic, ctx.Err())
	case <-timer.C:
		return fmt.Errorf("publish timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Payloads renders the state and attribute messages of a snapshot.
func Payloads(snap noaa.Snapshot) (state, attrs []byte, err error) {
	state, err = json.Marshal(State{
		Value:     snap.Value,
		Available: snap.Available,
		Unit:      snap.Unit,
		Timestamp: snap.Timestamp,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("marshal state: %w", err)
	}

	attributes := snap.Attributes
	if attributes == nil {
		attributes = map[string]any{}
	}
	attrs, err = json.Marshal(attributes)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal attributes: %w", err)
	}
	return state, attrs, nil
}

func StateTopic(prefix, sensorID string) string      { return topic(prefix, sensorID, "state") }
func AttributesTopic(prefix, sensorID string) string { return topic(prefix, sensorID, "attributes") }

func topic(prefix, sensorID, leaf string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return sensorID + "/" + leaf
	}
	return prefix + "/" + sensorID + "/" + leaf
}

// IsConnected returns whether the client is connected.
func (p *Publisher) IsConnected() bool {
	p.mu.RLock()
	connected := p.connected
	p.mu.RUnlock()
	return connected && p.client.IsConnected()
}

// Disconnect stops the client. Idempotent.
func (p *Publisher) Disconnect() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	if p.client != nil {
		p.client.Disconnect(250)
	}
	p.setConnected(false)
	p.logger.Info("mqtt disconnected")
}

func (p *Publisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}

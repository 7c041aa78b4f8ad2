package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sweeney/ledctl/internal/logic"
	"go.uber.org/zap"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// Options configures a RealPublisher.
type Options struct {
	Broker     string
	ClientID   string
	Topics     Topics
	BufferSize int // messages kept while disconnected
	Logger     *zap.Logger
}

// RealPublisher publishes to an actual MQTT broker.
// Messages published while the connection is down are buffered and
// replayed in order when it comes back.
type RealPublisher struct {
	client paho.Client
	topics Topics
	log    *zap.Logger

	mu        sync.Mutex
	buf       *ringBuffer
	replaying bool // new messages queue behind the replay
}

// NewRealPublisher creates a publisher for the given broker.
// The broker does not need to be reachable yet: the client keeps retrying
// in the background and messages are buffered until it connects.
func NewRealPublisher(opts Options) (*RealPublisher, error) {
	p := newPublisher(nil, opts)

	will, err := FormatSystemPayload(SystemEvent{Event: "OFFLINE", Reason: "CONNECTION_LOST"})
	if err != nil {
		return nil, fmt.Errorf("format will: %w", err)
	}

	co := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetBinaryWill(p.topics.System, will, 1, true).
		SetOnConnectHandler(func(paho.Client) { p.flush() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			p.log.Warn("connection lost", zap.Error(err))
		})

	p.client = paho.NewClient(co)
	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		p.log.Warn("broker not reachable yet, buffering", zap.String("broker", opts.Broker))
	} else if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

func newPublisher(client paho.Client, opts Options) *RealPublisher {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	size := opts.BufferSize
	if size <= 0 {
		size = 100
	}
	topics := opts.Topics
	if topics.Events == "" || topics.System == "" {
		topics = TopicsFor(DefaultTopicPrefix)
	}
	return &RealPublisher{
		client: client,
		topics: topics,
		log:    log,
		buf:    newRingBuffer(size),
	}
}

// Publish sends a command event to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	return p.publish(bufferedMsg{topic: p.topics.Events, payload: payload})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) for lifecycle events - we want to ensure delivery
	return p.publish(bufferedMsg{topic: p.topics.System, payload: payload, qos: 1, retained: event.Retained})
}

func (p *RealPublisher) publish(msg bufferedMsg) error {
	p.mu.Lock()
	if p.replaying || !p.client.IsConnectionOpen() {
		if p.buf.push(msg) {
			p.log.Warn("buffer full, dropping oldest", zap.Int("capacity", p.buf.capacity))
		}
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	return p.send(msg)
}

func (p *RealPublisher) send(msg bufferedMsg) error {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timeout", msg.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", msg.topic, err)
	}
	return nil
}

// flush replays buffered messages after (re)connecting. Messages published
// during the replay are queued and sent after it, so order is kept.
func (p *RealPublisher) flush() {
	p.mu.Lock()
	if p.replaying {
		p.mu.Unlock()
		return
	}
	msgs := p.buf.drainAll()
	if len(msgs) == 0 {
		p.mu.Unlock()
		p.log.Info("connected")
		return
	}
	p.replaying = true
	p.mu.Unlock()

	p.log.Info("connected, replaying buffered messages", zap.Int("count", len(msgs)))
	for len(msgs) > 0 {
		for _, msg := range msgs {
			if err := p.send(msg); err != nil {
				p.log.Warn("replay failed", zap.Error(err))
			}
		}

		p.mu.Lock()
		msgs = p.buf.drainAll()
		if len(msgs) == 0 {
			p.replaying = false
		}
		p.mu.Unlock()
	}
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.len()
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second quiesce
	return nil
}

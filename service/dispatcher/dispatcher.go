package dispatcher

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"PSocial/logger"
	"PSocial/tools/ids"
	"PSocial/tools/safe"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	TopicMessageCreated  = "message.created"
	TopicPostInteraction = "post.interaction"
)

// Topics lists every event the server emits.
var Topics = []string{TopicMessageCreated, TopicPostInteraction}

// Envelope is the wire form of a domain event.
type Envelope struct {
	ID      string    `json:"id"`
	Topic   string    `json:"topic"`
	Key     string    `json:"key"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload"`
}

// Sink is a broker backend (NATS, Kafka).
type Sink interface {
	Send(ctx context.Context, topic, key string, data []byte, msgID string) error
	Close() error
}

// Publisher is what domain services depend on.
type Publisher interface {
	Publish(topic, key string, payload any)
}

type Config struct {
	QueueSize   int
	SendTimeout time.Duration
	// 连续失败多少次后熔断, 熔断期间事件直接丢弃不再打 broker
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// Dispatcher queues events and sends them from one worker goroutine. A full
// queue drops the event; broker trouble never reaches the caller.
type Dispatcher struct {
	sink    Sink
	cfg     Config
	cb      *gobreaker.CircuitBreaker
	queue   chan Envelope
	stop    chan struct{}
	done    chan struct{}
	closeMu sync.Once
	onDrop  func(topic string)

	// mu 保证 Close 之后不会再有事件进入 queue
	mu     sync.RWMutex
	closed bool
}

func New(sink Sink, cfg Config) *Dispatcher {
	safe.MustNotNil(sink, "sink")
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 5 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	d := &Dispatcher{
		sink: sink,
		cfg:  cfg,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "event-sink",
			Timeout: cfg.BreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.BreakerFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("[Dispatcher] breaker state changed",
					zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
			},
		}),
		queue: make(chan Envelope, cfg.QueueSize),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	safe.SafeGo("dispatcher", d.run)
	return d
}

// OnDrop registers a callback for dropped events (metrics).
func (d *Dispatcher) OnDrop(fn func(topic string)) { d.onDrop = fn }

func (d *Dispatcher) Publish(topic, key string, payload any) {
	ev := Envelope{
		ID:      ids.GenerateString(),
		Topic:   topic,
		Key:     key,
		At:      time.Now(),
		Payload: payload,
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.dropped(topic, "closed")
		return
	}
	select {
	case d.queue <- ev:
	default:
		d.dropped(topic, "queue full")
	}
}

func (d *Dispatcher) dropped(topic, reason string) {
	logger.Warn("[Dispatcher] event dropped", zap.String("topic", topic), zap.String("reason", reason))
	if d.onDrop != nil {
		d.onDrop(topic)
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for {
		select {
		case ev := <-d.queue:
			d.send(ev)
		case <-d.stop:
			// drain what is already queued
			for {
				select {
				case ev := <-d.queue:
					d.send(ev)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) send(ev Envelope) {
	data, err := json.Marshal(ev)
	if err != nil {
		logger.Error("[Dispatcher] marshal event", zap.String("topic", ev.Topic), zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
	defer cancel()
	_, err = d.cb.Execute(func() (interface{}, error) {
		return nil, d.sink.Send(ctx, ev.Topic, ev.Key, data, ev.ID)
	})
	if err != nil {
		logger.Warn("[Dispatcher] send failed", zap.String("topic", ev.Topic), zap.String("id", ev.ID), zap.Error(err))
		if d.onDrop != nil {
			d.onDrop(ev.Topic)
		}
	}
}

// Close stops accepting events, flushes the queue and closes the sink.
func (d *Dispatcher) Close() error {
	d.closeMu.Do(func() {
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()
		close(d.stop)
	})
	<-d.done
	return d.sink.Close()
}

// Noop discards events; used when no broker is configured.
type Noop struct{}

func (Noop) Publish(string, string, any) {}

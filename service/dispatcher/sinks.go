package dispatcher

import (
	"context"
	"time"

	"PSocial/service/kafka"
	"PSocial/service/natsx"

	"github.com/pkg/errors"
)

// NatsSink publishes each topic on subject "<prefix>.<topic>".
type NatsSink struct {
	mgr *natsx.NatsManager
	pub *natsx.NatsxSyncPublisher
}

func NewNatsSink(cfg natsx.NatsxConfig, prefix string, mode natsx.NatsxMode) (*NatsSink, error) {
	mgr, err := natsx.NewNatsManager(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "nats connect")
	}
	for _, t := range Topics {
		subject := t
		if prefix != "" {
			subject = prefix + "." + t
		}
		if err := mgr.RegisterRoute(natsx.NatsxRoute{Topic: t, Subject: subject, Mode: mode}); err != nil {
			_ = mgr.Close()
			return nil, errors.Wrapf(err, "nats route %s", t)
		}
	}
	return &NatsSink{
		mgr: mgr,
		pub: &natsx.NatsxSyncPublisher{P: mgr, Retries: 2, Backoff: 200 * time.Millisecond},
	}, nil
}

func (s *NatsSink) Send(ctx context.Context, topic, key string, data []byte, msgID string) error {
	return s.pub.Publish(ctx, topic, data, map[string]string{"key": key}, msgID)
}

func (s *NatsSink) Close() error { return s.mgr.Close() }

// KafkaSink sends each topic to the Kafka topic named by the pattern, keyed by entity id.
type KafkaSink struct {
	p *kafka.Producer
}

func NewKafkaSink(cfg kafka.AppConfig) (*KafkaSink, error) {
	p, err := kafka.NewProducer(cfg, Topics...)
	if err != nil {
		return nil, err
	}
	return &KafkaSink{p: p}, nil
}

func (s *KafkaSink) Send(ctx context.Context, topic, key string, data []byte, msgID string) error {
	return s.p.SendSync(ctx, topic, key, data, map[string]string{"event-id": msgID})
}

func (s *KafkaSink) Close() error { return s.p.Close() }

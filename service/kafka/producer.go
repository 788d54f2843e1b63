package kafka

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Shopify/sarama"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

func BuildBaseConfig(c AppConfig) *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = c.ClientID
	cfg.Version = c.KafkaVersion

	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	retries := c.ProducerRetries
	if retries <= 0 {
		retries = 1
	}
	cfg.Producer.Retry.Max = retries
	cfg.Producer.Partitioner = sarama.NewHashPartitioner // key 控制分区
	switch strings.ToLower(c.ProducerCompression) {
	case "snappy":
		cfg.Producer.Compression = sarama.CompressionSnappy
	case "lz4":
		cfg.Producer.Compression = sarama.CompressionLZ4
	case "zstd":
		cfg.Producer.Compression = sarama.CompressionZSTD
	default:
		cfg.Producer.Compression = sarama.CompressionNone
	}

	cfg.Net.DialTimeout = 10 * time.Second
	cfg.Net.ReadTimeout = 30 * time.Second
	cfg.Net.WriteTimeout = 30 * time.Second
	return cfg
}

// Producer is a sync producer keyed by entity id so one user's events stay ordered.
type Producer struct {
	cfg    AppConfig
	client sarama.Client
	prod   sarama.SyncProducer
}

// NewProducer connects, optionally creates the topics, and opens a sync producer.
func NewProducer(c AppConfig, topics ...string) (*Producer, error) {
	saramaCfg := BuildBaseConfig(c)
	client, err := sarama.NewClient(c.Brokers, saramaCfg)
	if err != nil {
		return nil, errors.Wrap(err, "kafka client")
	}
	glog.Infof("[Kafka] client connected brokers=%v", c.Brokers)

	if c.AutoCreateTopicsOnStart && len(topics) > 0 {
		admin, err := sarama.NewClusterAdminFromClient(client)
		if err != nil {
			_ = client.Close()
			return nil, errors.Wrap(err, "kafka admin")
		}
		names := make([]string, 0, len(topics))
		for _, t := range topics {
			names = append(names, c.Topic(t))
		}
		// admin shares the client; closing it would close the client too
		if err := EnsureTopics(admin, names, &c); err != nil {
			glog.Infof("[Kafka][ERR] ensure topics: %v", err)
		}
	}

	p, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "kafka producer")
	}
	return &Producer{cfg: c, client: client, prod: p}, nil
}

// Topic expands an event name with TopicPattern.
func (c AppConfig) Topic(event string) string {
	if c.TopicPattern == "" || !strings.Contains(c.TopicPattern, "%s") {
		return event
	}
	return fmt.Sprintf(c.TopicPattern, event)
}

// SendSync blocks until the broker acknowledges or ctx ends.
func (p *Producer) SendSync(ctx context.Context, event, key string, value []byte, headers map[string]string) error {
	msg := &sarama.ProducerMessage{
		Topic: p.cfg.Topic(event),
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	}
	for k, v := range headers {
		msg.Headers = append(msg.Headers, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}
	done := make(chan error, 1)
	go func() {
		_, _, err := p.prod.SendMessage(msg)
		done <- err
	}()
	select {
	case err := <-done:
		return errors.Wrapf(err, "kafka send %s", msg.Topic)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Producer) Close() error {
	if err := p.prod.Close(); err != nil {
		glog.Infof("[Kafka][ERR] close producer: %v", err)
	}
	return p.client.Close()
}

package natsx

import (
	"context"
	"time"
)

// Publisher is the producing side used by NatsxSyncPublisher.
type Publisher interface {
	PublishOnce(ctx context.Context, topic string, data []byte, hdr map[string]string, msgID string) error
}

// NatsxSyncPublisher 同步发布器（带重试）; retries reuse the same msg id.
type NatsxSyncPublisher struct {
	P       Publisher
	Retries int
	Backoff time.Duration
}

func (sp *NatsxSyncPublisher) Publish(ctx context.Context, topic string, payload []byte, hdr map[string]string, msgID string) error {
	var err error
	for i := 0; i <= sp.Retries; i++ {
		err = sp.P.PublishOnce(ctx, topic, payload, hdr, msgID)
		if err == nil {
			return nil
		}
		if i == sp.Retries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sp.Backoff):
		}
	}
	return err
}

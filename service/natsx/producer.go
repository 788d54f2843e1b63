package natsx

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NatsxProducer 生产端
type NatsxProducer struct{ c *NatsxClient }

func NewNatsxProducer(c *NatsxClient) *NatsxProducer { return &NatsxProducer{c: c} }

// Publish 按 Topic 路由发送
func (p *NatsxProducer) Publish(ctx context.Context, topic string, data []byte, hdr map[string]string) error {
	r, ok := p.c.route(topic)
	if !ok {
		return fmt.Errorf("route not found: %s", topic)
	}
	switch r.Mode {
	case Core:
		return p.c.sendCore(r.Subject, data, hdr)
	case JetStream:
		return p.c.sendJS(ctx, r.Subject, data, hdr)
	default:
		return fmt.Errorf("unsupported mode")
	}
}

func genMsgID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// PublishOnce sets Nats-Msg-Id so JetStream can drop duplicates; an empty msgID is generated.
func (p *NatsxProducer) PublishOnce(ctx context.Context, topic string, data []byte, hdr map[string]string, msgID string) error {
	h := make(map[string]string, len(hdr)+1)
	for k, v := range hdr {
		h[k] = v
	}
	if msgID == "" {
		msgID = genMsgID()
	}
	h["Nats-Msg-Id"] = msgID
	return p.Publish(ctx, topic, data, h)
}

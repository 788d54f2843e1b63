package natsx

import (
	"context"
	"fmt"
)

// NatsManager 统一门面：对外只暴露这一个对象来用
type NatsManager struct {
	client   *NatsxClient
	producer *NatsxProducer
}

func NewNatsManager(cfg NatsxConfig) (*NatsManager, error) {
	c, err := NewNatsxClient(cfg)
	if err != nil {
		return nil, err
	}
	return &NatsManager{
		client:   c,
		producer: NewNatsxProducer(c),
	}, nil
}

// Close 释放资源
func (m *NatsManager) Close() error {
	if m == nil || m.client == nil {
		return nil
	}
	return m.client.Close()
}

// RegisterRoute 注册业务路由（topic -> subject / mode）
func (m *NatsManager) RegisterRoute(r NatsxRoute) error {
	if m == nil || m.client == nil {
		return fmt.Errorf("manager not initialized")
	}
	return m.client.RegisterRoute(r)
}

// PublishOnce 生产消息（带 Nats-Msg-Id 去重）
func (m *NatsManager) PublishOnce(ctx context.Context, topic string, data []byte, hdr map[string]string, msgID string) error {
	if m == nil || m.producer == nil {
		return fmt.Errorf("manager not initialized")
	}
	return m.producer.PublishOnce(ctx, topic, data, hdr, msgID)
}

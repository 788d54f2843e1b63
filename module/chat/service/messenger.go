package service

import (
	"context"
	"strings"

	"PSocial/logger"
	"PSocial/module/chat/message"
	"PSocial/module/chat/model"
	"PSocial/service/chat"
	"PSocial/service/dispatcher"
	"PSocial/service/metrics"
	"PSocial/tools/errs"
	"PSocial/tools/safe"

	"go.uber.org/zap"
)

// Locator 查询用户在哪个节点在线 (Redis presence)
type Locator interface {
	Lookup(ctx context.Context, user string) (node string, online bool, err error)
}

// Messenger 消息投递链路：落库 → 在线推送 → 领域事件
type Messenger struct {
	store   message.Store
	pusher  chat.Pusher
	events  dispatcher.Publisher
	locator Locator
}

type MessengerOption func(*Messenger)

// WithLocator 本节点不在线时, 在事件里带上接收方所在节点, 供其它节点投递
func WithLocator(l Locator) MessengerOption {
	return func(m *Messenger) { m.locator = l }
}

func NewMessenger(store message.Store, pusher chat.Pusher, events dispatcher.Publisher, opts ...MessengerOption) *Messenger {
	safe.MustNotNil(store, "store")
	safe.MustNotNil(pusher, "pusher")
	if events == nil {
		events = dispatcher.Noop{}
	}
	m := &Messenger{store: store, pusher: pusher, events: events}
	for _, o := range opts {
		o(m)
	}
	return m
}

// MessageCreated is the payload of dispatcher.TopicMessageCreated.
type MessageCreated struct {
	Message   *model.Message `json:"message"`
	Delivered bool           `json:"delivered"`
	// ReceiverNode is set when the receiver is online on another node.
	ReceiverNode string `json:"receiverNode,omitempty"`
}

// SendMessage stores the message and then pushes it to the receiver if online.
// The push happens only after the message is durable; an offline receiver is
// not an error.
func (m *Messenger) SendMessage(ctx context.Context, sender, receiver, text string) (*model.Message, error) {
	if sender == "" || receiver == "" {
		return nil, errs.ErrArgs.WrapMsg("sender and receiver are required")
	}
	if strings.TrimSpace(text) == "" {
		return nil, errs.ErrArgs.WrapMsg("Message text is required")
	}

	conv, err := m.store.FindOrCreate(ctx, sender, receiver)
	if err != nil {
		logger.Error("[Chat] find or create conversation failed",
			zap.String("sender", sender), zap.String("receiver", receiver), zap.Error(err))
		return nil, errs.ErrInternalServer.WrapMsg(err.Error())
	}

	msg := &model.Message{SenderID: sender, ReceiverID: receiver, Message: text}
	if err := m.store.AppendMessage(ctx, conv, msg); err != nil {
		logger.Error("[Chat] persist message failed",
			zap.String("conv", conv.ID.Hex()), zap.String("sender", sender), zap.Error(err))
		return nil, errs.ErrInternalServer.WrapMsg(err.Error())
	}
	metrics.MessagesPersisted.Inc()

	res := m.pusher.Push(receiver, chat.Event{Name: chat.EventNewMessage, Data: msg})
	logger.Debug("[Chat] message sent",
		zap.String("msg", msg.ID.Hex()), zap.String("conv", conv.ID.Hex()),
		zap.String("receiver", receiver), zap.Stringer("result", res))

	ev := MessageCreated{Message: msg, Delivered: res == chat.Delivered}
	if res == chat.Offline {
		ev.ReceiverNode = m.locate(ctx, receiver)
	}
	m.events.Publish(dispatcher.TopicMessageCreated, conv.ID.Hex(), ev)
	return msg, nil
}

func (m *Messenger) locate(ctx context.Context, user string) string {
	if m.locator == nil {
		return ""
	}
	node, online, err := m.locator.Lookup(ctx, user)
	if err != nil {
		logger.Warn("[Chat] presence lookup failed", zap.String("user", user), zap.Error(err))
		return ""
	}
	if !online {
		return ""
	}
	return node
}

// GetConversationMessages returns the history between me and other in append
// order; no conversation yet yields an empty list.
func (m *Messenger) GetConversationMessages(ctx context.Context, me, other string) ([]*model.Message, error) {
	if me == "" || other == "" {
		return nil, errs.ErrArgs.WrapMsg("both participants are required")
	}
	conv, ok, err := m.store.Find(ctx, me, other)
	if err != nil {
		logger.Error("[Chat] load conversation failed", zap.String("user", me), zap.String("other", other), zap.Error(err))
		return nil, errs.ErrInternalServer.WrapMsg(err.Error())
	}
	if !ok {
		return []*model.Message{}, nil
	}
	msgs, err := m.store.Messages(ctx, conv)
	if err != nil {
		logger.Error("[Chat] load messages failed", zap.String("conv", conv.ID.Hex()), zap.Error(err))
		return nil, errs.ErrInternalServer.WrapMsg(err.Error())
	}
	return msgs, nil
}

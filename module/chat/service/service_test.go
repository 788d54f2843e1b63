package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"PSocial/module/chat/message"
	"PSocial/module/chat/model"
	"PSocial/service/chat"
	"PSocial/tools/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConn struct {
	id string
	mu sync.Mutex
	ev []chat.Event
}

func (c *testConn) ID() string { return c.id }
func (c *testConn) Push(ev chat.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ev = append(c.ev, ev)
	return true
}
func (c *testConn) PushPresence([]string) {}

func (c *testConn) named(name string) []chat.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []chat.Event
	for _, e := range c.ev {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

type published struct {
	topic, key string
	payload    any
}

type recordPublisher struct {
	mu  sync.Mutex
	got []published
}

func (p *recordPublisher) Publish(topic, key string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, published{topic, key, payload})
}

// brokenStore fails every append.
type brokenStore struct{ message.Store }

func (brokenStore) AppendMessage(context.Context, *model.Conversation, *model.Message) error {
	return errors.New("disk full")
}

func TestSendToOnlineReceiver(t *testing.T) {
	ctx := context.Background()
	reg := chat.NewRegistry()
	bConn := &testConn{id: "b1"}
	reg.Register("B", bConn)
	pub := &recordPublisher{}
	m := NewMessenger(message.NewMemStore(), reg, pub)

	msg, err := m.SendMessage(ctx, "A", "B", "hi")
	require.NoError(t, err)
	assert.Equal(t, "A", msg.SenderID)
	assert.Equal(t, "B", msg.ReceiverID)
	assert.Equal(t, "hi", msg.Message)

	got := bConn.named(chat.EventNewMessage)
	require.Len(t, got, 1)
	assert.Equal(t, msg, got[0].Data)

	require.Len(t, pub.got, 1)
	assert.Equal(t, "message.created", pub.got[0].topic)
	assert.True(t, pub.got[0].payload.(MessageCreated).Delivered)

	hist, err := m.GetConversationMessages(ctx, "B", "A")
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, msg.ID, hist[0].ID)
}

func TestSendToOfflineReceiverStillPersists(t *testing.T) {
	ctx := context.Background()
	reg := chat.NewRegistry()
	aConn := &testConn{id: "a1"}
	reg.Register("A", aConn)
	m := NewMessenger(message.NewMemStore(), reg, nil)

	_, err := m.SendMessage(ctx, "A", "B", "are you there")
	require.NoError(t, err)
	assert.Empty(t, aConn.named(chat.EventNewMessage))

	hist, err := m.GetConversationMessages(ctx, "A", "B")
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "are you there", hist[0].Message)
}

func TestSendOrderIsPreserved(t *testing.T) {
	ctx := context.Background()
	m := NewMessenger(message.NewMemStore(), chat.NewRegistry(), nil)

	for _, s := range []struct{ from, to, text string }{
		{"A", "B", "one"}, {"B", "A", "two"}, {"A", "B", "three"},
	} {
		_, err := m.SendMessage(ctx, s.from, s.to, s.text)
		require.NoError(t, err)
	}
	hist, err := m.GetConversationMessages(ctx, "A", "B")
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, "one", hist[0].Message)
	assert.Equal(t, "two", hist[1].Message)
	assert.Equal(t, "three", hist[2].Message)
}

func TestSendRejectsEmptyText(t *testing.T) {
	m := NewMessenger(message.NewMemStore(), chat.NewRegistry(), nil)
	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := m.SendMessage(context.Background(), "A", "B", text)
		assert.ErrorIs(t, err, errs.ErrArgs)
	}
}

func TestSendPersistFailureDoesNotPush(t *testing.T) {
	reg := chat.NewRegistry()
	bConn := &testConn{id: "b1"}
	reg.Register("B", bConn)
	pub := &recordPublisher{}
	m := NewMessenger(brokenStore{message.NewMemStore()}, reg, pub)

	_, err := m.SendMessage(context.Background(), "A", "B", "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrInternalServer)
	assert.Empty(t, bConn.named(chat.EventNewMessage))
	assert.Empty(t, pub.got)
}

func TestHistoryWithoutConversationIsEmpty(t *testing.T) {
	m := NewMessenger(message.NewMemStore(), chat.NewRegistry(), nil)
	hist, err := m.GetConversationMessages(context.Background(), "A", "Z")
	require.NoError(t, err)
	assert.NotNil(t, hist)
	assert.Empty(t, hist)
}

func TestNotifyOnlineOwner(t *testing.T) {
	reg := chat.NewRegistry()
	owner := &testConn{id: "o1"}
	reg.Register("owner", owner)
	pub := &recordPublisher{}
	n := NewNotifier(reg, pub)

	res := n.NotifyInteraction(KindLike, "actor", "owner", "p1", UserDetails{ID: "actor", Username: "alice"})
	assert.Equal(t, chat.Delivered, res)

	got := owner.named(chat.EventNotification)
	require.Len(t, got, 1)
	note := got[0].Data.(Notification)
	assert.Equal(t, KindLike, note.Type)
	assert.Equal(t, "actor", note.UserID)
	assert.Equal(t, "p1", note.PostID)
	assert.Equal(t, "alice liked your post", note.Message)
	assert.Equal(t, "alice", note.UserDetails.Username)
	require.Len(t, pub.got, 1)
	assert.Equal(t, "post.interaction", pub.got[0].topic)
}

func TestNotifySelfIsSuppressed(t *testing.T) {
	reg := chat.NewRegistry()
	owner := &testConn{id: "o1"}
	reg.Register("owner", owner)
	pub := &recordPublisher{}
	n := NewNotifier(reg, pub)

	n.NotifyInteraction(KindLike, "owner", "owner", "p1", UserDetails{Username: "me"})
	n.NotifyInteraction(KindDislike, "owner", "owner", "p1", UserDetails{Username: "me"})
	assert.Empty(t, owner.named(chat.EventNotification))
	assert.Empty(t, pub.got)
}

func TestNotifyOfflineOwnerIsDropped(t *testing.T) {
	n := NewNotifier(chat.NewRegistry(), nil)
	res := n.NotifyInteraction(KindDislike, "actor", "owner", "p1", UserDetails{Username: "bob"})
	assert.Equal(t, chat.Offline, res)
}

func TestInteractionMessage(t *testing.T) {
	assert.Equal(t, "bob liked your post", InteractionMessage(KindLike, "bob"))
	assert.Equal(t, "bob disliked your post", InteractionMessage(KindDislike, "bob"))
	assert.Equal(t, "Someone liked your post", InteractionMessage(KindLike, ""))
	assert.Equal(t, "Someone disliked your post", InteractionMessage(KindDislike, " "))
}

type staticLocator map[string]string

func (l staticLocator) Lookup(_ context.Context, user string) (string, bool, error) {
	node, ok := l[user]
	return node, ok, nil
}

func TestSendToRemoteReceiverCarriesNode(t *testing.T) {
	pub := &recordPublisher{}
	m := NewMessenger(message.NewMemStore(), chat.NewRegistry(), pub,
		WithLocator(staticLocator{"B": "node-2"}))

	_, err := m.SendMessage(context.Background(), "A", "B", "hi")
	require.NoError(t, err)
	_, err = m.SendMessage(context.Background(), "A", "C", "hi")
	require.NoError(t, err)

	require.Len(t, pub.got, 2)
	assert.Equal(t, "node-2", pub.got[0].payload.(MessageCreated).ReceiverNode)
	assert.False(t, pub.got[0].payload.(MessageCreated).Delivered)
	assert.Empty(t, pub.got[1].payload.(MessageCreated).ReceiverNode)
}

func TestNotifyWithoutUsernameSaysSomeone(t *testing.T) {
	reg := chat.NewRegistry()
	owner := &testConn{id: "o1"}
	reg.Register("owner", owner)
	n := NewNotifier(reg, nil)

	n.NotifyInteraction(KindLike, "actor", "owner", "p1", UserDetails{})
	got := owner.named(chat.EventNotification)
	require.Len(t, got, 1)
	note := got[0].Data.(Notification)
	assert.Equal(t, "Someone liked your post", note.Message)
	assert.Equal(t, "actor", note.UserDetails.ID)
}

package message

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"PSocial/module/chat/model"
	"PSocial/tools/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestFindOrCreateIsSymmetric(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	c1, err := s.FindOrCreate(ctx, "A", "B")
	require.NoError(t, err)
	c2, err := s.FindOrCreate(ctx, "B", "A")
	require.NoError(t, err)
	assert.Equal(t, c1.ID, c2.ID)
	assert.Equal(t, []string{"A", "B"}, c2.Participants)

	other, err := s.FindOrCreate(ctx, "A", "C")
	require.NoError(t, err)
	assert.NotEqual(t, c1.ID, other.ID)
}

func TestFindOrCreateConcurrentFirstContact(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	const n = 32
	ids := make([]primitive.ObjectID, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := "A", "B"
			if i%2 == 1 {
				a, b = b, a
			}
			c, err := s.FindOrCreate(ctx, a, b)
			assert.NoError(t, err)
			ids[i] = c.ID
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestFindMissing(t *testing.T) {
	_, ok, err := NewMemStore().Find(context.Background(), "X", "Y")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAppendKeepsOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	conv, err := s.FindOrCreate(ctx, "A", "B")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		from, to := "A", "B"
		if i%2 == 1 {
			from, to = to, from
		}
		m := &model.Message{SenderID: from, ReceiverID: to, Message: fmt.Sprintf("m%d", i)}
		require.NoError(t, s.AppendMessage(ctx, conv, m))
		assert.False(t, m.ID.IsZero())
		assert.Equal(t, conv.ID, m.ConversationID)
	}

	again, ok, err := s.Find(ctx, "B", "A")
	require.NoError(t, err)
	require.True(t, ok)
	msgs, err := s.Messages(ctx, again)
	require.NoError(t, err)
	require.Len(t, msgs, 5)
	for i, m := range msgs {
		assert.Equal(t, fmt.Sprintf("m%d", i), m.Message)
		assert.Equal(t, again.MessageIDs[i], m.ID)
	}
}

func TestConcurrentAppendsAllLand(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	conv, err := s.FindOrCreate(ctx, "A", "B")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, _, _ := s.Find(ctx, "A", "B")
			assert.NoError(t, s.AppendMessage(ctx, c, &model.Message{SenderID: "A", ReceiverID: "B", Message: fmt.Sprint(i)}))
		}(i)
	}
	wg.Wait()

	msgs, err := s.Messages(ctx, conv)
	require.NoError(t, err)
	assert.Len(t, msgs, 50)
}

func TestAppendUnknownConversation(t *testing.T) {
	s := NewMemStore()
	err := s.AppendMessage(context.Background(), &model.Conversation{ID: primitive.NewObjectID()}, &model.Message{Message: "x"})
	assert.ErrorIs(t, err, errs.ErrRecordNotFound)
}

func TestOrderByIDs(t *testing.T) {
	a, b, c := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	found := []*model.Message{{ID: c}, {ID: a}, {ID: b}}
	got := orderByIDs([]primitive.ObjectID{a, b, c, primitive.NewObjectID()}, found)
	require.Len(t, got, 3)
	assert.Equal(t, a, got[0].ID)
	assert.Equal(t, b, got[1].ID)
	assert.Equal(t, c, got[2].ID)
}

func TestRetryOnDuplicate(t *testing.T) {
	dup := mongo.CommandError{Code: 11000, Message: "E11000 duplicate key error"}

	// the losing upsert sees E11000 once, then matches the winner's document
	calls := 0
	err := retryOnDuplicate(upsertRetries, func(int) error {
		calls++
		if calls == 1 {
			return dup
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	err = retryOnDuplicate(upsertRetries, func(int) error { calls++; return dup })
	assert.True(t, mongo.IsDuplicateKeyError(err))
	assert.Equal(t, upsertRetries, calls)

	calls = 0
	boom := fmt.Errorf("connection reset")
	err = retryOnDuplicate(upsertRetries, func(int) error { calls++; return boom })
	assert.Equal(t, boom, err)
	assert.Equal(t, 1, calls)
}

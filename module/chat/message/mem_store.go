package message

import (
	"context"
	"sync"
	"time"

	"PSocial/module/chat/model"
	"PSocial/tools/errs"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memStore struct {
	mu    sync.RWMutex
	convs map[string]*model.Conversation       // pair_key -> conv
	byID  map[primitive.ObjectID]string        // conv id -> pair_key
	msgs  map[primitive.ObjectID]*model.Message // msg id -> msg
}

// NewMemStore 内存实现，语义与 MongoStore 一致
func NewMemStore() Store {
	return &memStore{
		convs: make(map[string]*model.Conversation),
		byID:  make(map[primitive.ObjectID]string),
		msgs:  make(map[primitive.ObjectID]*model.Message),
	}
}

func (s *memStore) FindOrCreate(ctx context.Context, a, b string) (*model.Conversation, error) {
	key := model.PairKey(a, b)
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.convs[key]; ok {
		return copyConv(c), nil
	}
	now := time.Now().UTC()
	c := &model.Conversation{
		ID:           primitive.NewObjectID(),
		PairKey:      key,
		Participants: model.Participants(a, b),
		MessageIDs:   []primitive.ObjectID{},
		CreateTime:   now,
		UpdateTime:   now,
	}
	s.convs[key] = c
	s.byID[c.ID] = key
	return copyConv(c), nil
}

func (s *memStore) Find(ctx context.Context, a, b string) (*model.Conversation, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.convs[model.PairKey(a, b)]
	if !ok {
		return nil, false, nil
	}
	return copyConv(c), true, nil
}

func (s *memStore) AppendMessage(ctx context.Context, conv *model.Conversation, msg *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.byID[conv.ID]
	if !ok {
		return errs.ErrRecordNotFound.WrapMsg("conversation " + conv.ID.Hex())
	}
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	if msg.CreateTime.IsZero() {
		msg.CreateTime = time.Now().UTC()
	}
	msg.ConversationID = conv.ID

	cp := *msg
	s.msgs[msg.ID] = &cp
	c := s.convs[key]
	c.MessageIDs = append(c.MessageIDs, msg.ID)
	c.UpdateTime = msg.CreateTime
	conv.MessageIDs = append(conv.MessageIDs, msg.ID)
	return nil
}

func (s *memStore) Messages(ctx context.Context, conv *model.Conversation) ([]*model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.byID[conv.ID]
	if !ok {
		return []*model.Message{}, nil
	}
	ids := s.convs[key].MessageIDs
	out := make([]*model.Message, 0, len(ids))
	for _, id := range ids {
		if m, ok := s.msgs[id]; ok {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func copyConv(c *model.Conversation) *model.Conversation {
	cp := *c
	cp.Participants = append([]string(nil), c.Participants...)
	cp.MessageIDs = append([]primitive.ObjectID{}, c.MessageIDs...)
	return &cp
}

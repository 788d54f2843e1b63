package message

import (
	"context"

	"PSocial/module/chat/model"
)

// Store 抽象：生产实现 Mongo；测试用内存实现（mem_store.go）
//
// FindOrCreate must yield exactly one conversation per unordered pair, even
// when both sides race on first contact. AppendMessage persists the message
// and records its id on the conversation; the message is visible to Messages
// only once both have happened.
type Store interface {
	FindOrCreate(ctx context.Context, a, b string) (*model.Conversation, error)
	Find(ctx context.Context, a, b string) (*model.Conversation, bool, error)
	AppendMessage(ctx context.Context, conv *model.Conversation, msg *model.Message) error
	Messages(ctx context.Context, conv *model.Conversation) ([]*model.Message, error)
}

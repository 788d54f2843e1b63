package store

import (
	"context"

	"PSocial/module/post/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Repo 帖子持久化；找不到返回 errs.ErrRecordNotFound
type Repo interface {
	Create(ctx context.Context, p *model.Post) error
	List(ctx context.Context) ([]*model.Post, error) // newest first
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Post, error)
	// AddLike is idempotent per user.
	AddLike(ctx context.Context, id primitive.ObjectID, user string) error
	RemoveLike(ctx context.Context, id primitive.ObjectID, user string) error

	ListByAuthor(ctx context.Context, author string) ([]*model.Post, error) // newest first
	// Delete removes the post and its comments.
	Delete(ctx context.Context, id primitive.ObjectID) error

	// AddComment 写 comment 并把 id 追加到帖子的 comments
	AddComment(ctx context.Context, c *model.Comment) error
	Comments(ctx context.Context, postID primitive.ObjectID) ([]*model.Comment, error) // oldest first
}

package store

import (
	"context"

	"PSocial/module/user/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Repo 用户持久化；Create 遇到重复 email/username 返回 errs.ErrDuplicateKey
type Repo interface {
	Create(ctx context.Context, u *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	AddPost(ctx context.Context, id, postID primitive.ObjectID) error
	RemovePost(ctx context.Context, id, postID primitive.ObjectID) error

	UpdateProfile(ctx context.Context, id primitive.ObjectID, up model.ProfileUpdate) (*model.User, error)
	// Others lists users except one, newest first, at most limit.
	Others(ctx context.Context, except primitive.ObjectID, limit int) ([]*model.User, error)

	// Follow/Unfollow 两边的 following/followers 成对修改
	Follow(ctx context.Context, actor, target primitive.ObjectID) error
	Unfollow(ctx context.Context, actor, target primitive.ObjectID) error

	AddBookmark(ctx context.Context, id, postID primitive.ObjectID) error
	RemoveBookmark(ctx context.Context, id, postID primitive.ObjectID) error
}

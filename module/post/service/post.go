package service

import (
	"context"
	"strings"
	"time"

	"PSocial/logger"
	chatsvc "PSocial/module/chat/service"
	"PSocial/module/post/model"
	"PSocial/module/post/store"
	usermodel "PSocial/module/user/model"
	"PSocial/service/chat"
	"PSocial/tools/errs"
	"PSocial/tools/safe"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Users 帖子服务需要的用户侧能力
type Users interface {
	DisplayInfo(ctx context.Context, id string) usermodel.DisplayInfo
	AddPost(ctx context.Context, id, postID primitive.ObjectID) error
	RemovePost(ctx context.Context, id, postID primitive.ObjectID) error
	ToggleBookmark(ctx context.Context, id, postID primitive.ObjectID) (bool, []primitive.ObjectID, error)
}

// Notifier is the notification fan-out.
type Notifier interface {
	NotifyInteraction(kind chatsvc.InteractionKind, actor, owner, postID string, display chatsvc.UserDetails) chat.DeliveryResult
}

type Service struct {
	repo     store.Repo
	users    Users
	notifier Notifier
}

func NewService(repo store.Repo, users Users, notifier Notifier) *Service {
	safe.MustNotNil(repo, "repo")
	safe.MustNotNil(users, "users")
	safe.MustNotNil(notifier, "notifier")
	return &Service{repo: repo, users: users, notifier: notifier}
}

type CreateParams struct {
	Caption string `json:"caption"`
	Image   string `json:"image"` // already uploaded image URL
}

func (s *Service) Create(ctx context.Context, author string, in CreateParams) (*model.Post, error) {
	in.Image = strings.TrimSpace(in.Image)
	if in.Image == "" {
		return nil, errs.ErrArgs.WrapMsg("Image is required")
	}
	authorID, err := primitive.ObjectIDFromHex(author)
	if err != nil {
		return nil, errs.ErrArgs.WrapMsg("invalid author", "author", author)
	}
	p := &model.Post{Caption: in.Caption, Image: in.Image, Author: author}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	if err := s.users.AddPost(ctx, authorID, p.ID); err != nil {
		logger.Warn("[Post] link post to author failed", zap.String("post", p.ID.Hex()), zap.Error(err))
	}
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]*model.Post, error) {
	return s.repo.List(ctx)
}

func (s *Service) Like(ctx context.Context, actor, postID string) error {
	return s.interact(ctx, chatsvc.KindLike, actor, postID)
}

func (s *Service) Dislike(ctx context.Context, actor, postID string) error {
	return s.interact(ctx, chatsvc.KindDislike, actor, postID)
}

// interact updates the like set, then notifies the post owner.
func (s *Service) interact(ctx context.Context, kind chatsvc.InteractionKind, actor, postID string) error {
	id, p, err := s.load(ctx, postID, "Post not found")
	if err != nil {
		return err
	}
	if kind == chatsvc.KindLike {
		err = s.repo.AddLike(ctx, id, actor)
	} else {
		err = s.repo.RemoveLike(ctx, id, actor)
	}
	if err != nil {
		return err
	}

	if p.Author == actor {
		return nil
	}
	d := s.users.DisplayInfo(ctx, actor)
	s.notifier.NotifyInteraction(kind, actor, p.Author, postID, chatsvc.UserDetails{
		ID:             d.ID,
		Username:       d.Username,
		ProfilePicture: d.ProfilePicture,
	})
	return nil
}

// UserPosts 当前用户自己的帖子, 新的在前
func (s *Service) UserPosts(ctx context.Context, author string) ([]*model.Post, error) {
	return s.repo.ListByAuthor(ctx, author)
}

// Delete 只有作者能删, 评论一起删掉
func (s *Service) Delete(ctx context.Context, actor, postID string) error {
	id, p, err := s.load(ctx, postID, "Post not found!")
	if err != nil {
		return err
	}
	if p.Author != actor {
		return errs.ErrNoPermission.WrapMsg("You are not authorized to delete this post!")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if authorID, err := primitive.ObjectIDFromHex(actor); err == nil {
		if err := s.users.RemovePost(ctx, authorID, id); err != nil {
			logger.Warn("[Post] unlink post from author failed", zap.String("post", postID), zap.Error(err))
		}
	}
	logger.Info("[Post] deleted", zap.String("post", postID), zap.String("author", actor))
	return nil
}

// CommentView is a comment with its author's display info.
type CommentView struct {
	ID        primitive.ObjectID    `json:"_id"`
	Text      string                `json:"text"`
	Author    usermodel.DisplayInfo `json:"author"`
	PostID    primitive.ObjectID    `json:"post"`
	CreatedAt time.Time             `json:"createdAt"`
}

func (s *Service) view(ctx context.Context, c *model.Comment) CommentView {
	return CommentView{
		ID:        c.ID,
		Text:      c.Text,
		Author:    s.users.DisplayInfo(ctx, c.Author),
		PostID:    c.PostID,
		CreatedAt: c.CreateTime,
	}
}

func (s *Service) AddComment(ctx context.Context, actor, postID, text string) (*CommentView, error) {
	id, _, err := s.load(ctx, postID, "Post not found")
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errs.ErrArgs.WrapMsg("Comment is required")
	}
	c := &model.Comment{Text: text, Author: actor, PostID: id}
	if err := s.repo.AddComment(ctx, c); err != nil {
		return nil, err
	}
	v := s.view(ctx, c)
	return &v, nil
}

// Comments 按发表顺序返回
func (s *Service) Comments(ctx context.Context, postID string) ([]CommentView, error) {
	id, _, err := s.load(ctx, postID, "Post not found")
	if err != nil {
		return nil, err
	}
	cs, err := s.repo.Comments(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]CommentView, 0, len(cs))
	for _, c := range cs {
		out = append(out, s.view(ctx, c))
	}
	return out, nil
}

// Bookmark toggles the post in the caller's bookmarks.
func (s *Service) Bookmark(ctx context.Context, actor, postID string) (bool, []primitive.ObjectID, error) {
	id, _, err := s.load(ctx, postID, "Post not found!")
	if err != nil {
		return false, nil, err
	}
	userID, err := primitive.ObjectIDFromHex(actor)
	if err != nil {
		return false, nil, errs.ErrRecordNotFound.WrapMsg("User not found, try again!")
	}
	return s.users.ToggleBookmark(ctx, userID, id)
}

func (s *Service) load(ctx context.Context, postID, notFound string) (primitive.ObjectID, *model.Post, error) {
	id, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return id, nil, errs.ErrRecordNotFound.WrapMsg(notFound)
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return id, nil, errs.ErrRecordNotFound.WrapMsg(notFound)
		}
		return id, nil, err
	}
	return id, p, nil
}

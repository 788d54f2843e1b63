package service

import (
	"context"
	"strings"
	"time"

	"PSocial/logger"
	"PSocial/module/user/model"
	"PSocial/module/user/store"
	"PSocial/tools/errs"
	"PSocial/tools/security"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var validate = validator.New()

// validateParams 把 validator 的字段错误翻成前端认识的提示
func validateParams(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errs.ErrArgs.WrapMsg(err.Error())
	}
	for _, fe := range fieldErrs {
		if fe.Tag() == "email" {
			return errs.ErrArgs.WrapMsg("Invalid email address.")
		}
	}
	return errs.ErrArgs.WrapMsg("All fields are required.")
}

type Service struct {
	repo store.Repo
	jwt  security.Options
}

func NewService(repo store.Repo, jwt security.Options) *Service {
	return &Service{repo: repo, jwt: jwt}
}

type RegisterParams struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginParams struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult 登录成功后的会话
type LoginResult struct {
	User     *model.User
	Token    string
	ExpireAt time.Time
}

func (s *Service) Register(ctx context.Context, in RegisterParams) error {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateParams(in); err != nil {
		return err
	}
	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return errs.ErrInternalServer.WrapMsg(err.Error())
	}
	u := &model.User{Username: in.Username, Email: in.Email, Password: hash}
	if err := s.repo.Create(ctx, u); err != nil {
		return err
	}
	logger.Info("[User] registered", zap.String("user", u.ID.Hex()), zap.String("username", u.Username))
	return nil
}

func (s *Service) Login(ctx context.Context, in LoginParams) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, errs.ErrArgs.WrapMsg("All fields are required!")
	}
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !security.CheckPassword(u.Password, in.Password) {
		return nil, errs.ErrTokenInvalid.WrapMsg("Incorrect email or password, try again")
	}
	token, exp, err := security.Generate(s.jwt, u.ID.Hex())
	if err != nil {
		return nil, errs.ErrInternalServer.WrapMsg(err.Error())
	}
	logger.Info("[User] login", zap.String("user", u.ID.Hex()))
	return &LoginResult{User: u, Token: token, ExpireAt: exp}, nil
}

func (s *Service) Profile(ctx context.Context, id string) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errs.ErrArgs.WrapMsg("invalid user id", "id", id)
	}
	return s.repo.FindByID(ctx, oid)
}

// DisplayInfo is used by notifications; an unknown user degrades to the bare id.
func (s *Service) DisplayInfo(ctx context.Context, id string) model.DisplayInfo {
	u, err := s.Profile(ctx, id)
	if err != nil {
		logger.Warn("[User] display info lookup failed", zap.String("user", id), zap.Error(err))
		return model.DisplayInfo{ID: id}
	}
	return u.Display()
}

func (s *Service) AddPost(ctx context.Context, id, postID primitive.ObjectID) error {
	return s.repo.AddPost(ctx, id, postID)
}

func (s *Service) RemovePost(ctx context.Context, id, postID primitive.ObjectID) error {
	return s.repo.RemovePost(ctx, id, postID)
}

// EditProfileParams 头像是已上传好的图片 URL
type EditProfileParams struct {
	Bio            string `json:"bio" validate:"max=150"`
	Gender         string `json:"gender" validate:"omitempty,oneof=male female"`
	ProfilePicture string `json:"profilePicture" validate:"omitempty,url"`
}

func (s *Service) EditProfile(ctx context.Context, id string, in EditProfileParams) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errs.ErrRecordNotFound.WrapMsg("User not found, try again!")
	}
	in.Bio = strings.TrimSpace(in.Bio)
	in.Gender = strings.ToLower(strings.TrimSpace(in.Gender))
	in.ProfilePicture = strings.TrimSpace(in.ProfilePicture)
	if err := validate.Struct(in); err != nil {
		return nil, errs.ErrArgs.WrapMsg("Invalid profile fields.")
	}
	u, err := s.repo.UpdateProfile(ctx, oid, model.ProfileUpdate{
		Bio:            in.Bio,
		Gender:         in.Gender,
		ProfilePicture: in.ProfilePicture,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("[User] profile updated", zap.String("user", id))
	return u, nil
}

const suggestedLimit = 20

// Suggested 除自己以外的最新用户
func (s *Service) Suggested(ctx context.Context, me string) ([]*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(me)
	if err != nil {
		return nil, errs.ErrArgs.WrapMsg("invalid user id", "id", me)
	}
	return s.repo.Others(ctx, oid, suggestedLimit)
}

// FollowOrUnfollow toggles me -> target; followed reports the new state.
func (s *Service) FollowOrUnfollow(ctx context.Context, me, target string) (followed bool, err error) {
	if me == target {
		return false, errs.ErrArgs.WrapMsg("You cannot follow or unfollow yourself!")
	}
	actorID, err1 := primitive.ObjectIDFromHex(me)
	targetID, err2 := primitive.ObjectIDFromHex(target)
	if err1 != nil || err2 != nil {
		return false, errs.ErrRecordNotFound.WrapMsg("User or target user not found.")
	}
	actor, err := s.repo.FindByID(ctx, actorID)
	if err != nil {
		return false, errs.ErrRecordNotFound.WrapMsg("User or target user not found.")
	}
	if _, err := s.repo.FindByID(ctx, targetID); err != nil {
		return false, errs.ErrRecordNotFound.WrapMsg("User or target user not found.")
	}

	if actor.IsFollowing(targetID) {
		err = s.repo.Unfollow(ctx, actorID, targetID)
	} else {
		err = s.repo.Follow(ctx, actorID, targetID)
		followed = true
	}
	if err != nil {
		return false, err
	}
	logger.Info("[User] follow changed", zap.String("user", me), zap.String("target", target), zap.Bool("following", followed))
	return followed, nil
}

// ToggleBookmark 已收藏则取消, 否则收藏; 返回最新的收藏列表
func (s *Service) ToggleBookmark(ctx context.Context, id, postID primitive.ObjectID) (bookmarked bool, bookmarks []primitive.ObjectID, err error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return false, nil, err
	}
	if u.HasBookmark(postID) {
		err = s.repo.RemoveBookmark(ctx, id, postID)
	} else {
		err = s.repo.AddBookmark(ctx, id, postID)
		bookmarked = true
	}
	if err != nil {
		return false, nil, err
	}
	u, err = s.repo.FindByID(ctx, id)
	if err != nil {
		return false, nil, err
	}
	return bookmarked, u.Bookmarks, nil
}

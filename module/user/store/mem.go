package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"PSocial/module/user/model"
	"PSocial/tools/errs"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memRepo struct {
	mu   sync.RWMutex
	byID map[primitive.ObjectID]*model.User
	seq  map[primitive.ObjectID]int64 // 插入顺序, Others 按它倒序
	next int64
}

func NewMemRepo() Repo {
	return &memRepo{
		byID: make(map[primitive.ObjectID]*model.User),
		seq:  make(map[primitive.ObjectID]int64),
	}
}

var errUserNotFound = errs.ErrRecordNotFound.WrapMsg("User not found, try again!")

func (r *memRepo) Create(ctx context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ex := range r.byID {
		if ex.Email == u.Email || ex.Username == u.Username {
			return errs.ErrDuplicateKey.WrapMsg("User already exists, try different email.")
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	u.CreateTime, u.UpdateTime = now, now
	u.InitLists()
	r.next++
	r.seq[u.ID] = r.next
	r.byID[u.ID] = cloneUser(u)
	return nil
}

func (r *memRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byID {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, errUserNotFound
}

func (r *memRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, errUserNotFound
	}
	return cloneUser(u), nil
}

func (r *memRepo) AddPost(ctx context.Context, id, postID primitive.ObjectID) error {
	return r.mutate(id, func(u *model.User) { u.Posts = append(u.Posts, postID) })
}

func (r *memRepo) RemovePost(ctx context.Context, id, postID primitive.ObjectID) error {
	return r.mutate(id, func(u *model.User) { u.Posts = without(u.Posts, postID) })
}

func (r *memRepo) UpdateProfile(ctx context.Context, id primitive.ObjectID, up model.ProfileUpdate) (*model.User, error) {
	var out *model.User
	err := r.mutate(id, func(u *model.User) {
		if up.Bio != "" {
			u.Bio = up.Bio
		}
		if up.Gender != "" {
			u.Gender = up.Gender
		}
		if up.ProfilePicture != "" {
			u.ProfilePicture = up.ProfilePicture
		}
		out = cloneUser(u)
	})
	return out, err
}

func (r *memRepo) Others(ctx context.Context, except primitive.ObjectID, limit int) ([]*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.User, 0, len(r.byID))
	for id, u := range r.byID {
		if id != except {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return r.seq[out[i].ID] > r.seq[out[j].ID] })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepo) Follow(ctx context.Context, actor, target primitive.ObjectID) error {
	return r.pair(actor, target, func(a, t *model.User) {
		if !a.IsFollowing(target) {
			a.Following = append(a.Following, target)
		}
		if !containsID(t.Followers, actor) {
			t.Followers = append(t.Followers, actor)
		}
	})
}

func (r *memRepo) Unfollow(ctx context.Context, actor, target primitive.ObjectID) error {
	return r.pair(actor, target, func(a, t *model.User) {
		a.Following = without(a.Following, target)
		t.Followers = without(t.Followers, actor)
	})
}

func (r *memRepo) AddBookmark(ctx context.Context, id, postID primitive.ObjectID) error {
	return r.mutate(id, func(u *model.User) {
		if !u.HasBookmark(postID) {
			u.Bookmarks = append(u.Bookmarks, postID)
		}
	})
}

func (r *memRepo) RemoveBookmark(ctx context.Context, id, postID primitive.ObjectID) error {
	return r.mutate(id, func(u *model.User) { u.Bookmarks = without(u.Bookmarks, postID) })
}

func (r *memRepo) mutate(id primitive.ObjectID, fn func(u *model.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return errUserNotFound
	}
	fn(u)
	u.UpdateTime = time.Now().UTC()
	return nil
}

// pair 两个文档在一把锁里一起改
func (r *memRepo) pair(actor, target primitive.ObjectID, fn func(a, t *model.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[actor]
	if !ok {
		return errUserNotFound
	}
	t, ok := r.byID[target]
	if !ok {
		return errUserNotFound
	}
	fn(a, t)
	return nil
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func without(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func cloneUser(u *model.User) *model.User {
	cp := *u
	cp.Followers = append([]primitive.ObjectID{}, u.Followers...)
	cp.Following = append([]primitive.ObjectID{}, u.Following...)
	cp.Posts = append([]primitive.ObjectID{}, u.Posts...)
	cp.Bookmarks = append([]primitive.ObjectID{}, u.Bookmarks...)
	return &cp
}

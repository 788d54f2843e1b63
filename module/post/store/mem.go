package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"PSocial/module/post/model"
	"PSocial/tools/errs"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memRepo struct {
	mu       sync.RWMutex
	posts    map[primitive.ObjectID]*model.Post
	seq      int64 // tie-break for equal create times
	order    map[primitive.ObjectID]int64
	comments []*model.Comment // append order
}

func NewMemRepo() Repo {
	return &memRepo{
		posts: make(map[primitive.ObjectID]*model.Post),
		order: make(map[primitive.ObjectID]int64),
	}
}

func (r *memRepo) Create(ctx context.Context, p *model.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	p.CreateTime, p.UpdateTime = now, now
	if p.Likes == nil {
		p.Likes = []string{}
	}
	r.seq++
	r.order[p.ID] = r.seq
	r.posts[p.ID] = clonePost(p)
	return nil
}

func (r *memRepo) List(ctx context.Context) ([]*model.Post, error) {
	return r.list(func(*model.Post) bool { return true }), nil
}

func (r *memRepo) ListByAuthor(ctx context.Context, author string) ([]*model.Post, error) {
	return r.list(func(p *model.Post) bool { return p.Author == author }), nil
}

func (r *memRepo) list(keep func(*model.Post) bool) []*model.Post {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Post, 0, len(r.posts))
	for _, p := range r.posts {
		if keep(p) {
			out = append(out, clonePost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return r.order[out[i].ID] > r.order[out[j].ID] })
	return out
}

func (r *memRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, errs.ErrRecordNotFound.WrapMsg("Post not found")
	}
	return clonePost(p), nil
}

func (r *memRepo) AddLike(ctx context.Context, id primitive.ObjectID, user string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return errs.ErrRecordNotFound.WrapMsg("Post not found")
	}
	for _, u := range p.Likes {
		if u == user {
			return nil
		}
	}
	p.Likes = append(p.Likes, user)
	return nil
}

func (r *memRepo) RemoveLike(ctx context.Context, id primitive.ObjectID, user string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return errs.ErrRecordNotFound.WrapMsg("Post not found")
	}
	kept := p.Likes[:0]
	for _, u := range p.Likes {
		if u != user {
			kept = append(kept, u)
		}
	}
	p.Likes = kept
	return nil
}

func (r *memRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return errs.ErrRecordNotFound.WrapMsg("Post not found!")
	}
	delete(r.posts, id)
	delete(r.order, id)
	kept := r.comments[:0]
	for _, c := range r.comments {
		if c.PostID != id {
			kept = append(kept, c)
		}
	}
	r.comments = kept
	return nil
}

func (r *memRepo) AddComment(ctx context.Context, c *model.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[c.PostID]
	if !ok {
		return errs.ErrRecordNotFound.WrapMsg("Post not found")
	}
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	c.CreateTime = time.Now().UTC()
	cp := *c
	r.comments = append(r.comments, &cp)
	p.Comments = append(p.Comments, c.ID)
	return nil
}

func (r *memRepo) Comments(ctx context.Context, postID primitive.ObjectID) ([]*model.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*model.Comment{}
	for _, c := range r.comments {
		if c.PostID == postID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func clonePost(p *model.Post) *model.Post {
	cp := *p
	cp.Likes = append([]string{}, p.Likes...)
	cp.Comments = append([]primitive.ObjectID{}, p.Comments...)
	return &cp
}

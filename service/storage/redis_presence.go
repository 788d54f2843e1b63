package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const defaultPresenceTTL = 24 * time.Hour

// presence key: im:presence:<user>, value: node id
func presenceKey(user string) string { return "im:presence:" + user }

// node set: im:online:<node>, members: user ids bound on that node
func onlineSetKey(node string) string { return "im:online:" + node }

// PresenceStore mirrors the in-process online set into Redis so other
// processes can read it. The in-process registry stays authoritative.
type PresenceStore struct {
	rdb  redis.Cmdable
	node string
	ttl  time.Duration
}

func NewPresenceStore(rdb redis.Cmdable, node string, ttl time.Duration) *PresenceStore {
	if ttl <= 0 {
		ttl = defaultPresenceTTL
	}
	return &PresenceStore{rdb: rdb, node: node, ttl: ttl}
}

// Online marks the user as online on this node and renews the TTL.
func (p *PresenceStore) Online(ctx context.Context, user string) error {
	_, err := p.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, presenceKey(user), p.node, p.ttl)
		pipe.SAdd(ctx, onlineSetKey(p.node), user)
		pipe.Expire(ctx, onlineSetKey(p.node), p.ttl)
		return nil
	})
	return errors.Wrap(err, "presence online")
}

// Offline removes the user, but only the key this node owns.
func (p *PresenceStore) Offline(ctx context.Context, user string) error {
	_, err := p.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SRem(ctx, onlineSetKey(p.node), user)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "presence offline")
	}
	owner, err := p.rdb.Get(ctx, presenceKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "presence offline")
	}
	if owner == p.node {
		return errors.Wrap(p.rdb.Del(ctx, presenceKey(user)).Err(), "presence offline")
	}
	return nil
}

// Lookup checks whether the user is online and on which node.
func (p *PresenceStore) Lookup(ctx context.Context, user string) (node string, online bool, err error) {
	val, err := p.rdb.Get(ctx, presenceKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "presence lookup")
	}
	return val, true, nil
}

// Reset drops this node's online set; used on startup since the registry starts empty.
func (p *PresenceStore) Reset(ctx context.Context) error {
	members, err := p.rdb.SMembers(ctx, onlineSetKey(p.node)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return errors.Wrap(err, "presence reset")
	}
	_, err = p.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, u := range members {
			pipe.Del(ctx, presenceKey(u))
		}
		pipe.Del(ctx, onlineSetKey(p.node))
		return nil
	})
	return errors.Wrap(err, "presence reset")
}

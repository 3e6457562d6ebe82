package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "checkout:session:"

var ErrNotFound = errors.New("session not found")

type Store struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewStore(rdb redis.Cmdable, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func key(id string) string { return keyPrefix + id }

func (s *Store) Load(ctx context.Context, id string) (*Session, error) {
	raw, err := s.rdb.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	sess.ID = id
	sess.normalize()
	return &sess, nil
}

// Save writes the session and refreshes its TTL.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	sess.normalize()
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.rdb.Set(ctx, key(sess.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	sess.dirty = false
	sess.fresh = false
	return nil
}

// ClearCheckout clears the checkout keys of a session that is not part of
// the current request, such as the one that started a payment. A session
// that no longer exists is not an error.
func (s *Store) ClearCheckout(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	sess, err := s.Load(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	sess.ClearCheckout()
	return s.Save(ctx, sess)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

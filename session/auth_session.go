// Package session stores verified caller identities in redis. Login itself
// happens in the external identity service; it writes a session here and hands
// the token to the client, so this backend only ever reads tokens back.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type AuthSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAuthSessionStore(rdb *redis.Client, ttl time.Duration) *AuthSessionStore {
	return &AuthSessionStore{rdb: rdb, ttl: ttl}
}

// AuthSession is the verified identity attached to a token: who the caller is
// and whether they carry the admin scope.
type AuthSession struct {
	UserID    string `json:"uid"`
	IsAdmin   bool   `json:"adm"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

func key(token string) string { return fmt.Sprintf("rental:sess:%s", token) }

func (s *AuthSessionStore) Create(ctx context.Context, token, userID string, isAdmin bool) error {
	now := time.Now()
	b, _ := json.Marshal(AuthSession{
		UserID:    userID,
		IsAdmin:   isAdmin,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.ttl).Unix(),
	})
	return s.rdb.Set(ctx, key(token), b, s.ttl).Err()
}

func (s *AuthSessionStore) Get(ctx context.Context, token string) (*AuthSession, error) {
	b, err := s.rdb.Get(ctx, key(token)).Bytes()
	if err != nil {
		return nil, err
	}
	var as AuthSession
	if err := json.Unmarshal(b, &as); err != nil {
		return nil, err
	}
	return &as, nil
}

func (s *AuthSessionStore) Delete(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, key(token)).Err()
}

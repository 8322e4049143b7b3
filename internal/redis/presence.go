package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Presence is stored under <prefix>:presence:<user> as JSON.
type Presence struct {
	Status   string `json:"status"`
	LastSeen int64  `json:"last_seen"`
}

// Store records notification-channel presence so other services can tell
// whether a user is reachable live.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewStore(r *redis.Client, prefix string, ttl time.Duration) *Store {
	return &Store{client: r, prefix: prefix, ttl: ttl}
}

func (s *Store) presenceKey(userID string) string {
	return fmt.Sprintf("%s:presence:%s", s.prefix, userID)
}

// SetOnline marks the user online. The key expires after the configured ttl
// unless refreshed.
func (s *Store) SetOnline(ctx context.Context, userID string) error {
	return s.set(ctx, userID, StatusOnline, s.ttl)
}

// SetOffline keeps the last_seen timestamp without expiry.
func (s *Store) SetOffline(ctx context.Context, userID string) error {
	return s.set(ctx, userID, StatusOffline, 0)
}

func (s *Store) set(ctx context.Context, userID, status string, ttl time.Duration) error {
	b, err := json.Marshal(Presence{Status: status, LastSeen: time.Now().Unix()})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.presenceKey(userID), b, ttl).Err()
}

// Get returns nil, nil when no presence was ever recorded or it expired.
func (s *Store) Get(ctx context.Context, userID string) (*Presence, error) {
	b, err := s.client.Get(ctx, s.presenceKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var p Presence
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

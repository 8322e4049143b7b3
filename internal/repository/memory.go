package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fathima-sithara/notification-service/internal/model"
)

// MemoryStore backs all three repositories in process. Used with
// storage.driver=memory and in tests.
type MemoryStore struct {
	mu            sync.RWMutex
	notifications map[string]*model.Notification
	users         map[string]*model.User
	posts         map[string]*model.Post
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		notifications: make(map[string]*model.Notification),
		users:         make(map[string]*model.User),
		posts:         make(map[string]*model.Post),
	}
}

// Notifications, Users and Posts return typed views over the same store.
func (s *MemoryStore) Notifications() *MemoryNotificationRepo { return &MemoryNotificationRepo{s} }
func (s *MemoryStore) Users() *MemoryUserRepo                 { return &MemoryUserRepo{s} }
func (s *MemoryStore) Posts() *MemoryPostRepo                 { return &MemoryPostRepo{s} }

func (s *MemoryStore) PutUser(u *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
}

func (s *MemoryStore) PutPost(p *model.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.posts[p.ID] = &cp
}

type MemoryNotificationRepo struct{ s *MemoryStore }

func (r *MemoryNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *n
	r.s.notifications[n.ID] = &cp
	return nil
}

func (r *MemoryNotificationRepo) GetForRecipient(_ context.Context, id, recipientID string) (*model.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n, ok := r.s.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return nil, ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (r *MemoryNotificationRepo) MarkRead(_ context.Context, id, recipientID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok || n.RecipientID != recipientID || n.IsRead {
		return false, nil
	}
	n.IsRead = true
	return true, nil
}

func (r *MemoryNotificationRepo) CountUnread(_ context.Context, recipientID string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var count int64
	for _, n := range r.s.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *MemoryNotificationRepo) ListByRecipient(_ context.Context, recipientID string, limit int64, before time.Time) ([]*model.Notification, error) {
	r.s.mu.RLock()
	out := []*model.Notification{}
	for _, n := range r.s.notifications {
		if n.RecipientID != recipientID {
			continue
		}
		if !before.IsZero() && !n.CreatedAt.Before(before) {
			continue
		}
		cp := *n
		out = append(out, &cp)
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

type MemoryUserRepo struct{ s *MemoryStore }

func (r *MemoryUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryUserRepo) GetByIDs(_ context.Context, ids []string) (map[string]*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make(map[string]*model.User, len(ids))
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			cp := *u
			out[id] = &cp
		}
	}
	return out, nil
}

type MemoryPostRepo struct{ s *MemoryStore }

func (r *MemoryPostRepo) GetByIDs(_ context.Context, ids []string) (map[string]*model.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make(map[string]*model.Post, len(ids))
	for _, id := range ids {
		if p, ok := r.s.posts[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

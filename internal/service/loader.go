package service

import (
	"context"

	"github.com/fathima-sithara/notification-service/internal/model"
	"github.com/fathima-sithara/notification-service/internal/repository"
)

// Batch holds the users and posts referenced by a set of notifications.
type Batch struct {
	Users map[string]*model.User
	Posts map[string]*model.Post
}

func (b *Batch) User(id string) *model.User {
	if b == nil || id == "" {
		return nil
	}
	return b.Users[id]
}

func (b *Batch) Post(id string) *model.Post {
	if b == nil || id == "" {
		return nil
	}
	return b.Posts[id]
}

// Loader resolves users and posts with one GetByIDs call per repository.
type Loader struct {
	users repository.UserRepository
	posts repository.PostRepository
}

func NewLoader(users repository.UserRepository, posts repository.PostRepository) *Loader {
	return &Loader{users: users, posts: posts}
}

// Load fetches the given ids. Empty and duplicate ids are ignored.
func (l *Loader) Load(ctx context.Context, userIDs, postIDs []string) (*Batch, error) {
	b := &Batch{}
	var err error
	if b.Users, err = l.users.GetByIDs(ctx, distinct(userIDs)); err != nil {
		return nil, err
	}
	if b.Posts, err = l.posts.GetByIDs(ctx, distinct(postIDs)); err != nil {
		return nil, err
	}
	return b, nil
}

// LoadFor collects the actor and post ids of ns, plus any extra user ids.
func (l *Loader) LoadFor(ctx context.Context, ns []*model.Notification, extraUsers ...string) (*Batch, error) {
	userIDs := append([]string{}, extraUsers...)
	postIDs := make([]string, 0, len(ns))
	for _, n := range ns {
		userIDs = append(userIDs, n.ActorID)
		postIDs = append(postIDs, n.PostID)
	}
	return l.Load(ctx, userIDs, postIDs)
}

func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

package repository

import (
	"context"
	"time"

	"github.com/fathima-sithara/notification-service/internal/apperr"
	"github.com/fathima-sithara/notification-service/internal/model"
)

var ErrNotFound = apperr.ErrNotFound

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	// GetForRecipient returns ErrNotFound when the id does not exist or
	// belongs to another recipient.
	GetForRecipient(ctx context.Context, id, recipientID string) (*model.Notification, error)
	// MarkRead flips is_read only when id, recipient and is_read=false all
	// match. It reports whether this call performed the flip.
	MarkRead(ctx context.Context, id, recipientID string) (bool, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)
	// ListByRecipient returns newest first. A zero before means no upper bound.
	ListByRecipient(ctx context.Context, recipientID string, limit int64, before time.Time) ([]*model.Notification, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	// GetByIDs skips ids that do not exist.
	GetByIDs(ctx context.Context, ids []string) (map[string]*model.User, error)
}

type PostRepository interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]*model.Post, error)
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fathima-sithara/notification-service/internal/apperr"
	"github.com/fathima-sithara/notification-service/internal/hub"
	"github.com/fathima-sithara/notification-service/internal/metrics"
	"github.com/fathima-sithara/notification-service/internal/model"
	"github.com/fathima-sithara/notification-service/internal/repository"
	"github.com/fathima-sithara/notification-service/internal/utils"
)

// Registry is the live delivery side of the hub.
type Registry interface {
	Deliver(userID string, payload any) hub.Status
}

// EmailSender accepts an email request. Implementations must not block on
// the provider. A nil EmailSender disables email.
type EmailSender interface {
	Send(ctx context.Context, msg model.EmailContext) error
}

type EmailStatus string

const (
	EmailQueued  EmailStatus = "queued"
	EmailSkipped EmailStatus = "skipped"
	EmailFailed  EmailStatus = "failed"
)

// DeliveryOutcome records what happened to each best-effort side effect of
// a state change. It is for logging and metrics; callers never branch on it.
type DeliveryOutcome struct {
	Push        hub.Status  `json:"push,omitempty"`
	CounterPush hub.Status  `json:"counter_push,omitempty"`
	UnreadCount int64       `json:"unread_count"`
	Email       EmailStatus `json:"email,omitempty"`
	EmailReason string      `json:"email_reason,omitempty"`
}

type Options struct {
	PreviewLength int
	// FrontendURL prefixes navigation urls in emails.
	FrontendURL string
}

type NotificationList struct {
	UnreadCount   int64                    `json:"unread_count"`
	Notifications []model.NotificationView `json:"notifications"`
}

type NavigationResult struct {
	Notification model.NotificationView `json:"notification"`
	Navigation   model.Navigation       `json:"navigation"`
}

type NotificationService struct {
	notifications repository.NotificationRepository
	loader        *Loader
	registry      Registry
	email         EmailSender
	metrics       *metrics.Metrics
	logger        *zap.SugaredLogger
	opts          Options
}

func NewNotificationService(
	notifications repository.NotificationRepository,
	loader *Loader,
	registry Registry,
	email EmailSender,
	m *metrics.Metrics,
	logger *zap.SugaredLogger,
	opts Options,
) *NotificationService {
	if opts.PreviewLength <= 0 {
		opts.PreviewLength = DefaultPreviewLength
	}
	opts.FrontendURL = strings.TrimRight(opts.FrontendURL, "/")
	return &NotificationService{
		notifications: notifications,
		loader:        loader,
		registry:      registry,
		email:         email,
		metrics:       m,
		logger:        logger,
		opts:          opts,
	}
}

// Create validates and persists a notification, then pushes it and the new
// unread count to the recipient and requests an email. Only validation and
// persistence errors are returned; the record is returned whatever happens
// to the side effects.
func (s *NotificationService) Create(ctx context.Context, req model.CreateNotificationRequest) (*model.Notification, DeliveryOutcome, error) {
	var out DeliveryOutcome
	if err := utils.Validator().Struct(req); err != nil {
		return nil, out, fmt.Errorf("%w: %w", apperr.ErrValidation, err)
	}

	n := &model.Notification{
		ID:          uuid.NewString(),
		RecipientID: req.RecipientID,
		ActorID:     req.ActorID,
		Type:        req.Type,
		Message:     req.Message,
		PostID:      req.PostID,
		CommentID:   req.CommentID,
		CreatedAt:   utils.Now(),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, out, fmt.Errorf("persist notification: %w", err)
	}
	s.metrics.NotificationCreated(string(n.Type))

	out.Push = s.registry.Deliver(n.RecipientID, notificationFrame(n))
	out.CounterPush, out.UnreadCount = s.pushUnreadCount(ctx, n.RecipientID, model.ChangeIncrement)
	out.Email, out.EmailReason = s.requestEmail(ctx, n)
	s.metrics.Email(string(out.Email))

	s.logger.Infow("notification created",
		"notification_id", n.ID,
		"recipient_id", n.RecipientID,
		"type", n.Type,
		"push", out.Push,
		"counter_push", out.CounterPush,
		"email", out.Email,
		"email_reason", out.EmailReason,
	)
	return n, out, nil
}

// MarkRead flips the read flag of a notification owned by recipientID. It
// returns false, without error, when the notification is missing, foreign or
// already read.
func (s *NotificationService) MarkRead(ctx context.Context, id, recipientID string) (bool, error) {
	flipped, err := s.notifications.MarkRead(ctx, id, recipientID)
	if err != nil {
		return false, fmt.Errorf("mark notification read: %w", err)
	}
	if !flipped {
		return false, nil
	}
	status, count := s.pushUnreadCount(ctx, recipientID, model.ChangeDecrement)
	s.logger.Debugw("notification read", "notification_id", id, "recipient_id", recipientID, "unread_count", count, "counter_push", status)
	return true, nil
}

// List returns the recipient's notifications newest first with actor and
// post data, plus the current unread count.
func (s *NotificationService) List(ctx context.Context, recipientID string, limit int64, before time.Time) (*NotificationList, error) {
	ns, err := s.notifications.ListByRecipient(ctx, recipientID, limit, before)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	count, err := s.notifications.CountUnread(ctx, recipientID)
	if err != nil {
		return nil, fmt.Errorf("count unread: %w", err)
	}
	batch, err := s.loader.LoadFor(ctx, ns)
	if err != nil {
		return nil, fmt.Errorf("load notification context: %w", err)
	}

	views := make([]model.NotificationView, 0, len(ns))
	for _, n := range ns {
		views = append(views, s.view(n, batch))
	}
	return &NotificationList{UnreadCount: count, Notifications: views}, nil
}

// Navigation resolves the client route of a notification owned by
// recipientID. Foreign notifications are reported as apperr.ErrNotFound.
func (s *NotificationService) Navigation(ctx context.Context, id, recipientID string) (*NavigationResult, error) {
	n, err := s.notifications.GetForRecipient(ctx, id, recipientID)
	if err != nil {
		return nil, err
	}
	batch, err := s.loader.LoadFor(ctx, []*model.Notification{n})
	if err != nil {
		s.logger.Warnw("load navigation context", "notification_id", id, "error", err)
	}
	return &NavigationResult{Notification: s.view(n, batch), Navigation: ResolveNavigation(n)}, nil
}

// pushUnreadCount recomputes the counter from the store. A failed count is
// logged and nothing is pushed.
func (s *NotificationService) pushUnreadCount(ctx context.Context, recipientID, change string) (hub.Status, int64) {
	count, err := s.notifications.CountUnread(ctx, recipientID)
	if err != nil {
		s.logger.Warnw("count unread for push", "recipient_id", recipientID, "error", err)
		return "", 0
	}
	frame := model.UnreadCountFrame{Type: model.FrameUnreadCount, Count: count, Change: change}
	return s.registry.Deliver(recipientID, frame), count
}

func (s *NotificationService) requestEmail(ctx context.Context, n *model.Notification) (EmailStatus, string) {
	if s.email == nil {
		return EmailSkipped, "email disabled"
	}
	batch, err := s.loader.LoadFor(ctx, []*model.Notification{n}, n.RecipientID)
	if err != nil {
		s.logger.Warnw("load email context", "notification_id", n.ID, "error", err)
		return EmailFailed, "context lookup failed"
	}
	recipient := batch.User(n.RecipientID)
	switch {
	case recipient == nil:
		return EmailSkipped, "recipient not found"
	case recipient.Email == "":
		return EmailSkipped, "recipient has no email"
	case !recipient.Preferences.ShouldSendEmail(n.Type):
		return EmailSkipped, "disabled by preferences"
	}

	msg := model.EmailContext{
		NotificationID: n.ID,
		Type:           n.Type,
		ToEmail:        recipient.Email,
		RecipientName:  recipient.FullName,
		Message:        n.Message,
		Link:           s.opts.FrontendURL + ResolveNavigation(n).URL,
	}
	if actor := batch.User(n.ActorID); actor != nil {
		msg.ActorName = actor.FullName
	}
	if post := batch.Post(n.PostID); post != nil {
		msg.PostPreview = Preview(post.Content, s.opts.PreviewLength)
	}
	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Warnw("email request failed", "notification_id", n.ID, "recipient_id", n.RecipientID, "error", err)
		return EmailFailed, err.Error()
	}
	return EmailQueued, ""
}

func (s *NotificationService) view(n *model.Notification, batch *Batch) model.NotificationView {
	return model.NotificationView{
		ID:          n.ID,
		Type:        n.Type,
		Message:     n.Message,
		IsRead:      n.IsRead,
		CreatedAt:   utils.FormatTimestamp(n.CreatedAt),
		Actor:       actorView(batch.User(n.ActorID)),
		Post:        postView(batch.Post(n.PostID), s.opts.PreviewLength),
		ReferenceID: n.ReferenceID(),
	}
}

func notificationFrame(n *model.Notification) model.NotificationFrame {
	return model.NotificationFrame{
		Type: model.FrameNotification,
		Data: model.NotificationFrameData{
			ID:          n.ID,
			Type:        string(n.Type),
			Message:     n.Message,
			IsRead:      n.IsRead,
			CreatedAt:   utils.FormatTimestamp(n.CreatedAt),
			ActorID:     model.Nullable(n.ActorID),
			ReferenceID: n.ReferenceID(),
		},
	}
}

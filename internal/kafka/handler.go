package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/fathima-sithara/notification-service/internal/apperr"
	"github.com/fathima-sithara/notification-service/internal/model"
	"github.com/fathima-sithara/notification-service/internal/service"
)

// Creator is the notification creation pipeline.
type Creator interface {
	Create(ctx context.Context, req model.CreateNotificationRequest) (*model.Notification, service.DeliveryOutcome, error)
}

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Handler turns notification events published by other services into
// notifications. Events that cannot be created are written to the DLQ.
type Handler struct {
	creator    Creator
	dlq        MessageWriter
	maxRetries int
	backoff    time.Duration
	logger     *zap.SugaredLogger
}

func NewHandler(creator Creator, dlq MessageWriter, maxRetries, backoffMs int, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		creator:    creator,
		dlq:        dlq,
		maxRetries: maxRetries,
		backoff:    time.Duration(backoffMs) * time.Millisecond,
		logger:     logger,
	}
}

// HandleEvent creates one notification from raw. Malformed and invalid
// events go to the DLQ at once; persistence failures are retried with
// exponential backoff first.
func (h *Handler) HandleEvent(ctx context.Context, raw []byte) error {
	var req model.CreateNotificationRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		h.logger.Errorf("invalid event: %v", err)
		return h.deadLetter(ctx, raw, fmt.Errorf("%w: %v", apperr.ErrValidation, err))
	}

	op := func() error {
		_, _, err := h.creator.Create(ctx, req)
		if errors.Is(err, apperr.ErrValidation) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		h.logger.Warnf("create notification failed, retrying in %v: %v", wait, err)
	}

	err := backoff.RetryNotify(op, backoff.WithContext(h.policy(), ctx), notify)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	h.logger.Errorf("pushing to DLQ recipient=%s type=%s: %v", req.RecipientID, req.Type, err)
	return h.deadLetter(ctx, raw, err)
}

func (h *Handler) policy() backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	if h.backoff > 0 {
		exp.InitialInterval = h.backoff
	}
	exp.MaxElapsedTime = 0
	return backoff.WithMaxRetries(exp, uint64(h.maxRetries))
}

func (h *Handler) deadLetter(ctx context.Context, raw []byte, cause error) error {
	if h.dlq == nil {
		return cause
	}
	msg := kafka.Message{
		Value: raw,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "error", Value: []byte(cause.Error())},
		},
	}
	if err := h.dlq.WriteMessages(ctx, msg); err != nil {
		h.logger.Errorf("dlq push failed: %v", err)
		return fmt.Errorf("dlq push failed: %w", errors.Join(cause, err))
	}
	return cause
}

package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fathima-sithara/notification-service/internal/apperr"
	"github.com/fathima-sithara/notification-service/internal/model"
	"github.com/fathima-sithara/notification-service/internal/service"
)

type stubCreator struct {
	mu    sync.Mutex
	calls int
	errs  []error
	reqs  []model.CreateNotificationRequest
}

func (s *stubCreator) Create(_ context.Context, req model.CreateNotificationRequest) (*model.Notification, service.DeliveryOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.reqs = append(s.reqs, req)
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return nil, service.DeliveryOutcome{}, err
		}
	}
	return &model.Notification{ID: "n1"}, service.DeliveryOutcome{}, nil
}

type stubWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *stubWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

const event = `{"recipient_id":"alice","actor_id":"bob","type":"post_comment","message":"hi","post_id":"p1"}`

func TestHandleEventCreates(t *testing.T) {
	c := &stubCreator{}
	w := &stubWriter{}
	h := NewHandler(c, w, 3, 1, zap.NewNop().Sugar())

	require.NoError(t, h.HandleEvent(context.Background(), []byte(event)))
	require.Len(t, c.reqs, 1)
	assert.Equal(t, "alice", c.reqs[0].RecipientID)
	assert.Equal(t, model.TypePostComment, c.reqs[0].Type)
	assert.Empty(t, w.msgs)
}

func TestHandleEventRetriesTransientFailures(t *testing.T) {
	c := &stubCreator{errs: []error{errors.New("db down"), errors.New("db down")}}
	w := &stubWriter{}
	h := NewHandler(c, w, 3, 1, zap.NewNop().Sugar())

	require.NoError(t, h.HandleEvent(context.Background(), []byte(event)))
	assert.Equal(t, 3, c.calls)
	assert.Empty(t, w.msgs)
}

func TestHandleEventDeadLettersAfterRetries(t *testing.T) {
	boom := errors.New("db down")
	c := &stubCreator{errs: []error{boom, boom, boom, boom}}
	w := &stubWriter{}
	h := NewHandler(c, w, 2, 1, zap.NewNop().Sugar())

	err := h.HandleEvent(context.Background(), []byte(event))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, c.calls)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, event, string(w.msgs[0].Value))
	assert.Equal(t, "error", w.msgs[0].Headers[0].Key)
}

func TestHandleEventValidationGoesStraightToDLQ(t *testing.T) {
	invalid := fmt.Errorf("%w: recipient_id is required", apperr.ErrValidation)
	c := &stubCreator{errs: []error{invalid}}
	w := &stubWriter{}
	h := NewHandler(c, w, 5, 1, zap.NewNop().Sugar())

	err := h.HandleEvent(context.Background(), []byte(`{"type":"new_follower"}`))
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, 1, c.calls)
	assert.Len(t, w.msgs, 1)
}

func TestHandleEventMalformedJSON(t *testing.T) {
	c := &stubCreator{}
	w := &stubWriter{}
	h := NewHandler(c, w, 5, 1, zap.NewNop().Sugar())

	err := h.HandleEvent(context.Background(), []byte(`{not json`))
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Zero(t, c.calls)
	assert.Len(t, w.msgs, 1)
}

func TestHandleEventDLQFailure(t *testing.T) {
	boom := errors.New("db down")
	c := &stubCreator{errs: []error{boom, boom}}
	w := &stubWriter{err: errors.New("broker down")}
	h := NewHandler(c, w, 1, 1, zap.NewNop().Sugar())

	err := h.HandleEvent(context.Background(), []byte(event))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "dlq push failed")
}

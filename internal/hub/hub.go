package hub

import (
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/fathima-sithara/notification-service/internal/metrics"
)

// ErrChannelClosed is returned by a Channel that can no longer accept payloads.
var ErrChannelClosed = errors.New("channel closed")

// Channel is one live client connection. Send must not block.
type Channel interface {
	Send(payload []byte) error
	Close() error
}

type Status string

const (
	StatusSent    Status = "sent"
	StatusQueued  Status = "queued"
	StatusDropped Status = "dropped"
)

// Hub maps each user to at most one live channel and keeps an ordered queue
// of payloads for users that are offline.
type Hub struct {
	mu      sync.Mutex
	clients map[string]Channel
	pending map[string][][]byte

	logger  *zap.SugaredLogger
	metrics *metrics.Metrics
}

func New(logger *zap.SugaredLogger, m *metrics.Metrics) *Hub {
	return &Hub{
		clients: make(map[string]Channel),
		pending: make(map[string][][]byte),
		logger:  logger,
		metrics: m,
	}
}

// Connect makes ch the user's live channel and flushes anything queued for
// the user, oldest first. Payloads the channel cannot take yet stay queued
// until Flush. A previous channel of the same user is closed.
func (h *Hub) Connect(userID string, ch Channel) {
	h.mu.Lock()
	prev, replaced := h.clients[userID]
	h.clients[userID] = ch
	queued := len(h.pending[userID])
	flushed := h.flushLocked(userID, ch)
	h.mu.Unlock()

	h.metrics.Flushed(flushed)
	if !replaced {
		h.metrics.ConnectionOpened()
	}
	if queued > 0 {
		h.logger.Infow("flushed pending notifications", "user_id", userID, "queued", queued, "sent", flushed)
	}
	if replaced && prev != ch {
		h.logger.Infow("replacing live connection", "user_id", userID)
		_ = prev.Close()
	}
}

// Flush resumes a backlog that did not fit into ch. It is a no-op unless ch
// is the user's live channel.
func (h *Hub) Flush(userID string, ch Channel) int {
	h.mu.Lock()
	flushed := 0
	if cur, ok := h.clients[userID]; ok && cur == ch {
		flushed = h.flushLocked(userID, ch)
	}
	h.mu.Unlock()

	h.metrics.Flushed(flushed)
	return flushed
}

// flushLocked sends queued payloads oldest first and stops at the first one
// the channel refuses. That payload and the rest remain queued in order.
func (h *Hub) flushLocked(userID string, ch Channel) int {
	queued := h.pending[userID]
	n := 0
	for n < len(queued) {
		if err := ch.Send(queued[n]); err != nil {
			h.logger.Debugw("flush paused", "user_id", userID, "remaining", len(queued)-n, "error", err)
			break
		}
		n++
	}
	if n == len(queued) {
		delete(h.pending, userID)
	} else if n > 0 {
		h.pending[userID] = append([][]byte(nil), queued[n:]...)
	}
	return n
}

// Disconnect removes the user's entry only while ch is still the registered
// channel, so a stale connection cannot evict its replacement.
func (h *Hub) Disconnect(userID string, ch Channel) bool {
	h.mu.Lock()
	cur, ok := h.clients[userID]
	removed := ok && cur == ch
	if removed {
		delete(h.clients, userID)
	}
	h.mu.Unlock()

	if removed {
		h.metrics.ConnectionClosed()
		h.logger.Debugw("connection removed", "user_id", userID)
	}
	return removed
}

// Deliver sends payload to the user's live channel. It queues the payload
// instead while an older backlog is pending or when no send succeeds. It
// never returns an error to the caller.
func (h *Hub) Deliver(userID string, payload any) Status {
	b, err := json.Marshal(payload)
	if err != nil {
		h.logger.Errorw("marshal notification payload", "user_id", userID, "error", err)
		h.metrics.Delivery(string(StatusDropped))
		return StatusDropped
	}

	h.mu.Lock()
	status := StatusQueued
	flushed := 0
	if ch, ok := h.clients[userID]; ok {
		// An older backlog goes first.
		if len(h.pending[userID]) > 0 {
			flushed = h.flushLocked(userID, ch)
		}
		if len(h.pending[userID]) == 0 {
			if err := ch.Send(b); err == nil {
				status = StatusSent
			} else {
				h.logger.Warnw("live send failed, queueing", "user_id", userID, "error", err)
			}
		}
	}
	if status == StatusQueued {
		h.pending[userID] = append(h.pending[userID], b)
	}
	h.mu.Unlock()

	h.metrics.Flushed(flushed)
	h.metrics.Delivery(string(status))
	return status
}

// Broadcast sends payload to every live channel except excludeUserID's.
// Offline users are skipped and failed sends are not queued. It returns the
// number of channels that accepted the payload.
func (h *Hub) Broadcast(payload any, excludeUserID string) int {
	b, err := json.Marshal(payload)
	if err != nil {
		h.logger.Errorw("marshal broadcast payload", "error", err)
		return 0
	}

	h.mu.Lock()
	sent, failed := 0, 0
	for userID, ch := range h.clients {
		if userID == excludeUserID {
			continue
		}
		if err := ch.Send(b); err != nil {
			h.logger.Warnw("broadcast send failed", "user_id", userID, "error", err)
			failed++
			continue
		}
		sent++
	}
	h.mu.Unlock()

	h.metrics.Broadcast(sent, failed)
	return sent
}

func (h *Hub) IsOnline(userID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.clients[userID]
	return ok
}

func (h *Hub) PendingCount(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pending[userID])
}

func (h *Hub) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Shutdown closes every live channel. Queued payloads are kept in memory
// only and are lost with the process.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	chans := make([]Channel, 0, len(h.clients))
	for id, ch := range h.clients {
		chans = append(chans, ch)
		delete(h.clients, id)
	}
	h.mu.Unlock()

	for _, ch := range chans {
		_ = ch.Close()
		h.metrics.ConnectionClosed()
	}
}

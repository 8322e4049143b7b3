package handler

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/fathima-sithara/notification-service/internal/apperr"
	"github.com/fathima-sithara/notification-service/internal/middleware"
	"github.com/fathima-sithara/notification-service/internal/model"
	"github.com/fathima-sithara/notification-service/internal/redis"
	"github.com/fathima-sithara/notification-service/internal/service"
	"github.com/fathima-sithara/notification-service/internal/utils"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// PresenceReader reads presence recorded by the websocket endpoint.
type PresenceReader interface {
	Get(ctx context.Context, userID string) (*redis.Presence, error)
}

// RegistryReader answers from the in-process registry.
type RegistryReader interface {
	IsOnline(userID string) bool
	ConnectionCount() int
}

type Handler struct {
	svc       *service.NotificationService
	feed      *service.FeedService
	presence  PresenceReader
	online    RegistryReader
	opTimeout time.Duration
	logger    *zap.SugaredLogger
}

// New builds the HTTP handlers. presence may be nil, in which case the
// registry answers presence queries.
func New(svc *service.NotificationService, feed *service.FeedService, presence PresenceReader, online RegistryReader, opTimeout time.Duration, logger *zap.SugaredLogger) *Handler {
	if opTimeout <= 0 {
		opTimeout = 5 * time.Second
	}
	return &Handler{svc: svc, feed: feed, presence: presence, online: online, opTimeout: opTimeout, logger: logger}
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "connections": h.online.ConnectionCount()})
}

func (h *Handler) ListNotifications(c *fiber.Ctx) error {
	limit := int64(defaultListLimit)
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "limit must be a positive integer"})
		}
		limit = min(n, maxListLimit)
	}
	var before time.Time
	if raw := c.Query("before"); raw != "" {
		t, err := utils.ParseCursor(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "before must be an RFC3339 timestamp"})
		}
		before = t
	}

	ctx, cancel := context.WithTimeout(c.Context(), h.opTimeout)
	defer cancel()
	list, err := h.svc.List(ctx, middleware.UserID(c), limit, before)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (h *Handler) MarkRead(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), h.opTimeout)
	defer cancel()
	ok, err := h.svc.MarkRead(ctx, c.Params("id"), middleware.UserID(c))
	if err != nil {
		return err
	}
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "notification not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) Navigation(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), h.opTimeout)
	defer cancel()
	res, err := h.svc.Navigation(ctx, c.Params("id"), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// CreateNotification records an action of the caller. The actor is always
// the authenticated user; services that act for others publish to Kafka.
func (h *Handler) CreateNotification(c *fiber.Ctx) error {
	var req model.CreateNotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	req.ActorID = middleware.UserID(c)
	ctx, cancel := context.WithTimeout(c.Context(), h.opTimeout)
	defer cancel()
	n, _, err := h.svc.Create(ctx, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(n)
}

// PublishPost fans a new post of the caller out to live clients and queues
// feed updates for the listed followers.
func (h *Handler) PublishPost(c *fiber.Ctx) error {
	var req model.PublishPostRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	out, err := h.feed.PublishPost(c.Context(), middleware.UserID(c), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(out)
}

func (h *Handler) Presence(c *fiber.Ctx) error {
	userID := c.Params("user_id")
	resp := fiber.Map{"user_id": userID, "online": false}

	if h.presence != nil {
		ctx, cancel := context.WithTimeout(c.Context(), h.opTimeout)
		defer cancel()
		p, err := h.presence.Get(ctx, userID)
		if err == nil {
			if p != nil {
				resp["online"] = p.Status == redis.StatusOnline
				resp["last_seen"] = p.LastSeen
			}
			return c.JSON(resp)
		}
		h.logger.Warnw("presence lookup failed, using registry", "user_id", userID, "error", err)
	}
	resp["online"] = h.online.IsOnline(userID)
	return c.JSON(resp)
}

// ErrorHandler renders errors returned by handlers as {"error": ...}.
func ErrorHandler(logger *zap.SugaredLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		switch {
		case errors.As(err, &fe):
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		case errors.Is(err, apperr.ErrValidation):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   apperr.ErrValidation.Error(),
				"details": utils.FormatValidationErrors(err),
			})
		case errors.Is(err, apperr.ErrUnauthorized), errors.Is(err, apperr.ErrInactiveUser):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		case errors.Is(err, apperr.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "notification not found"})
		}
		logger.Errorw("request failed", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": apperr.ErrInternal.Error()})
	}
}

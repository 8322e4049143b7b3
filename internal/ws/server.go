package ws

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/fathima-sithara/notification-service/internal/apperr"
	"github.com/fathima-sithara/notification-service/internal/auth"
	"github.com/fathima-sithara/notification-service/internal/hub"
	"github.com/fathima-sithara/notification-service/internal/repository"
)

var errSendBufferFull = errors.New("send buffer full")

// Presence records online/offline state outside the process.
type Presence interface {
	SetOnline(ctx context.Context, userID string) error
	SetOffline(ctx context.Context, userID string) error
}

type Config struct {
	PingInterval   time.Duration
	WriteDeadline  time.Duration
	MaxMessageSize int64
	SendBufferSize int
	Heartbeat      string
	// IdleTimeout closes connections with no inbound frame for this long.
	// Zero disables it.
	IdleTimeout time.Duration
}

type Server struct {
	hub       *hub.Hub
	users     repository.UserRepository
	validator auth.TokenValidator
	presence  Presence
	cfg       Config
	logger    *zap.SugaredLogger
}

// NewServer builds the websocket endpoint. presence may be nil.
func NewServer(h *hub.Hub, users repository.UserRepository, v auth.TokenValidator, presence Presence, cfg Config, logger *zap.SugaredLogger) *Server {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.WriteDeadline <= 0 {
		cfg.WriteDeadline = 10 * time.Second
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 65536
	}
	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = 256
	}
	if cfg.Heartbeat == "" {
		cfg.Heartbeat = "ping"
	}
	return &Server{hub: h, users: users, validator: v, presence: presence, cfg: cfg, logger: logger}
}

// Upgrade lets only websocket upgrade requests through to Handler.
func Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Handler serves /ws/notifications?token=<jwt>.
func (s *Server) Handler() fiber.Handler {
	return websocket.New(s.serve)
}

func (s *Server) serve(c *websocket.Conn) {
	userID, err := s.authenticate(c.Query("token"))
	if err != nil {
		s.logger.Infof("rejecting notification socket: %v", err)
		_ = c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unauthorized"),
			time.Now().Add(s.cfg.WriteDeadline))
		_ = c.Close()
		return
	}

	conn := newConnection(c, userID, s.cfg.SendBufferSize, s.cfg.PingInterval, s.cfg.WriteDeadline, s.logger)
	// A backlog larger than the send buffer is handed over as the writer catches up.
	conn.onDrain = func() { s.hub.Flush(userID, conn) }
	go conn.writePump()

	s.hub.Connect(userID, conn)
	s.setPresence(userID, true)
	s.logger.Infof("notification socket connected user=%s", userID)

	s.readLoop(c, conn)

	current := s.hub.Disconnect(userID, conn)
	_ = conn.Close()
	<-conn.done
	if current {
		s.setPresence(userID, false)
	}
	s.logger.Infof("notification socket closed user=%s", userID)
}

func (s *Server) authenticate(token string) (string, error) {
	if token == "" {
		return "", apperr.ErrUnauthorized
	}
	userID, err := s.validator.Validate(token)
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if !user.IsActive {
		return "", apperr.ErrInactiveUser
	}
	return userID, nil
}

// readLoop runs until the peer goes away. The heartbeat is answered with
// "pong"; anything else is logged and ignored.
func (s *Server) readLoop(c *websocket.Conn, conn *Connection) {
	c.SetReadLimit(s.cfg.MaxMessageSize)
	s.extendDeadline(c)
	c.SetPongHandler(func(string) error {
		s.extendDeadline(c)
		return nil
	})

	for {
		mt, msg, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				s.logger.Warnf("read error user=%s: %v", conn.userID, err)
			}
			return
		}
		s.extendDeadline(c)
		if mt == websocket.TextMessage && string(msg) == s.cfg.Heartbeat {
			if err := conn.Send([]byte("pong")); err != nil {
				s.logger.Warnf("pong dropped user=%s: %v", conn.userID, err)
			}
			s.setPresence(conn.userID, true)
			continue
		}
		s.logger.Debugf("ignoring inbound frame user=%s type=%d size=%d", conn.userID, mt, len(msg))
	}
}

func (s *Server) extendDeadline(c *websocket.Conn) {
	if s.cfg.IdleTimeout > 0 {
		_ = c.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout))
	}
}

func (s *Server) setPresence(userID string, online bool) {
	if s.presence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var err error
	if online {
		err = s.presence.SetOnline(ctx, userID)
	} else {
		err = s.presence.SetOffline(ctx, userID)
	}
	if err != nil {
		s.logger.Warnf("presence update failed user=%s: %v", userID, err)
	}
}

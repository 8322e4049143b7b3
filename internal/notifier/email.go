package notifier

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/fathima-sithara/notification-service/internal/model"
)

const DefaultBrevoURL = "https://api.brevo.com/v3/smtp/email"

//go:embed templates/*.html
var templateFS embed.FS

var subjects = map[model.NotificationType]string{
	model.TypeNewFollower:        "You have a new follower",
	model.TypePostComment:        "New comment on your post",
	model.TypePostReaction:       "Someone reacted to your post",
	model.TypePostTag:            "You were tagged in a post",
	model.TypeBookmark:           "Someone bookmarked your post",
	model.TypeJobApplication:     "New application for your job post",
	model.TypeNewMessage:         "You have a new message",
	model.TypePostRepost:         "Your post was reposted",
	model.TypeConnectionRequest:  "New connection request",
	model.TypeConnectionAccepted: "Your connection request was accepted",
}

// Subject returns the email subject for a notification type.
func Subject(t model.NotificationType) string {
	if s, ok := subjects[t]; ok {
		return s
	}
	return "You have a new notification"
}

type EmailConfig struct {
	APIURL      string
	APIKey      string
	SenderEmail string
	SenderName  string
	Timeout     time.Duration
	// MaxFailures consecutive failures open the breaker for OpenTimeout.
	MaxFailures uint32
	OpenTimeout time.Duration
}

// EmailNotifier sends transactional emails via Brevo (Sendinblue) HTTP API v3.
type EmailNotifier struct {
	cfg    EmailConfig
	client *http.Client
	tpl    *template.Template
	cb     *gobreaker.CircuitBreaker
	logger *zap.SugaredLogger
}

func NewEmailNotifier(cfg EmailConfig, logger *zap.SugaredLogger) (*EmailNotifier, error) {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultBrevoURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	tpl, err := template.ParseFS(templateFS, "templates/notification.html")
	if err != nil {
		return nil, fmt.Errorf("parse email template: %w", err)
	}

	st := gobreaker.Settings{
		Name:        "brevo",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Infow("circuit breaker state", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return &EmailNotifier{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		tpl:    tpl,
		cb:     gobreaker.NewCircuitBreaker(st),
		logger: logger,
	}, nil
}

// Deliver renders msg and posts it to the provider. Calls fail fast with
// gobreaker.ErrOpenState while the breaker is open.
func (e *EmailNotifier) Deliver(ctx context.Context, msg model.EmailContext) error {
	var html bytes.Buffer
	if err := e.tpl.Execute(&html, msg); err != nil {
		return err
	}
	payload := map[string]any{
		"sender":      map[string]string{"name": e.cfg.SenderName, "email": e.cfg.SenderEmail},
		"to":          []map[string]string{{"email": msg.ToEmail, "name": msg.RecipientName}},
		"subject":     Subject(msg.Type),
		"htmlContent": html.String(),
	}
	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(payload); err != nil {
		return err
	}

	_, err := e.cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.APIURL, bytes.NewReader(body.Bytes()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("api-key", e.cfg.APIKey)

		resp, err := e.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("brevo send failed status=%d", resp.StatusCode)
		}
		return nil, nil
	})
	if err != nil {
		return err
	}
	e.logger.Infof("email sent to %s type=%s notification=%s", msg.ToEmail, msg.Type, msg.NotificationID)
	return nil
}

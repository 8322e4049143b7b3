package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fathima-sithara/notification-service/internal/auth"
	"github.com/fathima-sithara/notification-service/internal/handler"
	"github.com/fathima-sithara/notification-service/internal/metrics"
	"github.com/fathima-sithara/notification-service/internal/middleware"
	"github.com/fathima-sithara/notification-service/internal/ws"
)

type Deps struct {
	Handler   *handler.Handler
	WS        *ws.Server
	Validator auth.TokenValidator
	Limiter   *middleware.IPRateLimiter
	// Metrics is nil when metrics are disabled.
	Metrics *metrics.Metrics
}

func Register(app *fiber.App, d Deps) {
	app.Get("/health", d.Handler.Health)
	if d.Metrics != nil {
		app.Get("/metrics", d.Metrics.Handler())
	}

	app.Get("/ws/notifications", ws.Upgrade, d.WS.Handler())

	api := app.Group("/api/v1")
	if d.Limiter != nil {
		api.Use(d.Limiter.Handler())
	}
	api.Use(middleware.JWTAuth(d.Validator))

	n := api.Group("/notifications")
	n.Get("/", d.Handler.ListNotifications)
	n.Post("/", d.Handler.CreateNotification)
	n.Put("/:id/read", d.Handler.MarkRead)
	n.Get("/:id/navigation", d.Handler.Navigation)

	api.Post("/feed/posts", d.Handler.PublishPost)
	api.Get("/presence/:user_id", d.Handler.Presence)
}

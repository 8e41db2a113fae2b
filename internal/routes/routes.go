package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/pixora/credits-backend/internal/config"
	"github.com/pixora/credits-backend/internal/handlers"
	"github.com/pixora/credits-backend/internal/middleware"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	userHandler *handlers.UserHandler,
	creditHandler *handlers.CreditHandler,
	webhookHandler *handlers.WebhookHandler,
	planHandler *handlers.PlanHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	// Public
	api.Get("/health", healthHandler.Check)
	api.Get("/plans", planHandler.List)

	// Session-scoped (frontend gateway JWT)
	me := api.Group("/me", middleware.SessionProtected(cfg))
	me.Get("/", userHandler.Me)
	me.Get("/credits", creditHandler.Balance)
	me.Post("/credits/consume", creditHandler.Consume)
	me.Get("/transactions", creditHandler.History)

	// Admin (X-Admin-Token)
	admin := api.Group("/admin", middleware.AdminRequired(cfg))
	admin.Post("/users", userHandler.Create)
	admin.Put("/users/:external_id", userHandler.Update)
	admin.Delete("/users/:external_id", userHandler.Delete)
	admin.Post("/users/:external_id/credits", creditHandler.AdminAdjust)

	// Webhooks: static bearer auth inside the handlers, no JWT
	webhooks := api.Group("/webhooks")
	webhooks.Post("/identity", webhookHandler.HandleIdentity)
	webhooks.Post("/payments", webhookHandler.HandlePayment)
}

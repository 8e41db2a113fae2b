package handlers

import (
	"crypto/subtle"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pixora/credits-backend/internal/config"
	"github.com/pixora/credits-backend/internal/dto"
	"github.com/pixora/credits-backend/internal/plans"
	"github.com/pixora/credits-backend/internal/services"
)

type WebhookHandler struct {
	cfg                *config.Config
	userService        *services.UserService
	transactionService *services.TransactionService
	catalog            *plans.Catalog
}

func NewWebhookHandler(
	cfg *config.Config,
	userService *services.UserService,
	transactionService *services.TransactionService,
	catalog *plans.Catalog,
) *WebhookHandler {
	return &WebhookHandler{
		cfg:                cfg,
		userService:        userService,
		transactionService: transactionService,
		catalog:            catalog,
	}
}

// HandleIdentity processes user lifecycle events from the identity
// provider.
func (h *WebhookHandler) HandleIdentity(c *fiber.Ctx) error {
	if !authorize(c, h.cfg.IdentityWebhookToken) {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var webhook dto.IdentityWebhook
	if err := c.BodyParser(&webhook); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid webhook payload",
		})
	}

	data := webhook.Data
	email := ""
	if len(data.EmailAddresses) > 0 {
		email = data.EmailAddresses[0].EmailAddress
	}

	switch webhook.Type {
	case "user.created":
		_, err := h.userService.Create(&dto.CreateUserRequest{
			ExternalID: data.ID,
			Email:      email,
			Username:   data.Username,
			Photo:      data.ImageURL,
			FirstName:  data.FirstName,
			LastName:   data.LastName,
		})
		// The lazy-provisioning path may have beaten this event; that is
		// the expected convergence, not a failure.
		if err != nil && !errors.Is(err, services.ErrUserExists) {
			slog.Error("identity webhook create failed", "external_id", data.ID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Failed to process event",
			})
		}
	case "user.updated":
		_, err := h.userService.UpdateProfile(data.ID, &dto.UpdateProfileRequest{
			Email:     &email,
			Username:  &data.Username,
			Photo:     &data.ImageURL,
			FirstName: &data.FirstName,
			LastName:  &data.LastName,
		})
		if err != nil && !errors.Is(err, services.ErrUserNotFound) {
			slog.Error("identity webhook update failed", "external_id", data.ID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Failed to process event",
			})
		}
	case "user.deleted":
		_, err := h.userService.Delete(data.ID)
		if err != nil && !errors.Is(err, services.ErrUserNotFound) {
			slog.Error("identity webhook delete failed", "external_id", data.ID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Failed to process event",
			})
		}
	}

	slog.Info("identity webhook processed", "event_type", webhook.Type, "external_id", data.ID)
	return c.JSON(fiber.Map{"received": true})
}

// HandlePayment records a finalized checkout. Replays return 200 with
// outcome already_recorded so the provider stops redelivering.
func (h *WebhookHandler) HandlePayment(c *fiber.Ctx) error {
	if !authorize(c, h.cfg.PaymentWebhookToken) {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var webhook dto.PaymentWebhook
	if err := c.BodyParser(&webhook); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid webhook payload",
		})
	}

	if webhook.Type != "checkout.completed" {
		return c.JSON(fiber.Map{"received": true, "outcome": "ignored"})
	}

	event := webhook.Event
	if event.PaymentID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Missing payment id",
		})
	}

	buyerID, err := uuid.Parse(event.BuyerID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid buyer id",
		})
	}

	if plan, ok := h.catalog.Get(event.Plan); !ok {
		slog.Warn("payment for unknown plan", "payment_id", event.PaymentID, "plan", event.Plan)
	} else if plan.Credits != event.CreditsGranted {
		slog.Warn("payment credits mismatch catalog",
			"payment_id", event.PaymentID, "plan", event.Plan,
			"event_credits", event.CreditsGranted, "catalog_credits", plan.Credits)
	}

	outcome, _, err := h.transactionService.RecordPurchase(&services.PurchaseInput{
		PaymentID:      event.PaymentID,
		BuyerID:        buyerID,
		AmountPaid:     event.AmountPaid,
		Plan:           event.Plan,
		CreditsGranted: event.CreditsGranted,
		RawEvent:       c.Body(),
	})
	if err != nil {
		slog.Error("payment webhook processing failed", "payment_id", event.PaymentID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to process webhook event",
		})
	}

	slog.Info("payment webhook processed", "payment_id", event.PaymentID, "outcome", outcome)
	return c.JSON(fiber.Map{"received": true, "outcome": outcome})
}

func authorize(c *fiber.Ctx, expected string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.Get("Authorization")), []byte(expected)) == 1
}

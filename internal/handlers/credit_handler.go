package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/pixora/credits-backend/internal/dto"
	"github.com/pixora/credits-backend/internal/middleware"
	"github.com/pixora/credits-backend/internal/models"
	"github.com/pixora/credits-backend/internal/services"
)

type CreditHandler struct {
	userService        *services.UserService
	creditService      *services.CreditService
	transactionService *services.TransactionService
}

func NewCreditHandler(
	userService *services.UserService,
	creditService *services.CreditService,
	transactionService *services.TransactionService,
) *CreditHandler {
	return &CreditHandler{
		userService:        userService,
		creditService:      creditService,
		transactionService: transactionService,
	}
}

func (h *CreditHandler) Balance(c *fiber.Ctx) error {
	user, ok := h.sessionUser(c)
	if !ok {
		return nil
	}
	return c.JSON(dto.BalanceResponse{CreditBalance: user.CreditBalance})
}

// Consume debits the session user's balance for a paid operation.
func (h *CreditHandler) Consume(c *fiber.Ctx) error {
	user, ok := h.sessionUser(c)
	if !ok {
		return nil
	}

	var req dto.ConsumeRequest
	if err := c.BodyParser(&req); err != nil || req.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid consume amount",
		})
	}

	updated, err := h.creditService.Debit(user.ID, req.Amount)
	if err != nil {
		if errors.Is(err, services.ErrInsufficientCredit) {
			return c.Status(fiber.StatusPaymentRequired).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	return c.JSON(dto.BalanceResponse{CreditBalance: updated.CreditBalance})
}

// History returns the session user's purchase log, newest first.
func (h *CreditHandler) History(c *fiber.Ctx) error {
	user, ok := h.sessionUser(c)
	if !ok {
		return nil
	}

	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	txns, total, err := h.transactionService.ListByBuyer(user.ID, limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	return c.JSON(fiber.Map{"transactions": txns, "total": total})
}

// AdminAdjust applies a manual grant or correction to any user's balance.
func (h *CreditHandler) AdminAdjust(c *fiber.Ctx) error {
	externalID := c.Params("external_id")

	var req dto.AdjustRequest
	if err := c.BodyParser(&req); err != nil || req.Delta == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid adjustment delta",
		})
	}

	user, err := h.userService.GetByExternalID(externalID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	updated, err := h.creditService.Adjust(user.ID, req.Delta)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	return c.JSON(updated)
}

// sessionUser resolves the authenticated user. On failure it writes the
// error response and returns false.
func (h *CreditHandler) sessionUser(c *fiber.Ctx) (*models.User, bool) {
	externalID, err := middleware.ExternalID(c)
	if err != nil {
		c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
		return nil, false
	}

	user, err := h.userService.Resolve(c.Context(), externalID)
	if err != nil {
		c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to resolve user",
		})
		return nil, false
	}
	return user, true
}

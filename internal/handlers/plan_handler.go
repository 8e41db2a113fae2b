package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pixora/credits-backend/internal/plans"
)

type PlanHandler struct {
	catalog *plans.Catalog
}

func NewPlanHandler(catalog *plans.Catalog) *PlanHandler {
	return &PlanHandler{catalog: catalog}
}

func (h *PlanHandler) List(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"plans": h.catalog.All()})
}

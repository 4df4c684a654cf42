package handlers

import (
	"github.com/akc-construction/crm/internal/http/dto"
	"github.com/akc-construction/crm/internal/middleware"
	"github.com/akc-construction/crm/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type EstimateHandler struct {
	estimateService *services.EstimateService
	log             *zap.Logger
}

func NewEstimateHandler(estimateService *services.EstimateService, log *zap.Logger) *EstimateHandler {
	return &EstimateHandler{estimateService: estimateService, log: log}
}

// CreateEstimate adds the next estimate version to the project in the path.
func (h *EstimateHandler) CreateEstimate(c *fiber.Ctx) error {
	var req dto.EstimateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	est, err := h.estimateService.Create(c.Context(), middleware.GetActorEmail(c), c.Params("id"), req.Amount)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: est})
}

func (h *EstimateHandler) ListEstimates(c *fiber.Ctx) error {
	estimates, err := h.estimateService.ListByProject(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: estimates})
}

func (h *EstimateHandler) ChangeStatus(c *fiber.Ctx) error {
	var req dto.StatusChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	est, err := h.estimateService.ChangeStatus(c.Context(), middleware.GetActorEmail(c), c.Params("id"), req.Status)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: est})
}

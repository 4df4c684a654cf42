package handlers

import (
	"github.com/akc-construction/crm/internal/http/dto"
	"github.com/akc-construction/crm/internal/repositories"
	"github.com/akc-construction/crm/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ActivityHandler struct {
	recorder *services.ActivityRecorder
	log      *zap.Logger
}

func NewActivityHandler(recorder *services.ActivityRecorder, log *zap.Logger) *ActivityHandler {
	return &ActivityHandler{recorder: recorder, log: log}
}

func (h *ActivityHandler) ListActivity(c *fiber.Ctx) error {
	filter := repositories.ActivityFilter{
		ModuleType:  c.Query("module"),
		ReferenceID: c.Query("reference_id"),
		ActorEmail:  c.Query("actor"),
	}
	filter.Limit, filter.Offset = paging(c, 50)

	entries, err := h.recorder.List(c.Context(), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: entries})
}

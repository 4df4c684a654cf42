package handlers

import (
	"github.com/akc-construction/crm/internal/http/dto"
	"github.com/akc-construction/crm/internal/models"
	"github.com/akc-construction/crm/internal/rbac"
	"github.com/gofiber/fiber/v2"
)

type MetaHandler struct{}

func NewMetaHandler() *MetaHandler {
	return &MetaHandler{}
}

// GetStatuses exposes the transition registry and module gates so clients
// render the same choices the server enforces.
func (h *MetaHandler) GetStatuses(c *fiber.Ctx) error {
	transitions := make(map[string]map[string][]string, len(models.StatusTransitions))
	for entity, rows := range models.StatusTransitions {
		out := make(map[string][]string, len(rows))
		for from := range rows {
			out[from] = models.AllowedTransitions(entity, from)
		}
		transitions[entity] = out
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.StatusRegistryResponse{
		Transitions:  transitions,
		ModuleAccess: models.ModuleAccess,
	}})
}

type MetaRole struct {
	ID          string   `json:"id"`
	Permissions []string `json:"permissions"`
}

func (h *MetaHandler) GetRoles(c *fiber.Ctx) error {
	roles := make([]MetaRole, 0, len(rbac.Roles))
	for _, role := range rbac.Roles {
		roles = append(roles, MetaRole{ID: role, Permissions: rbac.Permissions(role)})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: roles})
}

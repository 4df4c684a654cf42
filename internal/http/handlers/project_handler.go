package handlers

import (
	"github.com/akc-construction/crm/internal/http/dto"
	"github.com/akc-construction/crm/internal/middleware"
	"github.com/akc-construction/crm/internal/reports"
	"github.com/akc-construction/crm/internal/repositories"
	"github.com/akc-construction/crm/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ProjectHandler struct {
	projectService *services.ProjectService
	log            *zap.Logger
}

func NewProjectHandler(projectService *services.ProjectService, log *zap.Logger) *ProjectHandler {
	return &ProjectHandler{projectService: projectService, log: log}
}

func projectInput(req dto.ProjectRequest) services.ProjectInput {
	return services.ProjectInput{
		Name:        req.Name,
		CustomerID:  req.CustomerID,
		Description: req.Description,
		Status:      req.Status,
		SiteAddress: req.SiteAddress,
		SiteCity:    req.SiteCity,
		SiteState:   req.SiteState,
		SiteZip:     req.SiteZip,
	}
}

func (h *ProjectHandler) CreateProject(c *fiber.Ctx) error {
	var req dto.ProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	project, err := h.projectService.Create(c.Context(), middleware.GetActorEmail(c), projectInput(req))
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: project})
}

func (h *ProjectHandler) GetProject(c *fiber.Ctx) error {
	project, err := h.projectService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: project})
}

func (h *ProjectHandler) UpdateProject(c *fiber.Ctx) error {
	var req dto.ProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	project, err := h.projectService.Update(c.Context(), middleware.GetActorEmail(c), c.Params("id"), projectInput(req))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: project})
}

func (h *ProjectHandler) ChangeStatus(c *fiber.Ctx) error {
	var req dto.StatusChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	project, err := h.projectService.ChangeStatus(c.Context(), middleware.GetActorEmail(c), c.Params("id"), req.Status)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: project})
}

// GetTransitions lists the statuses the UI may offer for the project.
func (h *ProjectHandler) GetTransitions(c *fiber.Ctx) error {
	project, err := h.projectService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	allowed, err := h.projectService.AllowedTransitions(c.Context(), project.ID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.TransitionsResponse{Current: project.Status, Allowed: allowed}})
}

func (h *ProjectHandler) ListProjects(c *fiber.Ctx) error {
	filter := repositories.ProjectFilter{
		Search:     c.Query("q"),
		Status:     c.Query("status"),
		CustomerID: c.Query("customer_id"),
		Sort:       c.Query("sort"),
	}
	filter.Limit, filter.Offset = paging(c, 50)

	projects, err := h.projectService.List(c.Context(), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: projects})
}

func (h *ProjectHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.projectService.Summary(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: summary})
}

// ExportReport streams the project's cost workbook.
func (h *ProjectHandler) ExportReport(c *fiber.Ctx) error {
	report, err := h.projectService.Report(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}

	f, err := reports.BuildProjectReport(*report)
	if err != nil {
		return respondError(c, h.log, err)
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return respondError(c, h.log, err)
	}

	c.Attachment(report.Project.ID + ".xlsx")
	c.Set(fiber.HeaderContentType, xlsxContentType)
	return c.Send(buf.Bytes())
}

package handlers

import (
	"github.com/akc-construction/crm/internal/http/dto"
	"github.com/akc-construction/crm/internal/middleware"
	"github.com/akc-construction/crm/internal/repositories"
	"github.com/akc-construction/crm/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type EmployeeHandler struct {
	employeeService *services.EmployeeService
	log             *zap.Logger
}

func NewEmployeeHandler(employeeService *services.EmployeeService, log *zap.Logger) *EmployeeHandler {
	return &EmployeeHandler{employeeService: employeeService, log: log}
}

func employeeInput(req dto.EmployeeRequest) services.EmployeeInput {
	return services.EmployeeInput{
		Name:         req.Name,
		Email:        req.Email,
		Position:     req.Position,
		Department:   req.Department,
		PaymentType:  req.PaymentType,
		HourlyRate:   req.HourlyRate,
		AnnualSalary: req.AnnualSalary,
		HoursPerWeek: req.HoursPerWeek,
		Notes:        req.Notes,
	}
}

func (h *EmployeeHandler) CreateEmployee(c *fiber.Ctx) error {
	var req dto.EmployeeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	employee, err := h.employeeService.Create(c.Context(), middleware.GetActorEmail(c), employeeInput(req))
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: employee})
}

func (h *EmployeeHandler) GetEmployee(c *fiber.Ctx) error {
	employee, err := h.employeeService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: employee})
}

func (h *EmployeeHandler) UpdateEmployee(c *fiber.Ctx) error {
	var req dto.EmployeeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	employee, err := h.employeeService.Update(c.Context(), middleware.GetActorEmail(c), c.Params("id"), employeeInput(req))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: employee})
}

func (h *EmployeeHandler) DeactivateEmployee(c *fiber.Ctx) error {
	employee, err := h.employeeService.Deactivate(c.Context(), middleware.GetActorEmail(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: employee})
}

func (h *EmployeeHandler) ListEmployees(c *fiber.Ctx) error {
	filter := repositories.EmployeeFilter{
		Search:      c.Query("q"),
		Department:  c.Query("department"),
		PaymentType: c.Query("payment_type"),
		Active:      queryActive(c),
	}
	filter.Limit, filter.Offset = paging(c, 50)

	employees, err := h.employeeService.List(c.Context(), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: employees})
}

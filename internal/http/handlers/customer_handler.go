package handlers

import (
	"github.com/akc-construction/crm/internal/http/dto"
	"github.com/akc-construction/crm/internal/middleware"
	"github.com/akc-construction/crm/internal/repositories"
	"github.com/akc-construction/crm/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type CustomerHandler struct {
	customerService *services.CustomerService
	log             *zap.Logger
}

func NewCustomerHandler(customerService *services.CustomerService, log *zap.Logger) *CustomerHandler {
	return &CustomerHandler{customerService: customerService, log: log}
}

func customerInput(req dto.CustomerRequest) services.CustomerInput {
	return services.CustomerInput{
		Name:         req.Name,
		Address:      req.Address,
		City:         req.City,
		State:        req.State,
		Zip:          req.Zip,
		ContactEmail: req.ContactEmail,
		Phone:        req.Phone,
		Status:       req.Status,
	}
}

func (h *CustomerHandler) CreateCustomer(c *fiber.Ctx) error {
	var req dto.CustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	customer, err := h.customerService.Create(c.Context(), middleware.GetActorEmail(c), customerInput(req))
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: customer})
}

func (h *CustomerHandler) GetCustomer(c *fiber.Ctx) error {
	customer, err := h.customerService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: customer})
}

func (h *CustomerHandler) UpdateCustomer(c *fiber.Ctx) error {
	var req dto.CustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	customer, err := h.customerService.Update(c.Context(), middleware.GetActorEmail(c), c.Params("id"), customerInput(req))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: customer})
}

func (h *CustomerHandler) ChangeStatus(c *fiber.Ctx) error {
	var req dto.StatusChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	customer, err := h.customerService.ChangeStatus(c.Context(), middleware.GetActorEmail(c), c.Params("id"), req.Status)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: customer})
}

func (h *CustomerHandler) ListCustomers(c *fiber.Ctx) error {
	filter := repositories.CustomerFilter{
		Search: c.Query("q"),
		Status: c.Query("status"),
		Sort:   c.Query("sort"),
	}
	filter.Limit, filter.Offset = paging(c, 50)

	customers, err := h.customerService.List(c.Context(), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: customers})
}

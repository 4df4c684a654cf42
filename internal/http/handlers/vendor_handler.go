package handlers

import (
	"github.com/akc-construction/crm/internal/http/dto"
	"github.com/akc-construction/crm/internal/middleware"
	"github.com/akc-construction/crm/internal/repositories"
	"github.com/akc-construction/crm/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type VendorHandler struct {
	vendorService *services.VendorService
	log           *zap.Logger
}

func NewVendorHandler(vendorService *services.VendorService, log *zap.Logger) *VendorHandler {
	return &VendorHandler{vendorService: vendorService, log: log}
}

func vendorInput(req dto.VendorRequest) services.VendorInput {
	return services.VendorInput{
		Name:        req.Name,
		VendorType:  req.VendorType,
		ContactName: req.ContactName,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		Notes:       req.Notes,
	}
}

func (h *VendorHandler) CreateVendor(c *fiber.Ctx) error {
	var req dto.VendorRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	vendor, err := h.vendorService.Create(c.Context(), middleware.GetActorEmail(c), vendorInput(req))
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: vendor})
}

func (h *VendorHandler) GetVendor(c *fiber.Ctx) error {
	vendor, err := h.vendorService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: vendor})
}

func (h *VendorHandler) UpdateVendor(c *fiber.Ctx) error {
	var req dto.VendorRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	vendor, err := h.vendorService.Update(c.Context(), middleware.GetActorEmail(c), c.Params("id"), vendorInput(req))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: vendor})
}

func (h *VendorHandler) DeactivateVendor(c *fiber.Ctx) error {
	vendor, err := h.vendorService.Deactivate(c.Context(), middleware.GetActorEmail(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: vendor})
}

func (h *VendorHandler) ListVendors(c *fiber.Ctx) error {
	filter := repositories.VendorFilter{
		Search: c.Query("q"),
		Type:   c.Query("type"),
		Active: queryActive(c),
	}
	filter.Limit, filter.Offset = paging(c, 50)

	vendors, err := h.vendorService.List(c.Context(), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: vendors})
}

func (h *VendorHandler) ListSubInvoices(c *fiber.Ctx) error {
	invoices, err := h.vendorService.SubInvoices(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: invoices})
}

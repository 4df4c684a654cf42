package handlers

import (
	"time"

	"github.com/akc-construction/crm/internal/http/dto"
	"github.com/akc-construction/crm/internal/middleware"
	"github.com/akc-construction/crm/internal/repositories"
	"github.com/akc-construction/crm/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type CostHandler struct {
	costService    *services.CostService
	maxUploadBytes int64
	urlTTL         time.Duration
	log            *zap.Logger
}

func NewCostHandler(costService *services.CostService, maxUploadBytes int64, urlTTL time.Duration, log *zap.Logger) *CostHandler {
	return &CostHandler{costService: costService, maxUploadBytes: maxUploadBytes, urlTTL: urlTTL, log: log}
}

// Time logs

func (h *CostHandler) CreateTimeLog(c *fiber.Ctx) error {
	var req dto.TimeLogRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	entryDate, err := parseDate(req.EntryDate)
	if err != nil {
		return badRequest(c, "invalid entry_date, expected YYYY-MM-DD")
	}

	tl, err := h.costService.CreateTimeLog(c.Context(), middleware.GetActorEmail(c), services.TimeLogInput{
		ProjectID:   req.ProjectID,
		EmployeeID:  req.EmployeeID,
		EntryDate:   entryDate,
		Hours:       req.Hours,
		HourlyRate:  req.HourlyRate,
		Description: req.Description,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: tl})
}

func (h *CostHandler) DeleteTimeLog(c *fiber.Ctx) error {
	if err := h.costService.DeleteTimeLog(c.Context(), middleware.GetActorEmail(c), c.Params("id")); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *CostHandler) ListTimeLogs(c *fiber.Ctx) error {
	filter := repositories.TimeLogFilter{
		ProjectID:  c.Query("project_id"),
		EmployeeID: c.Query("employee_id"),
	}
	var err error
	if filter.DateFrom, err = queryDate(c, "from"); err != nil {
		return badRequest(c, "invalid from date")
	}
	if filter.DateTo, err = queryDate(c, "to"); err != nil {
		return badRequest(c, "invalid to date")
	}
	filter.Limit, filter.Offset = paging(c, 100)

	logs, err := h.costService.ListTimeLogs(c.Context(), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: logs})
}

// Materials receipts

func (h *CostHandler) CreateReceipt(c *fiber.Ctx) error {
	var req dto.ReceiptRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	receiptDate, err := parseDate(req.ReceiptDate)
	if err != nil {
		return badRequest(c, "invalid receipt_date, expected YYYY-MM-DD")
	}

	m, err := h.costService.CreateReceipt(c.Context(), middleware.GetActorEmail(c), services.ReceiptInput{
		ProjectID:     req.ProjectID,
		ReceiptDate:   receiptDate,
		VendorName:    req.VendorName,
		InvoiceNumber: req.InvoiceNumber,
		Description:   req.Description,
		TotalAmount:   req.TotalAmount,
		TaxAmount:     req.TaxAmount,
		Notes:         req.Notes,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: m})
}

func (h *CostHandler) GetReceipt(c *fiber.Ctx) error {
	m, err := h.costService.GetReceipt(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: m})
}

func (h *CostHandler) ListReceipts(c *fiber.Ctx) error {
	filter := repositories.ReceiptFilter{
		ProjectID: c.Query("project_id"),
		Vendor:    c.Query("vendor"),
	}
	var err error
	if filter.DateFrom, err = queryDate(c, "from"); err != nil {
		return badRequest(c, "invalid from date")
	}
	if filter.DateTo, err = queryDate(c, "to"); err != nil {
		return badRequest(c, "invalid to date")
	}
	filter.Limit, filter.Offset = paging(c, 100)

	receipts, err := h.costService.ListReceipts(c.Context(), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: receipts})
}

// UploadAttachment accepts a multipart "file" field.
func (h *CostHandler) UploadAttachment(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file is required")
	}
	if h.maxUploadBytes > 0 && fh.Size > h.maxUploadBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(dto.ErrorResponse{Error: "file too large"})
	}

	file, err := fh.Open()
	if err != nil {
		return respondError(c, h.log, err)
	}
	defer file.Close()

	contentType := fh.Header.Get(fiber.HeaderContentType)
	if contentType == "" {
		contentType = fiber.MIMEOctetStream
	}

	m, err := h.costService.AttachFile(c.Context(), middleware.GetActorEmail(c), c.Params("id"), services.Attachment{
		FileName:    fh.Filename,
		ContentType: contentType,
		Size:        fh.Size,
		Body:        file,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: m})
}

func (h *CostHandler) GetAttachmentURL(c *fiber.Ctx) error {
	url, err := h.costService.AttachmentURL(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.AttachmentURLResponse{
		URL:              url,
		ExpiresInSeconds: int(h.urlTTL.Seconds()),
	}})
}

// Subcontractor invoices

func (h *CostHandler) CreateSubInvoice(c *fiber.Ctx) error {
	var req dto.SubInvoiceRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	si, err := h.costService.CreateSubInvoice(c.Context(), middleware.GetActorEmail(c), services.SubInvoiceInput{
		ProjectID:       req.ProjectID,
		SubcontractorID: req.SubcontractorID,
		InvoiceNumber:   req.InvoiceNumber,
		Amount:          req.Amount,
		Description:     req.Description,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: si})
}

func (h *CostHandler) ListSubInvoices(c *fiber.Ctx) error {
	invoices, err := h.costService.ListSubInvoices(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: invoices})
}

package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/akc-construction/crm/internal/metrics"
	"github.com/akc-construction/crm/internal/models"
	"github.com/akc-construction/crm/internal/repositories"
	"github.com/akc-construction/crm/internal/seqid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var minTimeLogHours = decimal.RequireFromString("0.25")

type TimeLogInput struct {
	ProjectID   string
	EmployeeID  string
	EntryDate   time.Time
	Hours       decimal.Decimal
	HourlyRate  *decimal.Decimal // nil charges the employee's hourly cost
	Description *string
}

type ReceiptInput struct {
	ProjectID     string
	ReceiptDate   time.Time
	VendorName    string
	InvoiceNumber *string
	Description   *string
	TotalAmount   decimal.Decimal
	TaxAmount     decimal.Decimal
	Notes         *string
}

type SubInvoiceInput struct {
	ProjectID       string
	SubcontractorID string
	InvoiceNumber   *string
	Amount          decimal.Decimal
	Description     *string
}

// Attachment is an uploaded file for a materials receipt.
type Attachment struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// CostService records labor, materials and subcontractor costs against a
// project. New records are only accepted while the project's status opens the
// matching module.
type CostService struct {
	tx          Transactor
	projects    ProjectStore
	employees   EmployeeStore
	vendors     VendorStore
	timeLogs    TimeLogStore
	receipts    ReceiptStore
	subInvoices SubInvoiceStore
	objects     ObjectStore // nil when attachments are disabled
	urlTTL      time.Duration
	recorder    *ActivityRecorder
	log         *zap.Logger
}

func NewCostService(
	tx Transactor,
	projects ProjectStore,
	employees EmployeeStore,
	vendors VendorStore,
	timeLogs TimeLogStore,
	receipts ReceiptStore,
	subInvoices SubInvoiceStore,
	objects ObjectStore,
	urlTTL time.Duration,
	recorder *ActivityRecorder,
	log *zap.Logger,
) *CostService {
	return &CostService{
		tx:          tx,
		projects:    projects,
		employees:   employees,
		vendors:     vendors,
		timeLogs:    timeLogs,
		receipts:    receipts,
		subInvoices: subInvoices,
		objects:     objects,
		urlTTL:      urlTTL,
		recorder:    recorder,
		log:         log,
	}
}

// openProject loads the project and checks module is accessible in its status.
func (s *CostService) openProject(ctx context.Context, projectID, module string) (*models.Project, error) {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !models.IsModuleAccessible(module, p.Status) {
		return nil, &ModuleClosedError{Module: module, ProjectStatus: p.Status}
	}
	return p, nil
}

// activeEmployee resolves a time log's employee_id.
func (s *CostService) activeEmployee(ctx context.Context, id string) (*models.Employee, error) {
	e, err := s.employees.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, invalid("employee_id", fmt.Sprintf("employee %q does not exist", id))
	}
	if err != nil {
		return nil, err
	}
	if !e.Active {
		return nil, invalid("employee_id", fmt.Sprintf("employee %q is inactive", id))
	}
	return e, nil
}

// activeSubcontractor resolves a sub invoice's subcontractor_id, which must
// name a vendor registered as a subcontractor.
func (s *CostService) activeSubcontractor(ctx context.Context, id string) (*models.Vendor, error) {
	v, err := s.vendors.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, invalid("subcontractor_id", fmt.Sprintf("subcontractor %q does not exist", id))
	}
	if err != nil {
		return nil, err
	}
	if v.VendorType != models.VendorTypeSubcontractor {
		return nil, invalid("subcontractor_id", fmt.Sprintf("vendor %q is not a subcontractor", id))
	}
	if !v.Active {
		return nil, invalid("subcontractor_id", fmt.Sprintf("subcontractor %q is inactive", id))
	}
	return v, nil
}

// --- Time logs ---

func (s *CostService) CreateTimeLog(ctx context.Context, actor string, in TimeLogInput) (*models.TimeLog, error) {
	in.ProjectID = strings.TrimSpace(in.ProjectID)
	in.EmployeeID = strings.TrimSpace(in.EmployeeID)
	switch {
	case in.ProjectID == "":
		return nil, invalid("project_id", "is required")
	case in.EmployeeID == "":
		return nil, invalid("employee_id", "is required")
	case in.EntryDate.IsZero():
		return nil, invalid("entry_date", "is required")
	case in.Hours.LessThan(minTimeLogHours):
		return nil, invalid("hours", "must be at least 0.25")
	case in.HourlyRate != nil && in.HourlyRate.IsNegative():
		return nil, invalid("hourly_rate", "must not be negative")
	}

	if _, err := s.openProject(ctx, in.ProjectID, models.ModuleTimeLogs); err != nil {
		return nil, err
	}
	emp, err := s.activeEmployee(ctx, in.EmployeeID)
	if err != nil {
		return nil, err
	}
	rate := emp.HourlyCost()
	if in.HourlyRate != nil {
		rate = *in.HourlyRate
	}

	l := &models.TimeLog{
		ID:          seqid.NewTimeLogID(),
		ProjectID:   in.ProjectID,
		EmployeeID:  emp.ID,
		EntryDate:   in.EntryDate,
		Hours:       in.Hours,
		HourlyRate:  rate,
		TotalAmount: models.TimeLogTotal(in.Hours, rate),
		Description: trimmed(in.Description),
		CreatedBy:   actor,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.timeLogs.Create(ctx, l); err != nil {
			return err
		}
		_, err := s.recorder.Record(ctx, RecordInput{
			Action:      models.ActionTimeLogCreated,
			ActorEmail:  actor,
			ModuleType:  models.ModuleTimeLogs,
			ReferenceID: l.ID,
			Details:     l,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordsCreated.WithLabelValues(models.ModuleTimeLogs).Inc()
	return l, nil
}

// DeleteTimeLog removes an entry. Costs of a locked project cannot be removed.
func (s *CostService) DeleteTimeLog(ctx context.Context, actor, id string) error {
	l, err := s.timeLogs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.openProject(ctx, l.ProjectID, models.ModuleTimeLogs); err != nil {
		return err
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.timeLogs.Delete(ctx, l.ID); err != nil {
			return err
		}
		_, err := s.recorder.Record(ctx, RecordInput{
			Action:      models.ActionTimeLogDeleted,
			ActorEmail:  actor,
			ModuleType:  models.ModuleTimeLogs,
			ReferenceID: l.ID,
			Details:     l,
		})
		return err
	})
}

func (s *CostService) ListTimeLogs(ctx context.Context, f repositories.TimeLogFilter) ([]models.TimeLog, error) {
	return s.timeLogs.List(ctx, f)
}

// --- Materials receipts ---

func (s *CostService) CreateReceipt(ctx context.Context, actor string, in ReceiptInput) (*models.MaterialsReceipt, error) {
	in.ProjectID = strings.TrimSpace(in.ProjectID)
	in.VendorName = strings.TrimSpace(in.VendorName)
	switch {
	case in.ProjectID == "":
		return nil, invalid("project_id", "is required")
	case in.VendorName == "":
		return nil, invalid("vendor_name", "is required")
	case in.ReceiptDate.IsZero():
		return nil, invalid("receipt_date", "is required")
	case in.TotalAmount.IsNegative():
		return nil, invalid("total_amount", "must not be negative")
	case in.TaxAmount.IsNegative():
		return nil, invalid("tax_amount", "must not be negative")
	}

	if _, err := s.openProject(ctx, in.ProjectID, models.ModuleMaterialsReceipts); err != nil {
		return nil, err
	}

	m := &models.MaterialsReceipt{
		ID:            seqid.NewReceiptID(),
		ProjectID:     in.ProjectID,
		ReceiptDate:   in.ReceiptDate,
		VendorName:    in.VendorName,
		InvoiceNumber: trimmed(in.InvoiceNumber),
		Description:   trimmed(in.Description),
		TotalAmount:   in.TotalAmount,
		TaxAmount:     in.TaxAmount,
		GrandTotal:    models.ReceiptGrandTotal(in.TotalAmount, in.TaxAmount),
		Notes:         trimmed(in.Notes),
		CreatedBy:     actor,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.receipts.Create(ctx, m); err != nil {
			return err
		}
		_, err := s.recorder.Record(ctx, RecordInput{
			Action:      models.ActionReceiptCreated,
			ActorEmail:  actor,
			ModuleType:  models.ModuleMaterialsReceipts,
			ReferenceID: m.ID,
			Details:     m,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordsCreated.WithLabelValues(models.ModuleMaterialsReceipts).Inc()
	return m, nil
}

func (s *CostService) GetReceipt(ctx context.Context, id string) (*models.MaterialsReceipt, error) {
	return s.receipts.GetByID(ctx, id)
}

func (s *CostService) ListReceipts(ctx context.Context, f repositories.ReceiptFilter) ([]models.MaterialsReceipt, error) {
	return s.receipts.List(ctx, f)
}

// AttachmentKey is where a receipt's file lives in the object store, grouped
// under the project folder.
func AttachmentKey(p *models.Project, receiptID, fileName string) string {
	return path.Join(seqid.ProjectFolderName(p.CustomerID, p.ID, p.Name), "receipts", receiptID, seqid.SafeFileName(fileName))
}

// AttachFile uploads the file and links it to the receipt. The object is
// written first; if the database update fails the object is orphaned and a
// retry overwrites it.
func (s *CostService) AttachFile(ctx context.Context, actor, receiptID string, file Attachment) (*models.MaterialsReceipt, error) {
	if s.objects == nil {
		return nil, ErrAttachmentsDisabled
	}
	if strings.TrimSpace(file.FileName) == "" {
		return nil, invalid("file", "name is required")
	}
	if file.Size <= 0 {
		return nil, invalid("file", "is empty")
	}

	m, err := s.receipts.GetByID(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	p, err := s.openProject(ctx, m.ProjectID, models.ModuleMaterialsReceipts)
	if err != nil {
		return nil, err
	}

	key := AttachmentKey(p, m.ID, file.FileName)
	if err := s.objects.Put(ctx, key, file.Body, file.Size, file.ContentType); err != nil {
		s.log.Error("failed to upload attachment", zap.String("receipt_id", m.ID), zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("upload attachment: %w", err)
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.receipts.SetAttachment(ctx, m.ID, key); err != nil {
			return err
		}
		_, err := s.recorder.Record(ctx, RecordInput{
			Action:      models.ActionAttachmentUploaded,
			ActorEmail:  actor,
			ModuleType:  models.ModuleMaterialsReceipts,
			ReferenceID: m.ID,
			Details: map[string]any{
				"project_id": m.ProjectID,
				"key":        key,
				"size":       file.Size,
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	m.AttachmentKey = &key
	return m, nil
}

// AttachmentURL returns a short-lived download link for the receipt's file.
func (s *CostService) AttachmentURL(ctx context.Context, receiptID string) (string, error) {
	if s.objects == nil {
		return "", ErrAttachmentsDisabled
	}
	m, err := s.receipts.GetByID(ctx, receiptID)
	if err != nil {
		return "", err
	}
	if m.AttachmentKey == nil {
		return "", repositories.ErrNotFound
	}
	return s.objects.PresignGet(ctx, *m.AttachmentKey, s.urlTTL)
}

// --- Sub invoices ---

func (s *CostService) CreateSubInvoice(ctx context.Context, actor string, in SubInvoiceInput) (*models.SubInvoice, error) {
	in.ProjectID = strings.TrimSpace(in.ProjectID)
	in.SubcontractorID = strings.TrimSpace(in.SubcontractorID)
	switch {
	case in.ProjectID == "":
		return nil, invalid("project_id", "is required")
	case in.SubcontractorID == "":
		return nil, invalid("subcontractor_id", "is required")
	case !in.Amount.IsPositive():
		return nil, invalid("amount", "must be positive")
	}

	if _, err := s.openProject(ctx, in.ProjectID, models.ModuleSubInvoices); err != nil {
		return nil, err
	}
	sub, err := s.activeSubcontractor(ctx, in.SubcontractorID)
	if err != nil {
		return nil, err
	}

	inv := &models.SubInvoice{
		ID:              seqid.NewSubInvoiceID(),
		ProjectID:       in.ProjectID,
		SubcontractorID: sub.ID,
		InvoiceNumber:   trimmed(in.InvoiceNumber),
		Amount:          in.Amount,
		Description:     trimmed(in.Description),
		CreatedBy:       actor,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.subInvoices.Create(ctx, inv); err != nil {
			return err
		}
		_, err := s.recorder.Record(ctx, RecordInput{
			Action:      models.ActionSubInvoiceCreated,
			ActorEmail:  actor,
			ModuleType:  models.ModuleSubInvoices,
			ReferenceID: inv.ID,
			Details:     inv,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordsCreated.WithLabelValues(models.ModuleSubInvoices).Inc()
	return inv, nil
}

func (s *CostService) ListSubInvoices(ctx context.Context, projectID string) ([]models.SubInvoice, error) {
	return s.subInvoices.ListByProject(ctx, projectID)
}

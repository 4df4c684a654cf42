package services

import (
	"context"
	"io"
	"time"

	"github.com/akc-construction/crm/internal/models"
	"github.com/akc-construction/crm/internal/repositories"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// The interfaces below are satisfied by the pgx repositories and by the
// in-memory store in internal/testutil.

type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type CustomerStore interface {
	Create(ctx context.Context, c *models.Customer) error
	GetByID(ctx context.Context, id string) (*models.Customer, error)
	Update(ctx context.Context, c *models.Customer) error
	UpdateStatus(ctx context.Context, id, from, to, actor string) error
	HighestIDWithPrefix(ctx context.Context, prefix string) (string, error)
	List(ctx context.Context, f repositories.CustomerFilter) ([]models.Customer, error)
}

type ProjectStore interface {
	Create(ctx context.Context, p *models.Project) error
	GetByID(ctx context.Context, id string) (*models.Project, error)
	Update(ctx context.Context, p *models.Project) error
	UpdateStatus(ctx context.Context, id, from, to, actor string) error
	HighestIDWithPrefix(ctx context.Context, prefix string) (string, error)
	List(ctx context.Context, f repositories.ProjectFilter) ([]models.Project, error)
}

type TimeLogStore interface {
	Create(ctx context.Context, l *models.TimeLog) error
	GetByID(ctx context.Context, id string) (*models.TimeLog, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f repositories.TimeLogFilter) ([]models.TimeLog, error)
	SumByProject(ctx context.Context, projectID string) (hours, total decimal.Decimal, err error)
}

type ReceiptStore interface {
	Create(ctx context.Context, m *models.MaterialsReceipt) error
	GetByID(ctx context.Context, id string) (*models.MaterialsReceipt, error)
	SetAttachment(ctx context.Context, id, key string) error
	List(ctx context.Context, f repositories.ReceiptFilter) ([]models.MaterialsReceipt, error)
	SumByProject(ctx context.Context, projectID string) (decimal.Decimal, error)
}

type SubInvoiceStore interface {
	Create(ctx context.Context, s *models.SubInvoice) error
	ListByProject(ctx context.Context, projectID string) ([]models.SubInvoice, error)
	ListBySubcontractor(ctx context.Context, subcontractorID string) ([]models.SubInvoice, error)
	SumByProject(ctx context.Context, projectID string) (decimal.Decimal, error)
}

type EstimateStore interface {
	Create(ctx context.Context, e *models.Estimate) error
	GetByID(ctx context.Context, id string) (*models.Estimate, error)
	UpdateStatus(ctx context.Context, id, from, to string) error
	MaxVersion(ctx context.Context, projectID string) (int, error)
	ListByProject(ctx context.Context, projectID string) ([]models.Estimate, error)
	LatestApproved(ctx context.Context, projectID string) (*models.Estimate, error)
}

type EmployeeStore interface {
	Create(ctx context.Context, e *models.Employee) error
	GetByID(ctx context.Context, id string) (*models.Employee, error)
	Update(ctx context.Context, e *models.Employee) error
	SetActive(ctx context.Context, id string, active bool, actor string) error
	HighestIDWithPrefix(ctx context.Context, prefix string) (string, error)
	List(ctx context.Context, f repositories.EmployeeFilter) ([]models.Employee, error)
}

type VendorStore interface {
	Create(ctx context.Context, v *models.Vendor) error
	GetByID(ctx context.Context, id string) (*models.Vendor, error)
	Update(ctx context.Context, v *models.Vendor) error
	SetActive(ctx context.Context, id string, active bool, actor string) error
	HighestIDWithPrefix(ctx context.Context, prefix string) (string, error)
	List(ctx context.Context, f repositories.VendorFilter) ([]models.Vendor, error)
}

type ActivityStore interface {
	Insert(ctx context.Context, entry *models.ActivityLog) error
	List(ctx context.Context, f repositories.ActivityFilter) ([]models.ActivityLog, error)
	ListUnpublished(ctx context.Context, limit int) ([]models.ActivityLog, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}

type SequenceStore interface {
	// Next returns the next value for scope, never less than floor+1.
	Next(ctx context.Context, scope string, floor int) (int, error)
}

type UserStore interface {
	CreateIfMissing(ctx context.Context, u *models.User) (bool, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	TouchLogin(ctx context.Context, id uuid.UUID) error
}

// ObjectStore holds receipt attachments.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

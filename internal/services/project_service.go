package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akc-construction/crm/internal/metrics"
	"github.com/akc-construction/crm/internal/models"
	"github.com/akc-construction/crm/internal/reports"
	"github.com/akc-construction/crm/internal/repositories"
	"github.com/akc-construction/crm/internal/seqid"
	"go.uber.org/zap"
)

type ProjectInput struct {
	Name        string
	CustomerID  string
	Description *string
	Status      string
	SiteAddress *string
	SiteCity    *string
	SiteState   *string
	SiteZip     *string
}

type ProjectService struct {
	tx          Transactor
	projects    ProjectStore
	customers   CustomerStore
	timeLogs    TimeLogStore
	receipts    ReceiptStore
	subInvoices SubInvoiceStore
	estimates   EstimateStore
	sequences   SequenceStore
	recorder    *ActivityRecorder
	log         *zap.Logger
	now         func() time.Time
}

func NewProjectService(
	tx Transactor,
	projects ProjectStore,
	customers CustomerStore,
	timeLogs TimeLogStore,
	receipts ReceiptStore,
	subInvoices SubInvoiceStore,
	estimates EstimateStore,
	sequences SequenceStore,
	recorder *ActivityRecorder,
	log *zap.Logger,
) *ProjectService {
	return &ProjectService{
		tx:          tx,
		projects:    projects,
		customers:   customers,
		timeLogs:    timeLogs,
		receipts:    receipts,
		subInvoices: subInvoices,
		estimates:   estimates,
		sequences:   sequences,
		recorder:    recorder,
		log:         log,
		now:         time.Now,
	}
}

func (in *ProjectInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return invalid("name", "is required")
	}
	in.CustomerID = strings.TrimSpace(in.CustomerID)
	if in.CustomerID == "" {
		return invalid("customer_id", "is required")
	}
	in.Description = trimmed(in.Description)
	in.SiteAddress = trimmed(in.SiteAddress)
	in.SiteCity = trimmed(in.SiteCity)
	in.SiteState = trimmed(in.SiteState)
	in.SiteZip = trimmed(in.SiteZip)
	return nil
}

// requireCustomer checks the project's customer exists and still takes work.
func (s *ProjectService) requireCustomer(ctx context.Context, id string) (*models.Customer, error) {
	c, err := s.customers.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, invalid("customer_id", fmt.Sprintf("customer %q does not exist", id))
	}
	if err != nil {
		return nil, err
	}
	if c.Status == models.CustomerStatusArchived {
		return nil, invalid("customer_id", fmt.Sprintf("customer %q is archived", id))
	}
	return c, nil
}

// projectCreatedDetails is the "Project Created" payload: the full project
// plus the storage folder provisioned for it.
type projectCreatedDetails struct {
	*models.Project
	Folder string `json:"folder"`
}

// Create assigns the next PROJ-YYMM-NNN id and records "Project Created".
func (s *ProjectService) Create(ctx context.Context, actor string, in ProjectInput) (*models.Project, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	status := models.NormalizeProjectStatus(in.Status)
	if status == "" {
		status = models.ProjectStatusPending
	}
	if !models.IsKnownStatus(models.EntityProject, status) {
		return nil, invalid("status", fmt.Sprintf("unknown project status %q", in.Status))
	}
	if _, err := s.requireCustomer(ctx, in.CustomerID); err != nil {
		return nil, err
	}

	now := s.now()
	prefix := seqid.ProjectPrefix(now)

	var project *models.Project
	err := withIDRetry(func() error {
		return s.tx.WithinTx(ctx, func(ctx context.Context) error {
			seq, err := nextSequence(ctx, s.sequences, s.projects.HighestIDWithPrefix, "project", prefix)
			if err != nil {
				return fmt.Errorf("next project id: %w", err)
			}

			p := &models.Project{
				ID:          seqid.ProjectID(now, seq),
				Name:        in.Name,
				CustomerID:  in.CustomerID,
				Description: in.Description,
				Status:      status,
				SiteAddress: in.SiteAddress,
				SiteCity:    in.SiteCity,
				SiteState:   in.SiteState,
				SiteZip:     in.SiteZip,
				CreatedBy:   actor,
			}
			if err := s.projects.Create(ctx, p); err != nil {
				return err
			}

			if _, err := s.recorder.Record(ctx, RecordInput{
				Action:      models.ActionProjectCreated,
				ActorEmail:  actor,
				ModuleType:  models.ModuleProjects,
				ReferenceID: p.ID,
				Status:      p.Status,
				Details: projectCreatedDetails{
					Project: p,
					Folder:  seqid.ProjectFolderName(p.CustomerID, p.ID, p.Name),
				},
			}); err != nil {
				return err
			}
			project = p
			return nil
		})
	})
	if err != nil {
		s.log.Error("failed to create project", zap.String("actor", actor), zap.Error(err))
		return nil, err
	}

	metrics.RecordsCreated.WithLabelValues(models.ModuleProjects).Inc()
	return project, nil
}

func (s *ProjectService) Get(ctx context.Context, id string) (*models.Project, error) {
	return s.projects.GetByID(ctx, id)
}

// Update changes the descriptive fields, including a move to another customer.
// The returned project carries the status stored at write time, which a
// concurrent ChangeStatus may have moved since the caller last read it.
func (s *ProjectService) Update(ctx context.Context, actor, id string, in ProjectInput) (*models.Project, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var updated *models.Project
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.projects.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p.CustomerID != in.CustomerID {
			if _, err := s.requireCustomer(ctx, in.CustomerID); err != nil {
				return err
			}
		}

		p.Name = in.Name
		p.CustomerID = in.CustomerID
		p.Description = in.Description
		p.SiteAddress = in.SiteAddress
		p.SiteCity = in.SiteCity
		p.SiteState = in.SiteState
		p.SiteZip = in.SiteZip
		p.LastModifiedBy = &actor
		if err := s.projects.Update(ctx, p); err != nil {
			return err
		}

		if _, err := s.recorder.Record(ctx, RecordInput{
			Action:      models.ActionProjectUpdated,
			ActorEmail:  actor,
			ModuleType:  models.ModuleProjects,
			ReferenceID: p.ID,
			Status:      p.Status,
			Details:     p,
		}); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *ProjectService) ChangeStatus(ctx context.Context, actor, id, status string) (*models.Project, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	status = models.NormalizeProjectStatus(status)

	err = transition(ctx, s.tx, s.recorder, statusChange{
		entity:  models.EntityProject,
		module:  models.ModuleProjects,
		id:      p.ID,
		from:    p.Status,
		to:      status,
		actor:   actor,
		details: map[string]any{"name": p.Name, "customer_id": p.CustomerID},
		apply: func(ctx context.Context) error {
			return s.projects.UpdateStatus(ctx, p.ID, p.Status, status, actor)
		},
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("project status changed",
		zap.String("project_id", p.ID),
		zap.String("from", p.Status),
		zap.String("to", status),
		zap.String("actor", actor),
	)
	p.Status = status
	p.LastModifiedBy = &actor
	return p, nil
}

// AllowedTransitions lists the statuses the project can move to next.
func (s *ProjectService) AllowedTransitions(ctx context.Context, id string) ([]string, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return models.AllowedTransitions(models.EntityProject, p.Status), nil
}

func (s *ProjectService) List(ctx context.Context, f repositories.ProjectFilter) ([]models.Project, error) {
	if f.Status != "" {
		f.Status = models.NormalizeProjectStatus(f.Status)
	}
	return s.projects.List(ctx, f)
}

// Summary rolls up the project's costs against its latest approved estimate.
func (s *ProjectService) Summary(ctx context.Context, id string) (*models.ProjectSummary, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	hours, labor, err := s.timeLogs.SumByProject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("sum time logs: %w", err)
	}
	materials, err := s.receipts.SumByProject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("sum receipts: %w", err)
	}
	subs, err := s.subInvoices.SumByProject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("sum sub invoices: %w", err)
	}

	summary := &models.ProjectSummary{
		ProjectID:         p.ID,
		Status:            p.Status,
		TotalHours:        hours,
		LaborCost:         labor,
		MaterialsCost:     materials,
		SubcontractorCost: subs,
		TotalCost:         labor.Add(materials).Add(subs),
	}

	est, err := s.estimates.LatestApproved(ctx, id)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("latest approved estimate: %w", err)
	default:
		amount := est.Amount
		variance := amount.Sub(summary.TotalCost)
		summary.EstimateAmount = &amount
		summary.Variance = &variance
	}
	return summary, nil
}

const reportPageSize = 500

// Report gathers everything the project workbook shows.
func (s *ProjectService) Report(ctx context.Context, id string) (*reports.ProjectReport, error) {
	summary, err := s.Summary(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r := &reports.ProjectReport{Project: *p, Summary: *summary}

	for offset := 0; ; offset += reportPageSize {
		page, err := s.timeLogs.List(ctx, repositories.TimeLogFilter{ProjectID: id, Limit: reportPageSize, Offset: offset})
		if err != nil {
			return nil, fmt.Errorf("list time logs: %w", err)
		}
		r.TimeLogs = append(r.TimeLogs, page...)
		if len(page) < reportPageSize {
			break
		}
	}
	for offset := 0; ; offset += reportPageSize {
		page, err := s.receipts.List(ctx, repositories.ReceiptFilter{ProjectID: id, Limit: reportPageSize, Offset: offset})
		if err != nil {
			return nil, fmt.Errorf("list receipts: %w", err)
		}
		r.Receipts = append(r.Receipts, page...)
		if len(page) < reportPageSize {
			break
		}
	}

	if r.SubInvoices, err = s.subInvoices.ListByProject(ctx, id); err != nil {
		return nil, fmt.Errorf("list sub invoices: %w", err)
	}
	if r.Estimates, err = s.estimates.ListByProject(ctx, id); err != nil {
		return nil, fmt.Errorf("list estimates: %w", err)
	}
	return r, nil
}

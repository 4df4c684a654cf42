package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/akc-construction/crm/internal/metrics"
	"github.com/akc-construction/crm/internal/models"
	"github.com/akc-construction/crm/internal/seqid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type EstimateService struct {
	tx        Transactor
	projects  ProjectStore
	estimates EstimateStore
	recorder  *ActivityRecorder
	log       *zap.Logger
}

func NewEstimateService(tx Transactor, projects ProjectStore, estimates EstimateStore, recorder *ActivityRecorder, log *zap.Logger) *EstimateService {
	return &EstimateService{tx: tx, projects: projects, estimates: estimates, recorder: recorder, log: log}
}

// Create adds the next version of the project's estimate as Pending.
func (s *EstimateService) Create(ctx context.Context, actor, projectID string, amount decimal.Decimal) (*models.Estimate, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, invalid("project_id", "is required")
	}
	if amount.IsNegative() {
		return nil, invalid("amount", "must not be negative")
	}

	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !models.IsModuleAccessible(models.ModuleEstimates, p.Status) {
		return nil, &ModuleClosedError{Module: models.ModuleEstimates, ProjectStatus: p.Status}
	}

	var estimate *models.Estimate
	err = withIDRetry(func() error {
		return s.tx.WithinTx(ctx, func(ctx context.Context) error {
			version, err := s.estimates.MaxVersion(ctx, projectID)
			if err != nil {
				return fmt.Errorf("max estimate version: %w", err)
			}
			version++

			e := &models.Estimate{
				ID:        seqid.EstimateID(projectID, version),
				ProjectID: projectID,
				Version:   version,
				Amount:    amount,
				Status:    models.EstimateStatusPending,
				CreatedBy: actor,
			}
			if err := s.estimates.Create(ctx, e); err != nil {
				return err
			}

			if _, err := s.recorder.Record(ctx, RecordInput{
				Action:      models.ActionEstimateCreated,
				ActorEmail:  actor,
				ModuleType:  models.ModuleEstimates,
				ReferenceID: e.ID,
				Status:      e.Status,
				Details:     e,
			}); err != nil {
				return err
			}
			estimate = e
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordsCreated.WithLabelValues(models.ModuleEstimates).Inc()
	return estimate, nil
}

func (s *EstimateService) ChangeStatus(ctx context.Context, actor, id, status string) (*models.Estimate, error) {
	e, err := s.estimates.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	status = strings.TrimSpace(status)

	err = transition(ctx, s.tx, s.recorder, statusChange{
		entity:  models.EntityEstimate,
		module:  models.ModuleEstimates,
		id:      e.ID,
		from:    e.Status,
		to:      status,
		actor:   actor,
		details: map[string]any{"project_id": e.ProjectID, "version": e.Version},
		apply: func(ctx context.Context) error {
			return s.estimates.UpdateStatus(ctx, e.ID, e.Status, status)
		},
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("estimate status changed", zap.String("estimate_id", e.ID), zap.String("to", status))
	e.Status = status
	return e, nil
}

func (s *EstimateService) ListByProject(ctx context.Context, projectID string) ([]models.Estimate, error) {
	return s.estimates.ListByProject(ctx, projectID)
}

package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/akc-construction/crm/internal/metrics"
	"github.com/akc-construction/crm/internal/models"
	"github.com/akc-construction/crm/internal/repositories"
	"github.com/akc-construction/crm/internal/seqid"
	"go.uber.org/zap"
)

type CustomerInput struct {
	Name         string
	Address      *string
	City         *string
	State        *string
	Zip          *string
	ContactEmail *string
	Phone        *string
	Status       string
}

type CustomerService struct {
	tx        Transactor
	customers CustomerStore
	sequences SequenceStore
	recorder  *ActivityRecorder
	log       *zap.Logger
	now       func() time.Time
}

func NewCustomerService(tx Transactor, customers CustomerStore, sequences SequenceStore, recorder *ActivityRecorder, log *zap.Logger) *CustomerService {
	return &CustomerService{
		tx:        tx,
		customers: customers,
		sequences: sequences,
		recorder:  recorder,
		log:       log,
		now:       time.Now,
	}
}

func (in *CustomerInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return invalid("name", "is required")
	}
	in.Address = trimmed(in.Address)
	in.City = trimmed(in.City)
	in.State = trimmed(in.State)
	in.Zip = trimmed(in.Zip)
	in.Phone = trimmed(in.Phone)
	in.ContactEmail = trimmed(in.ContactEmail)
	if in.ContactEmail != nil {
		if _, err := mail.ParseAddress(*in.ContactEmail); err != nil {
			return invalid("contact_email", "is not a valid email address")
		}
	}
	return nil
}

// Create assigns the next YY-NNNN id and records "Customer Created".
func (s *CustomerService) Create(ctx context.Context, actor string, in CustomerInput) (*models.Customer, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	in.Status = strings.TrimSpace(in.Status)
	if in.Status == "" {
		in.Status = models.CustomerStatusActive
	}
	if !models.IsKnownStatus(models.EntityCustomer, in.Status) {
		return nil, invalid("status", fmt.Sprintf("unknown customer status %q", in.Status))
	}

	now := s.now()
	prefix := seqid.CustomerPrefix(now)

	var customer *models.Customer
	err := withIDRetry(func() error {
		return s.tx.WithinTx(ctx, func(ctx context.Context) error {
			seq, err := nextSequence(ctx, s.sequences, s.customers.HighestIDWithPrefix, "customer", prefix)
			if err != nil {
				return fmt.Errorf("next customer id: %w", err)
			}

			c := &models.Customer{
				ID:           seqid.CustomerID(now, seq),
				Name:         in.Name,
				Address:      in.Address,
				City:         in.City,
				State:        in.State,
				Zip:          in.Zip,
				ContactEmail: in.ContactEmail,
				Phone:        in.Phone,
				Status:       in.Status,
				CreatedBy:    actor,
			}
			if err := s.customers.Create(ctx, c); err != nil {
				return err
			}

			if _, err := s.recorder.Record(ctx, RecordInput{
				Action:      models.ActionCustomerCreated,
				ActorEmail:  actor,
				ModuleType:  models.ModuleCustomers,
				ReferenceID: c.ID,
				Status:      c.Status,
				Details:     c,
			}); err != nil {
				return err
			}
			customer = c
			return nil
		})
	})
	if err != nil {
		s.log.Error("failed to create customer", zap.String("actor", actor), zap.Error(err))
		return nil, err
	}

	metrics.RecordsCreated.WithLabelValues(models.ModuleCustomers).Inc()
	return customer, nil
}

func (s *CustomerService) Get(ctx context.Context, id string) (*models.Customer, error) {
	return s.customers.GetByID(ctx, id)
}

// Update changes the descriptive fields. Status moves go through ChangeStatus.
func (s *CustomerService) Update(ctx context.Context, actor, id string, in CustomerInput) (*models.Customer, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var updated *models.Customer
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.customers.GetByID(ctx, id)
		if err != nil {
			return err
		}
		c.Name = in.Name
		c.Address = in.Address
		c.City = in.City
		c.State = in.State
		c.Zip = in.Zip
		c.ContactEmail = in.ContactEmail
		c.Phone = in.Phone
		c.LastModifiedBy = &actor
		if err := s.customers.Update(ctx, c); err != nil {
			return err
		}

		if _, err := s.recorder.Record(ctx, RecordInput{
			Action:      models.ActionCustomerUpdated,
			ActorEmail:  actor,
			ModuleType:  models.ModuleCustomers,
			ReferenceID: c.ID,
			Status:      c.Status,
			Details:     c,
		}); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *CustomerService) ChangeStatus(ctx context.Context, actor, id, status string) (*models.Customer, error) {
	c, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	status = strings.TrimSpace(status)

	err = transition(ctx, s.tx, s.recorder, statusChange{
		entity:  models.EntityCustomer,
		module:  models.ModuleCustomers,
		id:      c.ID,
		from:    c.Status,
		to:      status,
		actor:   actor,
		details: map[string]any{"name": c.Name},
		apply: func(ctx context.Context) error {
			return s.customers.UpdateStatus(ctx, c.ID, c.Status, status, actor)
		},
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("customer status changed",
		zap.String("customer_id", c.ID),
		zap.String("from", c.Status),
		zap.String("to", status),
		zap.String("actor", actor),
	)
	c.Status = status
	c.LastModifiedBy = &actor
	return c, nil
}

func (s *CustomerService) List(ctx context.Context, f repositories.CustomerFilter) ([]models.Customer, error) {
	return s.customers.List(ctx, f)
}

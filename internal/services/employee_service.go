package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/akc-construction/crm/internal/metrics"
	"github.com/akc-construction/crm/internal/models"
	"github.com/akc-construction/crm/internal/repositories"
	"github.com/akc-construction/crm/internal/seqid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxHoursPerWeek = 168

type EmployeeInput struct {
	Name         string
	Email        *string
	Position     *string
	Department   string
	PaymentType  string
	HourlyRate   decimal.Decimal
	AnnualSalary decimal.Decimal
	HoursPerWeek int
	Notes        *string
}

// EmployeeService keeps the staff register that time logs are charged to.
type EmployeeService struct {
	tx        Transactor
	employees EmployeeStore
	sequences SequenceStore
	recorder  *ActivityRecorder
	log       *zap.Logger
}

func NewEmployeeService(tx Transactor, employees EmployeeStore, sequences SequenceStore, recorder *ActivityRecorder, log *zap.Logger) *EmployeeService {
	return &EmployeeService{
		tx:        tx,
		employees: employees,
		sequences: sequences,
		recorder:  recorder,
		log:       log,
	}
}

// normalize applies defaults and zeroes the pay field the payment type does
// not use.
func (in *EmployeeInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return invalid("name", "is required")
	}
	in.Email = trimmed(in.Email)
	if in.Email != nil {
		if _, err := mail.ParseAddress(*in.Email); err != nil {
			return invalid("email", "is not a valid email address")
		}
	}
	in.Position = trimmed(in.Position)
	in.Notes = trimmed(in.Notes)

	in.Department = strings.TrimSpace(in.Department)
	if in.Department == "" {
		in.Department = models.DefaultDepartment
	}
	if in.HoursPerWeek == 0 {
		in.HoursPerWeek = models.DefaultHoursPerWeek
	}
	if in.HoursPerWeek < 1 || in.HoursPerWeek > maxHoursPerWeek {
		return invalid("hours_per_week", fmt.Sprintf("must be between 1 and %d", maxHoursPerWeek))
	}

	in.PaymentType = strings.ToLower(strings.TrimSpace(in.PaymentType))
	switch in.PaymentType {
	case "", models.PaymentTypeHourly:
		in.PaymentType = models.PaymentTypeHourly
		if in.HourlyRate.IsNegative() {
			return invalid("hourly_rate", "must not be negative")
		}
		in.AnnualSalary = decimal.Zero
	case models.PaymentTypeSalary:
		if in.AnnualSalary.IsNegative() {
			return invalid("annual_salary", "must not be negative")
		}
		in.HourlyRate = decimal.Zero
	default:
		return invalid("payment_type", fmt.Sprintf("unknown payment type %q", in.PaymentType))
	}
	return nil
}

// Create assigns the next EMP-NNN id and records "Employee Created".
func (s *EmployeeService) Create(ctx context.Context, actor string, in EmployeeInput) (*models.Employee, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var employee *models.Employee
	err := withIDRetry(func() error {
		return s.tx.WithinTx(ctx, func(ctx context.Context) error {
			seq, err := nextSequence(ctx, s.sequences, s.employees.HighestIDWithPrefix, "employee", seqid.EmployeePrefix)
			if err != nil {
				return fmt.Errorf("next employee id: %w", err)
			}

			e := &models.Employee{
				ID:           seqid.EmployeeID(seq),
				Name:         in.Name,
				Email:        in.Email,
				Position:     in.Position,
				Department:   in.Department,
				PaymentType:  in.PaymentType,
				HourlyRate:   in.HourlyRate,
				AnnualSalary: in.AnnualSalary,
				HoursPerWeek: in.HoursPerWeek,
				Active:       true,
				Notes:        in.Notes,
				CreatedBy:    actor,
			}
			if err := s.employees.Create(ctx, e); err != nil {
				return err
			}

			if _, err := s.recorder.Record(ctx, RecordInput{
				Action:      models.ActionEmployeeCreated,
				ActorEmail:  actor,
				ModuleType:  models.ModuleEmployees,
				ReferenceID: e.ID,
				Details:     e,
			}); err != nil {
				return err
			}
			employee = e
			return nil
		})
	})
	if err != nil {
		s.log.Error("failed to create employee", zap.String("actor", actor), zap.Error(err))
		return nil, err
	}

	metrics.RecordsCreated.WithLabelValues(models.ModuleEmployees).Inc()
	return employee, nil
}

func (s *EmployeeService) Get(ctx context.Context, id string) (*models.Employee, error) {
	return s.employees.GetByID(ctx, id)
}

func (s *EmployeeService) Update(ctx context.Context, actor, id string, in EmployeeInput) (*models.Employee, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var updated *models.Employee
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		e, err := s.employees.GetByID(ctx, id)
		if err != nil {
			return err
		}
		e.Name = in.Name
		e.Email = in.Email
		e.Position = in.Position
		e.Department = in.Department
		e.PaymentType = in.PaymentType
		e.HourlyRate = in.HourlyRate
		e.AnnualSalary = in.AnnualSalary
		e.HoursPerWeek = in.HoursPerWeek
		e.Notes = in.Notes
		e.LastModifiedBy = &actor
		if err := s.employees.Update(ctx, e); err != nil {
			return err
		}

		if _, err := s.recorder.Record(ctx, RecordInput{
			Action:      models.ActionEmployeeUpdated,
			ActorEmail:  actor,
			ModuleType:  models.ModuleEmployees,
			ReferenceID: e.ID,
			Details:     e,
		}); err != nil {
			return err
		}
		updated = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Deactivate retires the employee. Existing time logs keep their reference;
// new ones are refused.
func (s *EmployeeService) Deactivate(ctx context.Context, actor, id string) (*models.Employee, error) {
	var out *models.Employee
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		e, err := s.employees.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !e.Active {
			out = e
			return nil
		}
		if err := s.employees.SetActive(ctx, e.ID, false, actor); err != nil {
			return err
		}
		e.Active = false
		e.LastModifiedBy = &actor

		if _, err := s.recorder.Record(ctx, RecordInput{
			Action:      models.ActionEmployeeDeactivated,
			ActorEmail:  actor,
			ModuleType:  models.ModuleEmployees,
			ReferenceID: e.ID,
			Details:     map[string]any{"name": e.Name},
		}); err != nil {
			return err
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("employee deactivated", zap.String("employee_id", id), zap.String("actor", actor))
	return out, nil
}

func (s *EmployeeService) List(ctx context.Context, f repositories.EmployeeFilter) ([]models.Employee, error) {
	if f.PaymentType != "" {
		f.PaymentType = strings.ToLower(f.PaymentType)
	}
	return s.employees.List(ctx, f)
}

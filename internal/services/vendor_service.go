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
	"go.uber.org/zap"
)

type VendorInput struct {
	Name        string
	VendorType  string // create only
	ContactName *string
	Email       *string
	Phone       *string
	Address     *string
	Notes       *string
}

// VendorService keeps the register of suppliers and subcontractors.
// Suppliers are numbered VEND-NNN and subcontractors SUB-NNN.
type VendorService struct {
	tx          Transactor
	vendors     VendorStore
	subInvoices SubInvoiceStore
	sequences   SequenceStore
	recorder    *ActivityRecorder
	log         *zap.Logger
}

func NewVendorService(
	tx Transactor,
	vendors VendorStore,
	subInvoices SubInvoiceStore,
	sequences SequenceStore,
	recorder *ActivityRecorder,
	log *zap.Logger,
) *VendorService {
	return &VendorService{
		tx:          tx,
		vendors:     vendors,
		subInvoices: subInvoices,
		sequences:   sequences,
		recorder:    recorder,
		log:         log,
	}
}

func (in *VendorInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return invalid("name", "is required")
	}
	in.ContactName = trimmed(in.ContactName)
	in.Phone = trimmed(in.Phone)
	in.Address = trimmed(in.Address)
	in.Notes = trimmed(in.Notes)
	in.Email = trimmed(in.Email)
	if in.Email != nil {
		if _, err := mail.ParseAddress(*in.Email); err != nil {
			return invalid("email", "is not a valid email address")
		}
	}
	return nil
}

// vendorSeries returns the id prefix and formatter for a vendor type.
func vendorSeries(vendorType string) (string, func(int) string) {
	if vendorType == models.VendorTypeSubcontractor {
		return seqid.SubcontractorPrefix, seqid.SubcontractorID
	}
	return seqid.VendorPrefix, seqid.VendorID
}

// Create assigns the next id in the series for the vendor type and records
// "Vendor Created".
func (s *VendorService) Create(ctx context.Context, actor string, in VendorInput) (*models.Vendor, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	in.VendorType = strings.TrimSpace(in.VendorType)
	if in.VendorType == "" {
		return nil, invalid("vendor_type", "is required")
	}
	if !models.IsVendorType(in.VendorType) {
		return nil, invalid("vendor_type", fmt.Sprintf("unknown vendor type %q", in.VendorType))
	}
	prefix, formatID := vendorSeries(in.VendorType)

	var vendor *models.Vendor
	err := withIDRetry(func() error {
		return s.tx.WithinTx(ctx, func(ctx context.Context) error {
			seq, err := nextSequence(ctx, s.sequences, s.vendors.HighestIDWithPrefix, "vendor", prefix)
			if err != nil {
				return fmt.Errorf("next vendor id: %w", err)
			}

			v := &models.Vendor{
				ID:          formatID(seq),
				Name:        in.Name,
				VendorType:  in.VendorType,
				ContactName: in.ContactName,
				Email:       in.Email,
				Phone:       in.Phone,
				Address:     in.Address,
				Notes:       in.Notes,
				Active:      true,
				CreatedBy:   actor,
			}
			if err := s.vendors.Create(ctx, v); err != nil {
				return err
			}

			if _, err := s.recorder.Record(ctx, RecordInput{
				Action:      models.ActionVendorCreated,
				ActorEmail:  actor,
				ModuleType:  models.ModuleVendors,
				ReferenceID: v.ID,
				Details:     v,
			}); err != nil {
				return err
			}
			vendor = v
			return nil
		})
	})
	if err != nil {
		s.log.Error("failed to create vendor", zap.String("actor", actor), zap.Error(err))
		return nil, err
	}

	metrics.RecordsCreated.WithLabelValues(models.ModuleVendors).Inc()
	return vendor, nil
}

func (s *VendorService) Get(ctx context.Context, id string) (*models.Vendor, error) {
	return s.vendors.GetByID(ctx, id)
}

// Update changes the contact fields. The vendor type cannot change because
// it is part of the id.
func (s *VendorService) Update(ctx context.Context, actor, id string, in VendorInput) (*models.Vendor, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var updated *models.Vendor
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		v, err := s.vendors.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if t := strings.TrimSpace(in.VendorType); t != "" && t != v.VendorType {
			return invalid("vendor_type", "cannot be changed")
		}
		v.Name = in.Name
		v.ContactName = in.ContactName
		v.Email = in.Email
		v.Phone = in.Phone
		v.Address = in.Address
		v.Notes = in.Notes
		v.LastModifiedBy = &actor
		if err := s.vendors.Update(ctx, v); err != nil {
			return err
		}

		if _, err := s.recorder.Record(ctx, RecordInput{
			Action:      models.ActionVendorUpdated,
			ActorEmail:  actor,
			ModuleType:  models.ModuleVendors,
			ReferenceID: v.ID,
			Details:     v,
		}); err != nil {
			return err
		}
		updated = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Deactivate stops new costs being booked against the vendor.
func (s *VendorService) Deactivate(ctx context.Context, actor, id string) (*models.Vendor, error) {
	var out *models.Vendor
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		v, err := s.vendors.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !v.Active {
			out = v
			return nil
		}
		if err := s.vendors.SetActive(ctx, v.ID, false, actor); err != nil {
			return err
		}
		v.Active = false
		v.LastModifiedBy = &actor

		if _, err := s.recorder.Record(ctx, RecordInput{
			Action:      models.ActionVendorDeactivated,
			ActorEmail:  actor,
			ModuleType:  models.ModuleVendors,
			ReferenceID: v.ID,
			Details:     map[string]any{"name": v.Name, "vendor_type": v.VendorType},
		}); err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *VendorService) List(ctx context.Context, f repositories.VendorFilter) ([]models.Vendor, error) {
	return s.vendors.List(ctx, f)
}

// SubInvoices lists what a subcontractor has billed across all projects.
func (s *VendorService) SubInvoices(ctx context.Context, id string) ([]models.SubInvoice, error) {
	v, err := s.vendors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.VendorType != models.VendorTypeSubcontractor {
		return nil, invalid("id", fmt.Sprintf("vendor %q is not a subcontractor", id))
	}
	return s.subInvoices.ListBySubcontractor(ctx, v.ID)
}

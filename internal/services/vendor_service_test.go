package services

import (
	"context"
	"errors"
	"testing"

	"github.com/akc-construction/crm/internal/models"
	"github.com/akc-construction/crm/internal/repositories"
	"github.com/akc-construction/crm/internal/testutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func TestVendorCreateUsesSeriesForType(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		vendorType string
		want       string
	}{
		// SUB-007 and VEND-003 are seeded.
		{models.VendorTypeSubcontractor, "SUB-008"},
		{models.VendorTypeSupplier, "VEND-004"},
		{models.VendorTypeSubcontractor, "SUB-009"},
	}
	for _, tt := range tests {
		v, err := env.vendors.Create(ctx, actor, VendorInput{Name: "Vendor " + tt.want, VendorType: tt.vendorType})
		if err != nil {
			t.Fatalf("Create %s: %v", tt.vendorType, err)
		}
		if v.ID != tt.want {
			t.Errorf("%s id = %q, want %q", tt.vendorType, v.ID, tt.want)
		}
		if !v.Active || v.VendorType != tt.vendorType {
			t.Errorf("unexpected vendor: %+v", v)
		}
	}
}

func TestVendorCreateDetailsCarryFullRecord(t *testing.T) {
	env := newTestEnv(t)
	v, err := env.vendors.Create(context.Background(), actor, VendorInput{
		Name:        "ABC Lumber Supply",
		VendorType:  models.VendorTypeSupplier,
		ContactName: strPtr("John Smith"),
		Email:       strPtr("john@abclumber.example"),
		Phone:       strPtr("555-123-4567"),
		Address:     strPtr("123 Main St"),
	})
	if err != nil {
		t.Fatal(err)
	}

	got := entryDetails[models.Vendor](t, env, v.ID, models.ActionVendorCreated)
	if got.ID != v.ID || got.Name != v.Name || got.VendorType != models.VendorTypeSupplier ||
		got.ContactName == nil || *got.ContactName != "John Smith" || got.Email == nil || *got.Email != "john@abclumber.example" {
		t.Errorf("details = %+v, want %+v", got, *v)
	}
	assertSameRecord(t, got, v)
}

func TestVendorCreateValidation(t *testing.T) {
	tests := []struct {
		name  string
		in    VendorInput
		field string
	}{
		{"missing name", VendorInput{VendorType: models.VendorTypeSupplier}, "name"},
		{"missing type", VendorInput{Name: "X"}, "vendor_type"},
		{"unknown type", VendorInput{Name: "X", VendorType: "Consultant"}, "vendor_type"},
		{"bad email", VendorInput{Name: "X", VendorType: models.VendorTypeSupplier, Email: strPtr("x@")}, "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutil.NewStore()
			svc := NewVendorService(store, store.Vendors, store.SubInvoices, store.Sequences, NewActivityRecorder(store.Activity), zap.NewNop())
			_, err := svc.Create(context.Background(), actor, tt.in)
			assertValidation(t, err, tt.field)
		})
	}
}

func TestVendorUpdateKeepsType(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	v, err := env.vendors.Update(ctx, actor, subcontractor, VendorInput{Name: "Bayside Electric Inc", Phone: strPtr("555-0100")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if v.Name != "Bayside Electric Inc" || v.VendorType != models.VendorTypeSubcontractor || !v.Active {
		t.Errorf("unexpected vendor: %+v", v)
	}

	_, err = env.vendors.Update(ctx, actor, subcontractor, VendorInput{Name: "X", VendorType: models.VendorTypeSupplier})
	assertValidation(t, err, "vendor_type")

	if _, err := env.vendors.Update(ctx, actor, "SUB-404", VendorInput{Name: "X"}); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("missing vendor: err = %v, want ErrNotFound", err)
	}
}

func TestVendorListAndDeactivate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	subs, _ := env.vendors.List(ctx, repositories.VendorFilter{Type: models.VendorTypeSubcontractor})
	if len(subs) != 1 || subs[0].ID != subcontractor {
		t.Fatalf("subcontractors = %+v", subs)
	}

	if _, err := env.vendors.Deactivate(ctx, actor, supplier); err != nil {
		t.Fatal(err)
	}
	active := true
	list, _ := env.vendors.List(ctx, repositories.VendorFilter{Active: &active})
	if len(list) != 1 || list[0].ID != subcontractor {
		t.Errorf("active vendors = %+v", list)
	}
}

func TestVendorSubInvoices(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.project(t, models.ProjectStatusInProgress)

	for _, amount := range []string{"1200", "800"} {
		if _, err := env.costs.CreateSubInvoice(ctx, actor, SubInvoiceInput{
			ProjectID: p.ID, SubcontractorID: subcontractor, Amount: decimal.RequireFromString(amount),
		}); err != nil {
			t.Fatal(err)
		}
	}

	invoices, err := env.vendors.SubInvoices(ctx, subcontractor)
	if err != nil {
		t.Fatal(err)
	}
	if len(invoices) != 2 || !invoices[0].Amount.Equal(decimal.RequireFromString("800")) {
		t.Errorf("invoices = %+v", invoices)
	}

	_, err = env.vendors.SubInvoices(ctx, supplier)
	assertValidation(t, err, "id")
}

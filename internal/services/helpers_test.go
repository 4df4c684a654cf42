package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/akc-construction/crm/internal/models"
	"github.com/akc-construction/crm/internal/repositories"
	"github.com/akc-construction/crm/internal/testutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const actor = "pm@akc.example"

// Staff seeded into every test env.
const (
	hourlyEmployee   = "EMP-012" // 38.50 an hour
	salariedEmployee = "EMP-020" // 83200 a year over 40 hours
	subcontractor    = "SUB-007"
	supplier         = "VEND-003"
)

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	store     *testutil.Store
	objects   *testutil.ObjectStore
	recorder  *ActivityRecorder
	customers *CustomerService
	projects  *ProjectService
	costs     *CostService
	estimates *EstimateService
	employees *EmployeeService
	vendors   *VendorService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zap.NewNop()
	store := testutil.NewStore()
	objects := testutil.NewObjectStore()
	recorder := NewActivityRecorder(store.Activity)

	customers := NewCustomerService(store, store.Customers, store.Sequences, recorder, log)
	customers.now = func() time.Time { return fixedNow }

	projects := NewProjectService(store, store.Projects, store.Customers, store.TimeLogs, store.Receipts,
		store.SubInvoices, store.Estimates, store.Sequences, recorder, log)
	projects.now = func() time.Time { return fixedNow }

	seedStaff(store)

	return &testEnv{
		store:     store,
		objects:   objects,
		recorder:  recorder,
		customers: customers,
		projects:  projects,
		costs: NewCostService(store, store.Projects, store.Employees, store.Vendors, store.TimeLogs, store.Receipts,
			store.SubInvoices, objects, 15*time.Minute, recorder, log),
		estimates: NewEstimateService(store, store.Projects, store.Estimates, recorder, log),
		employees: NewEmployeeService(store, store.Employees, store.Sequences, recorder, log),
		vendors:   NewVendorService(store, store.Vendors, store.SubInvoices, store.Sequences, recorder, log),
	}
}

func seedStaff(store *testutil.Store) {
	store.Employees.Put(models.Employee{
		ID: hourlyEmployee, Name: "Luis Ortega", Department: "Construction", PaymentType: models.PaymentTypeHourly,
		HourlyRate: decimal.RequireFromString("38.50"), HoursPerWeek: 40, Active: true,
	})
	store.Employees.Put(models.Employee{
		ID: salariedEmployee, Name: "Dana Reyes", Department: "Management", PaymentType: models.PaymentTypeSalary,
		AnnualSalary: decimal.RequireFromString("83200"), HoursPerWeek: 40, Active: true,
	})
	store.Vendors.Put(models.Vendor{ID: subcontractor, Name: "Bayside Electric", VendorType: models.VendorTypeSubcontractor, Active: true})
	store.Vendors.Put(models.Vendor{ID: supplier, Name: "Pacific Lumber", VendorType: models.VendorTypeSupplier, Active: true})
}

func rate(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func (e *testEnv) customer(t *testing.T) *models.Customer {
	t.Helper()
	c, err := e.customers.Create(context.Background(), actor, CustomerInput{Name: "Harbor Builders"})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return c
}

// project creates a project and walks it forward to status.
func (e *testEnv) project(t *testing.T, status string) *models.Project {
	t.Helper()
	ctx := context.Background()
	c := e.customer(t)
	p, err := e.projects.Create(ctx, actor, ProjectInput{Name: "Dock Repair", CustomerID: c.ID})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	path := map[string][]string{
		models.ProjectStatusPending:    nil,
		models.ProjectStatusApproved:   {models.ProjectStatusApproved},
		models.ProjectStatusInProgress: {models.ProjectStatusApproved, models.ProjectStatusInProgress},
		models.ProjectStatusCompleted:  {models.ProjectStatusApproved, models.ProjectStatusInProgress, models.ProjectStatusCompleted},
		models.ProjectStatusClosed: {models.ProjectStatusApproved, models.ProjectStatusInProgress,
			models.ProjectStatusCompleted, models.ProjectStatusClosed},
		models.ProjectStatusCanceled: {models.ProjectStatusCanceled},
	}
	steps, ok := path[status]
	if !ok {
		t.Fatalf("no path to %q", status)
	}
	for _, s := range steps {
		if p, err = e.projects.ChangeStatus(ctx, actor, p.ID, s); err != nil {
			t.Fatalf("move project to %q: %v", s, err)
		}
	}
	return p
}

func assertValidation(t *testing.T, err error, field string) {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError on %q, got %v", field, err)
	}
	if verr.Field != field {
		t.Errorf("validation field = %q, want %q", verr.Field, field)
	}
}

// sequenceStub hands out values in order, ignoring the floor.
type sequenceStub struct {
	values []int
	calls  int
}

func (s *sequenceStub) Next(ctx context.Context, scope string, floor int) (int, error) {
	if s.calls >= len(s.values) {
		return 0, errors.New("sequence exhausted")
	}
	v := s.values[s.calls]
	s.calls++
	return v, nil
}

// entryDetails finds the single activity entry with action for ref and
// decodes its details into T.
func entryDetails[T any](t *testing.T, env *testEnv, ref, action string) T {
	t.Helper()
	entries, err := env.recorder.List(context.Background(), repositories.ActivityFilter{ReferenceID: ref})
	if err != nil {
		t.Fatal(err)
	}
	var found []models.ActivityLog
	for _, e := range entries {
		if e.Action == action {
			found = append(found, e)
		}
	}
	if len(found) != 1 {
		t.Fatalf("%q entries for %s = %d, want 1", action, ref, len(found))
	}

	var out T
	if err := json.Unmarshal(found[0].DetailsJSON, &out); err != nil {
		t.Fatalf("decode %s details: %v (%s)", action, err, found[0].DetailsJSON)
	}
	return out
}

// assertSameRecord fails unless got and want encode to the same JSON, which
// covers every exported field including ones added later.
func assertSameRecord(t *testing.T, got, want any) {
	t.Helper()
	g, err := json.Marshal(got)
	if err != nil {
		t.Fatal(err)
	}
	w, err := json.Marshal(want)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(g, w) {
		t.Errorf("details differ from record\n got: %s\nwant: %s", g, w)
	}
}

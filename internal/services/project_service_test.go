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

func TestProjectCreate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.customer(t)
	env.store.Projects.Put(models.Project{ID: "PROJ-2403-041", Name: "Earlier", CustomerID: c.ID, Status: models.ProjectStatusPending})
	env.store.Projects.Put(models.Project{ID: "PRJ-1a2b3c4d", Name: "Legacy", CustomerID: c.ID, Status: models.ProjectStatusClosed})

	p, err := env.projects.Create(ctx, actor, ProjectInput{Name: "Pier 9 Retrofit", CustomerID: c.ID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID != "PROJ-2403-042" {
		t.Errorf("id = %q, want PROJ-2403-042", p.ID)
	}
	if p.Status != models.ProjectStatusPending {
		t.Errorf("status = %q, want Pending", p.Status)
	}

	entries, _ := env.recorder.List(ctx, repositories.ActivityFilter{ModuleType: models.ModuleProjects})
	if len(entries) != 1 || entries[0].Action != models.ActionProjectCreated || entries[0].ReferenceID != p.ID {
		t.Fatalf("unexpected project activity: %+v", entries)
	}
}

func TestProjectCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	active := env.customer(t)
	archived := env.customer(t)
	if _, err := env.customers.ChangeStatus(ctx, actor, archived.ID, models.CustomerStatusArchived); err != nil {
		t.Fatal(err)
	}
	before := len(env.store.Activity.All())

	tests := []struct {
		name  string
		in    ProjectInput
		field string
	}{
		{"missing name", ProjectInput{CustomerID: active.ID}, "name"},
		{"missing customer", ProjectInput{Name: "X"}, "customer_id"},
		{"unknown customer", ProjectInput{Name: "X", CustomerID: "24-9999"}, "customer_id"},
		{"archived customer", ProjectInput{Name: "X", CustomerID: archived.ID}, "customer_id"},
		{"unknown status", ProjectInput{Name: "X", CustomerID: active.ID, Status: "On Hold"}, "status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.projects.Create(ctx, actor, tt.in)
			assertValidation(t, err, tt.field)
		})
	}

	if after := len(env.store.Activity.All()); after != before {
		t.Errorf("activity grew from %d to %d on rejected creates", before, after)
	}
}

func TestProjectCreateNormalizesLegacyStatus(t *testing.T) {
	env := newTestEnv(t)
	c := env.customer(t)

	p, err := env.projects.Create(context.Background(), actor, ProjectInput{Name: "Old Form", CustomerID: c.ID, Status: "Estimate"})
	if err != nil {
		t.Fatal(err)
	}
	if p.Status != models.ProjectStatusPending {
		t.Errorf("status = %q, want Pending", p.Status)
	}
}

func TestProjectChangeStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.project(t, models.ProjectStatusPending)

	updated, err := env.projects.ChangeStatus(ctx, actor, p.ID, models.ProjectStatusApproved)
	if err != nil {
		t.Fatalf("Pending -> Approved: %v", err)
	}
	if updated.Status != models.ProjectStatusApproved {
		t.Errorf("status = %q", updated.Status)
	}

	entries, _ := env.recorder.List(ctx, repositories.ActivityFilter{ReferenceID: p.ID})
	latest := entries[0]
	if latest.Action != models.ActionStatusChanged || *latest.Status != models.ProjectStatusApproved ||
		*latest.PreviousStatus != models.ProjectStatusPending || latest.ActorEmail != actor {
		t.Errorf("unexpected entry: %+v", latest)
	}
}

func TestProjectChangeStatusRejected(t *testing.T) {
	tests := []struct {
		from string
		to   string
	}{
		{models.ProjectStatusPending, models.ProjectStatusClosed},
		{models.ProjectStatusPending, models.ProjectStatusInProgress},
		{models.ProjectStatusCompleted, models.ProjectStatusCanceled},
		{models.ProjectStatusClosed, models.ProjectStatusPending},
		{models.ProjectStatusApproved, models.ProjectStatusApproved},
		{models.ProjectStatusApproved, "On Hold"},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			p := env.project(t, tt.from)
			before := len(env.store.Activity.All())

			_, err := env.projects.ChangeStatus(ctx, actor, p.ID, tt.to)
			var terr *TransitionError
			if !errors.As(err, &terr) || !errors.Is(err, ErrTransitionNotAllowed) {
				t.Fatalf("err = %v, want TransitionError", err)
			}
			if terr.From != tt.from || terr.To != tt.to {
				t.Errorf("TransitionError = %+v", terr)
			}

			stored, _ := env.projects.Get(ctx, p.ID)
			if stored.Status != tt.from {
				t.Errorf("status changed to %q on rejected move", stored.Status)
			}
			if after := len(env.store.Activity.All()); after != before {
				t.Errorf("activity written on rejected move")
			}
		})
	}
}

func TestProjectChangeStatusLegacySpelling(t *testing.T) {
	env := newTestEnv(t)
	p := env.project(t, models.ProjectStatusApproved)

	updated, err := env.projects.ChangeStatus(context.Background(), actor, p.ID, "Cancelled")
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != models.ProjectStatusCanceled {
		t.Errorf("status = %q, want Canceled", updated.Status)
	}
}

func TestProjectChangeStatusEmpty(t *testing.T) {
	env := newTestEnv(t)
	p := env.project(t, models.ProjectStatusPending)

	_, err := env.projects.ChangeStatus(context.Background(), actor, p.ID, " ")
	assertValidation(t, err, "status")
}

func TestProjectChangeStatusRollsBackWhenActivityFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.project(t, models.ProjectStatusPending)
	before := len(env.store.Activity.All())

	env.store.Fail(testutil.OpActivityInsert, errors.New("disk full"))
	if _, err := env.projects.ChangeStatus(ctx, actor, p.ID, models.ProjectStatusApproved); err == nil {
		t.Fatal("expected error when the activity insert fails")
	}
	env.store.ClearFaults()

	stored, _ := env.projects.Get(ctx, p.ID)
	if stored.Status != models.ProjectStatusPending {
		t.Errorf("status = %q, want the change rolled back", stored.Status)
	}
	if after := len(env.store.Activity.All()); after != before {
		t.Errorf("activity entries = %d, want %d", after, before)
	}
}

func TestProjectChangeStatusNoActivityWhenUpdateFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.project(t, models.ProjectStatusPending)
	before := len(env.store.Activity.All())

	env.store.Fail(testutil.OpProjectUpdateStatus, errors.New("connection reset"))
	_, err := env.projects.ChangeStatus(ctx, actor, p.ID, models.ProjectStatusApproved)
	env.store.ClearFaults()
	if err == nil {
		t.Fatal("expected store error")
	}
	if after := len(env.store.Activity.All()); after != before {
		t.Errorf("activity written for a failed mutation")
	}
}

func TestProjectChangeStatusConcurrentMove(t *testing.T) {
	env := newTestEnv(t)
	p := env.project(t, models.ProjectStatusPending)

	// The compare-and-set reports no row when another request moved the status first.
	env.store.Fail(testutil.OpProjectUpdateStatus, repositories.ErrNotFound)
	defer env.store.ClearFaults()

	_, err := env.projects.ChangeStatus(context.Background(), actor, p.ID, models.ProjectStatusApproved)
	if !errors.Is(err, ErrStatusConflict) {
		t.Fatalf("err = %v, want ErrStatusConflict", err)
	}
}

func TestProjectAllowedTransitions(t *testing.T) {
	env := newTestEnv(t)
	p := env.project(t, models.ProjectStatusInProgress)

	got, err := env.projects.AllowedTransitions(context.Background(), p.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{models.ProjectStatusCompleted, models.ProjectStatusCanceled}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("AllowedTransitions = %v, want %v", got, want)
	}

	if _, err := env.projects.AllowedTransitions(context.Background(), "PROJ-0000-000"); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("missing project: err = %v", err)
	}
}

func TestProjectSummary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.project(t, models.ProjectStatusApproved)

	if _, err := env.estimates.Create(ctx, actor, p.ID, decimal.RequireFromString("5000")); err != nil {
		t.Fatal(err)
	}
	est, _ := env.estimates.ListByProject(ctx, p.ID)
	if _, err := env.estimates.ChangeStatus(ctx, actor, est[0].ID, models.EstimateStatusApproved); err != nil {
		t.Fatal(err)
	}

	mustTimeLog(t, env, p.ID, "7.5", "42.00")
	mustTimeLog(t, env, p.ID, "2", "50")
	mustReceipt(t, env, p.ID, "100.00", "8.25")
	if _, err := env.costs.CreateSubInvoice(ctx, actor, SubInvoiceInput{
		ProjectID: p.ID, SubcontractorID: subcontractor, Amount: decimal.RequireFromString("1200.50"),
	}); err != nil {
		t.Fatal(err)
	}

	s, err := env.projects.Summary(ctx, p.ID)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"hours", s.TotalHours, "9.5"},
		{"labor", s.LaborCost, "415"},
		{"materials", s.MaterialsCost, "108.25"},
		{"subs", s.SubcontractorCost, "1200.5"},
		{"total", s.TotalCost, "1723.75"},
	}
	for _, c := range checks {
		if !c.got.Equal(decimal.RequireFromString(c.want)) {
			t.Errorf("%s = %s, want %s", c.name, c.got, c.want)
		}
	}
	if s.EstimateAmount == nil || !s.EstimateAmount.Equal(decimal.RequireFromString("5000")) {
		t.Errorf("estimate = %v", s.EstimateAmount)
	}
	if s.Variance == nil || !s.Variance.Equal(decimal.RequireFromString("3276.25")) {
		t.Errorf("variance = %v", s.Variance)
	}
}

func TestProjectSummaryWithoutApprovedEstimate(t *testing.T) {
	env := newTestEnv(t)
	p := env.project(t, models.ProjectStatusPending)

	s, err := env.projects.Summary(context.Background(), p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !s.TotalCost.IsZero() || s.EstimateAmount != nil || s.Variance != nil {
		t.Errorf("unexpected summary: %+v", s)
	}
}

func TestProjectReport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.project(t, models.ProjectStatusInProgress)
	mustTimeLog(t, env, p.ID, "4", "40")
	mustTimeLog(t, env, p.ID, "2", "40")
	mustReceipt(t, env, p.ID, "20", "1.5")

	r, err := env.projects.Report(ctx, p.ID)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if r.Project.ID != p.ID || len(r.TimeLogs) != 2 || len(r.Receipts) != 1 || len(r.SubInvoices) != 0 {
		t.Errorf("unexpected report: %+v", r)
	}
	if !r.Summary.TotalCost.Equal(decimal.RequireFromString("261.5")) {
		t.Errorf("total cost = %s", r.Summary.TotalCost)
	}
}

func TestProjectCreateDetailsCarryFullRecord(t *testing.T) {
	env := newTestEnv(t)
	c := env.customer(t)
	p, err := env.projects.Create(context.Background(), actor, ProjectInput{
		Name:        "Pier 9 Retrofit",
		CustomerID:  c.ID,
		Description: strPtr("Seismic upgrade"),
		SiteAddress: strPtr("Pier 9"),
		SiteCity:    strPtr("San Francisco"),
		SiteState:   strPtr("CA"),
		SiteZip:     strPtr("94111"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got := entryDetails[models.Project](t, env, p.ID, models.ActionProjectCreated)
	if got.ID != p.ID || got.Name != p.Name || got.CustomerID != p.CustomerID || got.Status != p.Status {
		t.Errorf("details = %+v, want %+v", got, *p)
	}
	if got.Description == nil || *got.Description != "Seismic upgrade" ||
		got.SiteCity == nil || *got.SiteCity != "San Francisco" || got.SiteZip == nil || *got.SiteZip != "94111" {
		t.Errorf("details site fields = %+v", got)
	}
	if !got.CreatedAt.Equal(p.CreatedAt) || got.CreatedBy != actor {
		t.Errorf("details created = %v by %q", got.CreatedAt, got.CreatedBy)
	}
	assertSameRecord(t, got, p)

	extra := entryDetails[struct {
		Folder string `json:"folder"`
	}](t, env, p.ID, models.ActionProjectCreated)
	if want := c.ID + "-" + p.ID + "-Pier_9_Retrofit"; extra.Folder != want {
		t.Errorf("folder = %q, want %q", extra.Folder, want)
	}
}

// racingProjects moves the project's status just before the descriptive
// update lands, as a concurrent request would.
type racingProjects struct {
	ProjectStore
	beforeUpdate func()
}

func (r *racingProjects) Update(ctx context.Context, p *models.Project) error {
	if r.beforeUpdate != nil {
		r.beforeUpdate()
		r.beforeUpdate = nil
	}
	return r.ProjectStore.Update(ctx, p)
}

func TestProjectUpdateReturnsStoredStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.project(t, models.ProjectStatusPending)

	projects := &racingProjects{ProjectStore: env.store.Projects}
	projects.beforeUpdate = func() {
		if err := env.store.Projects.UpdateStatus(ctx, p.ID, models.ProjectStatusPending, models.ProjectStatusApproved, "other@akc.example"); err != nil {
			t.Fatalf("concurrent status change: %v", err)
		}
	}
	svc := NewProjectService(env.store, projects, env.store.Customers, env.store.TimeLogs, env.store.Receipts,
		env.store.SubInvoices, env.store.Estimates, env.store.Sequences, env.recorder, zap.NewNop())

	updated, err := svc.Update(ctx, actor, p.ID, ProjectInput{Name: "Dock Repair Phase 2", CustomerID: p.CustomerID})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != models.ProjectStatusApproved {
		t.Errorf("returned status = %q, want Approved", updated.Status)
	}
	if updated.Name != "Dock Repair Phase 2" {
		t.Errorf("name = %q", updated.Name)
	}

	stored, _ := env.store.Projects.GetByID(ctx, p.ID)
	if stored.Status != models.ProjectStatusApproved || stored.Name != "Dock Repair Phase 2" {
		t.Errorf("stored = %+v", stored)
	}

	got := entryDetails[models.Project](t, env, p.ID, models.ActionProjectUpdated)
	if got.Status != models.ProjectStatusApproved {
		t.Errorf("activity details status = %q, want Approved", got.Status)
	}
	entries, _ := env.recorder.List(ctx, repositories.ActivityFilter{ReferenceID: p.ID})
	if entries[0].Action != models.ActionProjectUpdated || entries[0].Status == nil || *entries[0].Status != models.ProjectStatusApproved {
		t.Errorf("latest activity = %+v", entries[0])
	}
}

func TestProjectUpdateMissingProject(t *testing.T) {
	env := newTestEnv(t)
	c := env.customer(t)
	_, err := env.projects.Update(context.Background(), actor, "PROJ-2403-999", ProjectInput{Name: "X", CustomerID: c.ID})
	if !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if n := len(env.store.Activity.All()); n != 1 {
		t.Errorf("activity entries = %d, want only the customer's", n)
	}
}

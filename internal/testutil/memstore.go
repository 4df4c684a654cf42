// Package testutil provides an in-memory implementation of the service store
// interfaces for unit and handler tests.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/akc-construction/crm/internal/models"
	"github.com/akc-construction/crm/internal/repositories"
	"github.com/akc-construction/crm/internal/seqid"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Operation names accepted by Store.Fail.
const (
	OpCustomerCreate       = "customers.create"
	OpCustomerUpdateStatus = "customers.update_status"
	OpProjectCreate        = "projects.create"
	OpProjectUpdateStatus  = "projects.update_status"
	OpTimeLogCreate        = "time_logs.create"
	OpReceiptCreate        = "receipts.create"
	OpEstimateCreate       = "estimates.create"
	OpEmployeeCreate       = "employees.create"
	OpVendorCreate         = "vendors.create"
	OpActivityInsert       = "activity.insert"
	OpActivityMarkPublish  = "activity.mark_published"
	OpSequenceNext         = "sequences.next"
)

type state struct {
	customers   map[string]models.Customer
	projects    map[string]models.Project
	timeLogs    map[string]models.TimeLog
	receipts    map[string]models.MaterialsReceipt
	subInvoices map[string]models.SubInvoice
	estimates   map[string]models.Estimate
	employees   map[string]models.Employee
	vendors     map[string]models.Vendor
	activity    []models.ActivityLog
	sequences   map[string]int
	users       map[string]models.User
}

func newState() state {
	return state{
		customers:   map[string]models.Customer{},
		projects:    map[string]models.Project{},
		timeLogs:    map[string]models.TimeLog{},
		receipts:    map[string]models.MaterialsReceipt{},
		subInvoices: map[string]models.SubInvoice{},
		estimates:   map[string]models.Estimate{},
		employees:   map[string]models.Employee{},
		vendors:     map[string]models.Vendor{},
		sequences:   map[string]int{},
		users:       map[string]models.User{},
	}
}

func (st state) clone() state {
	c := newState()
	for k, v := range st.customers {
		c.customers[k] = v
	}
	for k, v := range st.projects {
		c.projects[k] = v
	}
	for k, v := range st.timeLogs {
		c.timeLogs[k] = v
	}
	for k, v := range st.receipts {
		c.receipts[k] = v
	}
	for k, v := range st.subInvoices {
		c.subInvoices[k] = v
	}
	for k, v := range st.estimates {
		c.estimates[k] = v
	}
	for k, v := range st.employees {
		c.employees[k] = v
	}
	for k, v := range st.vendors {
		c.vendors[k] = v
	}
	for k, v := range st.sequences {
		c.sequences[k] = v
	}
	for k, v := range st.users {
		c.users[k] = v
	}
	c.activity = append([]models.ActivityLog(nil), st.activity...)
	return c
}

type txKey struct{}

// Store keeps every table in memory. Transactions snapshot the whole state
// and restore it when the callback fails. Transactions are serialised.
type Store struct {
	mu     sync.Mutex
	txMu   sync.Mutex
	st     state
	faults map[string]error
	now    time.Time

	Customers   *CustomerTable
	Projects    *ProjectTable
	TimeLogs    *TimeLogTable
	Receipts    *ReceiptTable
	SubInvoices *SubInvoiceTable
	Estimates   *EstimateTable
	Employees   *EmployeeTable
	Vendors     *VendorTable
	Activity    *ActivityTable
	Sequences   *SequenceTable
	Users       *UserTable
}

func NewStore() *Store {
	s := &Store{
		st:     newState(),
		faults: map[string]error{},
		now:    time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	s.Customers = &CustomerTable{s}
	s.Projects = &ProjectTable{s}
	s.TimeLogs = &TimeLogTable{s}
	s.Receipts = &ReceiptTable{s}
	s.SubInvoices = &SubInvoiceTable{s}
	s.Estimates = &EstimateTable{s}
	s.Employees = &EmployeeTable{s}
	s.Vendors = &VendorTable{s}
	s.Activity = &ActivityTable{s}
	s.Sequences = &SequenceTable{s}
	s.Users = &UserTable{s}
	return s
}

// Fail makes op return err until ClearFaults is called.
func (s *Store) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

func (s *Store) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = map[string]error{}
}

// tick returns a strictly increasing timestamp. Callers hold mu.
func (s *Store) tick() time.Time {
	s.now = s.now.Add(time.Second)
	return s.now
}

// lock takes mu and returns the fault registered for op, if any.
func (s *Store) lock(op string) error {
	s.mu.Lock()
	return s.faults[op]
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.st.clone()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.st = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func duplicate(table string) error {
	return fmt.Errorf("%w: %s_pkey", repositories.ErrDuplicateKey, table)
}

func page[T any](items []T, limit, offset, def, max int) []T {
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func contains(field *string, needle string) bool {
	return field != nil && strings.Contains(strings.ToLower(*field), needle)
}

func highest(ids []string, prefix string) string {
	n := seqid.Highest(ids, prefix)
	if n == 0 {
		return ""
	}
	for _, id := range ids {
		if v, ok := seqid.ParseSequence(id, prefix); ok && v == n {
			return id
		}
	}
	return ""
}

// ---- Customers ----

type CustomerTable struct{ s *Store }

func (t *CustomerTable) Create(ctx context.Context, c *models.Customer) error {
	if err := t.s.lock(OpCustomerCreate); err != nil {
		t.s.mu.Unlock()
		return err
	}
	defer t.s.mu.Unlock()

	if _, ok := t.s.st.customers[c.ID]; ok {
		return duplicate("customers")
	}
	c.CreatedAt = t.s.tick()
	c.UpdatedAt = c.CreatedAt
	t.s.st.customers[c.ID] = *c
	return nil
}

// Put stores c as-is, bypassing validation. Used to seed fixtures.
func (t *CustomerTable) Put(c models.Customer) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.st.customers[c.ID] = c
}

func (t *CustomerTable) GetByID(ctx context.Context, id string) (*models.Customer, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	c, ok := t.s.st.customers[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &c, nil
}

func (t *CustomerTable) Update(ctx context.Context, c *models.Customer) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	cur, ok := t.s.st.customers[c.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	c.Status = cur.Status
	c.CreatedAt, c.CreatedBy = cur.CreatedAt, cur.CreatedBy
	c.UpdatedAt = t.s.tick()
	t.s.st.customers[c.ID] = *c
	return nil
}

func (t *CustomerTable) UpdateStatus(ctx context.Context, id, from, to, actor string) error {
	if err := t.s.lock(OpCustomerUpdateStatus); err != nil {
		t.s.mu.Unlock()
		return err
	}
	defer t.s.mu.Unlock()
	c, ok := t.s.st.customers[id]
	if !ok || c.Status != from {
		return repositories.ErrNotFound
	}
	c.Status = to
	c.LastModifiedBy = &actor
	c.UpdatedAt = t.s.tick()
	t.s.st.customers[id] = c
	return nil
}

func (t *CustomerTable) HighestIDWithPrefix(ctx context.Context, prefix string) (string, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	ids := make([]string, 0, len(t.s.st.customers))
	for id := range t.s.st.customers {
		ids = append(ids, id)
	}
	return highest(ids, prefix), nil
}

func (t *CustomerTable) List(ctx context.Context, f repositories.CustomerFilter) ([]models.Customer, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	search := strings.ToLower(f.Search)
	out := []models.Customer{}
	for _, c := range t.s.st.customers {
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if search != "" && !contains(&c.Name, search) && !contains(c.City, search) &&
			!contains(c.ContactEmail, search) && !contains(&c.ID, search) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, f.Limit, f.Offset, 20, 100), nil
}

// ---- Projects ----

type ProjectTable struct{ s *Store }

func (t *ProjectTable) Create(ctx context.Context, p *models.Project) error {
	if err := t.s.lock(OpProjectCreate); err != nil {
		t.s.mu.Unlock()
		return err
	}
	defer t.s.mu.Unlock()
	if _, ok := t.s.st.projects[p.ID]; ok {
		return duplicate("projects")
	}
	if _, ok := t.s.st.customers[p.CustomerID]; !ok {
		return fmt.Errorf("projects_customer_id_fkey: customer %q missing", p.CustomerID)
	}
	p.CreatedAt = t.s.tick()
	p.UpdatedAt = p.CreatedAt
	t.s.st.projects[p.ID] = *p
	return nil
}

func (t *ProjectTable) Put(p models.Project) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.st.projects[p.ID] = p
}

func (t *ProjectTable) GetByID(ctx context.Context, id string) (*models.Project, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	p, ok := t.s.st.projects[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &p, nil
}

func (t *ProjectTable) Update(ctx context.Context, p *models.Project) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	cur, ok := t.s.st.projects[p.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	p.Status = cur.Status
	p.CreatedAt, p.CreatedBy = cur.CreatedAt, cur.CreatedBy
	p.UpdatedAt = t.s.tick()
	t.s.st.projects[p.ID] = *p
	return nil
}

func (t *ProjectTable) UpdateStatus(ctx context.Context, id, from, to, actor string) error {
	if err := t.s.lock(OpProjectUpdateStatus); err != nil {
		t.s.mu.Unlock()
		return err
	}
	defer t.s.mu.Unlock()
	p, ok := t.s.st.projects[id]
	if !ok || p.Status != from {
		return repositories.ErrNotFound
	}
	p.Status = to
	p.LastModifiedBy = &actor
	p.UpdatedAt = t.s.tick()
	t.s.st.projects[id] = p
	return nil
}

func (t *ProjectTable) HighestIDWithPrefix(ctx context.Context, prefix string) (string, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	ids := make([]string, 0, len(t.s.st.projects))
	for id := range t.s.st.projects {
		ids = append(ids, id)
	}
	return highest(ids, prefix), nil
}

func (t *ProjectTable) List(ctx context.Context, f repositories.ProjectFilter) ([]models.Project, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	search := strings.ToLower(f.Search)
	out := []models.Project{}
	for _, p := range t.s.st.projects {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.CustomerID != "" && p.CustomerID != f.CustomerID {
			continue
		}
		if search != "" && !contains(&p.Name, search) && !contains(p.Description, search) &&
			!contains(p.SiteCity, search) && !contains(&p.ID, search) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, f.Limit, f.Offset, 20, 100), nil
}

// ---- Time logs ----

type TimeLogTable struct{ s *Store }

func (t *TimeLogTable) Create(ctx context.Context, l *models.TimeLog) error {
	if err := t.s.lock(OpTimeLogCreate); err != nil {
		t.s.mu.Unlock()
		return err
	}
	defer t.s.mu.Unlock()
	if _, ok := t.s.st.timeLogs[l.ID]; ok {
		return duplicate("time_logs")
	}
	l.CreatedAt = t.s.tick()
	t.s.st.timeLogs[l.ID] = *l
	return nil
}

func (t *TimeLogTable) GetByID(ctx context.Context, id string) (*models.TimeLog, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	l, ok := t.s.st.timeLogs[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &l, nil
}

func (t *TimeLogTable) Delete(ctx context.Context, id string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.st.timeLogs[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(t.s.st.timeLogs, id)
	return nil
}

func (t *TimeLogTable) List(ctx context.Context, f repositories.TimeLogFilter) ([]models.TimeLog, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	out := []models.TimeLog{}
	for _, l := range t.s.st.timeLogs {
		if f.ProjectID != "" && l.ProjectID != f.ProjectID {
			continue
		}
		if f.EmployeeID != "" && l.EmployeeID != f.EmployeeID {
			continue
		}
		if f.DateFrom != nil && l.EntryDate.Before(*f.DateFrom) {
			continue
		}
		if f.DateTo != nil && l.EntryDate.After(*f.DateTo) {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EntryDate.Equal(out[j].EntryDate) {
			return out[i].EntryDate.After(out[j].EntryDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, f.Limit, f.Offset, 50, 500), nil
}

func (t *TimeLogTable) SumByProject(ctx context.Context, projectID string) (decimal.Decimal, decimal.Decimal, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	hours, total := decimal.Zero, decimal.Zero
	for _, l := range t.s.st.timeLogs {
		if l.ProjectID == projectID {
			hours = hours.Add(l.Hours)
			total = total.Add(l.TotalAmount)
		}
	}
	return hours, total, nil
}

// ---- Materials receipts ----

type ReceiptTable struct{ s *Store }

func (t *ReceiptTable) Create(ctx context.Context, m *models.MaterialsReceipt) error {
	if err := t.s.lock(OpReceiptCreate); err != nil {
		t.s.mu.Unlock()
		return err
	}
	defer t.s.mu.Unlock()
	if _, ok := t.s.st.receipts[m.ID]; ok {
		return duplicate("materials_receipts")
	}
	m.CreatedAt = t.s.tick()
	t.s.st.receipts[m.ID] = *m
	return nil
}

func (t *ReceiptTable) GetByID(ctx context.Context, id string) (*models.MaterialsReceipt, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	m, ok := t.s.st.receipts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &m, nil
}

func (t *ReceiptTable) SetAttachment(ctx context.Context, id, key string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	m, ok := t.s.st.receipts[id]
	if !ok {
		return repositories.ErrNotFound
	}
	m.AttachmentKey = &key
	t.s.st.receipts[id] = m
	return nil
}

func (t *ReceiptTable) List(ctx context.Context, f repositories.ReceiptFilter) ([]models.MaterialsReceipt, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	vendor := strings.ToLower(f.Vendor)
	out := []models.MaterialsReceipt{}
	for _, m := range t.s.st.receipts {
		if f.ProjectID != "" && m.ProjectID != f.ProjectID {
			continue
		}
		if vendor != "" && !contains(&m.VendorName, vendor) {
			continue
		}
		if f.DateFrom != nil && m.ReceiptDate.Before(*f.DateFrom) {
			continue
		}
		if f.DateTo != nil && m.ReceiptDate.After(*f.DateTo) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReceiptDate.Equal(out[j].ReceiptDate) {
			return out[i].ReceiptDate.After(out[j].ReceiptDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, f.Limit, f.Offset, 50, 500), nil
}

func (t *ReceiptTable) SumByProject(ctx context.Context, projectID string) (decimal.Decimal, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	total := decimal.Zero
	for _, m := range t.s.st.receipts {
		if m.ProjectID == projectID {
			total = total.Add(m.GrandTotal)
		}
	}
	return total, nil
}

// ---- Sub invoices ----

type SubInvoiceTable struct{ s *Store }

func (t *SubInvoiceTable) Create(ctx context.Context, inv *models.SubInvoice) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.st.subInvoices[inv.ID]; ok {
		return duplicate("sub_invoices")
	}
	inv.CreatedAt = t.s.tick()
	t.s.st.subInvoices[inv.ID] = *inv
	return nil
}

func (t *SubInvoiceTable) ListByProject(ctx context.Context, projectID string) ([]models.SubInvoice, error) {
	return t.list(func(inv models.SubInvoice) bool { return inv.ProjectID == projectID }), nil
}

func (t *SubInvoiceTable) ListBySubcontractor(ctx context.Context, subcontractorID string) ([]models.SubInvoice, error) {
	return t.list(func(inv models.SubInvoice) bool { return inv.SubcontractorID == subcontractorID }), nil
}

func (t *SubInvoiceTable) list(keep func(models.SubInvoice) bool) []models.SubInvoice {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	out := []models.SubInvoice{}
	for _, inv := range t.s.st.subInvoices {
		if keep(inv) {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (t *SubInvoiceTable) SumByProject(ctx context.Context, projectID string) (decimal.Decimal, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	total := decimal.Zero
	for _, inv := range t.s.st.subInvoices {
		if inv.ProjectID == projectID {
			total = total.Add(inv.Amount)
		}
	}
	return total, nil
}

// ---- Estimates ----

type EstimateTable struct{ s *Store }

func (t *EstimateTable) Create(ctx context.Context, e *models.Estimate) error {
	if err := t.s.lock(OpEstimateCreate); err != nil {
		t.s.mu.Unlock()
		return err
	}
	defer t.s.mu.Unlock()
	for _, cur := range t.s.st.estimates {
		if cur.ID == e.ID || (cur.ProjectID == e.ProjectID && cur.Version == e.Version) {
			return duplicate("estimates")
		}
	}
	e.CreatedAt = t.s.tick()
	e.UpdatedAt = e.CreatedAt
	t.s.st.estimates[e.ID] = *e
	return nil
}

func (t *EstimateTable) GetByID(ctx context.Context, id string) (*models.Estimate, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	e, ok := t.s.st.estimates[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &e, nil
}

func (t *EstimateTable) UpdateStatus(ctx context.Context, id, from, to string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	e, ok := t.s.st.estimates[id]
	if !ok || e.Status != from {
		return repositories.ErrNotFound
	}
	e.Status = to
	e.UpdatedAt = t.s.tick()
	t.s.st.estimates[id] = e
	return nil
}

func (t *EstimateTable) MaxVersion(ctx context.Context, projectID string) (int, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	max := 0
	for _, e := range t.s.st.estimates {
		if e.ProjectID == projectID && e.Version > max {
			max = e.Version
		}
	}
	return max, nil
}

func (t *EstimateTable) ListByProject(ctx context.Context, projectID string) ([]models.Estimate, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	out := []models.Estimate{}
	for _, e := range t.s.st.estimates {
		if e.ProjectID == projectID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	return out, nil
}

func (t *EstimateTable) LatestApproved(ctx context.Context, projectID string) (*models.Estimate, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var best *models.Estimate
	for _, e := range t.s.st.estimates {
		if e.ProjectID != projectID || e.Status != models.EstimateStatusApproved {
			continue
		}
		if best == nil || e.Version > best.Version {
			e := e
			best = &e
		}
	}
	if best == nil {
		return nil, repositories.ErrNotFound
	}
	return best, nil
}

// ---- Employees ----

type EmployeeTable struct{ s *Store }

func (t *EmployeeTable) Create(ctx context.Context, e *models.Employee) error {
	if err := t.s.lock(OpEmployeeCreate); err != nil {
		t.s.mu.Unlock()
		return err
	}
	defer t.s.mu.Unlock()
	if _, ok := t.s.st.employees[e.ID]; ok {
		return duplicate("employees")
	}
	e.CreatedAt = t.s.tick()
	e.UpdatedAt = e.CreatedAt
	t.s.st.employees[e.ID] = *e
	return nil
}

// Put stores e as-is. Used to seed fixtures.
func (t *EmployeeTable) Put(e models.Employee) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.st.employees[e.ID] = e
}

func (t *EmployeeTable) GetByID(ctx context.Context, id string) (*models.Employee, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	e, ok := t.s.st.employees[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &e, nil
}

func (t *EmployeeTable) Update(ctx context.Context, e *models.Employee) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	cur, ok := t.s.st.employees[e.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	e.Active = cur.Active
	e.CreatedAt, e.CreatedBy = cur.CreatedAt, cur.CreatedBy
	e.UpdatedAt = t.s.tick()
	t.s.st.employees[e.ID] = *e
	return nil
}

func (t *EmployeeTable) SetActive(ctx context.Context, id string, active bool, actor string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	e, ok := t.s.st.employees[id]
	if !ok {
		return repositories.ErrNotFound
	}
	e.Active = active
	e.LastModifiedBy = &actor
	e.UpdatedAt = t.s.tick()
	t.s.st.employees[id] = e
	return nil
}

func (t *EmployeeTable) HighestIDWithPrefix(ctx context.Context, prefix string) (string, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	ids := make([]string, 0, len(t.s.st.employees))
	for id := range t.s.st.employees {
		ids = append(ids, id)
	}
	return highest(ids, prefix), nil
}

func (t *EmployeeTable) List(ctx context.Context, f repositories.EmployeeFilter) ([]models.Employee, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	search := strings.ToLower(f.Search)
	out := []models.Employee{}
	for _, e := range t.s.st.employees {
		if f.Department != "" && e.Department != f.Department {
			continue
		}
		if f.PaymentType != "" && e.PaymentType != f.PaymentType {
			continue
		}
		if f.Active != nil && e.Active != *f.Active {
			continue
		}
		if search != "" && !contains(&e.Name, search) && !contains(e.Email, search) &&
			!contains(e.Position, search) && !contains(&e.ID, search) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return page(out, f.Limit, f.Offset, 50, 200), nil
}

// ---- Vendors ----

type VendorTable struct{ s *Store }

func (t *VendorTable) Create(ctx context.Context, v *models.Vendor) error {
	if err := t.s.lock(OpVendorCreate); err != nil {
		t.s.mu.Unlock()
		return err
	}
	defer t.s.mu.Unlock()
	if _, ok := t.s.st.vendors[v.ID]; ok {
		return duplicate("vendors")
	}
	v.CreatedAt = t.s.tick()
	v.UpdatedAt = v.CreatedAt
	t.s.st.vendors[v.ID] = *v
	return nil
}

// Put stores v as-is. Used to seed fixtures.
func (t *VendorTable) Put(v models.Vendor) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.st.vendors[v.ID] = v
}

func (t *VendorTable) GetByID(ctx context.Context, id string) (*models.Vendor, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	v, ok := t.s.st.vendors[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &v, nil
}

func (t *VendorTable) Update(ctx context.Context, v *models.Vendor) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	cur, ok := t.s.st.vendors[v.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	v.VendorType, v.Active = cur.VendorType, cur.Active
	v.CreatedAt, v.CreatedBy = cur.CreatedAt, cur.CreatedBy
	v.UpdatedAt = t.s.tick()
	t.s.st.vendors[v.ID] = *v
	return nil
}

func (t *VendorTable) SetActive(ctx context.Context, id string, active bool, actor string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	v, ok := t.s.st.vendors[id]
	if !ok {
		return repositories.ErrNotFound
	}
	v.Active = active
	v.LastModifiedBy = &actor
	v.UpdatedAt = t.s.tick()
	t.s.st.vendors[id] = v
	return nil
}

func (t *VendorTable) HighestIDWithPrefix(ctx context.Context, prefix string) (string, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	ids := make([]string, 0, len(t.s.st.vendors))
	for id := range t.s.st.vendors {
		ids = append(ids, id)
	}
	return highest(ids, prefix), nil
}

func (t *VendorTable) List(ctx context.Context, f repositories.VendorFilter) ([]models.Vendor, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	search := strings.ToLower(f.Search)
	out := []models.Vendor{}
	for _, v := range t.s.st.vendors {
		if f.Type != "" && v.VendorType != f.Type {
			continue
		}
		if f.Active != nil && v.Active != *f.Active {
			continue
		}
		if search != "" && !contains(&v.Name, search) && !contains(v.ContactName, search) &&
			!contains(v.Email, search) && !contains(&v.ID, search) {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return page(out, f.Limit, f.Offset, 50, 200), nil
}

// ---- Activity log ----

type ActivityTable struct{ s *Store }

func (t *ActivityTable) Insert(ctx context.Context, entry *models.ActivityLog) error {
	if err := t.s.lock(OpActivityInsert); err != nil {
		t.s.mu.Unlock()
		return err
	}
	defer t.s.mu.Unlock()
	entry.ID = uuid.New()
	entry.CreatedAt = t.s.tick()
	t.s.st.activity = append(t.s.st.activity, *entry)
	return nil
}

// All returns every entry in insertion order.
func (t *ActivityTable) All() []models.ActivityLog {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return append([]models.ActivityLog(nil), t.s.st.activity...)
}

func (t *ActivityTable) List(ctx context.Context, f repositories.ActivityFilter) ([]models.ActivityLog, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	out := []models.ActivityLog{}
	for i := len(t.s.st.activity) - 1; i >= 0; i-- {
		e := t.s.st.activity[i]
		if f.ModuleType != "" && e.ModuleType != f.ModuleType {
			continue
		}
		if f.ReferenceID != "" && e.ReferenceID != f.ReferenceID {
			continue
		}
		if f.ActorEmail != "" && e.ActorEmail != f.ActorEmail {
			continue
		}
		out = append(out, e)
	}
	return page(out, f.Limit, f.Offset, 50, 200), nil
}

func (t *ActivityTable) ListUnpublished(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	out := []models.ActivityLog{}
	for _, e := range t.s.st.activity {
		if e.PublishedAt == nil {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (t *ActivityTable) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	if err := t.s.lock(OpActivityMarkPublish); err != nil {
		t.s.mu.Unlock()
		return err
	}
	defer t.s.mu.Unlock()
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	at := t.s.tick()
	for i := range t.s.st.activity {
		if set[t.s.st.activity[i].ID] && t.s.st.activity[i].PublishedAt == nil {
			t.s.st.activity[i].PublishedAt = &at
		}
	}
	return nil
}

// ---- Sequences ----

type SequenceTable struct{ s *Store }

func (t *SequenceTable) Next(ctx context.Context, scope string, floor int) (int, error) {
	if err := t.s.lock(OpSequenceNext); err != nil {
		t.s.mu.Unlock()
		return 0, err
	}
	defer t.s.mu.Unlock()
	v := t.s.st.sequences[scope]
	if floor > v {
		v = floor
	}
	v++
	t.s.st.sequences[scope] = v
	return v, nil
}

// ---- Users ----

type UserTable struct{ s *Store }

func (t *UserTable) CreateIfMissing(ctx context.Context, u *models.User) (bool, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.st.users[u.Email]; ok {
		return false, nil
	}
	u.ID = uuid.New()
	u.CreatedAt = t.s.tick()
	t.s.st.users[u.Email] = *u
	return true, nil
}

func (t *UserTable) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	u, ok := t.s.st.users[email]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (t *UserTable) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, u := range t.s.st.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (t *UserTable) TouchLogin(ctx context.Context, id uuid.UUID) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for email, u := range t.s.st.users {
		if u.ID == id {
			at := t.s.tick()
			u.LastLoginAt = &at
			t.s.st.users[email] = u
			return nil
		}
	}
	return repositories.ErrNotFound
}

// ---- Objects ----

// ObjectStore keeps uploaded attachments in memory.
type ObjectStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Types   map[string]string
	PutErr  error
}

func NewObjectStore() *ObjectStore {
	return &ObjectStore{Objects: map[string][]byte{}, Types: map[string]string{}}
}

func (o *ObjectStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if o.PutErr != nil {
		return o.PutErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return errors.New("object size mismatch")
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Objects[key] = data
	o.Types[key] = contentType
	return nil
}

func (o *ObjectStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.Objects[key]; !ok {
		return "", repositories.ErrNotFound
	}
	return fmt.Sprintf("https://objects.test/%s?expires=%d", key, int(ttl.Seconds())), nil
}

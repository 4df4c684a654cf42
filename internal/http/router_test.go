package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/akc-construction/crm/internal/auth"
	"github.com/akc-construction/crm/internal/config"
	"github.com/akc-construction/crm/internal/http/handlers"
	"github.com/akc-construction/crm/internal/models"
	"github.com/akc-construction/crm/internal/rbac"
	"github.com/akc-construction/crm/internal/services"
	"github.com/akc-construction/crm/internal/testutil"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const testSecret = "router-test-secret"

type testServer struct {
	app     *fiber.App
	store   *testutil.Store
	objects *testutil.ObjectStore
	authSvc *services.AuthService
}

type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
	Field string          `json:"field"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zap.NewNop()
	cfg := &config.Config{
		JWTSecret:        testSecret,
		JWTExpiration:    time.Hour,
		AttachmentURLTTL: 10 * time.Minute,
		MaxUploadBytes:   1024,
	}

	store := testutil.NewStore()
	objects := testutil.NewObjectStore()
	recorder := services.NewActivityRecorder(store.Activity)
	authSvc := services.NewAuthService(store.Users, cfg.JWTSecret, cfg.JWTExpiration, log)
	customerSvc := services.NewCustomerService(store, store.Customers, store.Sequences, recorder, log)
	projectSvc := services.NewProjectService(store, store.Projects, store.Customers, store.TimeLogs, store.Receipts,
		store.SubInvoices, store.Estimates, store.Sequences, recorder, log)
	costSvc := services.NewCostService(store, store.Projects, store.Employees, store.Vendors, store.TimeLogs, store.Receipts,
		store.SubInvoices, objects, cfg.AttachmentURLTTL, recorder, log)
	estimateSvc := services.NewEstimateService(store, store.Projects, store.Estimates, recorder, log)
	employeeSvc := services.NewEmployeeService(store, store.Employees, store.Sequences, recorder, log)
	vendorSvc := services.NewVendorService(store, store.Vendors, store.SubInvoices, store.Sequences, recorder, log)

	app := fiber.New()
	SetupRouter(app, cfg, log, nil, Handlers{
		Auth:     handlers.NewAuthHandler(authSvc, log),
		Customer: handlers.NewCustomerHandler(customerSvc, log),
		Project:  handlers.NewProjectHandler(projectSvc, log),
		Cost:     handlers.NewCostHandler(costSvc, int64(cfg.MaxUploadBytes), cfg.AttachmentURLTTL, log),
		Estimate: handlers.NewEstimateHandler(estimateSvc, log),
		Employee: handlers.NewEmployeeHandler(employeeSvc, log),
		Vendor:   handlers.NewVendorHandler(vendorSvc, log),
		Activity: handlers.NewActivityHandler(recorder, log),
	})

	return &testServer{app: app, store: store, objects: objects, authSvc: authSvc}
}

func token(t *testing.T, email, role string) string {
	t.Helper()
	tok, err := auth.GenerateJWT(testSecret, uuid.New(), email, role, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func (s *testServer) do(t *testing.T, method, path, tok string, body any) (int, envelope) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return s.send(t, req)
}

func (s *testServer) send(t *testing.T, req *nethttp.Request) (int, envelope) {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &env)
	}
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode %s: %v", env.Data, err)
	}
	return v
}

// seedProject creates a customer and project over the API and moves the
// project to Approved.
func (s *testServer) seedProject(t *testing.T, tok string) models.Project {
	t.Helper()
	code, env := s.do(t, "POST", "/api/v1/customers", tok, map[string]any{"name": "Harbor Builders"})
	if code != fiber.StatusCreated {
		t.Fatalf("create customer = %d %s", code, env.Error)
	}
	customer := decode[models.Customer](t, env)

	code, env = s.do(t, "POST", "/api/v1/projects", tok, map[string]any{"name": "Dock Repair", "customer_id": customer.ID})
	if code != fiber.StatusCreated {
		t.Fatalf("create project = %d %s", code, env.Error)
	}
	project := decode[models.Project](t, env)

	code, env = s.do(t, "POST", "/api/v1/projects/"+project.ID+"/status", tok, map[string]any{"status": models.ProjectStatusApproved})
	if code != fiber.StatusOK {
		t.Fatalf("approve project = %d %s", code, env.Error)
	}
	return decode[models.Project](t, env)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/health", "/metrics"} {
		resp, err := s.app.Test(httptest.NewRequest("GET", path, nil), -1)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Errorf("GET %s = %d", path, resp.StatusCode)
		}
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	if code, _ := s.do(t, "GET", "/api/v1/customers", "", nil); code != fiber.StatusUnauthorized {
		t.Errorf("no token = %d, want 401", code)
	}
}

func TestPermissionsByRole(t *testing.T) {
	s := newTestServer(t)
	field := token(t, "crew@akc.example", rbac.RoleField)

	if code, _ := s.do(t, "POST", "/api/v1/customers", field, map[string]any{"name": "X"}); code != fiber.StatusForbidden {
		t.Errorf("field create customer = %d, want 403", code)
	}
	if code, _ := s.do(t, "GET", "/api/v1/customers", field, nil); code != fiber.StatusOK {
		t.Errorf("field list customers = %d, want 200", code)
	}
	if code, _ := s.do(t, "GET", "/api/v1/activity", field, nil); code != fiber.StatusForbidden {
		t.Errorf("field activity = %d, want 403", code)
	}
}

func TestProjectStatusFlow(t *testing.T) {
	s := newTestServer(t)
	admin := token(t, "pm@akc.example", rbac.RoleAdmin)
	project := s.seedProject(t, admin)

	code, env := s.do(t, "POST", "/api/v1/projects/"+project.ID+"/status", admin, map[string]any{"status": models.ProjectStatusClosed})
	if code != fiber.StatusConflict {
		t.Fatalf("Approved -> Closed = %d, want 409", code)
	}
	if env.Error == "" {
		t.Error("conflict should carry an error message")
	}

	code, env = s.do(t, "GET", "/api/v1/projects/"+project.ID+"/transitions", admin, nil)
	if code != fiber.StatusOK {
		t.Fatalf("transitions = %d", code)
	}
	tr := decode[struct {
		Current string   `json:"current"`
		Allowed []string `json:"allowed"`
	}](t, env)
	if tr.Current != models.ProjectStatusApproved || len(tr.Allowed) != 2 {
		t.Errorf("transitions = %+v", tr)
	}

	code, env = s.do(t, "GET", "/api/v1/activity?reference_id="+project.ID, admin, nil)
	if code != fiber.StatusOK {
		t.Fatalf("activity = %d", code)
	}
	entries := decode[[]models.ActivityLog](t, env)
	if len(entries) != 2 {
		t.Fatalf("activity for project = %d entries, want created + status change", len(entries))
	}
	for _, e := range entries {
		if e.ActorEmail != "pm@akc.example" {
			t.Errorf("actor = %q", e.ActorEmail)
		}
	}
}

func TestValidationAndNotFound(t *testing.T) {
	s := newTestServer(t)
	admin := token(t, "pm@akc.example", rbac.RoleAdmin)

	code, env := s.do(t, "POST", "/api/v1/customers", admin, map[string]any{"name": "  "})
	if code != fiber.StatusBadRequest || env.Field != "name" {
		t.Errorf("blank name = %d field %q, want 400 on name", code, env.Field)
	}

	if code, _ := s.do(t, "GET", "/api/v1/customers/24-9999", admin, nil); code != fiber.StatusNotFound {
		t.Errorf("missing customer = %d, want 404", code)
	}

	code, env = s.do(t, "POST", "/api/v1/time-logs", admin, map[string]any{
		"project_id": "PROJ-2403-001", "employee_id": "E-1", "entry_date": "03/15/2024", "hours": "2",
	})
	if code != fiber.StatusBadRequest || !strings.Contains(env.Error, "entry_date") {
		t.Errorf("bad date = %d %q", code, env.Error)
	}
}

func TestCostModulesFollowProjectStatus(t *testing.T) {
	s := newTestServer(t)
	admin := token(t, "pm@akc.example", rbac.RoleAdmin)
	project := s.seedProject(t, admin)

	code, env := s.do(t, "POST", "/api/v1/employees", admin, map[string]any{"name": "Rosa Diaz", "hourly_rate": "40"})
	if code != fiber.StatusCreated {
		t.Fatalf("create employee = %d %s", code, env.Error)
	}
	employee := decode[models.Employee](t, env)

	timeLog := map[string]any{
		"project_id":  project.ID,
		"employee_id": employee.ID,
		"entry_date":  "2024-03-14",
		"hours":       "2.5",
	}
	if code, env := s.do(t, "POST", "/api/v1/time-logs", admin, timeLog); code != fiber.StatusCreated {
		t.Fatalf("time log on approved project = %d %s", code, env.Error)
	}

	code, env = s.do(t, "GET", "/api/v1/projects/"+project.ID+"/summary", admin, nil)
	if code != fiber.StatusOK {
		t.Fatalf("summary = %d", code)
	}
	summary := decode[models.ProjectSummary](t, env)
	if summary.LaborCost.String() != "100" {
		t.Errorf("labor cost = %s, want 100", summary.LaborCost)
	}

	if code, _ := s.do(t, "POST", "/api/v1/projects/"+project.ID+"/status", admin, map[string]any{"status": models.ProjectStatusCanceled}); code != fiber.StatusOK {
		t.Fatalf("cancel = %d", code)
	}
	if code, _ := s.do(t, "POST", "/api/v1/time-logs", admin, timeLog); code != fiber.StatusConflict {
		t.Errorf("time log on canceled project = %d, want 409", code)
	}
}

func TestEmployeeAndVendorRegisters(t *testing.T) {
	s := newTestServer(t)
	admin := token(t, "pm@akc.example", rbac.RoleAdmin)
	field := token(t, "crew@akc.example", rbac.RoleField)
	project := s.seedProject(t, admin)

	if code, _ := s.do(t, "POST", "/api/v1/employees", field, map[string]any{"name": "X"}); code != fiber.StatusForbidden {
		t.Errorf("field create employee = %d, want 403", code)
	}

	code, env := s.do(t, "POST", "/api/v1/employees", admin, map[string]any{
		"name": "Dana Whit", "payment_type": "salary", "annual_salary": "62400", "hours_per_week": 40,
	})
	if code != fiber.StatusCreated {
		t.Fatalf("create employee = %d %s", code, env.Error)
	}
	employee := decode[models.Employee](t, env)
	if employee.ID != "EMP-001" || employee.PaymentType != models.PaymentTypeSalary {
		t.Errorf("employee = %+v", employee)
	}

	tests := []struct {
		vendorType string
		want       string
	}{
		{models.VendorTypeSubcontractor, "SUB-001"},
		{models.VendorTypeSupplier, "VEND-001"},
	}
	for _, tt := range tests {
		code, env := s.do(t, "POST", "/api/v1/vendors", admin, map[string]any{"name": "Vendor " + tt.want, "vendor_type": tt.vendorType})
		if code != fiber.StatusCreated {
			t.Fatalf("create %s = %d %s", tt.vendorType, code, env.Error)
		}
		if v := decode[models.Vendor](t, env); v.ID != tt.want {
			t.Errorf("%s id = %q, want %q", tt.vendorType, v.ID, tt.want)
		}
	}

	invoice := map[string]any{"project_id": project.ID, "subcontractor_id": "VEND-001", "amount": "900"}
	code, env = s.do(t, "POST", "/api/v1/sub-invoices", admin, invoice)
	if code != fiber.StatusBadRequest || env.Field != "subcontractor_id" {
		t.Errorf("supplier as subcontractor = %d field %q, want 400 on subcontractor_id", code, env.Field)
	}
	invoice["subcontractor_id"] = "SUB-001"
	if code, env := s.do(t, "POST", "/api/v1/sub-invoices", admin, invoice); code != fiber.StatusCreated {
		t.Fatalf("create sub-invoice = %d %s", code, env.Error)
	}

	code, env = s.do(t, "GET", "/api/v1/vendors/SUB-001/sub-invoices", field, nil)
	if code != fiber.StatusOK {
		t.Fatalf("vendor sub-invoices = %d", code)
	}
	if got := decode[[]models.SubInvoice](t, env); len(got) != 1 || got[0].SubcontractorID != "SUB-001" {
		t.Errorf("sub-invoices = %+v", got)
	}

	if code, _ := s.do(t, "POST", "/api/v1/employees/"+employee.ID+"/deactivate", admin, nil); code != fiber.StatusOK {
		t.Fatalf("deactivate employee = %d", code)
	}
	code, env = s.do(t, "POST", "/api/v1/time-logs", admin, map[string]any{
		"project_id": project.ID, "employee_id": employee.ID, "entry_date": "2024-03-14", "hours": "1",
	})
	if code != fiber.StatusBadRequest || env.Field != "employee_id" {
		t.Errorf("time log for inactive employee = %d field %q, want 400 on employee_id", code, env.Field)
	}

	code, env = s.do(t, "GET", "/api/v1/employees?active=true", admin, nil)
	if code != fiber.StatusOK {
		t.Fatalf("list employees = %d", code)
	}
	if got := decode[[]models.Employee](t, env); len(got) != 0 {
		t.Errorf("active employees = %+v, want none", got)
	}
}

func TestReceiptAttachment(t *testing.T) {
	s := newTestServer(t)
	admin := token(t, "pm@akc.example", rbac.RoleAdmin)
	project := s.seedProject(t, admin)

	code, env := s.do(t, "POST", "/api/v1/receipts", admin, map[string]any{
		"project_id":   project.ID,
		"receipt_date": "2024-03-14",
		"vendor_name":  "Coastal Lumber",
		"total_amount": "412.80",
		"tax_amount":   "32.80",
	})
	if code != fiber.StatusCreated {
		t.Fatalf("create receipt = %d %s", code, env.Error)
	}
	receipt := decode[models.MaterialsReceipt](t, env)

	upload := func(content []byte) int {
		var body bytes.Buffer
		w := multipart.NewWriter(&body)
		part, err := w.CreateFormFile("file", "invoice 14.pdf")
		if err != nil {
			t.Fatal(err)
		}
		_, _ = part.Write(content)
		_ = w.Close()
		req := httptest.NewRequest("POST", "/api/v1/receipts/"+receipt.ID+"/attachment", &body)
		req.Header.Set("Content-Type", w.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+admin)
		code, _ := s.send(t, req)
		return code
	}

	if code := upload(bytes.Repeat([]byte("x"), 2048)); code != fiber.StatusRequestEntityTooLarge {
		t.Errorf("oversized upload = %d, want 413", code)
	}
	if code := upload([]byte("%PDF-1.4")); code != fiber.StatusOK {
		t.Fatalf("upload = %d", code)
	}
	if len(s.objects.Objects) != 1 {
		t.Fatalf("stored objects = %d, want 1", len(s.objects.Objects))
	}

	code, env = s.do(t, "GET", "/api/v1/receipts/"+receipt.ID+"/attachment", admin, nil)
	if code != fiber.StatusOK {
		t.Fatalf("attachment url = %d", code)
	}
	link := decode[struct {
		URL              string `json:"url"`
		ExpiresInSeconds int    `json:"expires_in_seconds"`
	}](t, env)
	if !strings.HasPrefix(link.URL, "https://objects.test/") || link.ExpiresInSeconds != 600 {
		t.Errorf("link = %+v", link)
	}
}

func TestReportExport(t *testing.T) {
	s := newTestServer(t)
	admin := token(t, "pm@akc.example", rbac.RoleAdmin)
	project := s.seedProject(t, admin)

	req := httptest.NewRequest("GET", "/api/v1/projects/"+project.ID+"/report.xlsx", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("report = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("content type = %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, project.ID+".xlsx") {
		t.Errorf("content disposition = %q", cd)
	}
}

func TestLoginAndMe(t *testing.T) {
	s := newTestServer(t)
	if _, err := s.authSvc.CreateUser(context.Background(), "office@akc.example", "correct-horse", rbac.RoleManager); err != nil {
		t.Fatal(err)
	}

	code, _ := s.do(t, "POST", "/api/v1/auth/login", "", map[string]any{"email": "office@akc.example", "password": "wrong-pass"})
	if code != fiber.StatusUnauthorized {
		t.Errorf("wrong password = %d, want 401", code)
	}

	req := httptest.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(`{"email":"Office@akc.example","password":"correct-horse"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var login struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil || login.Token == "" {
		t.Fatalf("login = %d, token %q, err %v", resp.StatusCode, login.Token, err)
	}

	code, env := s.do(t, "GET", "/api/v1/me", login.Token, nil)
	if code != fiber.StatusOK {
		t.Fatalf("me = %d", code)
	}
	if me := decode[models.User](t, env); me.Email != "office@akc.example" || me.Role != rbac.RoleManager {
		t.Errorf("me = %+v", me)
	}
}

func TestMetaStatuses(t *testing.T) {
	s := newTestServer(t)
	code, env := s.do(t, "GET", "/api/v1/meta/statuses", "", nil)
	if code != fiber.StatusOK {
		t.Fatalf("meta statuses = %d", code)
	}
	reg := decode[struct {
		Transitions  map[string]map[string][]string `json:"transitions"`
		ModuleAccess map[string][]string            `json:"module_access"`
	}](t, env)
	if got := reg.Transitions[models.EntityProject][models.ProjectStatusCompleted]; len(got) != 1 || got[0] != models.ProjectStatusClosed {
		t.Errorf("Completed row = %v", got)
	}
	if len(reg.ModuleAccess[models.ModuleTimeLogs]) == 0 {
		t.Error("module access missing TimeLogs")
	}
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"pmis/internal/config"
	"pmis/internal/database"
	"pmis/internal/repository"
	"pmis/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
}

type testServer struct {
	t       *testing.T
	app     *App
	uploads string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Server.Mode = "test"
	cfg.Database = config.DatabaseConfig{Driver: "sqlite", DSN: "file::memory:"}
	cfg.Storage.UploadDir = t.TempDir()

	db, err := database.NewConnection(cfg.Database)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	seed := &service.SeedFile{
		Roles: []service.SeedRole{
			{Name: "admin", Privileges: []string{"*"}},
			{Name: "engineer", Privileges: []string{"payment_request.read", "payment_request.update", "project.read", "report.read"}},
		},
		ApprovalLevels: []service.SeedLevel{
			{Name: "Engineer Review", Role: "engineer", Sequence: 1},
			{Name: "Chief Officer", Role: "admin", Sequence: 2},
		},
		Users: []service.SeedUser{
			{Username: "admin", FirstName: "Ada", LastName: "Admin", Email: "admin@pmis.test", Password: "changeme", Role: "admin"},
			{Username: "eng", FirstName: "Eli", LastName: "Engineer", Email: "eng@pmis.test", Password: "changeme", Role: "engineer"},
		},
	}
	seeder := service.NewSeedService(repository.NewTransactionManager(db), repository.NewRoleRepository(db),
		repository.NewApprovalRepository(db), repository.NewUserRepository(db))
	require.NoError(t, seeder.Seed(context.Background(), seed))

	app, err := New(cfg, db, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go app.Hub.Run(ctx)

	return &testServer{t: t, app: app, uploads: cfg.Storage.UploadDir}
}

func (s *testServer) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.app.Router.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (s *testServer) login(email string) string {
	s.t.Helper()
	w, env := s.do(http.MethodPost, "/login", "", map[string]string{"email": email, "password": "changeme"})
	require.Equal(s.t, http.StatusOK, w.Code, env.Error)
	var resp service.LoginResponse
	require.NoError(s.t, json.Unmarshal(env.Data, &resp))
	require.NotEmpty(s.t, resp.Token)
	return resp.Token
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestHealthAndAuth(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodGet, "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := s.do(http.MethodPost, "/login", "", map[string]string{"email": "admin@pmis.test", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "error", env.Status)

	w, _ = s.do(http.MethodPost, "/login", "", map[string]string{"email": "admin@pmis.test", "password": "changeme"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "access_token=")

	token := s.login("eng@pmis.test")
	w, env = s.do(http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[service.MeResponse](t, env)
	assert.Equal(t, "Eli Engineer", me.User.FullName)
	assert.ElementsMatch(t, []string{"payment_request.read", "payment_request.update", "project.read", "report.read"}, me.Privileges)

	w, _ = s.do(http.MethodGet, "/api/audit-logs", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodPost, "/logout", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStoredFilesNeedDocumentRead(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, os.MkdirAll(filepath.Join(s.uploads, "projects", "1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(s.uploads, "projects", "1", "site.txt"), []byte("site plan"), 0o600))

	w, _ := s.do(http.MethodGet, "/files/projects/1/site.txt", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodGet, "/files/projects/1/site.txt", s.login("eng@pmis.test"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodGet, "/files/projects/1/site.txt", s.login("admin@pmis.test"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "site plan", w.Body.String())
}

func TestPaymentRequestLifecycle(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin@pmis.test")
	engineer := s.login("eng@pmis.test")

	w, env := s.do(http.MethodPost, "/api/records/projects", admin, map[string]interface{}{
		"projectName": "Kisumu Market", "department": "Trade", "financialYear": "2024/2025",
		"budget": "1000000", "contractSum": "800000",
	})
	require.Equal(t, http.StatusCreated, w.Code, env.Error)
	project := decode[struct {
		ID uint `json:"projectId"`
	}](t, env)

	base := fmt.Sprintf("/api/projects/%d/payment-requests", project.ID)
	w, env = s.do(http.MethodPost, base, admin, map[string]interface{}{"amount": "250000", "description": "Certificate 1"})
	require.Equal(t, http.StatusCreated, w.Code, env.Error)
	created := decode[service.PaymentRequestResponse](t, env)
	assert.Equal(t, "KES 250,000.00", created.AmountDisplay)

	actions := fmt.Sprintf("/api/payment-requests/%d/actions", created.RequestID)

	// The chief officer level is not current yet.
	w, _ = s.do(http.MethodPost, actions, admin, map[string]string{"action": "approve"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(http.MethodPost, actions, engineer, map[string]string{"action": "reject"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "reject needs notes")

	w, _ = s.do(http.MethodPost, actions, engineer, map[string]string{"action": "launch"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(http.MethodPost, actions, engineer, map[string]string{"action": "approve"})
	require.Equal(t, http.StatusOK, w.Code, env.Error)

	w, env = s.do(http.MethodPost, actions, admin, map[string]string{"action": "approve", "notes": "Funds available"})
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	view := decode[service.ApprovalView](t, env)
	assert.Equal(t, "Approved for Payment", string(view.Request.Status))

	w, env = s.do(http.MethodPost, fmt.Sprintf("/api/payment-requests/%d/payment-details", created.RequestID), admin,
		map[string]string{"paymentMethod": "EFT", "amountPaid": "250000", "paymentDate": "2024-11-01"})
	require.Equal(t, http.StatusCreated, w.Code, env.Error)
	view = decode[service.ApprovalView](t, env)
	assert.Equal(t, "Paid", string(view.Request.Status))

	w, env = s.do(http.MethodGet, fmt.Sprintf("/api/payment-requests/%d/history", created.RequestID), engineer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]service.ApprovalHistoryResponse](t, env), 4)

	w, env = s.do(http.MethodGet, "/api/reports/absorption?financialYear=2024/2025", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	report := decode[struct {
		RowCount  int  `json:"rowCount"`
		CanExport bool `json:"canExport"`
	}](t, env)
	assert.Equal(t, 1, report.RowCount)
	assert.True(t, report.CanExport)

	w, env = s.do(http.MethodGet, "/api/reports/absorption", engineer, nil)
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	assert.False(t, decode[struct {
		CanExport bool `json:"canExport"`
	}](t, env).CanExport, "engineer lacks report.export")

	w, _ = s.do(http.MethodGet, "/api/reports/absorption/export?format=xlsx", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "absorption-")
	assert.Equal(t, service.FormatExcel.ContentType(), w.Header().Get("Content-Type"))

	w, _ = s.do(http.MethodGet, "/api/reports/absorption/export?format=doc", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodGet, "/api/reports/budget", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordRoutes(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin@pmis.test")

	w, env := s.do(http.MethodGet, "/api/forms", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]service.FormKind](t, env), 19)

	w, _ = s.do(http.MethodGet, "/api/kdsp/unknown", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = s.do(http.MethodPost, "/api/strategic/plans", admin, map[string]interface{}{"cidpName": "CIDP 2023-2027"})
	require.Equal(t, http.StatusCreated, w.Code, env.Error)

	w, _ = s.do(http.MethodGet, "/api/strategic/plans?parentId=1", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "plans have no parent")

	w, _ = s.do(http.MethodGet, "/api/strategic/plans?parentId=x", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodGet, "/api/strategic/plans/999", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = s.do(http.MethodGet, "/api/approval-levels", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	var levels []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &levels))
	assert.Len(t, levels, 2)

	engineer := s.login("eng@pmis.test")
	w, _ = s.do(http.MethodPost, "/api/strategic/plans", engineer, map[string]interface{}{"cidpName": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

package service

import (
	"context"
	"sync"
	"testing"

	"pmis/internal/config"
	"pmis/internal/database"
	"pmis/internal/model"
	"pmis/internal/repository"
	"pmis/internal/workflow"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewConnection(config.DatabaseConfig{Driver: "sqlite", DSN: "file::memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

type publishedEvent struct {
	name string
	data interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(event string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{name: event, data: data})
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.name)
	}
	return out
}

type staticURLs struct{}

func (staticURLs) URL(rel string) string { return "http://files.test/" + rel }

func viewer(userID, roleID uint, privs ...workflow.Privilege) workflow.Viewer {
	set := workflow.PrivilegeSet{}
	for _, p := range privs {
		set[p] = struct{}{}
	}
	return workflow.Viewer{UserID: userID, RoleID: roleID, Caps: set}
}

func allPrivileges() []workflow.Privilege { return workflow.AllPrivileges() }

// fixture is a project with a two level approval chain owned by roles 10 and 20.
type fixture struct {
	db       *gorm.DB
	tm       repository.TransactionManager
	project  *model.Project
	level1   model.ApprovalLevel
	level2   model.ApprovalLevel
	events   *recordingPublisher
	requests repository.PaymentRequestRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	f := &fixture{
		db:       db,
		tm:       repository.NewTransactionManager(db),
		events:   &recordingPublisher{},
		requests: repository.NewPaymentRequestRepository(db),
	}

	f.project = &model.Project{Name: "Kisumu Market", Department: "Trade", FinancialYear: "2024/2025",
		Budget: decimal.NewFromInt(1_000_000), ContractSum: decimal.NewFromInt(900_000)}
	require.NoError(t, db.Create(f.project).Error)

	f.level1 = model.ApprovalLevel{Name: "Engineer", RoleID: 10, Sequence: 1}
	f.level2 = model.ApprovalLevel{Name: "Chief Officer", RoleID: 20, Sequence: 2}
	require.NoError(t, db.Create(&f.level1).Error)
	require.NoError(t, db.Create(&f.level2).Error)
	return f
}

func (f *fixture) paymentService() PaymentService {
	return NewPaymentService(f.tm, f.requests, repository.NewApprovalRepository(f.db),
		repository.NewProjectRepository(f.db), staticURLs{}, f.events)
}

func mustCreateRequest(t *testing.T, f *fixture, svc PaymentService, submitter workflow.Viewer) *PaymentRequestResponse {
	t.Helper()
	resp, err := svc.CreateRequest(context.Background(), f.project.ID, CreatePaymentRequestDTO{
		Amount:      decimal.NewFromInt(250_000),
		Description: "Interim certificate 1",
	}, submitter)
	require.NoError(t, err)
	return resp
}

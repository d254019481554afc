package service

import (
	"context"
	"encoding/json"
	"testing"

	"pmis/internal/model"
	"pmis/internal/repository"
	"pmis/internal/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonBinder(body string) Binder {
	return func(dst interface{}) error { return json.Unmarshal([]byte(body), dst) }
}

var planner = viewer(5, 50, workflow.PrivStrategicPlanRead, workflow.PrivStrategicPlanUpdate,
	workflow.PrivKdspRead, workflow.PrivKdspUpdate)

func newTestRegistry(t *testing.T) (*Registry, *recordingPublisher, repository.AuditRepository) {
	t.Helper()
	db := newTestDB(t)
	events := &recordingPublisher{}
	audit := repository.NewAuditRepository(db)
	return NewRegistry(db, repository.NewTransactionManager(db), audit, events), events, audit
}

func TestRegistry_Lookup(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	svc, ok := reg.Lookup(GroupStrategic, "subprograms")
	require.True(t, ok)
	assert.Equal(t, "program_id", svc.Kind().ParentColumn)

	_, ok = reg.Lookup(GroupKDSP, "subprograms")
	assert.False(t, ok)

	kinds := reg.Kinds()
	assert.Len(t, kinds, 19)
	assert.Equal(t, GroupKDSP, kinds[0].Group)
}

func TestCrud_SubprogramLifecycle(t *testing.T) {
	reg, events, audit := newTestRegistry(t)
	ctx := context.Background()
	svc, _ := reg.Lookup(GroupStrategic, "subprograms")

	_, err := svc.Create(ctx, jsonBinder(`{"subProgramName":"Feeder roads"}`), planner)
	assert.ErrorIs(t, err, ErrInvalidInput, "parent is required")

	created, err := svc.Create(ctx, jsonBinder(`{"id":77,"programId":3,"subProgramName":"Feeder roads",
		"yr1Budget":"1000","yr2Budget":2000.5,"yr3Budget":"0","yr4Budget":"500","yr5Budget":"0","totalBudget":"1"}`), planner)
	require.NoError(t, err)
	sub := created.(*model.Subprogram)
	assert.NotEqual(t, uint(77), sub.ID, "client ids are ignored")
	assert.Equal(t, "3500.5", sub.TotalBudget.String())

	updated, err := svc.Update(ctx, sub.ID, jsonBinder(`{"yr5Budget":"1000","programId":0}`), planner)
	require.NoError(t, err)
	sub = updated.(*model.Subprogram)
	assert.Equal(t, "4500.5", sub.TotalBudget.String())
	assert.Equal(t, uint(3), sub.ProgramID, "parent kept when omitted")
	assert.Equal(t, "Feeder roads", sub.SubprogramName)

	parent := uint(3)
	list, err := svc.List(ctx, &parent, planner)
	require.NoError(t, err)
	assert.Len(t, list.([]model.Subprogram), 1)

	other := uint(4)
	list, err = svc.List(ctx, &other, planner)
	require.NoError(t, err)
	assert.Empty(t, list.([]model.Subprogram))

	require.NoError(t, svc.Delete(ctx, sub.ID, planner))
	_, err = svc.Get(ctx, sub.ID, planner)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, sub.ID, planner), ErrNotFound)

	logs, total, err := audit.List(ctx, "subprograms", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, logs, 3)
	assert.Equal(t, []string{EventRecordChanged, EventRecordChanged, EventRecordChanged}, events.names())
}

func TestCrud_Privileges(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	ctx := context.Background()
	readOnly := viewer(6, 60, workflow.PrivKdspRead)

	svc, _ := reg.Lookup(GroupKDSP, "financials")
	_, err := svc.Create(ctx, jsonBinder(`{"projectId":1}`), readOnly)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.List(ctx, nil, viewer(7, 70))
	assert.ErrorIs(t, err, ErrForbidden)

	rec, err := svc.Create(ctx, jsonBinder(`{"projectId":1,"capitalCostConsultancy":"100","capitalCostConstruction":"900"}`), planner)
	require.NoError(t, err)
	assert.Equal(t, "1000", rec.(*model.Financials).TotalCapitalCost.String())

	_, err = svc.Get(ctx, rec.(*model.Financials).ID, readOnly)
	assert.NoError(t, err)
}

func TestCrud_RejectsBadBodyAndParentlessFilter(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	ctx := context.Background()

	plans, _ := reg.Lookup(GroupStrategic, "plans")
	_, err := plans.Create(ctx, jsonBinder(`{"cidpName":`), planner)
	assert.ErrorIs(t, err, ErrInvalidInput)

	parent := uint(1)
	_, err = plans.List(ctx, &parent, planner)
	assert.ErrorIs(t, err, ErrInvalidInput)

	created, err := plans.Create(ctx, jsonBinder(`{"cidpName":"CIDP 2023-2027","startYear":2023,"endYear":2027}`), planner)
	require.NoError(t, err)
	assert.Equal(t, "CIDP 2023-2027", created.(*model.StrategicPlan).Name)
}

func TestCrud_MilestoneNormalizes(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	svc, _ := reg.Lookup(GroupLookups, "milestones")
	pm := viewer(8, 80, workflow.PrivProjectRead, workflow.PrivProjectUpdate)

	rec, err := svc.Create(context.Background(), jsonBinder(`{"projectId":1,"milestoneName":"Handover","status":"Completed"}`), pm)
	require.NoError(t, err)
	assert.NotNil(t, rec.(*model.Milestone).CompletedAt)
}

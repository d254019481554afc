package service

import (
	"context"
	"testing"

	"pmis/internal/model"
	"pmis/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAuditLogs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := repository.NewAuditRepository(db)

	role := &model.Role{Name: "auditor"}
	require.NoError(t, db.Create(role).Error)
	user := &model.User{Username: "auditor", Email: "auditor@example.org", Password: "x", RoleID: role.ID}
	require.NoError(t, db.Create(user).Error)

	require.NoError(t, repo.Log(ctx, newAuditLog(user.ID, model.ActionUploadDocument, "documents", 4, map[string]interface{}{"file": "a.pdf"})))
	require.NoError(t, repo.Log(ctx, newAuditLog(0, model.ActionCreateRecord, "risks", 1, nil)))
	require.NoError(t, repo.Log(ctx, newAuditLog(user.ID, model.ActionDeleteDocument, "documents", 4, nil)))

	svc := NewAuditService(repo)

	all, total, err := svc.GetAuditLogs(ctx, "", 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 2)

	docs, total, err := svc.GetAuditLogs(ctx, "documents", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, docs, 2)
	assert.Equal(t, model.ActionDeleteDocument, docs[0].Action)
	assert.Equal(t, "auditor", docs[0].Username)
	assert.Equal(t, "4", docs[0].EntityID)
	assert.JSONEq(t, `{"file":"a.pdf"}`, docs[1].Details)

	risks, _, err := svc.GetAuditLogs(ctx, "risks", 0, 10)
	require.NoError(t, err)
	require.Len(t, risks, 1)
	assert.Equal(t, "System", risks[0].Username)
}

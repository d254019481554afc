package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pmis/internal/model"
	"pmis/internal/repository"
	"pmis/internal/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSeed = `
roles:
  - name: admin
    description: Full access
    privileges: ["*"]
  - name: engineer
    description: First level reviewer
    privileges: [payment_request.read, payment_request.update, document.read]
approval_levels:
  - name: Engineer Review
    role: engineer
    sequence: 1
  - name: Chief Officer
    role: admin
    sequence: 2
users:
  - username: admin
    first_name: System
    last_name: Admin
    email: Admin@Example.org
    password: changeme
    role: admin
`

type fakeIssuer struct{}

func (fakeIssuer) IssueToken(userID, roleID uint) (string, time.Time, error) {
	return "token", time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), nil
}

type seeded struct {
	db    *gorm.DB
	users UserService
	roles RoleService
}

func seedDB(t *testing.T) *seeded {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testSeed), 0o600))
	seed, err := LoadSeedFile(path)
	require.NoError(t, err)

	db := newTestDB(t)
	tm := repository.NewTransactionManager(db)
	roleRepo := repository.NewRoleRepository(db)
	userRepo := repository.NewUserRepository(db)
	audit := repository.NewAuditRepository(db)
	svc := NewSeedService(tm, roleRepo, repository.NewApprovalRepository(db), userRepo)

	require.NoError(t, svc.Seed(context.Background(), seed))
	require.NoError(t, svc.Seed(context.Background(), seed), "seeding twice is harmless")

	return &seeded{
		db:    db,
		users: NewUserService(userRepo, roleRepo, audit, fakeIssuer{}),
		roles: NewRoleService(tm, roleRepo, audit),
	}
}

func TestLoadSeedFile_Missing(t *testing.T) {
	_, err := LoadSeedFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestSeed_RolesLevelsAndAdmin(t *testing.T) {
	s := seedDB(t)
	ctx := context.Background()

	roles, err := s.roles.ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, "admin", roles[0].Name)
	assert.Len(t, roles[0].Privileges, len(workflow.AllPrivileges()))
	assert.Len(t, roles[1].Privileges, 3)

	levels, err := repository.NewApprovalRepository(s.db).ListLevels(ctx)
	require.NoError(t, err)
	require.Len(t, levels, 2)
	assert.Equal(t, "Engineer Review", levels[0].Name)
	assert.Equal(t, roles[1].ID, levels[0].RoleID)

	privs, err := s.roles.ListPrivileges(ctx)
	require.NoError(t, err)
	assert.Len(t, privs, len(workflow.AllPrivileges()))

	var users []model.User
	require.NoError(t, s.db.Find(&users).Error)
	require.Len(t, users, 1, "mixed-case seed email is matched on the second run")
	assert.Equal(t, "admin@example.org", users[0].Email)
}

func TestLoginAndMe(t *testing.T) {
	s := seedDB(t)
	ctx := context.Background()

	_, err := s.users.Login(ctx, LoginUserRequest{Email: "admin@example.org", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.users.Login(ctx, LoginUserRequest{Email: "ghost@example.org", Password: "changeme"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	resp, err := s.users.Login(ctx, LoginUserRequest{Email: " ADMIN@example.org", Password: "changeme"})
	require.NoError(t, err)
	assert.Equal(t, "token", resp.Token)
	assert.Equal(t, "System Admin", resp.User.FullName)
	assert.Equal(t, "admin", resp.User.RoleName)

	me, err := s.users.Me(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Contains(t, me.Privileges, string(workflow.PrivReportExport))
}

func TestCreateUser(t *testing.T) {
	s := seedDB(t)
	ctx := context.Background()
	admin := viewer(1, 1, workflow.PrivUserManage)

	roles, err := s.roles.ListRoles(ctx)
	require.NoError(t, err)
	engineerRole := roles[1].ID

	req := CreateUserRequest{Username: "jotieno", Email: "j.otieno@example.org", Password: "secret1", RoleID: engineerRole}
	_, err = s.users.CreateUser(ctx, req, viewer(2, 2))
	assert.ErrorIs(t, err, ErrForbidden)

	created, err := s.users.CreateUser(ctx, req, admin)
	require.NoError(t, err)
	assert.Equal(t, "jotieno", created.FullName)

	_, err = s.users.CreateUser(ctx, req, admin)
	assert.ErrorIs(t, err, ErrInvalidInput, "duplicate username")

	req.Username, req.RoleID = "other", 999
	_, err = s.users.CreateUser(ctx, req, admin)
	assert.ErrorIs(t, err, ErrNotFound)

	list, total, err := s.users.ListUsers(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)
}

func TestUpdateRolePrivileges(t *testing.T) {
	s := seedDB(t)
	ctx := context.Background()
	roles, err := s.roles.ListRoles(ctx)
	require.NoError(t, err)
	engineerRole := roles[1].ID
	manager := viewer(1, 1, workflow.PrivRoleManage)

	_, err = s.roles.UpdateRolePrivileges(ctx, engineerRole, UpdateRolePrivilegesRequest{Privileges: []string{"report.read"}}, viewer(2, 2))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = s.roles.UpdateRolePrivileges(ctx, engineerRole, UpdateRolePrivilegesRequest{Privileges: []string{"root"}}, manager)
	assert.ErrorIs(t, err, ErrInvalidInput)

	role, err := s.roles.UpdateRolePrivileges(ctx, engineerRole,
		UpdateRolePrivilegesRequest{Privileges: []string{"report.read", "report.export"}}, manager)
	require.NoError(t, err)
	require.Len(t, role.Privileges, 2)
	assert.Equal(t, "report.export", role.Privileges[0].Code)

	codes, err := s.roles.GetPrivilegeCodes(ctx, engineerRole)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"report.read", "report.export"}, codes)

	_, err = s.roles.UpdateRolePrivileges(ctx, 999, UpdateRolePrivilegesRequest{Privileges: []string{}}, manager)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPrivilegeNaming(t *testing.T) {
	assert.Equal(t, "payment_request", privilegeGroup("payment_request.update"))
	assert.Equal(t, "Payment request update", privilegeName("payment_request.update"))
}

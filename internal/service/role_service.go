package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"pmis/internal/model"
	"pmis/internal/repository"
	"pmis/internal/workflow"
)

// --- DTOs ---

type UpdateRolePrivilegesRequest struct {
	Privileges []string `json:"privileges" binding:"required"`
}

type RoleResponse struct {
	ID          uint                `json:"roleId"`
	Name        string              `json:"roleName"`
	Description string              `json:"description"`
	IsSystem    bool                `json:"isSystem"`
	Privileges  []PrivilegeResponse `json:"privileges"`
	CreatedAt   string              `json:"createdAt"`
}

type PrivilegeResponse struct {
	ID    uint   `json:"privilegeId"`
	Code  string `json:"code"`
	Name  string `json:"name"`
	Group string `json:"group"`
}

// --- Interface ---

type RoleService interface {
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	ListPrivileges(ctx context.Context) ([]PrivilegeResponse, error)
	UpdateRolePrivileges(ctx context.Context, roleID uint, req UpdateRolePrivilegesRequest, viewer workflow.Viewer) (*RoleResponse, error)
	// GetPrivilegeCodes resolves a role to its stored privilege codes.
	GetPrivilegeCodes(ctx context.Context, roleID uint) ([]string, error)
}

type roleService struct {
	tm    repository.TransactionManager
	repo  repository.RoleRepository
	audit repository.AuditRepository
}

func NewRoleService(tm repository.TransactionManager, repo repository.RoleRepository, audit repository.AuditRepository) RoleService {
	return &roleService{tm: tm, repo: repo, audit: audit}
}

// --- Implementation ---

func (s *roleService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	roles, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}

	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, toRoleResponse(r))
	}
	return res, nil
}

func (s *roleService) ListPrivileges(ctx context.Context) ([]PrivilegeResponse, error) {
	privs, err := s.repo.ListPrivileges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch privileges: %w", err)
	}

	res := make([]PrivilegeResponse, 0, len(privs))
	for _, p := range privs {
		res = append(res, toPrivilegeResponse(p))
	}
	return res, nil
}

func (s *roleService) UpdateRolePrivileges(ctx context.Context, roleID uint, req UpdateRolePrivilegesRequest, viewer workflow.Viewer) (*RoleResponse, error) {
	if err := requirePrivilege(viewer, workflow.PrivRoleManage); err != nil {
		return nil, err
	}
	for _, code := range req.Privileges {
		if _, ok := workflow.ParsePrivilege(code); !ok {
			return nil, invalidf("unknown privilege %q", code)
		}
	}

	var role *model.Role
	err := s.tm.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.FindByID(txCtx, roleID); err != nil {
			return lookupErr("role", err)
		}
		ids, err := s.privilegeIDs(txCtx, req.Privileges)
		if err != nil {
			return err
		}
		if err := s.repo.ReplacePrivileges(txCtx, roleID, ids); err != nil {
			return fmt.Errorf("failed to update privileges: %w", err)
		}
		if err := s.audit.Log(txCtx, newAuditLog(viewer.UserID, model.ActionUpdateRecord, "roles", roleID,
			map[string]interface{}{"privileges": req.Privileges})); err != nil {
			return err
		}
		role, err = s.repo.FindByID(txCtx, roleID)
		return err
	})
	if err != nil {
		return nil, err
	}

	resp := toRoleResponse(*role)
	return &resp, nil
}

func (s *roleService) GetPrivilegeCodes(ctx context.Context, roleID uint) ([]string, error) {
	codes, err := s.repo.GetPrivilegeCodes(ctx, roleID)
	if err != nil {
		return nil, lookupErr("role", err)
	}
	return codes, nil
}

// privilegeIDs upserts the given codes and returns their row ids.
func (s *roleService) privilegeIDs(ctx context.Context, codes []string) ([]uint, error) {
	ids := make([]uint, 0, len(codes))
	for _, code := range codes {
		priv := model.Privilege{Code: code, Name: privilegeName(code), Group: privilegeGroup(code)}
		if err := s.repo.FindOrCreatePrivilege(ctx, &priv); err != nil {
			return nil, fmt.Errorf("failed to upsert privilege '%s': %w", code, err)
		}
		ids = append(ids, priv.ID)
	}
	return ids, nil
}

// --- Helpers ---

func privilegeGroup(code string) string {
	if i := strings.IndexByte(code, '.'); i > 0 {
		return code[:i]
	}
	return code
}

// privilegeName turns "payment_request.update" into "Payment request update".
func privilegeName(code string) string {
	name := strings.NewReplacer(".", " ", "_", " ").Replace(code)
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func toRoleResponse(r model.Role) RoleResponse {
	privs := make([]PrivilegeResponse, 0, len(r.Privileges))
	for _, p := range r.Privileges {
		privs = append(privs, toPrivilegeResponse(p))
	}
	sort.Slice(privs, func(i, j int) bool { return privs[i].Code < privs[j].Code })

	return RoleResponse{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		Privileges:  privs,
		CreatedAt:   r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func toPrivilegeResponse(p model.Privilege) PrivilegeResponse {
	return PrivilegeResponse{ID: p.ID, Code: p.Code, Name: p.Name, Group: p.Group}
}

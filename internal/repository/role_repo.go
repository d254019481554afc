package repository

import (
	"context"

	"pmis/internal/model"

	"gorm.io/gorm"
)

type RoleRepository interface {
	FindByID(ctx context.Context, id uint) (*model.Role, error)
	FindByName(ctx context.Context, name string) (*model.Role, error)
	FindOrCreate(ctx context.Context, role *model.Role) error
	ListAll(ctx context.Context) ([]model.Role, error)
	ListPrivileges(ctx context.Context) ([]model.Privilege, error)
	GetPrivilegeCodes(ctx context.Context, roleID uint) ([]string, error)
	FindOrCreatePrivilege(ctx context.Context, priv *model.Privilege) error
	ReplacePrivileges(ctx context.Context, roleID uint, privilegeIDs []uint) error
}

type roleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) FindByID(ctx context.Context, id uint) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).Preload("Privileges").First(&role, id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) FindByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) FindOrCreate(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).
		Where("name = ?", role.Name).
		Attrs(model.Role{Description: role.Description, IsSystem: role.IsSystem}).
		FirstOrCreate(role).Error
}

func (r *roleRepository) ListAll(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	if err := GetDB(ctx, r.db).Preload("Privileges").Order("id asc").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *roleRepository) ListPrivileges(ctx context.Context) ([]model.Privilege, error) {
	var privs []model.Privilege
	if err := GetDB(ctx, r.db).Order("privilege_group asc, code asc").Find(&privs).Error; err != nil {
		return nil, err
	}
	return privs, nil
}

func (r *roleRepository) GetPrivilegeCodes(ctx context.Context, roleID uint) ([]string, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).Preload("Privileges").First(&role, roleID).Error; err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(role.Privileges))
	for _, p := range role.Privileges {
		codes = append(codes, p.Code)
	}
	return codes, nil
}

func (r *roleRepository) FindOrCreatePrivilege(ctx context.Context, priv *model.Privilege) error {
	return GetDB(ctx, r.db).
		Where("code = ?", priv.Code).
		Attrs(model.Privilege{Name: priv.Name, Group: priv.Group}).
		FirstOrCreate(priv).Error
}

func (r *roleRepository) ReplacePrivileges(ctx context.Context, roleID uint, privilegeIDs []uint) error {
	db := GetDB(ctx, r.db)
	var role model.Role
	if err := db.First(&role, roleID).Error; err != nil {
		return err
	}

	var privs []model.Privilege
	if len(privilegeIDs) > 0 {
		if err := db.Where("id IN ?", privilegeIDs).Find(&privs).Error; err != nil {
			return err
		}
	}

	return db.Model(&role).Association("Privileges").Replace(privs)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"os"

	"pmis/internal/logging"
	"pmis/internal/model"
	"pmis/internal/repository"
	"pmis/internal/workflow"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// SeedRole is a role and its privilege codes; "*" grants every known privilege.
type SeedRole struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Privileges  []string `yaml:"privileges"`
}

type SeedLevel struct {
	Name     string `yaml:"name"`
	Role     string `yaml:"role"`
	Sequence int    `yaml:"sequence"`
}

type SeedUser struct {
	Username  string `yaml:"username"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
	Role      string `yaml:"role"`
}

// SeedFile is the layout of configs/seed.yaml.
type SeedFile struct {
	Roles          []SeedRole  `yaml:"roles"`
	ApprovalLevels []SeedLevel `yaml:"approval_levels"`
	Users          []SeedUser  `yaml:"users"`
}

// LoadSeedFile reads a seed definition from disk.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &seed, nil
}

type SeedService interface {
	Seed(ctx context.Context, seed *SeedFile) error
}

type seedService struct {
	tm        repository.TransactionManager
	roles     repository.RoleRepository
	approvals repository.ApprovalRepository
	users     repository.UserRepository
}

func NewSeedService(tm repository.TransactionManager, roles repository.RoleRepository,
	approvals repository.ApprovalRepository, users repository.UserRepository) SeedService {
	return &seedService{tm: tm, roles: roles, approvals: approvals, users: users}
}

// Seed upserts privileges, roles, the approval chain and missing users. It is idempotent.
func (s *seedService) Seed(ctx context.Context, seed *SeedFile) error {
	log := logging.Component("seed")

	return s.tm.RunInTx(ctx, func(txCtx context.Context) error {
		privIDs := make(map[string]uint)
		for _, p := range workflow.AllPrivileges() {
			code := string(p)
			priv := model.Privilege{Code: code, Name: privilegeName(code), Group: privilegeGroup(code)}
			if err := s.roles.FindOrCreatePrivilege(txCtx, &priv); err != nil {
				return fmt.Errorf("failed to seed privilege '%s': %w", code, err)
			}
			privIDs[code] = priv.ID
		}

		roleIDs := make(map[string]uint)
		for _, def := range seed.Roles {
			role := model.Role{Name: def.Name, Description: def.Description, IsSystem: true}
			if err := s.roles.FindOrCreate(txCtx, &role); err != nil {
				return fmt.Errorf("failed to seed role '%s': %w", def.Name, err)
			}
			ids, err := seedPrivilegeIDs(def, privIDs)
			if err != nil {
				return err
			}
			if err := s.roles.ReplacePrivileges(txCtx, role.ID, ids); err != nil {
				return fmt.Errorf("failed to assign privileges to role '%s': %w", def.Name, err)
			}
			roleIDs[def.Name] = role.ID
		}

		for _, def := range seed.ApprovalLevels {
			roleID, err := s.roleID(txCtx, roleIDs, def.Role)
			if err != nil {
				return err
			}
			level := model.ApprovalLevel{Name: def.Name, RoleID: roleID, Sequence: def.Sequence}
			if err := s.approvals.FindOrCreateLevel(txCtx, &level); err != nil {
				return fmt.Errorf("failed to seed approval level '%s': %w", def.Name, err)
			}
		}

		for _, def := range seed.Users {
			if _, err := s.users.GetByEmail(txCtx, normalizeEmail(def.Email)); err == nil {
				continue
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to look up user '%s': %w", def.Email, err)
			}
			roleID, err := s.roleID(txCtx, roleIDs, def.Role)
			if err != nil {
				return err
			}
			if _, err := createUser(txCtx, s.users, s.roles, CreateUserRequest{
				Username:  def.Username,
				FirstName: def.FirstName,
				LastName:  def.LastName,
				Email:     def.Email,
				Password:  def.Password,
				RoleID:    roleID,
			}); err != nil {
				return fmt.Errorf("failed to seed user '%s': %w", def.Email, err)
			}
		}

		log.Info().
			Int("roles", len(seed.Roles)).
			Int("approval_levels", len(seed.ApprovalLevels)).
			Int("users", len(seed.Users)).
			Msg("Seed applied")
		return nil
	})
}

func (s *seedService) roleID(ctx context.Context, seeded map[string]uint, name string) (uint, error) {
	if id, ok := seeded[name]; ok {
		return id, nil
	}
	role, err := s.roles.FindByName(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("unknown role '%s': %w", name, err)
	}
	return role.ID, nil
}

func seedPrivilegeIDs(def SeedRole, known map[string]uint) ([]uint, error) {
	ids := make([]uint, 0, len(def.Privileges))
	for _, code := range def.Privileges {
		if code == "*" {
			ids = ids[:0]
			for _, p := range workflow.AllPrivileges() {
				ids = append(ids, known[string(p)])
			}
			return ids, nil
		}
		id, ok := known[code]
		if !ok {
			return nil, fmt.Errorf("role '%s': %w", def.Name, invalidf("unknown privilege %q", code))
		}
		ids = append(ids, id)
	}
	return ids, nil
}

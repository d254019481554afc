package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pmis/internal/model"
	"pmis/internal/repository"
	"pmis/internal/workflow"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateUserRequest struct {
	Username  string `json:"username" binding:"required"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone"`
	Password  string `json:"password" binding:"required,min=6"`
	RoleID    uint   `json:"roleId" binding:"required"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

// UserResponse never carries the password hash.
type UserResponse struct {
	ID        uint   `json:"userId"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	RoleID    uint   `json:"roleId"`
	RoleName  string `json:"roleName"`
	CreatedAt string `json:"createdAt"`
}

type MeResponse struct {
	User       UserResponse `json:"user"`
	Privileges []string     `json:"privileges"`
}

// TokenIssuer signs session tokens; implemented by the auth middleware.
type TokenIssuer interface {
	IssueToken(userID, roleID uint) (string, time.Time, error)
}

// --- Interface ---

type UserService interface {
	Login(ctx context.Context, req LoginUserRequest) (*LoginResponse, error)
	Me(ctx context.Context, userID uint) (*MeResponse, error)
	CreateUser(ctx context.Context, req CreateUserRequest, viewer workflow.Viewer) (*UserResponse, error)
	GetUserByID(ctx context.Context, id uint) (*UserResponse, error)
	ListUsers(ctx context.Context, offset, limit int) ([]UserResponse, int64, error)
}

type userService struct {
	repo   repository.UserRepository
	roles  repository.RoleRepository
	audit  repository.AuditRepository
	tokens TokenIssuer
}

func NewUserService(repo repository.UserRepository, roles repository.RoleRepository, audit repository.AuditRepository, tokens TokenIssuer) UserService {
	return &userService{repo: repo, roles: roles, audit: audit, tokens: tokens}
}

// --- Implementation ---

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*LoginResponse, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.IssueToken(user.ID, user.RoleID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &LoginResponse{Token: token, ExpiresAt: expiresAt, User: toUserResponse(user)}, nil
}

func (s *userService) Me(ctx context.Context, userID uint) (*MeResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, lookupErr("user", err)
	}
	codes, err := s.roles.GetPrivilegeCodes(ctx, user.RoleID)
	if err != nil {
		return nil, lookupErr("role", err)
	}
	return &MeResponse{User: toUserResponse(user), Privileges: workflow.NewPrivilegeSet(codes...).Codes()}, nil
}

func (s *userService) CreateUser(ctx context.Context, req CreateUserRequest, viewer workflow.Viewer) (*UserResponse, error) {
	if err := requirePrivilege(viewer, workflow.PrivUserManage); err != nil {
		return nil, err
	}
	user, err := createUser(ctx, s.repo, s.roles, req)
	if err != nil {
		return nil, err
	}
	if err := s.audit.Log(ctx, newAuditLog(viewer.UserID, model.ActionCreateRecord, "users", user.ID, nil)); err != nil {
		return nil, fmt.Errorf("failed to write audit log: %w", err)
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) GetUserByID(ctx context.Context, id uint) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr("user", err)
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) ListUsers(ctx context.Context, offset, limit int) ([]UserResponse, int64, error) {
	users, total, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	res := make([]UserResponse, 0, len(users))
	for i := range users {
		res = append(res, toUserResponse(&users[i]))
	}
	return res, total, nil
}

// --- Helpers ---

// normalizeEmail is the stored form of an email address.
func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// createUser validates uniqueness, hashes the password and stores the account.
func createUser(ctx context.Context, repo repository.UserRepository, roles repository.RoleRepository, req CreateUserRequest) (*model.User, error) {
	email := normalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, invalidf("invalid email format")
	}
	if len(req.Password) < 6 {
		return nil, invalidf("password must be at least 6 characters")
	}
	if _, err := roles.FindByID(ctx, req.RoleID); err != nil {
		return nil, lookupErr("role", err)
	}
	if _, err := repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, invalidf("username already exists")
	}
	if _, err := repo.GetByEmail(ctx, email); err == nil {
		return nil, invalidf("email already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     email,
		Phone:     req.Phone,
		Password:  string(hashed),
		RoleID:    req.RoleID,
	}
	if err := repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func toUserResponse(u *model.User) UserResponse {
	resp := UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName(),
		Email:     u.Email,
		Phone:     u.Phone,
		RoleID:    u.RoleID,
		CreatedAt: u.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if u.Role != nil {
		resp.RoleName = u.Role.Name
	}
	return resp
}

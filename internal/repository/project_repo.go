package repository

import (
	"context"

	"pmis/internal/model"

	"gorm.io/gorm"
)

// ProjectFilter narrows project listings. Empty fields match everything.
type ProjectFilter struct {
	FinancialYear string
	Department    string
}

type ProjectRepository interface {
	FindByID(ctx context.Context, id uint) (*model.Project, error)
	List(ctx context.Context, filter ProjectFilter) ([]model.Project, error)
	ListMilestones(ctx context.Context, projectIDs ...uint) ([]model.Milestone, error)
	FindMilestone(ctx context.Context, id uint) (*model.Milestone, error)
	ListContractors(ctx context.Context) ([]model.Contractor, error)
}

type projectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) FindByID(ctx context.Context, id uint) (*model.Project, error) {
	var project model.Project
	if err := GetDB(ctx, r.db).Preload("Contractor").First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) List(ctx context.Context, filter ProjectFilter) ([]model.Project, error) {
	var projects []model.Project
	query := GetDB(ctx, r.db).Preload("Contractor")
	if filter.FinancialYear != "" {
		query = query.Where("financial_year = ?", filter.FinancialYear)
	}
	if filter.Department != "" {
		query = query.Where("department = ?", filter.Department)
	}
	if err := query.Order("id asc").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *projectRepository) ListMilestones(ctx context.Context, projectIDs ...uint) ([]model.Milestone, error) {
	var milestones []model.Milestone
	if len(projectIDs) == 0 {
		return milestones, nil
	}
	if err := GetDB(ctx, r.db).
		Where("project_id IN ?", projectIDs).
		Order("target_date asc, id asc").
		Find(&milestones).Error; err != nil {
		return nil, err
	}
	return milestones, nil
}

func (r *projectRepository) FindMilestone(ctx context.Context, id uint) (*model.Milestone, error) {
	var milestone model.Milestone
	if err := GetDB(ctx, r.db).First(&milestone, id).Error; err != nil {
		return nil, err
	}
	return &milestone, nil
}

func (r *projectRepository) ListContractors(ctx context.Context) ([]model.Contractor, error) {
	var contractors []model.Contractor
	if err := GetDB(ctx, r.db).Order("company_name asc").Find(&contractors).Error; err != nil {
		return nil, err
	}
	return contractors, nil
}

package repository

import (
	"context"

	"pmis/internal/model"

	"gorm.io/gorm"
)

// ApprovalRepository stores the approval chain and the append-only history.
type ApprovalRepository interface {
	ListLevels(ctx context.Context) ([]model.ApprovalLevel, error)
	FindLevel(ctx context.Context, id uint) (*model.ApprovalLevel, error)
	FindOrCreateLevel(ctx context.Context, level *model.ApprovalLevel) error
	AppendHistory(ctx context.Context, entry *model.ApprovalHistory) error
	ListHistory(ctx context.Context, requestID uint) ([]model.ApprovalHistory, error)
}

type approvalRepository struct {
	db *gorm.DB
}

func NewApprovalRepository(db *gorm.DB) ApprovalRepository {
	return &approvalRepository{db: db}
}

func (r *approvalRepository) ListLevels(ctx context.Context) ([]model.ApprovalLevel, error) {
	var levels []model.ApprovalLevel
	if err := GetDB(ctx, r.db).Order("sequence asc, id asc").Find(&levels).Error; err != nil {
		return nil, err
	}
	return levels, nil
}

func (r *approvalRepository) FindLevel(ctx context.Context, id uint) (*model.ApprovalLevel, error) {
	var level model.ApprovalLevel
	if err := GetDB(ctx, r.db).First(&level, id).Error; err != nil {
		return nil, err
	}
	return &level, nil
}

func (r *approvalRepository) FindOrCreateLevel(ctx context.Context, level *model.ApprovalLevel) error {
	return GetDB(ctx, r.db).
		Where("name = ?", level.Name).
		Assign(model.ApprovalLevel{RoleID: level.RoleID, Sequence: level.Sequence}).
		FirstOrCreate(level).Error
}

func (r *approvalRepository) AppendHistory(ctx context.Context, entry *model.ApprovalHistory) error {
	return GetDB(ctx, r.db).Omit("ActionBy").Create(entry).Error
}

func (r *approvalRepository) ListHistory(ctx context.Context, requestID uint) ([]model.ApprovalHistory, error) {
	var history []model.ApprovalHistory
	if err := GetDB(ctx, r.db).
		Preload("ActionBy").
		Where("request_id = ?", requestID).
		Order("action_date asc, id asc").
		Find(&history).Error; err != nil {
		return nil, err
	}
	return history, nil
}

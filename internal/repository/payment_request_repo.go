package repository

import (
	"context"

	"pmis/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRequestRepository interface {
	Create(ctx context.Context, req *model.PaymentRequest) error
	FindByID(ctx context.Context, id uint) (*model.PaymentRequest, error)
	// FindForUpdate locks the row for the rest of the surrounding transaction, if any.
	FindForUpdate(ctx context.Context, id uint) (*model.PaymentRequest, error)
	ListByProject(ctx context.Context, projectID uint) ([]model.PaymentRequest, error)
	UpdateState(ctx context.Context, req *model.PaymentRequest) error
	CreateDetails(ctx context.Context, details *model.PaymentDetails) error
	HasDetails(ctx context.Context, requestID uint) (bool, error)
}

type paymentRequestRepository struct {
	db *gorm.DB
}

func NewPaymentRequestRepository(db *gorm.DB) PaymentRequestRepository {
	return &paymentRequestRepository{db: db}
}

func (r *paymentRequestRepository) Create(ctx context.Context, req *model.PaymentRequest) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Create(req).Error
}

func (r *paymentRequestRepository) FindByID(ctx context.Context, id uint) (*model.PaymentRequest, error) {
	var req model.PaymentRequest
	if err := GetDB(ctx, r.db).
		Preload("PaymentDetails").
		Preload("Documents", func(db *gorm.DB) *gorm.DB { return db.Order("display_order asc, id asc") }).
		First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *paymentRequestRepository) FindForUpdate(ctx context.Context, id uint) (*model.PaymentRequest, error) {
	var req model.PaymentRequest
	db := GetDB(ctx, r.db)
	if InTx(ctx) {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := db.First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *paymentRequestRepository) ListByProject(ctx context.Context, projectID uint) ([]model.PaymentRequest, error) {
	var requests []model.PaymentRequest
	if err := GetDB(ctx, r.db).
		Preload("PaymentDetails").
		Preload("Documents", func(db *gorm.DB) *gorm.DB { return db.Order("display_order asc, id asc") }).
		Where("project_id = ?", projectID).
		Order("created_at desc, id desc").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// UpdateState persists only the workflow columns of the request.
func (r *paymentRequestRepository) UpdateState(ctx context.Context, req *model.PaymentRequest) error {
	return GetDB(ctx, r.db).
		Model(&model.PaymentRequest{ID: req.ID}).
		Select("status", "current_approval_level_id", "updated_at").
		Updates(map[string]interface{}{
			"status":                    req.Status,
			"current_approval_level_id": req.CurrentApprovalLevelID,
			"updated_at":                req.UpdatedAt,
		}).Error
}

func (r *paymentRequestRepository) CreateDetails(ctx context.Context, details *model.PaymentDetails) error {
	return GetDB(ctx, r.db).Create(details).Error
}

func (r *paymentRequestRepository) HasDetails(ctx context.Context, requestID uint) (bool, error) {
	var count int64
	if err := GetDB(ctx, r.db).
		Model(&model.PaymentDetails{}).
		Where("request_id = ?", requestID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

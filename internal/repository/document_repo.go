package repository

import (
	"context"
	"errors"

	"pmis/internal/model"

	"gorm.io/gorm"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *model.Document) error
	FindByID(ctx context.Context, id uint) (*model.Document, error)
	FindByIDs(ctx context.Context, ids []uint) ([]model.Document, error)
	ListByProject(ctx context.Context, projectID uint) ([]model.Document, error)
	// ListGroup returns the photos sharing doc's gallery, ordered for display.
	ListGroup(ctx context.Context, doc *model.Document) ([]model.Document, error)
	NextDisplayOrder(ctx context.Context, doc *model.Document) (int, error)
	Update(ctx context.Context, doc *model.Document) error
	UpdateDisplayOrders(ctx context.Context, orders map[uint]int) error
	SetProjectCover(ctx context.Context, projectID, documentID uint) error
	Delete(ctx context.Context, id uint) error
}

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, doc *model.Document) error {
	return GetDB(ctx, r.db).Create(doc).Error
}

func (r *documentRepository) FindByID(ctx context.Context, id uint) (*model.Document, error) {
	var doc model.Document
	if err := GetDB(ctx, r.db).First(&doc, id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.Document, error) {
	var docs []model.Document
	if len(ids) == 0 {
		return docs, nil
	}
	if err := GetDB(ctx, r.db).Where("id IN ?", ids).Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *documentRepository) ListByProject(ctx context.Context, projectID uint) ([]model.Document, error) {
	var docs []model.Document
	if err := GetDB(ctx, r.db).
		Where("project_id = ?", projectID).
		Order("display_order asc, id asc").
		Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *documentRepository) groupQuery(ctx context.Context, doc *model.Document) *gorm.DB {
	query := GetDB(ctx, r.db).Model(&model.Document{}).
		Where("project_id = ? AND document_type = ?", doc.ProjectID, doc.DocumentType)
	switch doc.DocumentType {
	case model.DocTypePaymentPhoto:
		if doc.RequestID == nil {
			return query.Where("request_id IS NULL")
		}
		return query.Where("request_id = ?", *doc.RequestID)
	case model.DocTypeMilestonePhoto:
		if doc.MilestoneID == nil {
			return query.Where("milestone_id IS NULL")
		}
		return query.Where("milestone_id = ?", *doc.MilestoneID)
	}
	return query
}

func (r *documentRepository) ListGroup(ctx context.Context, doc *model.Document) ([]model.Document, error) {
	var docs []model.Document
	if err := r.groupQuery(ctx, doc).Order("display_order asc, id asc").Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *documentRepository) NextDisplayOrder(ctx context.Context, doc *model.Document) (int, error) {
	var count int64
	if err := r.groupQuery(ctx, doc).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *documentRepository) Update(ctx context.Context, doc *model.Document) error {
	return GetDB(ctx, r.db).Save(doc).Error
}

func (r *documentRepository) UpdateDisplayOrders(ctx context.Context, orders map[uint]int) error {
	db := GetDB(ctx, r.db)
	for id, order := range orders {
		res := db.Model(&model.Document{}).Where("id = ?", id).Update("display_order", order)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
	}
	return nil
}

// SetProjectCover clears every cover flag of the project, then sets one.
func (r *documentRepository) SetProjectCover(ctx context.Context, projectID, documentID uint) error {
	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Document{}).
		Where("project_id = ? AND is_project_cover <> 0", projectID).
		Update("is_project_cover", 0).Error; err != nil {
		return err
	}
	res := db.Model(&model.Document{}).
		Where("id = ? AND project_id = ?", documentID, projectID).
		Update("is_project_cover", 1)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.New("cover document does not belong to project")
	}
	return nil
}

func (r *documentRepository) Delete(ctx context.Context, id uint) error {
	res := GetDB(ctx, r.db).Delete(&model.Document{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

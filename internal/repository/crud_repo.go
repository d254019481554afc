package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CrudRepository is the data access shared by every form-backed record type.
type CrudRepository[T any] interface {
	// List returns records matching every column = value pair of where.
	List(ctx context.Context, where map[string]interface{}) ([]T, error)
	FindByID(ctx context.Context, id uint) (*T, error)
	Create(ctx context.Context, record *T) error
	Update(ctx context.Context, record *T) error
	Delete(ctx context.Context, id uint) error
}

type crudRepository[T any] struct {
	db *gorm.DB
}

func NewCrudRepository[T any](db *gorm.DB) CrudRepository[T] {
	return &crudRepository[T]{db: db}
}

func (r *crudRepository[T]) List(ctx context.Context, where map[string]interface{}) ([]T, error) {
	var records []T
	query := GetDB(ctx, r.db).Model(new(T))
	for column, value := range where {
		query = query.Where(clause.Eq{Column: clause.Column{Name: column}, Value: value})
	}
	if err := query.Order("id asc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *crudRepository[T]) FindByID(ctx context.Context, id uint) (*T, error) {
	record := new(T)
	if err := GetDB(ctx, r.db).First(record, id).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (r *crudRepository[T]) Create(ctx context.Context, record *T) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Create(record).Error
}

func (r *crudRepository[T]) Update(ctx context.Context, record *T) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(record).Error
}

func (r *crudRepository[T]) Delete(ctx context.Context, id uint) error {
	res := GetDB(ctx, r.db).Delete(new(T), id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

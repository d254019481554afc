package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaidTotal is the settled amount of one project.
type PaidTotal struct {
	ProjectID uint
	Total     decimal.Decimal
}

// ReportRepository runs the aggregate queries behind the reports.
type ReportRepository interface {
	// PaidByProject sums settled payments per project. A nil bound is open.
	PaidByProject(ctx context.Context, from, to *time.Time) (map[uint]decimal.Decimal, error)
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) PaidByProject(ctx context.Context, from, to *time.Time) (map[uint]decimal.Decimal, error) {
	var rows []PaidTotal
	query := GetDB(ctx, r.db).Table("payment_details").
		Select("payment_requests.project_id AS project_id, SUM(payment_details.amount_paid) AS total").
		Joins("JOIN payment_requests ON payment_requests.id = payment_details.request_id")
	if from != nil {
		query = query.Where("payment_details.payment_date >= ?", *from)
	}
	if to != nil {
		query = query.Where("payment_details.payment_date < ?", *to)
	}
	if err := query.Group("payment_requests.project_id").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to sum payments per project: %w", err)
	}

	totals := make(map[uint]decimal.Decimal, len(rows))
	for _, row := range rows {
		totals[row.ProjectID] = row.Total
	}
	return totals, nil
}

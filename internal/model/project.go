package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Project is a development project tracked by the department.
type Project struct {
	ID              uint            `gorm:"primaryKey" json:"projectId"`
	Name            string          `gorm:"type:varchar(255);not null" json:"projectName"`
	Department      string          `gorm:"type:varchar(150);index" json:"department"`
	Directorate     string          `gorm:"type:varchar(150)" json:"directorate"`
	ContractorID    *uint           `gorm:"index" json:"contractorId"`
	Contractor      *Contractor     `gorm:"foreignKey:ContractorID" json:"contractor,omitempty"`
	Budget          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"budget"`
	ContractSum     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"contractSum"`
	FinancialYear   string          `gorm:"type:varchar(9);index" json:"financialYear"`
	StartDate       *time.Time      `json:"startDate"`
	EndDate         *time.Time      `json:"endDate"`
	Status          string          `gorm:"type:varchar(50)" json:"status"`
	PercentComplete decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"percentComplete"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Contractor is the company a project is awarded to.
type Contractor struct {
	ID            uint      `gorm:"primaryKey" json:"contractorId"`
	CompanyName   string    `gorm:"type:varchar(255);not null" json:"companyName"`
	ContactPerson string    `gorm:"type:varchar(150)" json:"contactPerson"`
	Email         string    `gorm:"type:varchar(255)" json:"email"`
	Phone         string    `gorm:"type:varchar(30)" json:"phone"`
	KraPin        string    `gorm:"type:varchar(20)" json:"kraPin"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Milestone statuses.
const (
	MilestoneNotStarted = "Not Started"
	MilestoneInProgress = "In Progress"
	MilestoneCompleted  = "Completed"
)

// Milestone is a dated deliverable of a project; progress photos hang off it.
type Milestone struct {
	ID          uint       `gorm:"primaryKey" json:"milestoneId"`
	ProjectID   uint       `gorm:"index;not null" json:"projectId"`
	Name        string     `gorm:"type:varchar(255);not null" json:"milestoneName"`
	Description string     `gorm:"type:text" json:"description"`
	TargetDate  *time.Time `json:"targetDate"`
	CompletedAt *time.Time `json:"completedAt"`
	Status      string     `gorm:"type:varchar(30);default:'Not Started'" json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Overdue reports whether the milestone missed its target as of now.
func (m Milestone) Overdue(now time.Time) bool {
	if m.TargetDate == nil {
		return false
	}
	if m.CompletedAt != nil {
		return m.CompletedAt.After(*m.TargetDate)
	}
	return now.After(*m.TargetDate)
}

// Normalize keeps Status and CompletedAt consistent. Marking a milestone
// completed without a date stamps it with the current time.
func (m *Milestone) Normalize() {
	switch {
	case m.CompletedAt != nil:
		m.Status = MilestoneCompleted
	case m.Status == MilestoneCompleted:
		now := time.Now()
		m.CompletedAt = &now
	case m.Status == "":
		m.Status = MilestoneNotStarted
	}
}

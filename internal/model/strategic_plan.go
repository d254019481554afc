package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// StrategicPlan is the top of the plan -> program -> subprogram -> work plan tree.
type StrategicPlan struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"cidpName"`
	StartYear int       `json:"startYear"`
	EndYear   int       `json:"endYear"`
	Vision    string    `gorm:"type:text" json:"vision"`
	Mission   string    `gorm:"type:text" json:"mission"`
	Goal      string    `gorm:"type:text" json:"goal"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Program struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	StrategicPlanID uint      `gorm:"index;not null" json:"strategicPlanId"`
	ProgramName     string    `gorm:"type:varchar(255);not null" json:"programName"`
	Objective       string    `gorm:"type:text" json:"objective"`
	ExpectedOutcome string    `gorm:"type:text" json:"expectedOutcome"`
	Kpi             string    `gorm:"type:text" json:"kpi"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type Subprogram struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	ProgramID      uint            `gorm:"index;not null" json:"programId"`
	SubprogramName string          `gorm:"type:varchar(255);not null" json:"subProgramName"`
	KeyOutcome     string          `gorm:"type:text" json:"keyOutcome"`
	Kpi            string          `gorm:"type:text" json:"kpi"`
	Baseline       string          `gorm:"type:varchar(255)" json:"baseline"`
	Year1Budget    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"yr1Budget"`
	Year2Budget    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"yr2Budget"`
	Year3Budget    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"yr3Budget"`
	Year4Budget    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"yr4Budget"`
	Year5Budget    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"yr5Budget"`
	TotalBudget    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"totalBudget"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Normalize recomputes TotalBudget from the yearly budgets.
func (s *Subprogram) Normalize() {
	s.TotalBudget = decimal.Sum(s.Year1Budget, s.Year2Budget, s.Year3Budget, s.Year4Budget, s.Year5Budget)
}

type AnnualWorkPlan struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	SubprogramID  uint            `gorm:"index;not null" json:"subprogramId"`
	WorkplanName  string          `gorm:"type:varchar(255);not null" json:"workplanName"`
	FinancialYear string          `gorm:"type:varchar(9)" json:"financialYear"`
	TotalBudget   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"totalBudget"`
	Status        string          `gorm:"type:varchar(30)" json:"approvalStatus"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type WorkPlanActivity struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	WorkPlanID         uint            `gorm:"index;not null" json:"workplanId"`
	ActivityName       string          `gorm:"type:varchar(255);not null" json:"activityName"`
	ResponsibleOfficer string          `gorm:"type:varchar(150)" json:"responsibleOfficer"`
	StartDate          *time.Time      `json:"startDate"`
	EndDate            *time.Time      `json:"endDate"`
	Budget             decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"budgetAllocated"`
	Status             string          `gorm:"type:varchar(30)" json:"status"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

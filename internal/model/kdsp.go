package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// KDSP template sections. Each section belongs to one project.

type ConceptNote struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	ProjectID           uint      `gorm:"index;not null" json:"projectId"`
	SituationAnalysis   string    `gorm:"type:text" json:"situationAnalysis"`
	ProblemStatement    string    `gorm:"type:text" json:"problemStatement"`
	RelevanceOfProject  string    `gorm:"type:text" json:"relevanceProjectIdea"`
	ScopeOfProject      string    `gorm:"type:text" json:"scopeOfProject"`
	ObjectivesOfProject string    `gorm:"type:text" json:"objectivesOfProject"`
	ExpectedOutcomes    string    `gorm:"type:text" json:"expectedOutcomes"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

type NeedsAssessment struct {
	ID                      uint      `gorm:"primaryKey" json:"id"`
	ProjectID               uint      `gorm:"index;not null" json:"projectId"`
	TargetBeneficiaries     string    `gorm:"type:text" json:"targetBeneficiaries"`
	EstimateEndUsers        int       `json:"estimateEndUsers"`
	PhysicalDemandCompleted string    `gorm:"type:text" json:"physicalDemandCompletion"`
	RateOfUnderutilization  string    `gorm:"type:varchar(100)" json:"rateOfUnderutilization"`
	DemandOnFacility        string    `gorm:"type:text" json:"demandOnFacility"`
	CreatedAt               time.Time `json:"createdAt"`
	UpdatedAt               time.Time `json:"updatedAt"`
}

type Financials struct {
	ID                         uint            `gorm:"primaryKey" json:"id"`
	ProjectID                  uint            `gorm:"index;not null" json:"projectId"`
	CapitalCostConsultancy     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"capitalCostConsultancy"`
	CapitalCostLandAcquisition decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"capitalCostLandAcquisition"`
	CapitalCostConstruction    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"capitalCostConstruction"`
	CapitalCostEquipment       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"capitalCostPlantEquipment"`
	CapitalCostOther           decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"capitalCostOther"`
	TotalCapitalCost           decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"totalCapitalCost"`
	RecurrentCostLabor         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"recurrentCostLabor"`
	RecurrentCostOperating     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"recurrentCostOperating"`
	RecurrentCostMaintenance   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"recurrentCostMaintenance"`
	ProposedSourceOfFinancing  string          `gorm:"type:varchar(255)" json:"proposedSourceFinancing"`
	LandExpropriationRequired  *bool           `json:"landExpropriationRequired"`
	CreatedAt                  time.Time       `json:"createdAt"`
	UpdatedAt                  time.Time       `json:"updatedAt"`
}

// Normalize recomputes the capital cost total.
func (f *Financials) Normalize() {
	f.TotalCapitalCost = decimal.Sum(f.CapitalCostConsultancy, f.CapitalCostLandAcquisition,
		f.CapitalCostConstruction, f.CapitalCostEquipment, f.CapitalCostOther)
}

type FyBreakdown struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	ProjectID     uint            `gorm:"index;not null" json:"projectId"`
	FinancialYear string          `gorm:"type:varchar(9);not null" json:"financialYear"`
	TotalCost     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"totalCost"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type Sustainability struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	ProjectID          uint      `gorm:"index;not null" json:"projectId"`
	Description        string    `gorm:"type:text" json:"description"`
	OwningOrganization string    `gorm:"type:varchar(255)" json:"owningOrganization"`
	HasAssetRegister   *bool     `json:"hasAssetRegister"`
	TechnicalCapacity  string    `gorm:"type:text" json:"technicalCapacity"`
	ManagementCapacity string    `gorm:"type:text" json:"managementCapacity"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

type ImplementationPlan struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	ProjectID          uint       `gorm:"index;not null" json:"projectId"`
	Description        string     `gorm:"type:text" json:"description"`
	ImplementingAgency string     `gorm:"type:varchar(255)" json:"implementingAgency"`
	LeadContact        string     `gorm:"type:varchar(150)" json:"leadContact"`
	StartDate          *time.Time `json:"startDate"`
	EndDate            *time.Time `json:"endDate"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

type MonitoringEvaluation struct {
	ID                        uint      `gorm:"primaryKey" json:"id"`
	ProjectID                 uint      `gorm:"index;not null" json:"projectId"`
	InstitutionalArrangements string    `gorm:"type:text" json:"institutionalArrangements"`
	MethodologyReporting      string    `gorm:"type:text" json:"methodologyReporting"`
	CapacityForMonitoring     string    `gorm:"type:text" json:"capacityMonitoring"`
	Indicators                string    `gorm:"type:text" json:"indicators"`
	CreatedAt                 time.Time `json:"createdAt"`
	UpdatedAt                 time.Time `json:"updatedAt"`
}

type Risk struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	ProjectID          uint      `gorm:"index;not null" json:"projectId"`
	RiskDescription    string    `gorm:"type:text;not null" json:"riskDescription"`
	Likelihood         string    `gorm:"type:varchar(30)" json:"likelihood"`
	Impact             string    `gorm:"type:varchar(30)" json:"impact"`
	MitigationStrategy string    `gorm:"type:text" json:"mitigationStrategy"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

type Readiness struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	ProjectID             uint      `gorm:"index;not null" json:"projectId"`
	DesignsPrepared       *bool     `json:"designsPrepared"`
	LandAcquired          *bool     `json:"landAcquired"`
	RegulatoryApprovals   *bool     `json:"regulatoryApprovalObtained"`
	ConsultationCompleted *bool     `json:"consultationUndertaken"`
	CanBePhased           *bool     `json:"canBePhased"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

type Hazard struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ProjectID   uint      `gorm:"index;not null" json:"projectId"`
	HazardName  string    `gorm:"type:varchar(150);not null" json:"hazardName"`
	Description string    `gorm:"type:text" json:"description"`
	Mitigation  string    `gorm:"type:text" json:"mitigation"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

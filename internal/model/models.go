package model

// Normalizer is implemented by records with derived fields that must be
// recomputed before every save.
type Normalizer interface {
	Normalize()
}

// All returns every entity managed by the schema, in migration order.
func All() []interface{} {
	return []interface{}{
		&Privilege{}, &Role{}, &User{},
		&Contractor{}, &Project{}, &Milestone{},
		&ApprovalLevel{}, &PaymentRequest{}, &PaymentDetails{}, &ApprovalHistory{},
		&Document{}, &AuditLog{},
		&ConceptNote{}, &NeedsAssessment{}, &Financials{}, &FyBreakdown{},
		&Sustainability{}, &ImplementationPlan{}, &MonitoringEvaluation{},
		&Risk{}, &Readiness{}, &Hazard{},
		&StrategicPlan{}, &Program{}, &Subprogram{}, &AnnualWorkPlan{}, &WorkPlanActivity{},
	}
}

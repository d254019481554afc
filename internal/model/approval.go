package model

import (
	"time"

	"pmis/internal/workflow"
)

// ApprovalLevel is one step of the payment approval chain.
type ApprovalLevel struct {
	ID        uint      `gorm:"primaryKey" json:"levelId"`
	Name      string    `gorm:"type:varchar(150);not null" json:"levelName"`
	RoleID    uint      `gorm:"index;not null" json:"roleId"`
	Sequence  int       `gorm:"not null;default:0" json:"sequence"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// WorkflowLevel converts the row for the workflow rules.
func (l ApprovalLevel) WorkflowLevel() workflow.Level {
	return workflow.Level{ID: l.ID, Name: l.Name, RoleID: l.RoleID, Sequence: l.Sequence}
}

// ApprovalHistory is an append-only record of an action on a payment request.
type ApprovalHistory struct {
	ID               uint            `gorm:"primaryKey" json:"historyId"`
	RequestID        uint            `gorm:"index;not null" json:"requestId"`
	ApprovalLevelID  *uint           `json:"approvalLevelId"`
	Action           workflow.Action `gorm:"type:varchar(30);not null" json:"action"`
	Notes            string          `gorm:"type:text" json:"notes"`
	FromStatus       workflow.Status `gorm:"type:varchar(40)" json:"fromStatus"`
	ToStatus         workflow.Status `gorm:"type:varchar(40)" json:"toStatus"`
	ActionByUserID   uint            `gorm:"index;not null" json:"actionByUserId"`
	ActionBy         *User           `gorm:"foreignKey:ActionByUserID" json:"actionBy,omitempty"`
	AssignedToUserID *uint           `json:"assignedToUserId"`
	ActionDate       time.Time       `gorm:"not null;index" json:"actionDate"`
}

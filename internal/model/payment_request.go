package model

import (
	"time"

	"pmis/internal/workflow"

	"github.com/shopspring/decimal"
)

// PaymentRequest asks for payment against a project and walks the approval chain.
type PaymentRequest struct {
	ID                     uint            `gorm:"primaryKey" json:"requestId"`
	ProjectID              uint            `gorm:"index;not null" json:"projectId"`
	Project                *Project        `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	UserID                 uint            `gorm:"index;not null" json:"userId"`
	Amount                 decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Description            string          `gorm:"type:text" json:"description"`
	InvoiceNumber          string          `gorm:"type:varchar(100)" json:"invoiceNumber"`
	Status                 workflow.Status `gorm:"type:varchar(40);not null;index" json:"status"`
	CurrentApprovalLevelID *uint           `gorm:"index" json:"currentApprovalLevelId"`
	PaymentDetails         *PaymentDetails `gorm:"foreignKey:RequestID" json:"paymentDetails"`
	Documents              []Document      `gorm:"foreignKey:RequestID" json:"documents"`
	CreatedAt              time.Time       `json:"createdAt"`
	UpdatedAt              time.Time       `json:"updatedAt"`
}

// PaymentDetails is the settlement record written when a request is paid.
type PaymentDetails struct {
	ID                   uint            `gorm:"primaryKey" json:"paymentDetailsId"`
	RequestID            uint            `gorm:"uniqueIndex;not null" json:"requestId"`
	PaymentMethod        string          `gorm:"type:varchar(50);not null" json:"paymentMethod"`
	TransactionReference string          `gorm:"type:varchar(100)" json:"transactionReference"`
	BankName             string          `gorm:"type:varchar(150)" json:"bankName"`
	AmountPaid           decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amountPaid"`
	PaymentDate          time.Time       `gorm:"not null" json:"paymentDate"`
	Notes                string          `gorm:"type:text" json:"notes"`
	PaidByUserID         uint            `gorm:"not null" json:"paidByUserId"`
	CreatedAt            time.Time       `json:"createdAt"`
}

package model

import "time"

// Document types. Photo types are shown in photo galleries, everything else
// is listed as a document.
const (
	DocTypePaymentPhoto   = "photo_payment"
	DocTypeMilestonePhoto = "photo_milestone"
	DocTypeDocument       = "document"
)

// Document is an uploaded file attached to a project, payment request or milestone.
type Document struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	ProjectID        uint      `gorm:"index;not null" json:"projectId"`
	RequestID        *uint     `gorm:"index" json:"requestId"`
	MilestoneID      *uint     `gorm:"index" json:"milestoneId"`
	DocumentType     string    `gorm:"type:varchar(40);not null;index" json:"documentType"`
	DocumentCategory string    `gorm:"type:varchar(100)" json:"documentCategory"`
	DocumentPath     string    `gorm:"type:varchar(500);not null" json:"documentPath"`
	OriginalFileName string    `gorm:"type:varchar(255)" json:"originalFileName"`
	Description      string    `gorm:"type:text" json:"description"`
	DisplayOrder     int       `gorm:"not null;default:0" json:"displayOrder"`
	IsProjectCover   int       `gorm:"not null;default:0" json:"isProjectCover"`
	UserID           uint      `gorm:"index" json:"userId"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// IsPhoto reports whether the document belongs in a photo gallery.
func (d Document) IsPhoto() bool {
	return d.DocumentType == DocTypePaymentPhoto || d.DocumentType == DocTypeMilestonePhoto
}

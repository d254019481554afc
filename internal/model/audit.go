package model

import "time"

const (
	ActionDeleteDocument  = "DELETE_DOCUMENT"
	ActionUpdateDocument  = "UPDATE_DOCUMENT"
	ActionReplaceDocument = "REPLACE_DOCUMENT"
	ActionUploadDocument  = "UPLOAD_DOCUMENT"
	ActionResizePhoto     = "RESIZE_PHOTO"
	ActionReorderPhotos   = "REORDER_PHOTOS"
	ActionSetCoverPhoto   = "SET_COVER_PHOTO"
	ActionCreateRecord    = "CREATE_RECORD"
	ActionUpdateRecord    = "UPDATE_RECORD"
	ActionDeleteRecord    = "DELETE_RECORD"
)

// AuditLog tracks who changed what, outside the payment approval history.
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     *uint     `gorm:"index" json:"userId"`
	User       *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string    `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityType string    `gorm:"type:varchar(50);index" json:"entityType"`
	EntityID   string    `gorm:"type:varchar(50);index" json:"entityId"`
	Details    string    `gorm:"type:text" json:"details"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
}

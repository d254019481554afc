package model

import "time"

// Role groups users that share privileges and approval duties.
type Role struct {
	ID          uint        `gorm:"primaryKey" json:"roleId"`
	Name        string      `gorm:"type:varchar(100);uniqueIndex;not null" json:"roleName"`
	Description string      `gorm:"type:text" json:"description"`
	IsSystem    bool        `gorm:"default:false" json:"isSystem"`
	Privileges  []Privilege `gorm:"many2many:role_privileges;" json:"privileges,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// Privilege is a single permission code, e.g. "payment_request.update".
type Privilege struct {
	ID    uint   `gorm:"primaryKey" json:"privilegeId"`
	Code  string `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"`
	Name  string `gorm:"type:varchar(255);not null" json:"name"`
	Group string `gorm:"column:privilege_group;type:varchar(50);not null;index" json:"group"`
}

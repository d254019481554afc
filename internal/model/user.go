package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User is an account that signs in to the dashboard.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"userId"`
	Username  string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	FirstName string         `gorm:"type:varchar(100)" json:"firstName"`
	LastName  string         `gorm:"type:varchar(100)" json:"lastName"`
	Email     string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone     string         `gorm:"type:varchar(20)" json:"phone"`
	Password  string         `gorm:"type:varchar(255);not null" json:"-"`
	RoleID    uint           `gorm:"index;not null" json:"roleId"`
	Role      *Role          `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// FullName is the display name used in history timelines.
func (u User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

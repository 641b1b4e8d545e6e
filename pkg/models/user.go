// pkg/models/user.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// User is the local mirror of a platform profile (kept fresh by the
// directory sync service). The sync engine only reads it — for email
// addresses and display names.
type User struct {
	ID        string         `json:"id" gorm:"primaryKey;type:varchar(36)"` // UUID as string
	Username  string         `json:"username" gorm:"type:varchar(100);not null;index"`
	Email     string         `json:"email" gorm:"type:varchar(255);not null;index"`
	FirstName *string        `json:"first_name,omitempty" gorm:"type:varchar(100)"`
	LastName  *string        `json:"last_name,omitempty" gorm:"type:varchar(100)"`
	UpdatedAt time.Time      `json:"updated_at"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

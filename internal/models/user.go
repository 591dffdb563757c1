// Package models contains data structures for the application's domain models.
package models

import "time"

// User is an account identity. Public data lives on Profile.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Profile *Profile `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

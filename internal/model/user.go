package model

import "time"

// User is an admin account allowed to manage the catalog
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;type:varchar(255);not null"`
	CreatedAt    time.Time `json:"created_at"`
}

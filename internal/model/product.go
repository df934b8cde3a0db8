package model

import (
	"encoding/json"
	"time"
)

// Product statuses
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// ValidStatus reports whether s is a known product status
func ValidStatus(s string) bool {
	return s == StatusActive || s == StatusInactive
}

// Product represents a catalog entry
type Product struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"type:varchar(255);not null"`
	Description *string   `json:"description" gorm:"type:text"`
	Price       Price     `json:"price" gorm:"type:numeric(12,2);not null"`
	Images      ImageRefs `json:"images" gorm:"serializer:json;type:text"`
	CategoryID  uint      `json:"category_id" gorm:"index;not null"`
	Category    *Category `json:"-" gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Status      string    `json:"status" gorm:"type:varchar(20);not null;default:active;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time `json:"updated_at"`

	// populated by joined reads only
	CategoryName string `json:"category_name,omitempty" gorm:"->;-:migration;column:category_name"`
}

// ImageURL is the comma-joined form of the reference list
func (p Product) ImageURL() *string {
	if len(p.Images) == 0 {
		return nil
	}
	s := p.Images.String()
	return &s
}

// MarshalJSON adds the comma-joined image_url next to the images array
func (p Product) MarshalJSON() ([]byte, error) {
	type plain Product
	return json.Marshal(struct {
		plain
		ImageURL *string `json:"image_url"`
	}{plain(p), p.ImageURL()})
}

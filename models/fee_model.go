package models

import "time"

const (
	FeeTypeOrder   = "order"
	FeeTypePenalty = "penalty"
)

// Fee is a named percentage charged for a purpose. At most one fee may be
// active per type; the fee service enforces this on every write.
type Fee struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	Name       string  `gorm:"size:255;not null" json:"name"`
	Type       string  `gorm:"size:20;not null;index" json:"type"`
	Percentage float64 `gorm:"type:numeric(5,2);not null" json:"percentage"`
	IsActive   bool    `gorm:"default:false" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

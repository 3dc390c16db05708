package models

import "time"

type Product struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	SellerID uint    `gorm:"not null;index" json:"seller_id"`
	Name     string  `gorm:"size:255;not null" json:"name"`
	Price    float64 `gorm:"type:numeric(15,2);not null" json:"price"`
	Quantity int     `gorm:"default:0" json:"quantity"`

	Seller Seller `gorm:"foreignKey:SellerID" json:"seller,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

package models

import "time"

type Seller struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	UserID   string `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	ShopName string `gorm:"size:255;not null" json:"shop_name"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID          string `gorm:"type:uuid;primary_key" json:"id"`
	FullName    string `gorm:"size:255;not null" json:"full_name"`
	Email       string `gorm:"size:255;not null;unique" json:"email"`
	Password    string `gorm:"not null" json:"-"`
	Role        string `gorm:"size:20;not null;default:'buyer'" json:"role"`
	PhoneNumber string `gorm:"size:20" json:"phone_number"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}

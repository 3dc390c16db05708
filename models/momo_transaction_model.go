package models

import "time"

const (
	TransactionKindDeposit = "deposit"
	TransactionKindPayout  = "payout"
	TransactionKindRefund  = "refund"
)

// MomoTransaction is a single attempt to move money through the mobile-money
// provider, in either direction. Terminal statuses are never overwritten.
type MomoTransaction struct {
	ID                    uint    `gorm:"primaryKey" json:"id"`
	UserID                string  `gorm:"type:uuid;not null;index" json:"user_id"`
	OrderID               *uint   `gorm:"index" json:"order_id"`
	Kind                  string  `gorm:"size:20;not null;default:'deposit'" json:"kind"`
	TransactionID         string  `gorm:"size:255;not null;unique" json:"transaction_id"`
	ProviderTransactionID *string `gorm:"size:255;index" json:"provider_transaction_id"`
	PhoneNumber           string  `gorm:"size:20;not null" json:"phone_number"`
	Amount                float64 `gorm:"type:numeric(15,2);not null" json:"amount"`
	Fees                  float64 `gorm:"type:numeric(15,2);default:0" json:"fees"`
	Status                string  `gorm:"size:30;not null" json:"status"`
	ProviderType          string  `gorm:"size:30;not null" json:"provider_type"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

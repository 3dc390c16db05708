package models

import "time"

// PawapayWebhook is the append-only audit log of every webhook delivery,
// recorded before any reconciliation runs and never mutated afterwards.
type PawapayWebhook struct {
	ID                       uint       `gorm:"primaryKey" json:"id"`
	TransactionID            string     `gorm:"size:255;not null;index" json:"transaction_id"`
	TransactionType          string     `gorm:"size:20;not null" json:"transaction_type"`
	Timestamp                time.Time  `json:"timestamp"`
	PhoneNumber              *string    `gorm:"size:20" json:"phone_number"`
	Amount                   string     `gorm:"size:50" json:"amount"`
	Currency                 *string    `gorm:"size:10" json:"currency"`
	Country                  *string    `gorm:"size:10" json:"country"`
	Correspondent            *string    `gorm:"size:50" json:"correspondent"`
	Status                   string     `gorm:"size:30;not null" json:"status"`
	Description              *string    `gorm:"size:255" json:"description"`
	CustomerTimestamp        *time.Time `json:"customer_timestamp"`
	CreatedTimestamp         *time.Time `json:"created_timestamp"`
	ReceivedTimestamp        *time.Time `json:"received_timestamp"`
	FailureReason            *string    `gorm:"type:text" json:"failure_reason"`
	Metadata                 *string    `gorm:"type:text" json:"metadata"`
	SuspiciousActivityReport *string    `gorm:"type:text" json:"suspicious_activity_report"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

package models

import "time"

// ProviderUsage keeps running totals of money moved through each provider.
// Dashboard data only, updated best-effort after a transaction completes.
type ProviderUsage struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	ProviderName          string     `gorm:"size:50;not null;uniqueIndex" json:"provider_name"`
	TotalDepositAmount    float64    `gorm:"type:numeric(18,2);default:0" json:"total_deposit_amount"`
	TotalWithdrawalAmount float64    `gorm:"type:numeric(18,2);default:0" json:"total_withdrawal_amount"`
	TotalTransactions     int        `gorm:"default:0" json:"total_transactions"`
	LastUsedAt            *time.Time `json:"last_used_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

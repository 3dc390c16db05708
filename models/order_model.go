package models

import "time"

const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

// Order is a buyer's commitment to pay for a product in installments.
// RemainingAmount and RemainingInstallments are only ever decremented by the
// reconciliation mark-paid path.
type Order struct {
	ID                    uint    `gorm:"primaryKey" json:"id"`
	UserID                string  `gorm:"type:uuid;not null;index" json:"user_id"`
	SellerID              uint    `gorm:"not null;index" json:"seller_id"`
	ProductID             uint    `gorm:"not null" json:"product_id"`
	Quantity              int     `gorm:"default:1" json:"quantity"`
	TotalCost             float64 `gorm:"type:numeric(15,2);not null" json:"total_cost"`
	Fees                  float64 `gorm:"type:numeric(15,2);default:0" json:"fees"`
	RemainingAmount       float64 `gorm:"type:numeric(15,2);not null" json:"remaining_amount"`
	InstallmentAmount     float64 `gorm:"type:numeric(15,2);not null" json:"installment_amount"`
	InstallmentCount      int     `gorm:"not null" json:"installment_count"`
	RemainingInstallments int     `gorm:"not null" json:"remaining_installments"`
	PaymentFrequency      string  `gorm:"size:20;not null" json:"payment_frequency"`
	ReminderType          string  `gorm:"size:20;not null;default:'email'" json:"reminder_type"`
	PenaltyPercentage     float64 `gorm:"type:numeric(5,2);default:0" json:"penalty_percentage"`
	IsConfirmed           bool    `gorm:"default:false" json:"is_confirmed"`
	IsCompleted           bool    `gorm:"default:false" json:"is_completed"`

	User          User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Seller        Seller         `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	Product       Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	OrderPayments []OrderPayment `gorm:"foreignKey:OrderID" json:"order_payments,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

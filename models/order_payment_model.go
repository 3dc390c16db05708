package models

import "time"

const (
	PaymentStatusPending = "pending"
	PaymentStatusSuccess = "success"
)

// OrderPayment is one scheduled installment of an order. The status
// transition pending -> success is irreversible and happens only inside the
// reconciliation mark-paid transaction.
type OrderPayment struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	OrderID           uint       `gorm:"not null;uniqueIndex:idx_order_installment" json:"order_id"`
	InstallmentNumber int        `gorm:"not null;uniqueIndex:idx_order_installment" json:"installment_number"`
	AmountPaid        float64    `gorm:"type:numeric(15,2);not null" json:"amount_paid"`
	PenaltyFees       float64    `gorm:"type:numeric(15,2);default:0" json:"penalty_fees"`
	DueDate           *time.Time `json:"due_date"`
	PaymentDate       *time.Time `json:"payment_date"`
	Status            string     `gorm:"size:20;not null;default:'pending'" json:"status"`
	IsLate            bool       `gorm:"default:false" json:"is_late"`
	MomoTransactionID *uint      `json:"momo_transaction_id"`

	Order           Order            `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	MomoTransaction *MomoTransaction `gorm:"foreignKey:MomoTransactionID" json:"momo_transaction,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

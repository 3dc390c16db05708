package services

import (
	"time"

	"github.com/takoucam/marketplace/models"
	"gorm.io/gorm"
)

// ApplyPenaltyIfLate recomputes the late penalty for a pending installment
// and persists it when the payment is past due. The penalty is a flat
// percentage of the installment amount recomputed from scratch, so repeated
// calls before payment are safe. Paid installments are never touched.
func ApplyPenaltyIfLate(db *gorm.DB, payment *models.OrderPayment) error {
	if payment.Status == models.PaymentStatusSuccess || payment.DueDate == nil {
		return nil
	}

	if !time.Now().After(*payment.DueDate) {
		return nil
	}

	penaltyPercentage := payment.Order.PenaltyPercentage
	if payment.Order.ID == 0 {
		var order models.Order
		if err := db.First(&order, payment.OrderID).Error; err != nil {
			return err
		}
		penaltyPercentage = order.PenaltyPercentage
	}

	penalty := payment.AmountPaid * (penaltyPercentage / 100)

	if payment.IsLate && payment.PenaltyFees == penalty {
		return nil
	}

	payment.IsLate = true
	payment.PenaltyFees = penalty

	return db.Model(&models.OrderPayment{}).
		Where("id = ?", payment.ID).
		Updates(map[string]interface{}{
			"is_late":      true,
			"penalty_fees": penalty,
		}).Error
}

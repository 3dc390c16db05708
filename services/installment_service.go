package services

import (
	"math"
	"time"

	"github.com/takoucam/marketplace/models"
	"github.com/takoucam/marketplace/utils"
	"gorm.io/gorm"
)

// InstallmentAmount is ceiling division: the sum of installments may exceed
// the total by up to installment_count - 1 currency units. Downstream
// remaining-amount arithmetic depends on this exact rounding.
func InstallmentAmount(totalCost float64, installmentCount int) float64 {
	return math.Ceil(totalCost / float64(installmentCount))
}

func advanceDueDate(t time.Time, frequency string) time.Time {
	switch frequency {
	case models.FrequencyWeekly:
		return t.AddDate(0, 0, 7)
	case models.FrequencyMonthly:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// BuildInstallments creates every OrderPayment row for an order inside the
// caller's transaction. Due dates advance from now by the payment frequency;
// a failure on any row aborts the whole order creation.
func BuildInstallments(tx *gorm.DB, order *models.Order) error {
	if order.InstallmentCount < 1 {
		return utils.NewValidationError("installment count must be at least 1")
	}

	amount := InstallmentAmount(order.TotalCost, order.InstallmentCount)
	dueDate := time.Now()

	for i := 1; i <= order.InstallmentCount; i++ {
		dueDate = advanceDueDate(dueDate, order.PaymentFrequency)
		due := dueDate

		payment := models.OrderPayment{
			OrderID:           order.ID,
			InstallmentNumber: i,
			AmountPaid:        amount,
			PenaltyFees:       0,
			DueDate:           &due,
			Status:            models.PaymentStatusPending,
			IsLate:            false,
		}

		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
	}

	return nil
}

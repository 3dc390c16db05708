package services

import (
	"errors"
	"math"

	"github.com/takoucam/marketplace/models"
	"github.com/takoucam/marketplace/utils"
	"gorm.io/gorm"
)

type CreateOrderInput struct {
	ProductID        uint
	Quantity         int
	InstallmentCount int
	PaymentFrequency string
	ReminderType     string
}

// CreateOrder prices the order from the active fee policy, snapshots the
// penalty percentage and creates the order with its full installment plan in
// one transaction. Payment initiation is the caller's next step.
func CreateOrder(db *gorm.DB, user *models.User, input CreateOrderInput) (*models.Order, error) {
	var product models.Product
	err := db.Preload("Seller").First(&product, input.ProductID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("product not found")
		}
		return nil, err
	}

	productPrice := product.Price * float64(input.Quantity)
	orderFeePercentage := GetActivePercentage(db, models.FeeTypeOrder)
	orderFees := math.Ceil(productPrice * (orderFeePercentage / 100))
	totalCost := productPrice + orderFees
	penaltyPercentage := GetActivePercentage(db, models.FeeTypePenalty)

	order := models.Order{
		UserID:                user.ID,
		SellerID:              product.SellerID,
		ProductID:             product.ID,
		Quantity:              input.Quantity,
		TotalCost:             totalCost,
		Fees:                  orderFees,
		RemainingAmount:       totalCost,
		InstallmentAmount:     InstallmentAmount(totalCost, input.InstallmentCount),
		InstallmentCount:      input.InstallmentCount,
		RemainingInstallments: input.InstallmentCount,
		PaymentFrequency:      input.PaymentFrequency,
		ReminderType:          input.ReminderType,
		PenaltyPercentage:     penaltyPercentage,
		IsConfirmed:           false,
		IsCompleted:           false,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		return BuildInstallments(tx, &order)
	})
	if err != nil {
		return nil, err
	}

	return &order, nil
}

// CancelOrder deletes an order and its installments, allowed only while no
// installment has been paid.
func CancelOrder(db *gorm.DB, order *models.Order) error {
	var successCount int64
	err := db.Model(&models.OrderPayment{}).
		Where("order_id = ? AND status = ?", order.ID, models.PaymentStatusSuccess).
		Count(&successCount).Error
	if err != nil {
		return err
	}

	if successCount > 0 {
		return utils.NewConflictError("cannot cancel an order with successful payments")
	}

	return DeleteUnconfirmedOrder(db, order.ID)
}

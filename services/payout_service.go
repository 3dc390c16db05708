package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/takoucam/marketplace/models"
	"github.com/takoucam/marketplace/payments"
	"github.com/takoucam/marketplace/utils"
	"gorm.io/gorm"
)

// InitiateSellerPayout sends a fully paid order's proceeds to the seller's
// mobile-money number. The platform keeps the order fee; the seller receives
// the product price. One payout per order: a second attempt is rejected while
// a previous one is in flight or has completed.
func InitiateSellerPayout(db *gorm.DB, gateway payments.Gateway, order *models.Order, phoneNumber string) (*models.MomoTransaction, error) {
	if !order.IsCompleted {
		return nil, utils.NewConflictError("order %d is not fully paid; nothing to pay out", order.ID)
	}

	var existing models.MomoTransaction
	err := db.Where("order_id = ? AND kind = ? AND status IN ?",
		order.ID, models.TransactionKindPayout,
		[]string{payments.StatusPending, payments.StatusAccepted, payments.StatusCompleted}).
		First(&existing).Error
	if err == nil {
		return nil, utils.NewConflictError("a payout for order %d already exists (status %s)", order.ID, existing.Status)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var seller models.Seller
	if err := db.First(&seller, order.SellerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("seller not found for order %d", order.ID)
		}
		return nil, err
	}

	amount := order.TotalCost - order.Fees

	transaction := models.MomoTransaction{
		UserID:        seller.UserID,
		OrderID:       &order.ID,
		Kind:          models.TransactionKindPayout,
		TransactionID: "payout_" + uuid.NewString(),
		PhoneNumber:   phoneNumber,
		Amount:        amount,
		Status:        payments.StatusPending,
		ProviderType:  payments.ProviderTypePawaPay,
	}
	if err := db.Create(&transaction).Error; err != nil {
		return nil, err
	}

	result, err := gateway.Payout(payments.PayoutParams{
		PhoneNumber:   phoneNumber,
		Amount:        amount,
		TransactionID: transaction.TransactionID,
		Metadata: map[string]interface{}{
			"order_id":  order.ID,
			"seller_id": seller.ID,
		},
		Description: fmt.Sprintf("Payout order #%d", order.ID),
	})
	if err != nil {
		markTransactionFailed(db, &transaction)
		return nil, err
	}

	if err := applyInitiationResult(db, &transaction, result); err != nil {
		return nil, err
	}

	RecordWithdrawalUsage(db, transaction.ProviderType, amount)
	return &transaction, nil
}

// InitiateRefund returns part or all of a completed deposit to the buyer.
func InitiateRefund(db *gorm.DB, gateway payments.Gateway, depositID string, amount float64, reason string) (*models.MomoTransaction, error) {
	var deposit models.MomoTransaction
	err := db.Where("provider_transaction_id = ? AND kind = ?", depositID, models.TransactionKindDeposit).
		First(&deposit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("no deposit found for id %s", depositID)
		}
		return nil, err
	}

	if deposit.Status != payments.StatusCompleted {
		return nil, utils.NewConflictError("only a completed deposit can be refunded (status %s)", deposit.Status)
	}
	if amount <= 0 || amount > deposit.Amount {
		return nil, utils.NewValidationError("refund amount must be between 0 and the deposit amount (%.0f)", deposit.Amount)
	}

	transaction := models.MomoTransaction{
		UserID:        deposit.UserID,
		OrderID:       deposit.OrderID,
		Kind:          models.TransactionKindRefund,
		TransactionID: "refund_" + uuid.NewString(),
		PhoneNumber:   deposit.PhoneNumber,
		Amount:        amount,
		Status:        payments.StatusPending,
		ProviderType:  payments.ProviderTypePawaPay,
	}
	if err := db.Create(&transaction).Error; err != nil {
		return nil, err
	}

	result, err := gateway.Refund(payments.RefundParams{
		DepositID:     depositID,
		Amount:        amount,
		TransactionID: transaction.TransactionID,
		Reason:        reason,
		Metadata: map[string]interface{}{
			"deposit_id": depositID,
		},
	})
	if err != nil {
		markTransactionFailed(db, &transaction)
		return nil, err
	}

	if err := applyInitiationResult(db, &transaction, result); err != nil {
		return nil, err
	}
	return &transaction, nil
}

// applyInitiationResult folds the provider's answer to an initiation into the
// local transaction, mirroring the deposit path's outcome handling.
func applyInitiationResult(db *gorm.DB, transaction *models.MomoTransaction, result *payments.ProviderResult) error {
	switch {
	case result.Status == payments.StatusDuplicateIgnored:
		updateTransaction(db, transaction, map[string]interface{}{"status": payments.StatusDuplicateIgnored})
		return utils.NewConflictError("the provider already handled this request")

	case result.Status == payments.StatusRejected:
		updateTransaction(db, transaction, map[string]interface{}{"status": payments.StatusRejected})
		reason := result.RejectionReason
		if reason == "" {
			reason = "unknown reason"
		}
		return utils.NewValidationError("the request was rejected: %s", reason)

	case result.Status == payments.StatusAccepted || result.ProviderTransactionID != "":
		changes := map[string]interface{}{}
		if result.ProviderTransactionID != "" {
			changes["provider_transaction_id"] = result.ProviderTransactionID
			transaction.ProviderTransactionID = &result.ProviderTransactionID
		}
		if result.Status == payments.StatusAccepted {
			changes["status"] = payments.StatusAccepted
		}
		if len(changes) > 0 {
			updateTransaction(db, transaction, changes)
		}
		return nil
	}

	markTransactionFailed(db, transaction)
	return utils.NewGatewayError("unexpected response from the payment provider", nil)
}

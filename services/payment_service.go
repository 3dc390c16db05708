package services

import (
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/takoucam/marketplace/models"
	"github.com/takoucam/marketplace/payments"
	"github.com/takoucam/marketplace/utils"
	"gorm.io/gorm"
)

// NextPayableInstallment selects the installment a buyer may pay now. Until
// the order is confirmed only installment #1 is payable; afterwards it is the
// lowest-numbered installment still pending.
func NextPayableInstallment(db *gorm.DB, order *models.Order) (*models.OrderPayment, error) {
	if order.IsCompleted {
		return nil, utils.NewConflictError("this order is already fully paid")
	}

	var payment models.OrderPayment

	query := db.Where("order_id = ? AND status = ?", order.ID, models.PaymentStatusPending)
	if !order.IsConfirmed {
		query = query.Where("installment_number = ?", 1)
	}

	err := query.Order("installment_number asc").First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("no pending installment found for this order")
		}
		return nil, err
	}

	return &payment, nil
}

type InitiationResult struct {
	Transaction    models.MomoTransaction
	Payment        models.OrderPayment
	TotalAmount    float64
	IsFirstPayment bool
}

// InitiateInstallmentPayment creates a MomoTransaction for the next due
// installment and sends the deposit request. All local writes happen strictly
// before the network call; on a gateway failure the transaction is marked
// failed so nothing is left in flight.
func InitiateInstallmentPayment(db *gorm.DB, gateway payments.Gateway, user *models.User, order *models.Order, phoneNumber string) (*InitiationResult, error) {
	nextPayment, err := NextPayableInstallment(db, order)
	if err != nil {
		return nil, err
	}

	if err := ApplyPenaltyIfLate(db, nextPayment); err != nil {
		return nil, err
	}

	// Reject a second concurrent attempt while one is already on the buyer's
	// phone. A still-pending attempt (provider never acknowledged) may be
	// superseded.
	if nextPayment.MomoTransactionID != nil {
		var inFlight models.MomoTransaction
		err := db.Where("id = ? AND status = ?", *nextPayment.MomoTransactionID, payments.StatusAccepted).
			First(&inFlight).Error
		if err == nil {
			return nil, utils.NewConflictError("a payment is already being processed for this installment; check your phone or retry later")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	totalAmount := nextPayment.AmountPaid + nextPayment.PenaltyFees
	transactionID := "momo_" + uuid.NewString()

	transaction := models.MomoTransaction{
		UserID:        user.ID,
		OrderID:       &order.ID,
		Kind:          models.TransactionKindDeposit,
		TransactionID: transactionID,
		PhoneNumber:   phoneNumber,
		Amount:        totalAmount,
		Fees:          0,
		Status:        payments.StatusPending,
		ProviderType:  payments.ProviderTypePawaPay,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&transaction).Error; err != nil {
			return err
		}
		return tx.Model(&models.OrderPayment{}).
			Where("id = ?", nextPayment.ID).
			Update("momo_transaction_id", transaction.ID).Error
	})
	if err != nil {
		return nil, err
	}
	nextPayment.MomoTransactionID = &transaction.ID

	result, err := gateway.Deposit(payments.DepositParams{
		PhoneNumber:   phoneNumber,
		Amount:        totalAmount,
		TransactionID: transactionID,
		Metadata: map[string]interface{}{
			"user_id":            user.ID,
			"order_id":           order.ID,
			"order_payment_id":   nextPayment.ID,
			"installment_number": nextPayment.InstallmentNumber,
		},
		Description: installmentDescription(order, nextPayment),
	})
	if err != nil {
		markTransactionFailed(db, &transaction)
		return nil, err
	}

	switch {
	case result.Status == payments.StatusDuplicateIgnored:
		updateTransaction(db, &transaction, map[string]interface{}{"status": payments.StatusDuplicateIgnored})
		return nil, utils.NewConflictError("this payment appears to have already been initiated; check your phone or retry later")

	case result.Status == payments.StatusRejected:
		updateTransaction(db, &transaction, map[string]interface{}{"status": payments.StatusRejected})
		reason := result.RejectionReason
		if reason == "" {
			reason = "unknown reason"
		}
		return nil, utils.NewValidationError("the payment was rejected: %s", reason)

	case result.Status == payments.StatusAccepted || result.ProviderTransactionID != "":
		changes := map[string]interface{}{}
		if result.ProviderTransactionID != "" {
			changes["provider_transaction_id"] = result.ProviderTransactionID
			transaction.ProviderTransactionID = &result.ProviderTransactionID
		}
		if result.Status == payments.StatusAccepted {
			changes["status"] = payments.StatusAccepted
			transaction.Status = payments.StatusAccepted
		}
		if len(changes) > 0 {
			updateTransaction(db, &transaction, changes)
		}

		return &InitiationResult{
			Transaction:    transaction,
			Payment:        *nextPayment,
			TotalAmount:    totalAmount,
			IsFirstPayment: nextPayment.InstallmentNumber == 1,
		}, nil
	}

	markTransactionFailed(db, &transaction)
	log.Printf("🔥 Unexpected provider response for transaction %s: status=%q", transactionID, result.Status)
	return nil, utils.NewGatewayError("unexpected response from the payment provider", nil)
}

// CheckDepositStatus polls the provider for a deposit and reconciles the
// local transaction with the answer. A provider timeout leaves local state
// untouched.
func CheckDepositStatus(db *gorm.DB, gateway payments.Gateway, depositID string) (*payments.ProviderResult, error) {
	result, err := gateway.CheckDepositStatus(depositID)
	if err != nil {
		return nil, err
	}

	var transaction models.MomoTransaction
	err = db.Where("provider_transaction_id = ? AND provider_type = ?",
		depositID, payments.ProviderTypePawaPay).
		First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("no transaction found for deposit %s", depositID)
		}
		return nil, err
	}

	if result.Status != "" {
		if err := ApplyTransactionStatus(db, &transaction, result.Status); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func installmentDescription(order *models.Order, payment *models.OrderPayment) string {
	// The provider truncates statement descriptions, keep them short.
	return fmt.Sprintf("Order #%d (%d/%d)", order.ID, payment.InstallmentNumber, order.InstallmentCount)
}

func markTransactionFailed(db *gorm.DB, transaction *models.MomoTransaction) {
	updateTransaction(db, transaction, map[string]interface{}{"status": payments.StatusFailed})
}

func updateTransaction(db *gorm.DB, transaction *models.MomoTransaction, changes map[string]interface{}) {
	err := db.Model(&models.MomoTransaction{}).
		Where("id = ?", transaction.ID).
		Updates(changes).Error
	if err != nil {
		log.Printf("🔥 Failed to update transaction %s: %v", transaction.TransactionID, err)
		return
	}
	if status, ok := changes["status"].(string); ok {
		transaction.Status = status
	}
}

package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/takoucam/marketplace/models"
	"github.com/takoucam/marketplace/notifications"
	"github.com/takoucam/marketplace/payments"
	"github.com/takoucam/marketplace/utils"
	"gorm.io/gorm"
)

// publishEvent decouples the engine from notification delivery; tests swap
// it to observe milestone selection.
var publishEvent = notifications.Publish

func SetEventPublisher(fn func(kind string, order models.Order, payment models.OrderPayment, user models.User)) {
	publishEvent = fn
}

// WebhookData is the normalized view of a provider status update, whether it
// arrived by webhook or by polling.
type WebhookData struct {
	ProviderTransactionID    string
	Status                   string
	Amount                   string
	PhoneNumber              *string
	Currency                 *string
	Country                  *string
	Correspondent            *string
	Description              *string
	CustomerTimestamp        *time.Time
	CreatedTimestamp         *time.Time
	ReceivedTimestamp        *time.Time
	FailureReason            *string
	Metadata                 *string
	SuspiciousActivityReport *string
}

// ExtractWebhookData pulls the fields the engine cares about out of a raw
// webhook payload. The provider id is tried in deposit/payout/refund order.
func ExtractWebhookData(payload map[string]interface{}) (*WebhookData, error) {
	data := &WebhookData{}

	for _, key := range []string{"depositId", "payoutId", "refundId"} {
		if id, ok := payload[key].(string); ok && id != "" {
			data.ProviderTransactionID = id
			break
		}
	}

	if status, ok := payload["status"].(string); ok {
		data.Status = payments.NormalizeProviderStatus(status)
	}

	if data.ProviderTransactionID == "" || data.Status == "" {
		return nil, utils.NewValidationError("webhook payload missing transaction id or status")
	}

	if amount, ok := payload["amount"].(string); ok && amount != "" {
		data.Amount = amount
	} else if amount, ok := payload["requestedAmount"].(string); ok {
		data.Amount = amount
	} else if amount, ok := payload["amount"].(float64); ok {
		data.Amount = fmt.Sprintf("%v", amount)
	}

	data.PhoneNumber = nestedString(payload, "payer", "address", "value")
	if data.PhoneNumber == nil {
		data.PhoneNumber = nestedString(payload, "recipient", "address", "value")
	}

	data.Currency = optionalString(payload, "currency")
	data.Country = optionalString(payload, "country")
	data.Correspondent = optionalString(payload, "correspondent")
	data.Description = optionalString(payload, "statementDescription")
	data.CustomerTimestamp = optionalTime(payload, "customerTimestamp")
	data.CreatedTimestamp = optionalTime(payload, "created")
	data.ReceivedTimestamp = optionalTime(payload, "receivedByRecipient")
	data.FailureReason = nestedString(payload, "failureReason", "failureMessage")
	data.Metadata = optionalJSON(payload, "metadata")
	data.SuspiciousActivityReport = optionalJSON(payload, "suspiciousActivityReport")

	return data, nil
}

// ProcessProviderUpdate is the single entry point for webhook deliveries. The
// raw delivery is logged first, append-only, regardless of outcome. A missing
// local transaction is an expected race with async linkage, not an error.
func ProcessProviderUpdate(db *gorm.DB, eventType string, data *WebhookData) error {
	webhookLog := models.PawapayWebhook{
		TransactionID:            data.ProviderTransactionID,
		TransactionType:          eventType,
		Timestamp:                time.Now(),
		PhoneNumber:              data.PhoneNumber,
		Amount:                   data.Amount,
		Currency:                 data.Currency,
		Country:                  data.Country,
		Correspondent:            data.Correspondent,
		Status:                   data.Status,
		Description:              data.Description,
		CustomerTimestamp:        data.CustomerTimestamp,
		CreatedTimestamp:         data.CreatedTimestamp,
		ReceivedTimestamp:        data.ReceivedTimestamp,
		FailureReason:            data.FailureReason,
		Metadata:                 data.Metadata,
		SuspiciousActivityReport: data.SuspiciousActivityReport,
	}

	if err := db.Create(&webhookLog).Error; err != nil {
		return err
	}

	var transaction models.MomoTransaction
	err := db.Where("provider_transaction_id = ? AND provider_type = ?",
		data.ProviderTransactionID, payments.ProviderTypePawaPay).
		First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[reconcile] no local transaction for provider id %s (webhook %d logged)",
				data.ProviderTransactionID, webhookLog.ID)
			return nil
		}
		return err
	}

	return ApplyTransactionStatus(db, &transaction, data.Status)
}

// ApplyTransactionStatus runs the reconciliation state machine for one
// provider status update. It is idempotent: once the local transaction is
// terminal, repeated deliveries of any terminal status are no-ops.
//
// Only COMPLETED marks an installment paid. ACCEPTED is in flight, never a
// success.
func ApplyTransactionStatus(db *gorm.DB, transaction *models.MomoTransaction, rawStatus string) error {
	status := payments.NormalizeProviderStatus(rawStatus)

	switch status {
	case payments.StatusDuplicateIgnored:
		// Provider already handled this attempt elsewhere; nothing to do.
		return nil

	case payments.StatusFailed, payments.StatusRejected:
		return applyFailure(db, transaction, status)

	case payments.StatusCompleted:
		milestone, err := markPaid(db, transaction)
		if err != nil {
			return err
		}
		if milestone != nil {
			RecordDepositUsage(db, transaction.ProviderType, transaction.Amount)
			publishEvent(milestone.Kind, milestone.Order, milestone.Payment, milestone.User)
		}
		return nil

	case payments.StatusPending, payments.StatusAccepted:
		// In-flight progress report. Never downgrades a terminal state.
		return db.Model(&models.MomoTransaction{}).
			Where("id = ? AND status IN ?", transaction.ID,
				[]string{payments.StatusPending, payments.StatusAccepted}).
			Update("status", status).Error
	}

	log.Printf("[reconcile] ignoring unknown provider status %q for transaction %s", status, transaction.TransactionID)
	return nil
}

// applyFailure finalizes a failed or rejected attempt. When the attempt was
// the first installment of an order that never got confirmed, the order and
// its installments are removed; the order never existed from the buyer's
// perspective. A confirmed order is never cascaded.
func applyFailure(db *gorm.DB, transaction *models.MomoTransaction, status string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.MomoTransaction{}).
			Where("id = ? AND status IN ?", transaction.ID,
				[]string{payments.StatusPending, payments.StatusAccepted}).
			Update("status", status)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Already terminal; the first delivery won.
			return nil
		}

		var payment models.OrderPayment
		err := tx.Where("momo_transaction_id = ?", transaction.ID).First(&payment).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		if payment.InstallmentNumber != 1 {
			return nil
		}

		var order models.Order
		if err := tx.First(&order, payment.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		if order.IsConfirmed {
			return nil
		}

		log.Printf("[reconcile] first payment %s, deleting unconfirmed order %d", status, order.ID)
		return deleteOrderWithPayments(tx, order.ID)
	})
}

// PaymentMilestone describes what a successful mark-paid meant for the order,
// so the caller can publish exactly one notification event.
type PaymentMilestone struct {
	Kind    string
	Order   models.Order
	Payment models.OrderPayment
	User    models.User
}

// markPaid performs the mark-paid transition in a single transaction. The
// compare-and-swap on the transaction status guarantees at most one caller
// wins when a webhook and a poll race on the same COMPLETED update; the same
// guard makes the failed-then-completed race mutually exclusive with the
// cascade delete. Returns nil when the payment was already accounted for.
func markPaid(db *gorm.DB, transaction *models.MomoTransaction) (*PaymentMilestone, error) {
	var milestone *PaymentMilestone

	err := db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.MomoTransaction{}).
			Where("id = ? AND status IN ?", transaction.ID,
				[]string{payments.StatusPending, payments.StatusAccepted}).
			Update("status", payments.StatusCompleted)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		var payment models.OrderPayment
		err := tx.Where("momo_transaction_id = ?", transaction.ID).First(&payment).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		now := time.Now()
		result = tx.Model(&models.OrderPayment{}).
			Where("id = ? AND status <> ?", payment.ID, models.PaymentStatusSuccess).
			Updates(map[string]interface{}{
				"status":       models.PaymentStatusSuccess,
				"payment_date": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		var order models.Order
		if err := tx.First(&order, payment.OrderID).Error; err != nil {
			return err
		}

		order.RemainingAmount -= payment.AmountPaid + payment.PenaltyFees
		order.RemainingInstallments--

		newlyConfirmed := false
		if payment.InstallmentNumber == 1 && !order.IsConfirmed {
			order.IsConfirmed = true
			newlyConfirmed = true
		}

		newlyCompleted := false
		if (order.RemainingAmount <= 0 || order.RemainingInstallments <= 0) && !order.IsCompleted {
			order.IsCompleted = true
			newlyCompleted = true
		}

		if err := tx.Save(&order).Error; err != nil {
			return err
		}

		payment.Status = models.PaymentStatusSuccess
		payment.PaymentDate = &now

		// Final supersedes first when both fire at once (single-installment
		// order).
		kind := notifications.KindRegularPayment
		if newlyCompleted {
			kind = notifications.KindFinalPayment
		} else if newlyConfirmed {
			kind = notifications.KindFirstPayment
		}

		var user models.User
		if err := tx.Where("id = ?", order.UserID).First(&user).Error; err != nil &&
			!errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		milestone = &PaymentMilestone{Kind: kind, Order: order, Payment: payment, User: user}

		log.Printf("[reconcile] installment %d of order %d paid (confirmed=%t completed=%t)",
			payment.InstallmentNumber, order.ID, order.IsConfirmed, order.IsCompleted)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return milestone, nil
}

// DeleteUnconfirmedOrder removes an order and all its installments in one
// transaction. Callers must make sure the order holds no successful payment.
func DeleteUnconfirmedOrder(db *gorm.DB, orderID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		return deleteOrderWithPayments(tx, orderID)
	})
}

func deleteOrderWithPayments(tx *gorm.DB, orderID uint) error {
	if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderPayment{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Order{}, orderID).Error
}

func nestedString(payload map[string]interface{}, keys ...string) *string {
	current := payload
	for i, key := range keys {
		value, ok := current[key]
		if !ok {
			return nil
		}
		if i == len(keys)-1 {
			if s, ok := value.(string); ok && s != "" {
				return &s
			}
			return nil
		}
		current, ok = value.(map[string]interface{})
		if !ok {
			return nil
		}
	}
	return nil
}

func optionalString(payload map[string]interface{}, key string) *string {
	if s, ok := payload[key].(string); ok && s != "" {
		return &s
	}
	return nil
}

func optionalTime(payload map[string]interface{}, key string) *time.Time {
	s, ok := payload[key].(string)
	if !ok || s == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &parsed
}

func optionalJSON(payload map[string]interface{}, key string) *string {
	value, ok := payload[key]
	if !ok || value == nil {
		return nil
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil
	}
	s := string(encoded)
	return &s
}

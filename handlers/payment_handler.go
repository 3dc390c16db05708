package handlers

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/takoucam/marketplace/database"
	"github.com/takoucam/marketplace/models"
	"github.com/takoucam/marketplace/payments"
	"github.com/takoucam/marketplace/services"
	"gorm.io/gorm"
)

// webhookVerifier checks inbound webhook authenticity. Nil (tests, missing
// config) disables verification.
var webhookVerifier *payments.SignatureService

func InitWebhookVerifier(signer *payments.SignatureService) {
	webhookVerifier = signer
}

// HandlePawaPayWebhook receives provider status updates. A webhook for a
// transaction we have not linked yet is acknowledged with 200: it is an
// expected race, the poll path will catch up.
func HandlePawaPayWebhook(c *fiber.Ctx) error {
	eventType := c.Params("eventType")

	switch eventType {
	case payments.EventTypeDeposit, payments.EventTypePayout, payments.EventTypeRefund:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid event type"})
	}

	body := c.Body()

	if webhookVerifier != nil {
		signature := c.Get("X-PawaPay-Signature")
		timestamp := c.Get("X-PawaPay-Timestamp")
		if !webhookVerifier.VerifyWebhookSignature(body, signature, timestamp) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid signature"})
		}
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse webhook payload"})
	}

	data, err := services.ExtractWebhookData(payload)
	if err != nil {
		return errorResponse(c, err)
	}

	log.Printf("Received %s webhook for provider transaction %s (status %s)",
		eventType, data.ProviderTransactionID, data.Status)

	if err := services.ProcessProviderUpdate(database.DB, eventType, data); err != nil {
		log.Printf("🔥 CRITICAL: Error processing %s webhook for %s: %v", eventType, data.ProviderTransactionID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process webhook"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Webhook processed successfully"})
}

type InitiatePaymentRequest struct {
	OrderID     uint   `json:"order_id" validate:"required"`
	PhoneNumber string `json:"phone_number" validate:"required,min=9,max=15"`
}

// InitiatePayment starts a deposit for the next due installment of one of
// the caller's orders.
func InitiatePayment(c *fiber.Ctx) error {
	var req InitiatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var order models.Order
	err = database.DB.Where("id = ? AND user_id = ?", req.OrderID, user.ID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Order not found or unauthorized access"})
		}
		return errorResponse(c, err)
	}

	result, err := services.InitiateInstallmentPayment(database.DB, gateway, user, &order, req.PhoneNumber)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Payment initiated successfully. Please complete the payment on your phone.",
		"payment_info": fiber.Map{
			"order_id":           order.ID,
			"payment_id":         result.Payment.ID,
			"installment_number": result.Payment.InstallmentNumber,
			"amount":             result.Payment.AmountPaid,
			"penalty_fees":       result.Payment.PenaltyFees,
			"total_amount":       result.TotalAmount,
			"is_first_payment":   result.IsFirstPayment,
			"transaction":        result.Transaction,
		},
	})
}

// CheckDepositStatus polls the provider for a deposit and reconciles local
// state with the answer.
func CheckDepositStatus(c *fiber.Ctx) error {
	depositID := c.Params("depositId")
	if depositID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing deposit id"})
	}

	if _, err := currentUser(c); err != nil {
		return err
	}

	result, err := services.CheckDepositStatus(database.DB, gateway, depositID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"deposit_id": depositID,
		"status":     result.Status,
	})
}

// GetOrderPayments lists an order's installments, newest penalty figures
// included.
func GetOrderPayments(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	orderID, err := c.ParamsInt("orderId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid order id"})
	}

	var order models.Order
	if err := ownedOrderQuery(user).Where("orders.id = ?", orderID).First(&order).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Order not found or unauthorized access"})
	}

	var orderPayments []models.OrderPayment
	err = database.DB.Preload("MomoTransaction").
		Where("order_id = ?", order.ID).
		Order("installment_number asc").
		Find(&orderPayments).Error
	if err != nil {
		return errorResponse(c, err)
	}

	for i := range orderPayments {
		orderPayments[i].Order = order
		if err := services.ApplyPenaltyIfLate(database.DB, &orderPayments[i]); err != nil {
			return errorResponse(c, err)
		}
	}

	return c.JSON(orderPayments)
}

// GetPaymentDetails returns one installment with its order and transaction.
func GetPaymentDetails(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	paymentID, err := c.ParamsInt("paymentId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment id"})
	}

	var payment models.OrderPayment
	err = database.DB.Preload("Order").Preload("MomoTransaction").
		Where("id = ?", paymentID).
		First(&payment).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment not found"})
	}

	if !userOwnsOrder(user, &payment.Order) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment not found or unauthorized access"})
	}

	return c.JSON(payment)
}

// GetPendingPayments lists the caller's upcoming installments across all
// open orders, due first.
func GetPendingPayments(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var pendingPayments []models.OrderPayment
	err = database.DB.Preload("Order.Product").
		Joins("JOIN orders ON orders.id = order_payments.order_id").
		Where("orders.user_id = ? AND orders.is_completed = ? AND order_payments.status = ?",
			user.ID, false, models.PaymentStatusPending).
		Order("order_payments.due_date asc").
		Find(&pendingPayments).Error
	if err != nil {
		return errorResponse(c, err)
	}

	for i := range pendingPayments {
		if err := services.ApplyPenaltyIfLate(database.DB, &pendingPayments[i]); err != nil {
			return errorResponse(c, err)
		}
	}

	return c.JSON(pendingPayments)
}

func ownedOrderQuery(user *models.User) *gorm.DB {
	query := database.DB.Model(&models.Order{})

	var seller models.Seller
	if err := database.DB.Where("user_id = ?", user.ID).First(&seller).Error; err == nil {
		return query.Where("orders.user_id = ? OR orders.seller_id = ?", user.ID, seller.ID)
	}
	return query.Where("orders.user_id = ?", user.ID)
}

func userOwnsOrder(user *models.User, order *models.Order) bool {
	if order.UserID == user.ID {
		return true
	}
	var seller models.Seller
	if err := database.DB.Where("user_id = ?", user.ID).First(&seller).Error; err == nil {
		return order.SellerID == seller.ID
	}
	return false
}

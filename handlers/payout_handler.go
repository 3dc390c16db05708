package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/takoucam/marketplace/database"
	"github.com/takoucam/marketplace/models"
	"github.com/takoucam/marketplace/services"
	"gorm.io/gorm"
)

type PayoutRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,min=9,max=15"`
}

// InitiateSellerPayout pays a fully paid order's proceeds out to the seller.
// Admin only.
func InitiateSellerPayout(c *fiber.Ctx) error {
	orderID, err := c.ParamsInt("orderId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid order id"})
	}

	var req PayoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var order models.Order
	if err := database.DB.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Order not found"})
		}
		return errorResponse(c, err)
	}

	transaction, err := services.InitiateSellerPayout(database.DB, gateway, &order, req.PhoneNumber)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"message":     "Payout initiated successfully",
		"transaction": transaction,
	})
}

type RefundRequest struct {
	DepositID string  `json:"deposit_id" validate:"required"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Reason    string  `json:"reason" validate:"omitempty,max=255"`
}

// InitiateRefund returns a completed deposit (or part of it) to the buyer.
// Admin only.
func InitiateRefund(c *fiber.Ctx) error {
	var req RefundRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	transaction, err := services.InitiateRefund(database.DB, gateway, req.DepositID, req.Amount, req.Reason)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"message":     "Refund initiated successfully",
		"transaction": transaction,
	})
}

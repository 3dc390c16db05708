package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/takoucam/marketplace/database"
	"github.com/takoucam/marketplace/models"
	"github.com/takoucam/marketplace/services"
	"gorm.io/gorm"
)

type CreateOrderRequest struct {
	ProductID        uint   `json:"product_id" validate:"required"`
	Quantity         int    `json:"quantity" validate:"required,min=1"`
	InstallmentCount int    `json:"installment_count" validate:"required,min=1"`
	PaymentFrequency string `json:"payment_frequency" validate:"required,oneof=daily weekly monthly"`
	ReminderType     string `json:"reminder_type" validate:"required,oneof=call sms email"`
	PhoneNumber      string `json:"phone_number" validate:"required,min=9,max=15"`
}

// CreateOrder creates an order with its installment plan and immediately
// initiates the first deposit. When initiation fails the order is removed;
// an order with no payment attempt should not linger.
func CreateOrder(c *fiber.Ctx) error {
	var req CreateOrderRequest
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

	order, err := services.CreateOrder(database.DB, user, services.CreateOrderInput{
		ProductID:        req.ProductID,
		Quantity:         req.Quantity,
		InstallmentCount: req.InstallmentCount,
		PaymentFrequency: req.PaymentFrequency,
		ReminderType:     req.ReminderType,
	})
	if err != nil {
		return errorResponse(c, err)
	}

	result, err := services.InitiateInstallmentPayment(database.DB, gateway, user, order, req.PhoneNumber)
	if err != nil {
		if deleteErr := services.DeleteUnconfirmedOrder(database.DB, order.ID); deleteErr != nil {
			log.Printf("🔥 Failed to delete order %d after initiation failure: %v", order.ID, deleteErr)
		}
		return errorResponse(c, err)
	}

	if err := database.DB.Preload("OrderPayments").First(order, order.ID).Error; err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Order created. Please complete the payment on your phone to confirm the order.",
		"order":   order,
		"payment_info": fiber.Map{
			"payment_id":       result.Payment.ID,
			"total_amount":     result.TotalAmount,
			"transaction":      result.Transaction,
			"is_first_payment": result.IsFirstPayment,
		},
	})
}

type RetryPaymentRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,min=9,max=15"`
}

// RetryConfirmationPayment retries the first installment of an order that
// never got confirmed.
func RetryConfirmationPayment(c *fiber.Ctx) error {
	var req RetryPaymentRequest
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

	orderID, err := c.ParamsInt("orderId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid order id"})
	}

	var order models.Order
	err = database.DB.Where("id = ? AND user_id = ? AND is_confirmed = ?", orderID, user.ID, false).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Order not found or already confirmed"})
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
			"payment_id":   result.Payment.ID,
			"total_amount": result.TotalAmount,
			"transaction":  result.Transaction,
		},
	})
}

// GetUserOrders lists the caller's orders with their installments.
func GetUserOrders(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var orders []models.Order
	err = database.DB.Preload("Product").Preload("OrderPayments").
		Where("user_id = ?", user.ID).
		Order("created_at desc").
		Find(&orders).Error
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(orders)
}

// GetSellerOrders lists orders placed against the caller's products.
func GetSellerOrders(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var seller models.Seller
	if err := database.DB.Where("user_id = ?", user.ID).First(&seller).Error; err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You are not a seller"})
	}

	var orders []models.Order
	err = database.DB.Preload("User").Preload("Product").Preload("OrderPayments").
		Where("seller_id = ?", seller.ID).
		Order("created_at desc").
		Find(&orders).Error
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(orders)
}

// GetUnconfirmedOrders lists the caller's orders still waiting on their first
// payment, with just that installment attached.
func GetUnconfirmedOrders(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var orders []models.Order
	err = database.DB.Preload("Product").
		Preload("OrderPayments", "installment_number = ?", 1).
		Where("user_id = ? AND is_confirmed = ?", user.ID, false).
		Order("created_at desc").
		Find(&orders).Error
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(orders)
}

// GetOrderDetails returns one order visible to the caller as buyer or
// seller.
func GetOrderDetails(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	orderID, err := c.ParamsInt("orderId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid order id"})
	}

	var order models.Order
	err = ownedOrderQuery(user).
		Preload("User").Preload("Product").Preload("OrderPayments.MomoTransaction").
		Where("orders.id = ?", orderID).
		First(&order).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Order not found or unauthorized access"})
	}

	return c.JSON(order)
}

// CancelOrder deletes an order while no installment has been paid.
func CancelOrder(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	orderID, err := c.ParamsInt("orderId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid order id"})
	}

	var order models.Order
	err = database.DB.Where("id = ? AND user_id = ?", orderID, user.ID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Order not found or unauthorized access"})
		}
		return errorResponse(c, err)
	}

	if err := services.CancelOrder(database.DB, &order); err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"message": "Order and associated payments successfully deleted"})
}

// GetAllOrders is the admin listing with keyword, status, date and amount
// filters.
func GetAllOrders(c *fiber.Ctx) error {
	query := database.DB.Model(&models.Order{})

	if keyword := c.Query("keyword"); keyword != "" {
		like := "%" + keyword + "%"
		query = query.
			Joins("JOIN users ON users.id = orders.user_id").
			Joins("JOIN products ON products.id = orders.product_id").
			Where("users.full_name LIKE ? OR users.email LIKE ? OR products.name LIKE ?", like, like, like)
	}

	switch c.Query("status") {
	case "completed":
		query = query.Where("is_completed = ?", true)
	case "confirmed":
		query = query.Where("is_confirmed = ? AND is_completed = ?", true, false)
	case "pending":
		query = query.Where("is_confirmed = ?", false)
	}

	if from := c.Query("date_from"); from != "" {
		query = query.Where("orders.created_at >= ?", from)
	}
	if to := c.Query("date_to"); to != "" {
		query = query.Where("orders.created_at <= ?", to)
	}
	if min := c.QueryFloat("min_amount"); min > 0 {
		query = query.Where("total_cost >= ?", min)
	}
	if max := c.QueryFloat("max_amount"); max > 0 {
		query = query.Where("total_cost <= ?", max)
	}

	perPage := c.QueryInt("per_page", 15)
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return errorResponse(c, err)
	}

	var orders []models.Order
	err := query.Preload("User").Preload("Product").Preload("OrderPayments").
		Order("orders.created_at desc").
		Limit(perPage).Offset((page - 1) * perPage).
		Find(&orders).Error
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"data":     orders,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

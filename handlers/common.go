package handlers

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/takoucam/marketplace/database"
	"github.com/takoucam/marketplace/middleware"
	"github.com/takoucam/marketplace/models"
	"github.com/takoucam/marketplace/payments"
	"github.com/takoucam/marketplace/utils"
	"gorm.io/gorm"
)

var validate = validator.New()

// gateway is the provider client used by the payment handlers. Swapped for a
// fake in tests.
var gateway payments.Gateway

func SetPaymentGateway(g payments.Gateway) {
	gateway = g
}

func currentUser(c *fiber.Ctx) (*models.User, error) {
	userID := middleware.UserID(c)
	if userID == "" {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Not authenticated")
	}

	var user models.User
	if err := database.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "User not found")
		}
		return nil, err
	}
	return &user, nil
}

// errorResponse maps the service error taxonomy onto HTTP responses. Gateway
// failures never leak provider internals to the client.
func errorResponse(c *fiber.Ctx, err error) error {
	var validationErr *utils.ValidationError
	var conflictErr *utils.ConflictError
	var notFoundErr *utils.NotFoundError
	var gatewayErr *utils.GatewayError

	switch {
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErr.Message})
	case errors.As(err, &conflictErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": conflictErr.Message})
	case errors.As(err, &notFoundErr):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": notFoundErr.Message})
	case errors.As(err, &gatewayErr):
		log.Printf("🔥 Gateway error: %v", gatewayErr)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "An error occurred while communicating with the payment service. Please try again.",
		})
	}

	log.Printf("🔥 Internal error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}

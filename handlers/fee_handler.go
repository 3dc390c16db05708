package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/takoucam/marketplace/database"
	"github.com/takoucam/marketplace/models"
	"github.com/takoucam/marketplace/services"
)

type CreateFeeRequest struct {
	Name       string   `json:"name" validate:"required,max=255"`
	Type       string   `json:"type" validate:"required,oneof=order penalty"`
	Percentage *float64 `json:"percentage" validate:"required,min=0,max=100"`
	IsActive   *bool    `json:"is_active"`
}

func GetFees(c *fiber.Ctx) error {
	var fees []models.Fee
	if err := database.DB.Find(&fees).Error; err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fees)
}

func CreateFee(c *fiber.Ctx) error {
	var req CreateFeeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	fee := models.Fee{
		Name:       req.Name,
		Type:       req.Type,
		Percentage: *req.Percentage,
		IsActive:   isActive,
	}

	if err := services.CreateFee(database.DB, &fee); err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Fee created successfully",
		"fee":     fee,
	})
}

type UpdateFeeRequest struct {
	Name       *string  `json:"name" validate:"omitempty,max=255"`
	Type       *string  `json:"type" validate:"omitempty,oneof=order penalty"`
	Percentage *float64 `json:"percentage" validate:"omitempty,min=0,max=100"`
	IsActive   *bool    `json:"is_active"`
}

func UpdateFee(c *fiber.Ctx) error {
	feeID, err := c.ParamsInt("feeId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid fee id"})
	}

	var req UpdateFeeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Type != nil {
		updates["type"] = *req.Type
	}
	if req.Percentage != nil {
		updates["percentage"] = *req.Percentage
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	fee, err := services.UpdateFee(database.DB, uint(feeID), updates)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Fee updated successfully",
		"fee":     fee,
	})
}

func DeleteFee(c *fiber.Ctx) error {
	feeID, err := c.ParamsInt("feeId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid fee id"})
	}

	if err := services.DeleteFee(database.DB, uint(feeID)); err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"message": "Fee deleted successfully"})
}

func ActivateFee(c *fiber.Ctx) error {
	feeID, err := c.ParamsInt("feeId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid fee id"})
	}

	fee, err := services.ActivateFee(database.DB, uint(feeID))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Fee activated successfully",
		"fee":     fee,
	})
}

// GetActiveFees returns the currently active fee of each type; buyers use it
// to preview order pricing.
func GetActiveFees(c *fiber.Ctx) error {
	var orderFee, penaltyFee models.Fee

	var orderPtr, penaltyPtr *models.Fee
	if err := database.DB.Where("type = ? AND is_active = ?", models.FeeTypeOrder, true).First(&orderFee).Error; err == nil {
		orderPtr = &orderFee
	}
	if err := database.DB.Where("type = ? AND is_active = ?", models.FeeTypePenalty, true).First(&penaltyFee).Error; err == nil {
		penaltyPtr = &penaltyFee
	}

	return c.JSON(fiber.Map{
		"order_fee":   orderPtr,
		"penalty_fee": penaltyPtr,
	})
}

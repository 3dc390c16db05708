package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/takoucam/marketplace/database"
	"github.com/takoucam/marketplace/models"
)

// GetUserTransactions lists the caller's mobile-money transactions.
func GetUserTransactions(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var transactions []models.MomoTransaction
	err = database.DB.Where("user_id = ?", user.ID).
		Order("created_at desc").
		Find(&transactions).Error
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(transactions)
}

// GetAllTransactions is the admin listing with keyword, status, provider,
// amount and date filters.
func GetAllTransactions(c *fiber.Ctx) error {
	query := database.DB.Model(&models.MomoTransaction{})

	if keyword := c.Query("keyword"); keyword != "" {
		like := "%" + keyword + "%"
		query = query.
			Joins("JOIN users ON users.id = momo_transactions.user_id").
			Where("momo_transactions.transaction_id LIKE ? OR momo_transactions.provider_transaction_id LIKE ? OR momo_transactions.phone_number LIKE ? OR users.full_name LIKE ? OR users.email LIKE ?",
				like, like, like, like, like)
	}

	if status := c.Query("status"); status != "" {
		query = query.Where("momo_transactions.status = ?", status)
	}
	if kind := c.Query("kind"); kind != "" {
		query = query.Where("momo_transactions.kind = ?", kind)
	}
	if providerType := c.Query("provider_type"); providerType != "" {
		query = query.Where("momo_transactions.provider_type = ?", providerType)
	}
	if min := c.QueryFloat("min_amount"); min > 0 {
		query = query.Where("momo_transactions.amount >= ?", min)
	}
	if max := c.QueryFloat("max_amount"); max > 0 {
		query = query.Where("momo_transactions.amount <= ?", max)
	}
	if from := c.Query("date_from"); from != "" {
		query = query.Where("momo_transactions.created_at >= ?", from)
	}
	if to := c.Query("date_to"); to != "" {
		query = query.Where("momo_transactions.created_at <= ?", to)
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

	var transactions []models.MomoTransaction
	err := query.Preload("User").
		Order("momo_transactions.created_at desc").
		Limit(perPage).Offset((page - 1) * perPage).
		Find(&transactions).Error
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"data":     transactions,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

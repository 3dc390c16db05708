package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/takoucam/marketplace/handlers"
	"github.com/takoucam/marketplace/middleware"
)

func TransactionRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	transactions := api.Group("/transactions", middleware.Protected())
	transactions.Get("/", handlers.GetUserTransactions)
}

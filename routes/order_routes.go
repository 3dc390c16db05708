package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/takoucam/marketplace/handlers"
	"github.com/takoucam/marketplace/middleware"
)

func OrderRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	orders := api.Group("/orders", middleware.Protected())
	orders.Post("/", handlers.CreateOrder)
	orders.Get("/", handlers.GetUserOrders)
	orders.Get("/seller", handlers.GetSellerOrders)
	orders.Get("/unconfirmed", handlers.GetUnconfirmedOrders)
	orders.Get("/:orderId", handlers.GetOrderDetails)
	orders.Post("/:orderId/retry-payment", handlers.RetryConfirmationPayment)
	orders.Delete("/:orderId", handlers.CancelOrder)

	admin := api.Group("/admin", middleware.Protected(), middleware.AdminRequired())
	admin.Get("/orders", handlers.GetAllOrders)
	admin.Get("/transactions", handlers.GetAllTransactions)
	admin.Post("/orders/:orderId/payout", handlers.InitiateSellerPayout)
	admin.Post("/refunds", handlers.InitiateRefund)
}

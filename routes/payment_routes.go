package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/takoucam/marketplace/handlers"
	"github.com/takoucam/marketplace/middleware"
)

func PaymentRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	// Provider webhooks are authenticated by signature, not by JWT.
	api.Post("/payments/:eventType/webhook", handlers.HandlePawaPayWebhook)

	payments := api.Group("/payments", middleware.Protected())
	payments.Post("/initiate", handlers.InitiatePayment)
	payments.Get("/deposit-status/:depositId", handlers.CheckDepositStatus)
	payments.Get("/pending", handlers.GetPendingPayments)
	payments.Get("/order/:orderId", handlers.GetOrderPayments)
	payments.Get("/:paymentId", handlers.GetPaymentDetails)
}

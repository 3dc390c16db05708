package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/takoucam/marketplace/handlers"
	"github.com/takoucam/marketplace/middleware"
)

func FeeRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Get("/fees/active", handlers.GetActiveFees)

	fees := api.Group("/fees", middleware.Protected(), middleware.AdminRequired())
	fees.Get("/", handlers.GetFees)
	fees.Post("/", handlers.CreateFee)
	fees.Put("/:feeId", handlers.UpdateFee)
	fees.Delete("/:feeId", handlers.DeleteFee)
	fees.Post("/:feeId/activate", handlers.ActivateFee)
}

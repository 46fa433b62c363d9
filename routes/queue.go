package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/clinic-queue/controllers"
	"github.com/meinhoongagan/clinic-queue/middleware"
)

// SetupQueueRoutes configures the doctor- and billing-facing queue routes
func SetupQueueRoutes(app *fiber.App) {
	queue := app.Group("/queue", middleware.Protected())

	queue.Post("/check-in", middleware.RequireRole("doctor", "reception"), controllers.CheckIn)
	queue.Get("/board/:doctorId", middleware.RequireRole("doctor", "reception"), controllers.GetQueueBoard)
	queue.Get("/overview/:doctorId", middleware.RequireRole("doctor", "reception"), controllers.GetQueueOverview)
	queue.Post("/call-next/:doctorId", middleware.RequireRole("doctor"), controllers.CallNext)

	queue.Post("/entries/:id/call", middleware.RequireRole("doctor"), controllers.CallEntry)
	queue.Post("/entries/:id/start", middleware.RequireRole("doctor"), controllers.StartConsultation)
	queue.Post("/entries/:id/complete", middleware.RequireRole("doctor"), controllers.CompleteConsultation)
	queue.Post("/entries/:id/cancel", middleware.RequireRole("doctor", "reception"), controllers.CancelEntry)

	queue.Patch("/entries/:id/payment", middleware.RequireRole("billing"), controllers.UpdatePaymentStatus)
}

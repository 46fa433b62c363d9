package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/clinic-queue/controllers"
	"github.com/meinhoongagan/clinic-queue/middleware"
)

// SetupAvailabilityRoutes configures the doctor availability routes
func SetupAvailabilityRoutes(app *fiber.App) {
	availability := app.Group("/availability")

	availability.Get("/:doctorId", controllers.GetAvailability)
	availability.Put("/:doctorId/status", middleware.Protected(), middleware.RequireRole("doctor"), controllers.UpdateDoctorStatus)
	availability.Put("/:doctorId/working-hours", middleware.Protected(), middleware.RequireRole("doctor"), controllers.UpdateWorkingHours)
	availability.Put("/:doctorId/queue-active", middleware.Protected(), middleware.RequireRole("doctor"), controllers.UpdateQueueActive)
}

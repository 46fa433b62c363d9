package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/clinic-queue/controllers"
	"github.com/meinhoongagan/clinic-queue/middleware"
)

// SetupPatientRoutes configures the patient-facing polling routes
func SetupPatientRoutes(app *fiber.App) {
	patient := app.Group("/patient", middleware.Protected())

	patient.Get("/queue/:entryId", controllers.GetQueuePosition)
}

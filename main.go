package main

import (
	"os"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/meinhoongagan/clinic-queue/controllers"
	"github.com/meinhoongagan/clinic-queue/cron"
	"github.com/meinhoongagan/clinic-queue/db"
	"github.com/meinhoongagan/clinic-queue/logger"
	"github.com/meinhoongagan/clinic-queue/redis"
	"github.com/meinhoongagan/clinic-queue/routes"
	"github.com/meinhoongagan/clinic-queue/services"
	"github.com/meinhoongagan/clinic-queue/utils"
)

func main() {
	app := fiber.New()
	logger.Init()
	defer logger.Sync()
	db.Init()

	// Single-writer sections run on redis when available so several
	// instances can share one database; otherwise an in-process lock.
	var lock services.Locker = services.NewMutexLocker()
	if os.Getenv("REDIS_ADDR") != "" {
		redis.InitRedis()
		lock = services.NewRedisLocker(redis.Client)
	}

	avgMinutes := services.DefaultAvgConsultMinutes
	if raw := os.Getenv("AVG_CONSULT_MINUTES"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			avgMinutes = parsed
		}
	}

	ledger := services.NewQueueLedger(db.DB, lock, utils.RealClock{})
	registry := services.NewAvailabilityRegistry(db.DB)
	calculator := services.NewPositionCalculator(db.DB, avgMinutes)
	controllers.Init(ledger, registry, calculator)

	cron.StartCronJobs(ledger)

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Hello, World!")
	})
	routes.SetupQueueRoutes(app)
	routes.SetupAvailabilityRoutes(app)
	routes.SetupPatientRoutes(app)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}
	app.Listen(":" + port)
}

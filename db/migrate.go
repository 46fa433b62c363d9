package db

import (
	"fmt"
	"log"

	"github.com/meinhoongagan/clinic-queue/models"
)

func Migrate() {
	// Initialize DB connection
	Init()

	// Run AutoMigrate only when explicitly called
	err := DB.AutoMigrate(
		&models.QueueEntry{},
		&models.DoctorAvailability{},
	)
	if err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}

	fmt.Println("✅ Migrations applied successfully!")
}

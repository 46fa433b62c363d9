package main

import (
	"github.com/meinhoongagan/clinic-queue/db"
	"github.com/meinhoongagan/clinic-queue/logger"
)

func main() {
	logger.Init()
	defer logger.Sync()

	logger.SLog.Info("Running database migrations...")
	db.Migrate()
}

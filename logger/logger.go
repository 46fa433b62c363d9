package logger

import (
	"log"
	"os"

	"go.uber.org/zap"
)

// Log defaults to a no-op logger so library code can log before Init (and
// under go test) without nil checks.
var (
	Log  = zap.NewNop()
	SLog = zap.NewNop().Sugar()
)

// Init builds the process-wide zap logger. APP_ENV=production switches to
// the JSON production config.
func Init() {
	var (
		l   *zap.Logger
		err error
	)
	if os.Getenv("APP_ENV") == "production" {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	Log = l
	SLog = l.Sugar()
}

// Sync flushes buffered log entries; call on shutdown.
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}

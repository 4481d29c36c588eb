package watch

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/livescore/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "watch_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	if err := logger.InitWith(multiWriter, "text"); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the watch tool.
func ShowHelp() {
	os.Stdout.WriteString(`Livescore Watch Tool
====================

Follows the live stream of a running livescore service and checks every
match it sees from the subscriber side: status and period order, scores
that never go down, and a single removal per event.

Usage:
  go run ./cmd/watch [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -duration duration
        How long to watch, 0 to watch until interrupted (default 10m)
  -events int
        Stop following new announcements after this many, 0 for no limit
  -timeout duration
        HTTP request timeout (default 10s)
  -log string
        Log file for watch output (default: watch_log_TIMESTAMP.log)
  -verbose
        Log every received message
  -help
        Show this help message

Examples:
  # Watch for ten minutes
  go run ./cmd/watch

  # Follow five matches to the end against a local instance
  go run ./cmd/watch -events 5 -duration 15m -url http://localhost:8080
`)
}

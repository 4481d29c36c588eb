package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/livescore/internal/watch"
)

// Default configuration constants.
const (
	defaultDuration = 10 * time.Minute
)

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:9080", "Base URL of the service")
		duration  = flag.Duration("duration", defaultDuration, "How long to watch, 0 to watch until interrupted")
		maxEvents = flag.Int("events", 0, "Stop following new announcements after this many, 0 for no limit")
		timeout   = flag.Duration("timeout", watch.DefaultTimeout, "HTTP request timeout")
		logFile   = flag.String("log", "", "Log file for watch output (default: watch_log_TIMESTAMP.log)")
		verbose   = flag.Bool("verbose", false, "Log every received message")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		watch.ShowHelp()
		return
	}

	if err := watch.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config := &watch.Config{
		BaseURL:   *baseURL,
		Duration:  *duration,
		Timeout:   *timeout,
		MaxEvents: *maxEvents,
		LogFile:   *logFile,
		Verbose:   *verbose,
	}

	if err := watch.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Watch failed: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

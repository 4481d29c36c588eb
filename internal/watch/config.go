package watch

import (
	"encoding/json"
	"time"

	"github.com/okian/livescore/internal/domain/model"
)

// Config holds configuration for a watch run.
type Config struct {
	BaseURL   string        // Base URL of the service
	Duration  time.Duration // How long to watch; zero watches until interrupted
	Timeout   time.Duration // Timeout of plain HTTP requests
	MaxEvents int           // Stop following new announcements after this many; zero is unlimited
	LogFile   string        // Log file for watch output
	Verbose   bool          // Log every received message
}

// wireMessage is a Message as it arrives on the stream, payload undecoded.
type wireMessage struct {
	Topic   string            `json:"topic"`
	Kind    model.MessageKind `json:"kind"`
	Payload json.RawMessage   `json:"payload"`
	At      time.Time         `json:"at"`
}

// Stats holds watch statistics.
type Stats struct {
	Announced  int
	Completed  int
	InFlight   int
	Messages   int
	Violations []string
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}

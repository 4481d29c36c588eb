// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/okian/livescore/internal/adapters/mq/pubsub"
	"github.com/okian/livescore/internal/domain/model"
	"github.com/okian/livescore/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Snapshot lists every current event, latest kickoff first.
	Snapshot(ctx context.Context) (types.EventList, error)
	// Event returns a single event by id.
	Event(ctx context.Context, id string) (model.Event, error)

	// Subscribe and Unsubscribe back the server-sent event stream.
	Subscribe(topic string) (*pubsub.Subscription, error)
	Unsubscribe(sub *pubsub.Subscription)
}

// Server wires HTTP routes for the business API.
type Server struct {
	rootHandler   *RootHandler
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	eventsHandler *EventsHandler
	streamHandler *StreamHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...StreamOption) *Server {
	return &Server{
		rootHandler:   NewRootHandler(),
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		eventsHandler: NewEventsHandler(deps),
		streamHandler: NewStreamHandler(deps, opts...),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandleListEvents, "events"))
	mux.HandleFunc("/events/", MetricsMiddleware(s.eventsHandler.HandleGetEvent, "event"))
	mux.HandleFunc("/stream", MetricsMiddleware(s.streamHandler.HandleStream, "stream"))
	mux.HandleFunc("/", MetricsMiddleware(s.rootHandler.HandleRoot, "root"))
}

// StreamOption configures the stream handler.
type StreamOption func(*StreamHandler)

// WithPingInterval sets how often idle streams receive a ping event.
func WithPingInterval(d time.Duration) StreamOption {
	return func(h *StreamHandler) {
		if d > 0 {
			h.ping = d
		}
	}
}

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/okian/livescore/internal/adapters/mq/pubsub"
	"github.com/okian/livescore/internal/domain/model"
	"github.com/okian/livescore/pkg/logger"
	"github.com/okian/livescore/pkg/metrics"
)

const defaultPingInterval = 15 * time.Second

// StreamDependencies joins and leaves notification topics.
type StreamDependencies interface {
	Subscribe(topic string) (*pubsub.Subscription, error)
	Unsubscribe(sub *pubsub.Subscription)
}

// StreamHandler relays topic notifications as server-sent events. A client
// joins its topic on connect and leaves it on disconnect.
type StreamHandler struct {
	deps StreamDependencies
	ping time.Duration
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(deps StreamDependencies, opts ...StreamOption) *StreamHandler {
	h := &StreamHandler{deps: deps, ping: defaultPingInterval}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleStream handles GET /stream?topic=<event id|NEW_EVENT> requests.
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	topic := strings.TrimSpace(r.URL.Query().Get("topic"))
	if topic == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: missing topic", ErrBadRequest))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal_error", ErrStreamUnsupported)
		return
	}

	sub, err := h.deps.Subscribe(topic)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
		return
	}
	defer h.deps.Unsubscribe(sub)

	ctx := r.Context()
	log := logger.Get().Named("stream")
	log.Debug(ctx, "stream joined", logger.String("topic", topic))
	defer log.Debug(ctx, "stream left", logger.String("topic", topic))

	// streams outlive the server's write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, ": joined %s\n\n", topic)
	flusher.Flush()

	ticker := time.NewTicker(h.ping)
	defer ticker.Stop()

	var seq uint64
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.C:
			if !ok {
				return
			}
			seq++
			if err := writeEvent(w, seq, msg); err != nil {
				h.fail(ctx, log, topic, err)
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, "event: ping\ndata: {}\n\n"); err != nil {
				h.fail(ctx, log, topic, err)
				return
			}
			flusher.Flush()
		}
	}
}

func (h *StreamHandler) fail(ctx context.Context, log logger.Logger, topic string, err error) {
	metrics.RecordNotificationFailed("sse")
	log.Debug(ctx, "stream write failed", logger.String("topic", topic), logger.Error(err))
}

// writeEvent frames msg as one server-sent event named after its kind.
func writeEvent(w http.ResponseWriter, seq uint64, msg model.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msg.Kind, err)
	}
	if _, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", seq, msg.Kind, data); err != nil {
		return err
	}
	return nil
}

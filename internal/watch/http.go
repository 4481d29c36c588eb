package watch

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/livescore/internal/domain/types"
)

// errStreamClosed is returned when the server ends a stream.
var errStreamClosed = errors.New("stream closed by server")

// HTTPClient wraps http.Client with timeout.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	stream  *http.Client
}

// newHTTPClient creates a new HTTP client. Streams are bounded only by their
// context.
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		stream:  &http.Client{},
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Liveness checks that GET / answers the liveness text.
func (c *HTTPClient) Liveness(ctx context.Context) error {
	resp, err := c.Get(ctx, "/")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode != StatusOK || strings.TrimSpace(string(body)) != livenessBody {
		return fmt.Errorf("unexpected liveness answer %d %q", resp.StatusCode, body)
	}
	return nil
}

// Events fetches the current snapshot.
func (c *HTTPClient) Events(ctx context.Context) (types.EventList, error) {
	var list types.EventList
	resp, err := c.Get(ctx, "/events")
	if err != nil {
		return list, err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return list, err
	}
	if resp.StatusCode != StatusOK {
		return list, fmt.Errorf("list events: status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, &list); err != nil {
		return list, fmt.Errorf("decode events: %w", err)
	}
	return list, nil
}

// Stream joins topic and hands every message to fn until ctx is done, the
// server closes the stream, or fn returns false.
func (c *HTTPClient) Stream(ctx context.Context, topic string, fn func(wireMessage) bool) error {
	target := c.baseURL + "/stream?topic=" + url.QueryEscape(topic)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(req)
	if err != nil {
		return fmt.Errorf("join %s: %w", topic, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("join %s: status %d", topic, resp.StatusCode)
	}

	return readStream(resp.Body, func(name, data string) (bool, error) {
		if name == "ping" {
			return true, nil
		}
		var msg wireMessage
		if err := json.Unmarshal([]byte(data), &msg); err != nil {
			return false, fmt.Errorf("decode %s event: %w", name, err)
		}
		return fn(msg), nil
	})
}

// readStream parses server-sent events from r. Comment lines and ids are
// skipped; multi-line data is joined with newlines.
func readStream(r io.Reader, fn func(name, data string) (bool, error)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var name string
	var data []string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if name == "" && len(data) == 0 {
				continue
			}
			if name == "" {
				name = "message"
			}
			more, err := fn(name, strings.Join(data, "\n"))
			if err != nil || !more {
				return err
			}
			name, data = "", nil
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return errStreamClosed
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(resp.Body)
}

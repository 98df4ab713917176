// Package research is the HTTP client for the research backend: recent
// history and the streaming run endpoint.
package research

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"reconagent/internal/observability"
	"reconagent/internal/stream"
)

const historyTimeout = 10 * time.Second

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	StatusText string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.StatusText)
}

// EventHandler receives every well-formed event in arrival order. Returning
// an error stops the stream.
type EventHandler func(ev stream.Event) error

// Client talks to the research backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	newID      func() string
}

// NewClient creates a client rooted at baseURL. A nil httpClient gets one
// without an overall timeout, so streams run until they end or are cancelled.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		httpClient: httpClient,
		newID:      uuid.NewString,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// History fetches the most recent runs, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	ctx, cancel := context.WithTimeout(ctx, historyTimeout)
	defer cancel()

	endpoint := c.baseURL + "/research/history?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp)
	}
	var parsed historyResp
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	if parsed.History == nil {
		return nil, errors.New("history response has no history field")
	}
	return parsed.History, nil
}

// Stream starts a research run for topic and feeds each event to handler
// until the backend closes the stream, ctx is cancelled, or handler fails.
// Records without the data prefix and records whose JSON does not parse are
// skipped. A clean end of stream returns nil.
func (c *Client) Stream(ctx context.Context, topic string, handler EventHandler) error {
	body, err := json.Marshal(map[string]string{"topic": topic})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	requestID := c.newID()
	ctx = observability.WithRunID(ctx, requestID)
	log := observability.LoggerFromContext(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/research/stream", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("X-Request-ID", requestID)

	log.Info("research stream starting", "topic", topic)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to start research: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}

	dec := stream.NewDecoder(resp.Body)
	for {
		record, err := dec.Next()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				log.Info("research stream closed")
				return nil
			}
			return fmt.Errorf("failed to read stream: %w", err)
		}
		ev, err := stream.ParseRecord(record)
		if err != nil {
			log.Debug("skipping stream record", "error", err, "bytes", len(record))
			continue
		}
		if err := handler(ev); err != nil {
			return err
		}
	}
}

func statusError(resp *http.Response) *StatusError {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return &StatusError{StatusCode: resp.StatusCode, StatusText: text}
}

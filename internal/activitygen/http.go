package activitygen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/foundercircle/growthengine/pkg/logger"
)

// HTTPClient wraps http.Client with a per-request timeout.
type HTTPClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// send performs a request with a JSON body.
func (c *HTTPClient) send(ctx context.Context, method, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	return c.send(ctx, http.MethodPost, url, body)
}

// Put performs a PUT request with a JSON body.
func (c *HTTPClient) Put(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	return c.send(ctx, http.MethodPut, url, body)
}

// getJSON fetches url and decodes the response into v.
func (c *HTTPClient) getJSON(ctx context.Context, url string, v interface{}) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// seedMembers pushes each member's business view before any events flow.
func seedMembers(ctx context.Context, config *Config, client *HTTPClient, members []member, stats *Stats) error {
	for _, m := range members {
		url := config.BaseURL + "/members/" + m.id + "/state"
		resp, err := client.Put(ctx, url, m.state)
		if err != nil {
			return fmt.Errorf("seed member %s: %w", m.id, err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("seed member %s: unexpected status %d", m.id, resp.StatusCode)
		}
		stats.MembersSeeded++
	}
	logger.Get().Info(ctx, "seeded member state", logger.Int("members", stats.MembersSeeded))
	return nil
}

// submitEvents submits events concurrently using a worker pool.
func submitEvents(ctx context.Context, config *Config, client *HTTPClient, events []Event, stats *Stats) error {
	logger.Get().Info(ctx, "submitting events",
		logger.Int("events", len(events)),
		logger.Int("workers", config.Workers),
	)

	url := config.BaseURL + "/track"

	var (
		successful int64
		duplicate  int64
		failed     int64
	)

	eventChan := make(chan Event, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for event := range eventChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				resp, err := client.Post(ctx, url, event)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					continue
				}
				var ack AckResponse
				decodeErr := json.NewDecoder(resp.Body).Decode(&ack)
				resp.Body.Close()

				switch {
				case decodeErr != nil || resp.StatusCode >= http.StatusBadRequest:
					atomic.AddInt64(&failed, 1)
				case ack.Duplicate:
					atomic.AddInt64(&duplicate, 1)
				default:
					atomic.AddInt64(&successful, 1)
				}
			}
		}()
	}

	for _, e := range events {
		select {
		case <-ctx.Done():
			close(eventChan)
			return ctx.Err()
		case eventChan <- e:
		}
	}
	close(eventChan)
	wg.Wait()

	stats.EventsSubmitted = len(events)
	stats.EventsSuccessful = int(successful)
	stats.EventsDuplicate = int(duplicate)
	stats.EventsFailed = int(failed)

	logger.Get().Info(ctx, "submission complete",
		logger.Int("successful", stats.EventsSuccessful),
		logger.Int("duplicate", stats.EventsDuplicate),
		logger.Int("failed", stats.EventsFailed),
	)
	if failed > 0 {
		return fmt.Errorf("%d event submissions failed", failed)
	}
	return nil
}

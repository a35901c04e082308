// Package source fetches daily outage intervals from the distribution
// company's JSON endpoint.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"outage_notification_bot/internal/domain/schedule"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ErrSourceFailure covers every way the upstream can fail to produce a usable day.
var ErrSourceFailure = errors.New("schedule source failure")

const maxBodyBytes = 1 << 20

// Client is a rate-limited HTTP client for the schedule endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	log        *logrus.Entry
}

// NewClient creates a Client that issues at most requestsPerMinute requests
// on average, with up to burst of them back to back.
func NewClient(baseURL string, timeout time.Duration, requestsPerMinute, burst int, log *logrus.Entry) *Client {
	if burst < 1 {
		burst = 1
	}
	rps := float64(requestsPerMinute) / 60.0
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		log:        log,
	}
}

type intervalPayload struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Status string `json:"status"`
}

type dayPayload struct {
	Group     string            `json:"group"`
	Date      string            `json:"date"`
	Intervals []intervalPayload `json:"intervals"`
	Error     string            `json:"error"`
}

func failure(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSourceFailure, fmt.Sprintf(format, args...))
}

// FetchDailyIntervals implements schedule.Source.
func (c *Client) FetchDailyIntervals(ctx context.Context, group schedule.GroupID) (schedule.Day, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit wait: %w", ErrSourceFailure, err)
	}

	params := url.Values{}
	params.Set("queue", strconv.Itoa(group.Queue))
	params.Set("subqueue", strconv.Itoa(group.SubQueue))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", ErrSourceFailure, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: http request: %w", ErrSourceFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %w", ErrSourceFailure, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, failure("upstream returned %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var payload dayPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrSourceFailure, err)
	}
	if payload.Error != "" {
		return nil, failure("upstream error: %s", payload.Error)
	}
	if payload.Group != "" && payload.Group != group.String() {
		return nil, failure("requested group %s, got %s", group, payload.Group)
	}

	day, err := toDay(payload.Intervals)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceFailure, err)
	}

	c.log.WithFields(logrus.Fields{"group": group.String(), "intervals": len(day), "date": payload.Date}).Debug("Fetched daily intervals")
	return day, nil
}

func toDay(items []intervalPayload) (schedule.Day, error) {
	day := make(schedule.Day, 0, len(items))
	for i, item := range items {
		start, err := schedule.ParseClock(item.Start)
		if err != nil {
			return nil, &schedule.IntervalError{Index: i, Reason: err.Error()}
		}
		end, err := schedule.ParseClock(item.End)
		if err != nil {
			return nil, &schedule.IntervalError{Index: i, Reason: err.Error()}
		}
		status, err := schedule.ParseStatus(item.Status)
		if err != nil {
			return nil, fmt.Errorf("interval %d: %w", i, err)
		}
		day = append(day, schedule.Interval{Start: start, End: end, Status: status})
	}
	if err := day.Validate(); err != nil {
		return nil, err
	}
	return day, nil
}

// truncate returns a truncated string for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/Auriora/activitywatch-mcp-sub002/internal/models"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/query"

	"go.uber.org/zap"
)

// APIClient talks to an ActivityWatch-compatible event store
type APIClient struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	logger     *zap.Logger
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string, timeout time.Duration, logger *zap.Logger) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type bucketDto struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Client   string    `json:"client"`
	Hostname string    `json:"hostname"`
	Created  time.Time `json:"created"`
}

type eventDto struct {
	ID        int64          `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Duration  float64        `json:"duration"`
	Data      map[string]any `json:"data"`
}

type queryRequest struct {
	TimePeriods []string `json:"timeperiods"`
	Query       []string `json:"query"`
}

type classDto struct {
	ID   any      `json:"id"`
	Name []string `json:"name"`
	Rule struct {
		Type       string `json:"type"`
		Regex      string `json:"regex"`
		IgnoreCase bool   `json:"ignore_case"`
	} `json:"rule"`
	Data struct {
		Color string `json:"color"`
		Score *int   `json:"score"`
	} `json:"data"`
}

// Streams lists every stream the event store knows about, sorted by id
func (c *APIClient) Streams(ctx context.Context) ([]models.StreamInfo, error) {
	var buckets map[string]bucketDto
	if err := c.do(ctx, http.MethodGet, "/api/0/buckets/", nil, &buckets, "buckets"); err != nil {
		return nil, err
	}

	streams := make([]models.StreamInfo, 0, len(buckets))
	for id, b := range buckets {
		if b.ID == "" {
			b.ID = id
		}
		streams = append(streams, models.StreamInfo{
			ID:       b.ID,
			Type:     b.Type,
			Client:   b.Client,
			Hostname: b.Hostname,
			Created:  b.Created,
		})
	}
	sort.Slice(streams, func(i, j int) bool { return streams[i].ID < streams[j].ID })

	c.logger.Debug("Listed streams", zap.Int("count", len(streams)))
	return streams, nil
}

// Query runs a built program for its time range and returns the intervals
// of the first (only) period.
func (c *APIClient) Query(ctx context.Context, req *query.Request) ([]models.RawActivityRecord, error) {
	stream := strings.Join(req.Streams, ",")
	body := queryRequest{
		TimePeriods: []string{req.Range.Start.Format(time.RFC3339Nano) + "/" + req.Range.End.Format(time.RFC3339Nano)},
		Query:       req.Program,
	}

	var periods [][]eventDto
	startTime := time.Now()
	if err := c.do(ctx, http.MethodPost, "/api/0/query/", body, &periods, stream); err != nil {
		return nil, err
	}

	var records []models.RawActivityRecord
	if len(periods) > 0 {
		records = make([]models.RawActivityRecord, 0, len(periods[0]))
		for _, e := range periods[0] {
			if e.Duration < 0 {
				continue
			}
			records = append(records, models.RawActivityRecord{
				TimeInterval: models.TimeInterval{Start: e.Timestamp, Duration: e.Duration},
				ID:           e.ID,
				Data:         e.Data,
			})
		}
	}
	records = query.FilterMinDuration(records, req.MinDuration)

	c.logger.Debug("Query completed",
		zap.String("streams", stream),
		zap.Int("record_count", len(records)),
		zap.Duration("duration", time.Since(startTime)),
	)
	return records, nil
}

// CategoryRules reads the category classes from the event store settings
func (c *APIClient) CategoryRules(ctx context.Context) ([]models.CategoryRule, error) {
	var classes []classDto
	if err := c.do(ctx, http.MethodGet, "/api/0/settings/classes", nil, &classes, "settings"); err != nil {
		return nil, err
	}

	rules := make([]models.CategoryRule, 0, len(classes))
	for _, cl := range classes {
		if cl.Rule.Type != "regex" || cl.Rule.Regex == "" || len(cl.Name) == 0 {
			continue
		}
		rules = append(rules, models.CategoryRule{
			ID:    fmt.Sprint(cl.ID),
			Name:  cl.Name,
			Regex: cl.Rule.Regex,
			Color: cl.Data.Color,
			Score: cl.Data.Score,
		})
	}
	return rules, nil
}

// HealthCheck checks if the event store is reachable
func (c *APIClient) HealthCheck(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/0/info", nil, nil, "info")
}

// do performs a JSON request and maps failures onto the upstream error types
func (c *APIClient) do(ctx context.Context, method, path string, in, out any, stream string) error {
	var reader io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Event store request failed",
			zap.String("path", path),
			zap.String("stream", stream),
			zap.Error(err),
		)
		if isTimeout(err) {
			return &models.UpstreamTimeoutError{Stream: stream, Err: err}
		}
		return &models.UpstreamUnavailableError{Stream: stream, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return &models.UpstreamTimeoutError{Stream: stream, Err: err}
		}
		return &models.UpstreamUnavailableError{Stream: stream, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("Event store error",
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode),
			zap.String("response", string(body)),
		)
		return &models.UpstreamUnavailableError{
			Stream:     stream,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("event store returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &models.UpstreamUnavailableError{Stream: stream, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

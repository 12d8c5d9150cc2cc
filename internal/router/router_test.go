package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Auriora/activitywatch-mcp-sub002/internal/aggregate"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/handler"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/models"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/service"
)

type stubReporter struct{}

func (stubReporter) Report(_ context.Context, req service.ReportRequest) (*models.Report, error) {
	return &models.Report{RequestID: "r1", TimeRange: req.Range}, nil
}

func newRouter(health HealthFunc) http.Handler {
	h := handler.NewReportHandler(stubReporter{}, handler.ReportDefaults{
		GroupBy:  []aggregate.Key{aggregate.KeyApp},
		TopN:     5,
		Location: time.UTC,
	}, zap.NewNop())
	return New(h, nil, health, zap.NewNop())
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	down := func(context.Context) error { return errors.New("connection refused") }
	newRouter(down).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body["status"])
}

func TestMetricsRoute(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "go_goroutines"))
}

func TestSummaryRoute(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/summary?start=2024-05-01T09:00:00Z&end=2024-05-01T10:00:00Z", nil)
	newRouter(nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var report models.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "r1", report.RequestID)
}

func TestCategoryRoutesAbsentWithoutStore(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

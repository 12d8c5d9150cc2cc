package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Auriora/activitywatch-mcp-sub002/internal/aggregate"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/breakdown"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/models"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/period"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/service"

	"go.uber.org/zap"
)

// Reporter runs the report pipeline
type Reporter interface {
	Report(ctx context.Context, req service.ReportRequest) (*models.Report, error)
}

// ReportDefaults fill in query parameters the caller leaves out
type ReportDefaults struct {
	GroupBy           []aggregate.Key
	TopN              int
	MinDuration       float64
	ExcludeSystemApps bool
	Bucket            breakdown.Size
	Location          *time.Location
}

type ReportHandler struct {
	reporter Reporter
	defaults ReportDefaults
	now      func() time.Time
	logger   *zap.Logger
}

func NewReportHandler(reporter Reporter, defaults ReportDefaults, logger *zap.Logger) *ReportHandler {
	if defaults.Location == nil {
		defaults.Location = time.Local
	}
	return &ReportHandler{
		reporter: reporter,
		defaults: defaults,
		now:      time.Now,
		logger:   logger,
	}
}

// Summary serves GET /api/v1/summary
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, err := h.parseRequest(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	report, err := h.reporter.Report(r.Context(), *req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (h *ReportHandler) parseRequest(r *http.Request) (*service.ReportRequest, error) {
	q := r.URL.Query()

	loc := h.defaults.Location
	if tz := q.Get("tz"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return nil, &models.ValidationError{Field: "tz", Message: err.Error()}
		}
		loc = l
	}

	tr, err := period.Parse(q.Get("period"), q.Get("start"), q.Get("end"), loc, h.now())
	if err != nil {
		return nil, err
	}

	req := &service.ReportRequest{
		Range:             tr,
		GroupBy:           h.defaults.GroupBy,
		TopN:              h.defaults.TopN,
		MinDuration:       h.defaults.MinDuration,
		ExcludeSystemApps: h.defaults.ExcludeSystemApps,
		Bucket:            h.defaults.Bucket,
		Location:          loc,
	}

	if v := q.Get("group_by"); v != "" {
		if req.GroupBy, err = aggregate.ParseKeys(splitList(v)); err != nil {
			return nil, err
		}
	}
	if v := q.Get("top_n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, &models.ValidationError{Field: "top_n", Message: "must be an integer"}
		}
		req.TopN = n
	}
	if v := q.Get("min_duration"); v != "" {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, &models.ValidationError{Field: "min_duration", Message: "must be a number of seconds"}
		}
		req.MinDuration = d
	}
	if v := q.Get("bucket"); v != "" {
		if v == "none" {
			req.Bucket = ""
		} else if req.Bucket, err = breakdown.ParseSize(v); err != nil {
			return nil, err
		}
	}
	if v := q.Get("calendar"); v != "" {
		if req.Calendar, err = strconv.ParseBool(v); err != nil {
			return nil, &models.ValidationError{Field: "calendar", Message: "must be a boolean"}
		}
	}
	if v := q.Get("exclude_system_apps"); v != "" {
		if req.ExcludeSystemApps, err = strconv.ParseBool(v); err != nil {
			return nil, &models.ValidationError{Field: "exclude_system_apps", Message: "must be a boolean"}
		}
	}

	req.Filters.AppAllow = splitList(q.Get("app"))
	req.Filters.AppDeny = splitList(q.Get("exclude_app"))
	req.Filters.DomainAllow = splitList(q.Get("domain"))
	req.Filters.TitleRegex = q["title"]

	return req, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/Auriora/activitywatch-mcp-sub002/internal/afk"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/aggregate"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/breakdown"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/cache"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/calendar"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/categorize"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/config"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/correlate"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/models"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/observability"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/query"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// EventStore is the event store collaborator of the pipeline
type EventStore interface {
	Streams(ctx context.Context) ([]models.StreamInfo, error)
	Query(ctx context.Context, req *query.Request) ([]models.RawActivityRecord, error)
}

// Settings are the per-deployment knobs of the report pipeline
type Settings struct {
	Hostname         string
	Streams          config.StreamsConfig
	BrowserApps      []string
	EditorApps       []string
	SystemApps       []string
	ExcludeCancelled bool
	ExcludeAllDay    bool
}

// ReportRequest describes one report
type ReportRequest struct {
	Range             models.TimeRange
	GroupBy           []aggregate.Key
	TopN              int
	MinDuration       float64
	ExcludeSystemApps bool
	// Filters narrow the window stream before correlation. DomainAllow
	// narrows the browser stream and keeps only window records enriched
	// with an allowed domain.
	Filters query.Filters
	// Bucket enables the period breakdown when set.
	Bucket   breakdown.Size
	Location *time.Location
	Calendar bool
}

// ReportService runs the report pipeline:
// fetch, AFK gate, correlate, categorize, calendar overlay, aggregate, bucket.
type ReportService struct {
	store      EventStore
	rules      categorize.RuleSource
	calendar   calendar.Source
	settings   Settings
	streams    *cache.Cache[[]models.StreamInfo]
	correlator *correlate.Correlator
	logger     *zap.Logger
}

// NewReportService creates a new report service. When calendarSource is nil
// meetings are read from the event store's calendar stream.
func NewReportService(
	store EventStore,
	rules categorize.RuleSource,
	calendarSource calendar.Source,
	settings Settings,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		store:      store,
		rules:      rules,
		calendar:   calendarSource,
		settings:   settings,
		streams:    cache.New[[]models.StreamInfo]("streams", settings.Streams.DiscoveryTTL, logger),
		correlator: correlate.NewCorrelator(logger),
		logger:     logger,
	}
}

// resolvedStreams are the concrete stream ids used by one request
type resolvedStreams struct {
	window   string
	afk      string
	browsers []string
	editors  []string
	calendar string
}

// fetched holds the raw records of one request; each field is written by
// exactly one fetch goroutine.
type fetched struct {
	window   []models.RawActivityRecord
	afk      []models.RawActivityRecord
	browser  []models.RawActivityRecord
	editor   []models.RawActivityRecord
	meetings []models.CalendarEvent
}

// Report runs the whole pipeline for req. Either a complete report is
// returned or the request fails with a typed error.
func (s *ReportService) Report(ctx context.Context, req ReportRequest) (report *models.Report, err error) {
	requestID := uuid.NewString()
	log := s.logger.With(zap.String("request_id", requestID))
	started := time.Now()
	defer func() {
		observability.ObservePipeline(outcome(err), time.Since(started))
	}()

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	streams, err := s.resolve(ctx, req.Calendar)
	if err != nil {
		return nil, err
	}
	log.Debug("Resolved streams",
		zap.String("window", streams.window),
		zap.String("afk", streams.afk),
		zap.Strings("browser", streams.browsers),
		zap.Strings("editor", streams.editors),
		zap.String("calendar", streams.calendar),
	)

	data, err := s.fetch(ctx, log, req, streams)
	if err != nil {
		log.Error("Report fetch failed", zap.Error(err))
		return nil, err
	}
	observability.RecordProcessed("fetch", len(data.window))

	window, browser, editor := data.window, data.browser, data.editor
	if len(data.afk) > 0 {
		present := afk.Present(data.afk)
		window = afk.GateSpans(window, present)
		browser = afk.GateSpans(browser, present)
		editor = afk.GateSpans(editor, present)
	} else {
		log.Debug("No away-status data, counting all time")
	}
	observability.RecordProcessed("gate", len(window))

	activities := s.correlator.Correlate(window,
		correlate.Enrichment{Kind: models.StreamBrowser, Records: browser, Apps: s.settings.BrowserApps},
		correlate.Enrichment{Kind: models.StreamEditor, Records: editor, Apps: s.settings.EditorApps},
	)
	observability.RecordProcessed("correlate", len(activities))
	if len(req.Filters.DomainAllow) > 0 {
		activities = keepDomains(activities, req.Filters.DomainAllow)
	}

	rules, err := s.rules.LoadRules(ctx)
	if err != nil {
		log.Warn("Failed to load category rules, leaving activity uncategorized", zap.Error(err))
		rules = nil
	}
	categorizer := categorize.NewCategorizer(rules, log)
	categorizer.CategorizeAll(activities)

	report = &models.Report{
		RequestID: requestID,
		TimeRange: req.Range,
	}

	if req.Calendar {
		events := calendar.Filter(data.meetings, s.settings.ExcludeCancelled, s.settings.ExcludeAllDay)
		overlay := calendar.Overlay(activities, events)
		for i := range overlay.Activities {
			if overlay.Activities[i].CalendarOnly {
				categorizer.Categorize(&overlay.Activities[i])
			}
		}
		activities = overlay.Activities
		report.CalendarSummary = &overlay.Summary
		observability.RecordProcessed("overlay", len(activities))
	}

	opts := aggregate.Options{
		GroupBy:     req.GroupBy,
		MinDuration: req.MinDuration,
		TopN:        req.TopN,
	}
	if req.ExcludeSystemApps {
		opts.Exclude = aggregate.SystemApps(s.settings.SystemApps)
	}
	agg, err := aggregate.Aggregate(activities, opts)
	if err != nil {
		return nil, err
	}
	report.Groups = agg.Groups
	report.TotalDuration = agg.TotalDuration
	observability.RecordProcessed("aggregate", len(agg.Groups))

	if req.Bucket != "" {
		report.Bucketed = breakdown.Breakdown(activities, req.Bucket, req.Location)
		report.Insights = breakdown.Insights(report.Bucketed, req.Bucket)
	}

	log.Info("Report completed",
		zap.Int("activities", len(activities)),
		zap.Int("groups", len(report.Groups)),
		zap.Float64("total_seconds", report.TotalDuration),
		zap.Duration("elapsed", time.Since(started)),
	)
	return report, nil
}

// keepDomains drops activities whose browser payload is missing or has a
// domain outside allow.
func keepDomains(activities []models.EnrichedActivity, allow []string) []models.EnrichedActivity {
	allowed := make(map[string]struct{}, len(allow))
	for _, d := range allow {
		allowed[correlate.Domain(d)] = struct{}{}
	}
	out := activities[:0]
	for _, a := range activities {
		if a.Browser == nil {
			continue
		}
		if _, ok := allowed[a.Browser.Domain]; ok {
			out = append(out, a)
		}
	}
	return out
}

// Streams returns the event store's streams, served from the discovery cache
func (s *ReportService) Streams(ctx context.Context) ([]models.StreamInfo, error) {
	return s.streams.Get(ctx, s.store.Streams)
}

// ResetCaches drops cached stream discovery results
func (s *ReportService) ResetCaches() {
	s.streams.Reset()
}

func validateRequest(req ReportRequest) error {
	if err := req.Range.Validate(); err != nil {
		return err
	}
	if req.TopN < 1 {
		return &models.ValidationError{Field: "top n", Message: "must be at least 1"}
	}
	if len(req.GroupBy) == 0 {
		return &models.ValidationError{Field: "group by", Message: "at least one grouping key is required"}
	}
	if req.MinDuration < 0 {
		return &models.ValidationError{Field: "min duration", Message: "must not be negative"}
	}
	return nil
}

func (s *ReportService) resolve(ctx context.Context, withCalendar bool) (*resolvedStreams, error) {
	all, err := s.Streams(ctx)
	if err != nil {
		return nil, err
	}

	found := make([]string, len(all))
	for i, st := range all {
		found[i] = st.ID
	}

	cfg := s.settings.Streams
	out := &resolvedStreams{}

	windows := s.match(all, []string{cfg.WindowPrefix})
	if len(windows) == 0 {
		return nil, &models.MissingStreamError{Kind: models.StreamWindow, Stream: cfg.WindowPrefix, Found: found}
	}
	out.window = windows[0]

	if cfg.AFKPrefix != "" {
		if afks := s.match(all, []string{cfg.AFKPrefix}); len(afks) > 0 {
			out.afk = afks[0]
		}
	}
	out.browsers = s.match(all, cfg.BrowserPrefixes)
	out.editors = s.match(all, cfg.EditorPrefixes)

	if withCalendar && s.calendar == nil {
		cals := s.match(all, []string{cfg.CalendarPrefix})
		if cfg.CalendarPrefix == "" || len(cals) == 0 {
			return nil, &models.MissingStreamError{Kind: models.StreamCalendar, Stream: cfg.CalendarPrefix, Found: found}
		}
		out.calendar = cals[0]
	}
	return out, nil
}

// match returns the ids of streams starting with any prefix whose host is
// the configured one. Streams reporting host "unknown" match any host.
func (s *ReportService) match(streams []models.StreamInfo, prefixes []string) []string {
	var ids []string
	for _, st := range streams {
		if s.settings.Hostname != "" && st.Hostname != s.settings.Hostname && st.Hostname != "unknown" {
			continue
		}
		for _, p := range prefixes {
			if p != "" && strings.HasPrefix(st.ID, p) {
				ids = append(ids, st.ID)
				break
			}
		}
	}
	sort.Strings(ids)
	return ids
}

func (s *ReportService) fetch(ctx context.Context, log *zap.Logger, req ReportRequest, streams *resolvedStreams) (*fetched, error) {
	out := &fetched{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		records, err := s.query(gctx, query.Params{
			Range:   req.Range,
			Kind:    models.StreamWindow,
			Streams: []string{streams.window},
			Filters: query.Filters{
				AppAllow:    req.Filters.AppAllow,
				AppDeny:     req.Filters.AppDeny,
				TitleRegex:  req.Filters.TitleRegex,
				MinDuration: req.MinDuration,
			},
		})
		if err != nil {
			observability.RecordFetchError(string(models.StreamWindow))
			return models.WithStream(err, streams.window)
		}
		out.window = records
		return nil
	})

	optional := func(kind models.StreamKind, ids []string, filters query.Filters, dst *[]models.RawActivityRecord) {
		if len(ids) == 0 {
			return
		}
		g.Go(func() error {
			records, err := s.query(gctx, query.Params{Range: req.Range, Kind: kind, Streams: ids, Filters: filters})
			if err != nil {
				// a cancelled group means a fatal fetch already failed
				if gctx.Err() != nil && ctx.Err() == nil {
					return nil
				}
				observability.RecordFetchError(string(kind))
				observability.RecordEnrichmentDegraded(string(kind))
				log.Warn("Enrichment stream unavailable, continuing without it",
					zap.String("kind", string(kind)),
					zap.Strings("streams", ids),
					zap.Error(err),
				)
				return nil
			}
			*dst = records
			return nil
		})
	}
	if streams.afk != "" {
		optional(models.StreamAFK, []string{streams.afk}, query.Filters{}, &out.afk)
	}
	optional(models.StreamBrowser, streams.browsers, query.Filters{DomainAllow: req.Filters.DomainAllow}, &out.browser)
	optional(models.StreamEditor, streams.editors, query.Filters{}, &out.editor)

	if req.Calendar {
		source := s.calendar
		if source == nil {
			source = calendar.NewEventStoreSource(s.store, streams.calendar)
		}
		g.Go(func() error {
			events, err := source.Events(gctx, req.Range)
			if err != nil {
				observability.RecordFetchError(string(models.StreamCalendar))
				return err
			}
			out.meetings = events
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ReportService) query(ctx context.Context, p query.Params) ([]models.RawActivityRecord, error) {
	req, err := query.Build(p)
	if err != nil {
		return nil, err
	}
	return s.store.Query(ctx, req)
}

// outcome labels a pipeline result for metrics
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var (
		invalidRange *models.InvalidRangeError
		validation   *models.ValidationError
		missing      *models.MissingStreamError
		timeout      *models.UpstreamTimeoutError
		unavailable  *models.UpstreamUnavailableError
	)
	switch {
	case errors.As(err, &invalidRange):
		return "invalid_range"
	case errors.As(err, &validation):
		return "validation"
	case errors.As(err, &missing):
		return "missing_stream"
	case errors.As(err, &timeout):
		return "upstream_timeout"
	case errors.As(err, &unavailable):
		return "upstream_unavailable"
	}
	return "error"
}

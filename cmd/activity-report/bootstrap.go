package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Auriora/activitywatch-mcp-sub002/internal/calendar"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/categorize"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/client"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/config"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/database"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/logger"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/repository"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/service"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// deps holds the components shared by all commands
type deps struct {
	cfg      *config.Config
	log      *logger.Logger
	client   *client.APIClient
	db       *database.DB
	ruleRepo *repository.CategoryRuleRepository
	rules    *categorize.CachedSource
	reports  *service.ReportService
}

func bootstrap(c *cli.Context) (*deps, error) {
	configPath := c.String("config")
	if _, err := os.Stat(configPath); err != nil {
		// fall back to environment-only configuration
		configPath = ""
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	log.Debug("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("config_path", configPath),
		zap.String("event_store", cfg.EventStore.BaseURL),
	)

	rt := &deps{
		cfg:    cfg,
		log:    log,
		client: client.NewAPIClient(cfg.EventStore.BaseURL, cfg.EventStore.Timeout, log.Logger),
	}

	if cfg.Categories.Source == config.RulesFromSQLite {
		if err := rt.openStore(); err != nil {
			rt.Close()
			return nil, err
		}
	}

	rt.rules = categorize.NewCachedSource(rt.ruleSource(), cfg.Categories.CacheTTL, log.Logger)

	return rt, nil
}

// reportService builds the report pipeline on first use. The Google calendar
// source needs a stored token, so only commands that report create it.
func (rt *deps) reportService(ctx context.Context) (*service.ReportService, error) {
	if rt.reports != nil {
		return rt.reports, nil
	}
	cfg := rt.cfg

	var calSource calendar.Source
	if cfg.Calendar.Provider == config.CalendarFromGoogle {
		src, err := calendar.NewGoogleSource(ctx,
			cfg.Calendar.CredentialsFile,
			cfg.Calendar.TokenFile,
			cfg.Calendar.CalendarIDs,
			rt.log.Logger,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize google calendar: %w", err)
		}
		calSource = src
	}

	rt.reports = service.NewReportService(rt.client, rt.rules, calSource, service.Settings{
		Hostname:         cfg.EventStore.Hostname,
		Streams:          cfg.Streams,
		BrowserApps:      cfg.Report.BrowserApps,
		EditorApps:       cfg.Report.EditorApps,
		SystemApps:       cfg.Report.SystemApps,
		ExcludeCancelled: cfg.Calendar.ExcludeCancelled,
		ExcludeAllDay:    cfg.Calendar.ExcludeAllDay,
	}, rt.log.Logger)
	return rt.reports, nil
}

// openStore opens the SQLite rule store
func (rt *deps) openStore() error {
	if rt.db != nil {
		return nil
	}
	db, err := database.New(rt.cfg.StoragePath, rt.log.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	rt.db = db
	rt.ruleRepo = repository.NewCategoryRuleRepository(db.DB)
	return nil
}

// ruleSource builds the fallback chain starting with the configured source
func (rt *deps) ruleSource() categorize.RuleSource {
	eventStore := categorize.NamedSource{
		Name:   config.RulesFromEventStore,
		Source: categorize.RuleSourceFunc(rt.client.CategoryRules),
	}

	var chain []categorize.NamedSource
	switch rt.cfg.Categories.Source {
	case config.RulesFromSQLite:
		chain = append(chain, categorize.NamedSource{Name: config.RulesFromSQLite, Source: rt.ruleRepo}, eventStore)
	case config.RulesFromFile:
		chain = append(chain, categorize.NamedSource{
			Name:   config.RulesFromFile,
			Source: categorize.FileSource{Path: rt.cfg.Categories.File},
		}, eventStore)
	default:
		chain = append(chain, eventStore)
		if rt.cfg.Categories.File != "" {
			chain = append(chain, categorize.NamedSource{
				Name:   config.RulesFromFile,
				Source: categorize.FileSource{Path: rt.cfg.Categories.File},
			})
		}
	}
	return categorize.NewFallbackSource(rt.log.Logger, chain...)
}

func (rt *deps) health(ctx context.Context) error {
	return rt.client.HealthCheck(ctx)
}

func (rt *deps) Close() {
	if rt.db != nil {
		if err := rt.db.Close(); err != nil {
			rt.log.Error("Failed to close database", zap.Error(err))
		}
	}
	_ = rt.log.Sync()
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Auriora/activitywatch-mcp-sub002/internal/aggregate"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/breakdown"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/handler"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/router"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve reports, category rules and metrics over HTTP",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Usage: "listen port, overrides server.port"},
		},
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
	rt, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer rt.Close()
	log := rt.log

	if err := rt.openStore(); err != nil {
		return err
	}
	reports, err := rt.reportService(c.Context)
	if err != nil {
		return err
	}

	cfg := rt.cfg.Report
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	keys, err := aggregate.ParseKeys(cfg.GroupBy)
	if err != nil {
		return err
	}
	var bucket breakdown.Size
	if cfg.Bucket != "" {
		if bucket, err = breakdown.ParseSize(cfg.Bucket); err != nil {
			return err
		}
	}

	reportHandler := handler.NewReportHandler(reports, handler.ReportDefaults{
		GroupBy:           keys,
		TopN:              cfg.TopN,
		MinDuration:       cfg.MinDuration,
		ExcludeSystemApps: cfg.ExcludeSystemApps,
		Bucket:            bucket,
		Location:          loc,
	}, log.Logger)
	ruleHandler := handler.NewCategoryRuleHandler(rt.ruleRepo, rt.rules.Reset, log.Logger)

	port := rt.cfg.Server.Port
	if c.IsSet("port") {
		port = c.Int("port")
	}
	addr := fmt.Sprintf("localhost:%d", port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router.New(reportHandler, ruleHandler, rt.health, log.Logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: rt.cfg.EventStore.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting report server", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("report server error: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("Report server shutdown error", zap.Error(err))
		return nil
	}
	log.Info("Report server stopped")
	return nil
}

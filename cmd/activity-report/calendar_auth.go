package main

import (
	"fmt"

	"github.com/Auriora/activitywatch-mcp-sub002/internal/auth"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/config"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/logger"

	"github.com/urfave/cli/v2"
)

func calendarAuthCommand() *cli.Command {
	return &cli.Command{
		Name:  "calendar-auth",
		Usage: "Grant read-only Google Calendar access and store the token",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "callback-port", Value: 6789, Usage: "local port receiving the OAuth redirect"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return err
			}
			if cfg.Calendar.CredentialsFile == "" || cfg.Calendar.TokenFile == "" {
				return fmt.Errorf("calendar.credentials_file and calendar.token_file must be configured")
			}

			log, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer log.Sync()

			authorizer := auth.NewCalendarAuthorizer(
				cfg.Calendar.CredentialsFile,
				cfg.Calendar.TokenFile,
				c.Int("callback-port"),
				log.Logger,
			)
			if err := authorizer.Authorize(c.Context); err != nil {
				return err
			}
			fmt.Printf("Token saved to %s\n", cfg.Calendar.TokenFile)
			return nil
		},
	}
}

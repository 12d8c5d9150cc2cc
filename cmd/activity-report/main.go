package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:      "activity-report",
		Usage:     "Correlate, categorize and summarize ActivityWatch activity",
		UsageText: "activity-report [--config FILE] COMMAND [OPTIONS]",
		Version:   version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML configuration file",
				Value:   "config/local.yaml",
				EnvVars: []string{"ACTIVITY_REPORT_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			reportCommand(),
			serveCommand(),
			streamsCommand(),
			rulesCommand(),
			calendarAuthCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

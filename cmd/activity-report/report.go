package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Auriora/activitywatch-mcp-sub002/internal/aggregate"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/breakdown"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/models"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/period"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/service"

	"github.com/hako/durafmt"
	"github.com/urfave/cli/v2"
)

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Print an activity summary for a time range",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "period", Aliases: []string{"p"}, Usage: "today, yesterday, this_week, last_7_days or last_30_days"},
			&cli.StringFlag{Name: "start", Aliases: []string{"s"}, Usage: "range start, e.g. '2024-05-01 09:00' or -2h"},
			&cli.StringFlag{Name: "end", Aliases: []string{"e"}, Usage: "range end, defaults to now"},
			&cli.StringFlag{Name: "tz", Usage: "timezone for dates without an offset and for buckets"},
			&cli.StringSliceFlag{Name: "group-by", Aliases: []string{"g"}, Usage: "grouping keys: app, category, title, domain, project, language, file"},
			&cli.IntFlag{Name: "top-n", Aliases: []string{"n"}, Usage: "number of groups to print"},
			&cli.Float64Flag{Name: "min-duration", Usage: "drop records shorter than this many seconds"},
			&cli.StringFlag{Name: "bucket", Aliases: []string{"b"}, Usage: "period breakdown: hour, day or week"},
			&cli.BoolFlag{Name: "calendar", Usage: "overlay calendar meetings"},
			&cli.BoolFlag{Name: "exclude-system-apps", Usage: "drop lock screens and similar system apps"},
			&cli.StringSliceFlag{Name: "app", Usage: "only include these apps"},
			&cli.StringSliceFlag{Name: "exclude-app", Usage: "exclude these apps"},
			&cli.StringSliceFlag{Name: "domain", Usage: "only include these browser domains"},
			&cli.StringSliceFlag{Name: "title", Usage: "only include titles matching these regexes"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "text", Usage: "text or json"},
		},
		Action: reportAction,
	}
}

func reportAction(c *cli.Context) error {
	rt, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	reports, err := rt.reportService(c.Context)
	if err != nil {
		return err
	}

	req, err := buildReportRequest(c, rt)
	if err != nil {
		return err
	}

	report, err := reports.Report(c.Context, *req)
	if err != nil {
		return err
	}

	switch c.String("format") {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "text":
		printReport(os.Stdout, report)
		return nil
	}
	return fmt.Errorf("unknown format %q", c.String("format"))
}

func buildReportRequest(c *cli.Context, rt *deps) (*service.ReportRequest, error) {
	cfg := rt.cfg.Report

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	if tz := c.String("tz"); tz != "" {
		if loc, err = time.LoadLocation(tz); err != nil {
			return nil, &models.ValidationError{Field: "tz", Message: err.Error()}
		}
	}

	tr, err := period.Parse(c.String("period"), c.String("start"), c.String("end"), loc, time.Now())
	if err != nil {
		return nil, err
	}

	groupBy := cfg.GroupBy
	if c.IsSet("group-by") {
		groupBy = c.StringSlice("group-by")
	}
	keys, err := aggregate.ParseKeys(groupBy)
	if err != nil {
		return nil, err
	}

	req := &service.ReportRequest{
		Range:             tr,
		GroupBy:           keys,
		TopN:              cfg.TopN,
		MinDuration:       cfg.MinDuration,
		ExcludeSystemApps: cfg.ExcludeSystemApps,
		Location:          loc,
		Calendar:          c.Bool("calendar"),
	}
	if c.IsSet("top-n") {
		req.TopN = c.Int("top-n")
	}
	if c.IsSet("min-duration") {
		req.MinDuration = c.Float64("min-duration")
	}
	if c.IsSet("exclude-system-apps") {
		req.ExcludeSystemApps = c.Bool("exclude-system-apps")
	}

	bucket := cfg.Bucket
	if c.IsSet("bucket") {
		bucket = c.String("bucket")
	}
	if bucket != "" {
		if req.Bucket, err = breakdown.ParseSize(bucket); err != nil {
			return nil, err
		}
	}

	req.Filters.AppAllow = c.StringSlice("app")
	req.Filters.AppDeny = c.StringSlice("exclude-app")
	req.Filters.DomainAllow = c.StringSlice("domain")
	req.Filters.TitleRegex = c.StringSlice("title")

	return req, nil
}

func humanize(seconds float64) string {
	return durafmt.Parse(models.SecondsToDuration(seconds).Round(time.Second)).LimitFirstN(2).String()
}

func printReport(w io.Writer, r *models.Report) {
	fmt.Fprintf(w, "%s to %s\n", r.TimeRange.Start.Format(time.RFC3339), r.TimeRange.End.Format(time.RFC3339))
	fmt.Fprintf(w, "Total: %s\n\n", humanize(r.TotalDuration))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GROUP\tDURATION\tSHARE\tEVENTS")
	for _, g := range r.Groups {
		fmt.Fprintf(tw, "%s\t%s\t%.2f%%\t%d\n", g.Key, humanize(g.TotalDuration), g.Percentage, g.EventCount)
	}
	tw.Flush()

	if s := r.CalendarSummary; s != nil {
		fmt.Fprintf(w, "\nMeetings: %d, %s scheduled, %s overlapping focus, %s meeting-only\n",
			s.MeetingCount, humanize(s.MeetingSeconds), humanize(s.OverlapSeconds), humanize(s.MeetingOnlySeconds))
	}

	if len(r.Bucketed) > 0 {
		fmt.Fprintln(w)
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "BUCKET\tACTIVE\tTOP APP")
		for _, b := range r.Bucketed {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", b.Start.Format("2006-01-02 15:04"), humanize(b.ActiveSeconds), b.TopApp)
		}
		tw.Flush()
	}

	if len(r.Insights) > 0 {
		fmt.Fprintf(w, "\n%s\n", strings.Join(r.Insights, "\n"))
	}
}

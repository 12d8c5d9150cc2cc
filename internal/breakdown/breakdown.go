// Package breakdown bins activity into hourly, daily or weekly buckets.
package breakdown

import (
	"fmt"
	"sort"
	"time"

	"github.com/Auriora/activitywatch-mcp-sub002/internal/interval"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/models"

	"github.com/hako/durafmt"
)

// Size is a bucket width
type Size string

const (
	Hour Size = "hour"
	Day  Size = "day"
	Week Size = "week"
)

func ParseSize(s string) (Size, error) {
	switch Size(s) {
	case Hour, Day, Week:
		return Size(s), nil
	}
	return "", &models.ValidationError{Field: "bucket", Message: fmt.Sprintf("unknown bucket size %q", s)}
}

// Truncate returns the start of the bucket containing t, in loc. Weeks
// start on Monday.
func (s Size) Truncate(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	switch s {
	case Hour:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, loc)
	case Week:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	}
}

// Next returns the start of the bucket after the one starting at start.
// Days and weeks follow the calendar, so DST days are 23 or 25 hours long.
func (s Size) Next(start time.Time) time.Time {
	switch s {
	case Hour:
		return start.Add(time.Hour)
	case Week:
		return start.AddDate(0, 0, 7)
	default:
		return start.AddDate(0, 0, 1)
	}
}

type bucket struct {
	models.Bucket
	apps map[string]float64
}

// Breakdown splits each activity across the buckets it touches in
// proportion to its overlap with them, so the bucket totals always sum to
// the input total. Buckets with no activity are omitted.
func Breakdown(activities []models.EnrichedActivity, size Size, loc *time.Location) []models.Bucket {
	if loc == nil {
		loc = time.UTC
	}

	buckets := make(map[int64]*bucket)
	for _, a := range activities {
		if a.Duration <= 0 {
			continue
		}
		span := interval.FromInterval(a.TimeInterval)
		for start := size.Truncate(span.Start, loc); start.Before(span.End); start = size.Next(start) {
			b := interval.Span{Start: start, End: size.Next(start)}
			seconds := interval.OverlapSeconds(span, b)
			if seconds <= 0 {
				continue
			}
			bk, ok := buckets[start.UnixNano()]
			if !ok {
				bk = &bucket{
					Bucket: models.Bucket{Start: b.Start, End: b.End},
					apps:   make(map[string]float64),
				}
				buckets[start.UnixNano()] = bk
			}
			bk.ActiveSeconds += seconds
			bk.apps[a.App] += seconds
		}
	}

	out := make([]models.Bucket, 0, len(buckets))
	for _, bk := range buckets {
		for app, seconds := range bk.apps {
			if seconds > bk.TopAppSeconds || (seconds == bk.TopAppSeconds && app < bk.TopApp) {
				bk.TopApp = app
				bk.TopAppSeconds = seconds
			}
		}
		out = append(out, bk.Bucket)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

// Insights derives short human readable observations from bucket totals
func Insights(buckets []models.Bucket, size Size) []string {
	if len(buckets) == 0 {
		return nil
	}

	var total float64
	busiest := buckets[0]
	for _, b := range buckets {
		total += b.ActiveSeconds
		if b.ActiveSeconds > busiest.ActiveSeconds {
			busiest = b
		}
	}

	insights := []string{
		fmt.Sprintf("Most active %s: %s (%s)", size, label(busiest.Start, size), humanize(busiest.ActiveSeconds)),
		fmt.Sprintf("Average per active %s: %s across %d %ss", size, humanize(total/float64(len(buckets))), len(buckets), size),
	}
	if busiest.TopApp != "" {
		insights = append(insights, fmt.Sprintf("Top app in the most active %s: %s (%s)", size, busiest.TopApp, humanize(busiest.TopAppSeconds)))
	}
	return insights
}

func label(t time.Time, size Size) string {
	switch size {
	case Hour:
		return t.Format("2006-01-02 15:04")
	case Week:
		return "week of " + t.Format("2006-01-02")
	default:
		return t.Format("Mon 2006-01-02")
	}
}

func humanize(seconds float64) string {
	return durafmt.Parse(models.SecondsToDuration(seconds).Round(time.Second)).LimitFirstN(2).String()
}

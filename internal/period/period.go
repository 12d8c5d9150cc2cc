// Package period turns user supplied range arguments into a time range.
package period

import (
	"fmt"
	"strings"
	"time"

	"github.com/Auriora/activitywatch-mcp-sub002/internal/models"

	"github.com/araddon/dateparse"
)

// Period is a named time range relative to now
type Period string

const (
	Today      Period = "today"
	Yesterday  Period = "yesterday"
	ThisWeek   Period = "this_week"
	Last7Days  Period = "last_7_days"
	Last30Days Period = "last_30_days"
)

var Periods = []Period{Today, Yesterday, ThisWeek, Last7Days, Last30Days}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// running is the range from start up to now. At the instant the period
// begins it is a single nanosecond wide, so it stays valid and empty.
func running(start, now time.Time) models.TimeRange {
	if !now.After(start) {
		now = start.Add(time.Nanosecond)
	}
	return models.TimeRange{Start: start, End: now}
}

// Range returns the range of a named period ending no later than now
func Range(p Period, now time.Time) (models.TimeRange, error) {
	today := startOfDay(now)
	switch p {
	case Today:
		return running(today, now), nil
	case Yesterday:
		return models.TimeRange{Start: today.AddDate(0, 0, -1), End: today}, nil
	case ThisWeek:
		offset := (int(today.Weekday()) + 6) % 7
		return running(today.AddDate(0, 0, -offset), now), nil
	case Last7Days:
		return running(today.AddDate(0, 0, -6), now), nil
	case Last30Days:
		return running(today.AddDate(0, 0, -29), now), nil
	}
	return models.TimeRange{}, &models.ValidationError{Field: "period", Message: fmt.Sprintf("unknown period %q", p)}
}

// Parse builds a range from a named period or explicit start and end.
// A period takes precedence. A missing end defaults to now and a missing
// start to the beginning of end's day, or of the day before when end is
// exactly midnight. Times without a zone are read in loc.
// A leading "-" makes the value a duration relative to now, e.g. "-2h".
func Parse(periodName, start, end string, loc *time.Location, now time.Time) (models.TimeRange, error) {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)

	if p := strings.TrimSpace(periodName); p != "" {
		return Range(Period(p), now)
	}

	tr := models.TimeRange{End: now}
	var err error
	if end != "" {
		if tr.End, err = parseTime(end, loc, now); err != nil {
			return models.TimeRange{}, &models.ValidationError{Field: "end", Message: err.Error()}
		}
	}
	if start != "" {
		if tr.Start, err = parseTime(start, loc, now); err != nil {
			return models.TimeRange{}, &models.ValidationError{Field: "start", Message: err.Error()}
		}
	} else {
		tr.Start = startOfDay(tr.End.In(loc))
		if tr.Start.Equal(tr.End) {
			tr.Start = tr.Start.AddDate(0, 0, -1)
		}
	}

	if err := tr.Validate(); err != nil {
		return models.TimeRange{}, err
	}
	return tr, nil
}

func parseTime(value string, loc *time.Location, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "now" {
		return now, nil
	}
	if strings.HasPrefix(value, "-") {
		if d, err := time.ParseDuration(value); err == nil {
			return now.Add(d), nil
		}
	}
	return dateparse.ParseIn(value, loc)
}

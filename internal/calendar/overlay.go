// Package calendar reconciles focus activity against calendar meetings and
// loads meetings from the configured calendar source.
package calendar

import (
	"sort"

	"github.com/Auriora/activitywatch-mcp-sub002/internal/interval"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/models"
)

// DefaultCalendarLabel is the app label of calendar-only records whose event
// carries no calendar name.
const DefaultCalendarLabel = "Calendar"

// Result is the output of Overlay. Activities holds the annotated focus
// records followed by the synthesized calendar-only records.
type Result struct {
	Activities []models.EnrichedActivity
	Summary    models.CalendarSummary
}

// Overlay annotates every focus activity with the meetings it overlaps and
// synthesizes one calendar-only record per meeting for the meeting time no
// focus activity covers.
//
// Meeting-only time is claimed once: when meetings overlap each other, time
// already claimed by an earlier meeting is not claimed again, so
// FocusSeconds + MeetingOnlySeconds always equals UnionSeconds.
func Overlay(activities []models.EnrichedActivity, events []models.CalendarEvent) Result {
	focus := make([]models.EnrichedActivity, len(activities))
	copy(focus, activities)
	sort.SliceStable(focus, func(i, j int) bool {
		return focus[i].Start.Before(focus[j].Start)
	})

	meetings := make([]models.CalendarEvent, 0, len(events))
	for _, e := range events {
		if e.Interval.Duration > 0 {
			meetings = append(meetings, e)
		}
	}
	sort.SliceStable(meetings, func(i, j int) bool {
		if !meetings[i].Interval.Start.Equal(meetings[j].Interval.Start) {
			return meetings[i].Interval.Start.Before(meetings[j].Interval.Start)
		}
		return meetings[i].ID < meetings[j].ID
	})

	spans := make([]interval.Span, len(focus))
	maxEnd := make([]interval.Span, len(focus))
	for i, a := range focus {
		spans[i] = interval.FromInterval(a.TimeInterval)
		maxEnd[i] = spans[i]
		if i > 0 && maxEnd[i-1].End.After(spans[i].End) {
			maxEnd[i].End = maxEnd[i-1].End
		}
	}
	cover := interval.Merge(spans)

	summary := models.CalendarSummary{
		FocusSeconds: models.SumDurations(focus),
		MeetingCount: len(meetings),
	}

	var claimed []interval.Span
	var synthesized []models.EnrichedActivity
	for _, m := range meetings {
		ms := interval.FromInterval(m.Interval)

		lo := sort.Search(len(focus), func(i int) bool { return maxEnd[i].End.After(ms.Start) })
		hi := sort.Search(len(focus), func(i int) bool { return !spans[i].Start.Before(ms.End) })
		for i := lo; i < hi; i++ {
			if overlap := interval.OverlapSeconds(spans[i], ms); overlap > 0 {
				focus[i].Calendar = append(focus[i].Calendar, models.MeetingOverlap{
					MeetingID:      m.ID,
					Title:          m.Title,
					OverlapSeconds: overlap,
				})
			}
		}

		// union of the intersections, so overlap never exceeds the meeting
		overlap := interval.Measure(interval.Clip(ms, cover))

		var gaps []interval.Span
		for _, g := range interval.Subtract(ms, cover) {
			gaps = append(gaps, interval.Subtract(g, claimed)...)
		}
		meetingOnly := measureDisjoint(gaps)
		claimed = interval.Merge(append(claimed, gaps...))

		summary.MeetingSeconds += m.Interval.Duration
		summary.OverlapSeconds += overlap
		summary.MeetingOnlySeconds += meetingOnly
		summary.Meetings = append(summary.Meetings, models.MeetingSummary{
			ID:                 m.ID,
			Title:              m.Title,
			DurationSeconds:    m.Interval.Duration,
			OverlapSeconds:     overlap,
			MeetingOnlySeconds: meetingOnly,
		})

		if meetingOnly > 0 {
			label := m.Calendar
			if label == "" {
				label = DefaultCalendarLabel
			}
			synthesized = append(synthesized, models.EnrichedActivity{
				TimeInterval: models.TimeInterval{Start: gaps[0].Start, Duration: meetingOnly},
				App:          label,
				Title:        m.Title,
				CalendarOnly: true,
			})
		}
	}
	summary.UnionSeconds = summary.FocusSeconds + summary.MeetingOnlySeconds

	return Result{
		Activities: append(focus, synthesized...),
		Summary:    summary,
	}
}

// Filter drops cancelled and all-day events as requested
func Filter(events []models.CalendarEvent, excludeCancelled, excludeAllDay bool) []models.CalendarEvent {
	out := make([]models.CalendarEvent, 0, len(events))
	for _, e := range events {
		if excludeCancelled && e.Status == models.EventCancelled {
			continue
		}
		if excludeAllDay && e.AllDay {
			continue
		}
		out = append(out, e)
	}
	return out
}

func measureDisjoint(spans []interval.Span) float64 {
	var total float64
	for _, s := range spans {
		total += s.Seconds()
	}
	return total
}

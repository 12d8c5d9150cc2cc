package calendar

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Auriora/activitywatch-mcp-sub002/internal/models"
)

var day = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func focus(start time.Time, seconds float64, app string) models.EnrichedActivity {
	return models.EnrichedActivity{
		TimeInterval: models.TimeInterval{Start: start, Duration: seconds},
		App:          app,
	}
}

func meeting(id string, start time.Time, seconds float64) models.CalendarEvent {
	return models.CalendarEvent{
		ID:       id,
		Title:    "Meeting " + id,
		Calendar: "Work",
		Interval: models.TimeInterval{Start: start, Duration: seconds},
		Status:   models.EventConfirmed,
	}
}

func TestOverlayPartiallyAttendedMeeting(t *testing.T) {
	res := Overlay(
		[]models.EnrichedActivity{focus(at(10, 0), 900, "Editor")},
		[]models.CalendarEvent{meeting("m1", at(10, 0), 1800)},
	)

	require.Len(t, res.Summary.Meetings, 1)
	m := res.Summary.Meetings[0]
	assert.Equal(t, 900.0, m.OverlapSeconds)
	assert.Equal(t, 900.0, m.MeetingOnlySeconds)

	require.Len(t, res.Activities, 2)
	synth := res.Activities[1]
	assert.True(t, synth.CalendarOnly)
	assert.Equal(t, 900.0, synth.Duration)
	assert.Equal(t, "Work", synth.App)
	assert.Equal(t, at(10, 15), synth.Start)

	require.Len(t, res.Activities[0].Calendar, 1)
	assert.Equal(t, "m1", res.Activities[0].Calendar[0].MeetingID)
	assert.Equal(t, 900.0, res.Activities[0].Calendar[0].OverlapSeconds)

	assert.Equal(t, 900.0, res.Summary.FocusSeconds)
	assert.Equal(t, 1800.0, res.Summary.UnionSeconds)
	assert.Equal(t, 1, res.Summary.MeetingCount)
}

func TestOverlayFullyCoveredMeetingSynthesizesNothing(t *testing.T) {
	res := Overlay(
		[]models.EnrichedActivity{
			focus(at(9, 50), 900, "Editor"),
			focus(at(10, 5), 1800, "Browser"),
		},
		[]models.CalendarEvent{meeting("m1", at(10, 0), 1800)},
	)

	assert.Len(t, res.Activities, 2)
	assert.Equal(t, 1800.0, res.Summary.OverlapSeconds)
	assert.Zero(t, res.Summary.MeetingOnlySeconds)
	// both focus records overlap the meeting
	assert.Equal(t, 300.0, res.Activities[0].Calendar[0].OverlapSeconds)
	assert.Equal(t, 1500.0, res.Activities[1].Calendar[0].OverlapSeconds)
}

func TestOverlayActivityOverlappingTwoMeetings(t *testing.T) {
	res := Overlay(
		[]models.EnrichedActivity{focus(at(10, 0), 3600, "Editor")},
		[]models.CalendarEvent{
			meeting("b", at(10, 30), 1800),
			meeting("a", at(10, 0), 1800),
		},
	)

	require.Len(t, res.Activities[0].Calendar, 2)
	assert.Equal(t, "a", res.Activities[0].Calendar[0].MeetingID)
	assert.Equal(t, "b", res.Activities[0].Calendar[1].MeetingID)
	assert.Equal(t, 3600.0, res.Summary.UnionSeconds)
}

func TestOverlayOverlappingMeetingsClaimGapOnce(t *testing.T) {
	res := Overlay(nil, []models.CalendarEvent{
		meeting("a", at(14, 0), 3600),
		meeting("b", at(14, 30), 3600),
	})

	require.Len(t, res.Summary.Meetings, 2)
	assert.Equal(t, 3600.0, res.Summary.Meetings[0].MeetingOnlySeconds)
	assert.Equal(t, 1800.0, res.Summary.Meetings[1].MeetingOnlySeconds)
	assert.Equal(t, 5400.0, res.Summary.MeetingOnlySeconds)
	assert.Equal(t, 7200.0, res.Summary.MeetingSeconds)
	assert.Equal(t, 5400.0, res.Summary.UnionSeconds)

	require.Len(t, res.Activities, 2)
	assert.Equal(t, at(15, 0), res.Activities[1].Start)
}

func TestOverlayIgnoresEmptyMeetings(t *testing.T) {
	res := Overlay([]models.EnrichedActivity{focus(at(8, 0), 60, "Editor")},
		[]models.CalendarEvent{meeting("zero", at(8, 0), 0)})
	assert.Zero(t, res.Summary.MeetingCount)
	assert.Len(t, res.Activities, 1)
	assert.Empty(t, res.Activities[0].Calendar)
}

func TestOverlayDoesNotMutateInput(t *testing.T) {
	in := []models.EnrichedActivity{focus(at(10, 0), 600, "Editor")}
	Overlay(in, []models.CalendarEvent{meeting("m", at(10, 0), 600)})
	assert.Nil(t, in[0].Calendar)
}

func TestOverlayAccountingHolds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for run := 0; run < 50; run++ {
		var acts []models.EnrichedActivity
		cursor := at(8, 0)
		for i := 0; i < 20; i++ {
			cursor = cursor.Add(time.Duration(rng.Intn(600)) * time.Second)
			d := float64(1 + rng.Intn(900))
			acts = append(acts, focus(cursor, d, "App"))
			cursor = cursor.Add(models.SecondsToDuration(d))
		}
		var events []models.CalendarEvent
		for i := 0; i < 5; i++ {
			start := at(8, 0).Add(time.Duration(rng.Intn(6*3600)) * time.Second)
			events = append(events, meeting(string(rune('a'+i)), start, float64(300+rng.Intn(3600))))
		}

		res := Overlay(acts, events)
		s := res.Summary

		var synthesized float64
		for _, a := range res.Activities {
			if a.CalendarOnly {
				synthesized += a.Duration
			}
		}
		assert.InDelta(t, s.UnionSeconds, s.FocusSeconds+s.MeetingOnlySeconds, 1e-6)
		assert.InDelta(t, s.MeetingOnlySeconds, synthesized, 1e-6)
		assert.InDelta(t, s.UnionSeconds, models.SumDurations(res.Activities), 1e-6)
		for _, m := range s.Meetings {
			assert.LessOrEqual(t, m.OverlapSeconds, m.DurationSeconds+1e-9)
			assert.LessOrEqual(t, m.OverlapSeconds, s.FocusSeconds+1e-9)
		}
	}
}

func TestFilter(t *testing.T) {
	cancelled := meeting("c", at(9, 0), 600)
	cancelled.Status = models.EventCancelled
	allDay := meeting("d", day, 86400)
	allDay.AllDay = true
	normal := meeting("n", at(11, 0), 600)
	events := []models.CalendarEvent{cancelled, allDay, normal}

	assert.Len(t, Filter(events, false, false), 3)
	assert.Equal(t, []models.CalendarEvent{allDay, normal}, Filter(events, true, false))
	assert.Equal(t, []models.CalendarEvent{normal}, Filter(events, true, true))
}

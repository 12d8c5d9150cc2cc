package calendar

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Auriora/activitywatch-mcp-sub002/internal/models"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/query"
)

type stubQuerier struct {
	records []models.RawActivityRecord
	err     error
	last    *query.Request
}

func (s *stubQuerier) Query(_ context.Context, req *query.Request) ([]models.RawActivityRecord, error) {
	s.last = req
	return s.records, s.err
}

func TestEventStoreSourceParsesRecords(t *testing.T) {
	q := &stubQuerier{records: []models.RawActivityRecord{
		{
			ID:           4,
			TimeInterval: models.TimeInterval{Start: at(10, 0), Duration: 1800},
			Data: map[string]any{
				"title":     "Planning",
				"calendar":  "Team",
				"status":    "tentative",
				"attendees": []any{"a@example.com", map[string]any{"email": "b@example.com"}},
				"uid":       "evt-1",
			},
		},
		{
			ID:           5,
			TimeInterval: models.TimeInterval{Start: day, Duration: 86400},
			Data:         map[string]any{"title": "Offsite", "all_day": true},
		},
	}}

	src := NewEventStoreSource(q, "aw-import-ical_host")
	events, err := src.Events(context.Background(), models.TimeRange{Start: day, End: at(23, 0)})
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "evt-1", events[0].ID)
	assert.Equal(t, "Team", events[0].Calendar)
	assert.Equal(t, models.EventTentative, events[0].Status)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, events[0].Attendees)

	assert.Equal(t, "5", events[1].ID)
	assert.True(t, events[1].AllDay)
	assert.Equal(t, models.EventConfirmed, events[1].Status)

	require.NotNil(t, q.last)
	assert.Equal(t, []string{"aw-import-ical_host"}, q.last.Streams)
}

func TestEventStoreSourceTagsErrorsWithStream(t *testing.T) {
	q := &stubQuerier{err: &models.UpstreamUnavailableError{Stream: "x", StatusCode: 500, Err: errors.New("boom")}}
	_, err := NewEventStoreSource(q, "cal").Events(context.Background(), models.TimeRange{Start: day, End: at(1, 0)})

	var unavailable *models.UpstreamUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, "cal", unavailable.Stream)
}

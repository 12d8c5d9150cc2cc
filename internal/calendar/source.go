package calendar

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Auriora/activitywatch-mcp-sub002/internal/models"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/query"
)

// Source loads the calendar events of a time range
type Source interface {
	Events(ctx context.Context, tr models.TimeRange) ([]models.CalendarEvent, error)
}

// Querier runs a query against the event store
type Querier interface {
	Query(ctx context.Context, req *query.Request) ([]models.RawActivityRecord, error)
}

// EventStoreSource reads meetings from a calendar stream of the event store
type EventStoreSource struct {
	client Querier
	stream string
}

func NewEventStoreSource(client Querier, stream string) *EventStoreSource {
	return &EventStoreSource{client: client, stream: stream}
}

func (s *EventStoreSource) Events(ctx context.Context, tr models.TimeRange) ([]models.CalendarEvent, error) {
	req, err := query.Build(query.Params{
		Range:   tr,
		Kind:    models.StreamCalendar,
		Streams: []string{s.stream},
	})
	if err != nil {
		return nil, err
	}

	records, err := s.client.Query(ctx, req)
	if err != nil {
		return nil, models.WithStream(err, s.stream)
	}

	events := make([]models.CalendarEvent, 0, len(records))
	for _, r := range records {
		events = append(events, eventFromRecord(r))
	}
	return events, nil
}

func eventFromRecord(r models.RawActivityRecord) models.CalendarEvent {
	id := r.String("uid")
	if id == "" {
		id = strconv.FormatInt(r.ID, 10)
	}

	e := models.CalendarEvent{
		ID:       id,
		Title:    r.String("title"),
		Calendar: r.String("calendar"),
		Interval: r.TimeInterval,
		Status:   r.String("status"),
	}
	if e.Status == "" {
		e.Status = models.EventConfirmed
	}
	if allDay, ok := r.Data["all_day"].(bool); ok {
		e.AllDay = allDay
	}
	if attendees, ok := r.Data["attendees"].([]any); ok {
		for _, a := range attendees {
			switch v := a.(type) {
			case string:
				e.Attendees = append(e.Attendees, v)
			case map[string]any:
				if email, ok := v["email"].(string); ok {
					e.Attendees = append(e.Attendees, email)
				}
			default:
				e.Attendees = append(e.Attendees, fmt.Sprint(v))
			}
		}
	}
	return e
}

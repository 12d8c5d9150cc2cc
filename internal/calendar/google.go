package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/Auriora/activitywatch-mcp-sub002/internal/models"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GoogleSource reads meetings from one or more Google calendars
type GoogleSource struct {
	srv         *gcal.Service
	calendarIDs []string
	logger      *zap.Logger
}

// NewGoogleSource authenticates with a stored OAuth token. The token file is
// produced by a prior consent flow; this source never starts one.
func NewGoogleSource(ctx context.Context, credentialsFile, tokenFile string, calendarIDs []string, logger *zap.Logger) (*GoogleSource, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file %s: %w", credentialsFile, err)
	}

	config, err := google.ConfigFromJSON(b, gcal.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}

	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read token file %s: %w", tokenFile, err)
	}

	srv, err := gcal.NewService(ctx, option.WithHTTPClient(config.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("unable to create calendar service: %w", err)
	}
	return NewGoogleSourceWithService(srv, calendarIDs, logger), nil
}

func NewGoogleSourceWithService(srv *gcal.Service, calendarIDs []string, logger *zap.Logger) *GoogleSource {
	if len(calendarIDs) == 0 {
		calendarIDs = []string{"primary"}
	}
	return &GoogleSource{srv: srv, calendarIDs: calendarIDs, logger: logger}
}

func (s *GoogleSource) Events(ctx context.Context, tr models.TimeRange) ([]models.CalendarEvent, error) {
	var events []models.CalendarEvent
	for _, id := range s.calendarIDs {
		call := s.srv.Events.List(id).
			SingleEvents(true).
			OrderBy("startTime").
			TimeMin(tr.Start.Format(time.RFC3339)).
			TimeMax(tr.End.Format(time.RFC3339))

		err := call.Pages(ctx, func(page *gcal.Events) error {
			name := page.Summary
			if name == "" {
				name = id
			}
			for _, item := range page.Items {
				e, ok := convertEvent(item, name)
				if !ok {
					s.logger.Warn("Skipping calendar event with unparseable times",
						zap.String("calendar", id),
						zap.String("event_id", item.Id))
					continue
				}
				events = append(events, e)
			}
			return nil
		})
		if err != nil {
			return nil, upstreamError("calendar:"+id, err)
		}
	}

	s.logger.Debug("Fetched calendar events",
		zap.Int("count", len(events)),
		zap.Strings("calendars", s.calendarIDs))
	return events, nil
}

func convertEvent(item *gcal.Event, calendarName string) (models.CalendarEvent, bool) {
	if item.Start == nil || item.End == nil {
		return models.CalendarEvent{}, false
	}

	start, allDay, err := eventTime(item.Start)
	if err != nil {
		return models.CalendarEvent{}, false
	}
	end, _, err := eventTime(item.End)
	if err != nil || end.Before(start) {
		return models.CalendarEvent{}, false
	}

	e := models.CalendarEvent{
		ID:       item.Id,
		Title:    item.Summary,
		Calendar: calendarName,
		Interval: models.TimeInterval{Start: start, Duration: end.Sub(start).Seconds()},
		Status:   item.Status,
		AllDay:   allDay,
	}
	if e.Status == "" {
		e.Status = models.EventConfirmed
	}
	for _, a := range item.Attendees {
		if a.Email != "" {
			e.Attendees = append(e.Attendees, a.Email)
		}
	}
	return e, true
}

// eventTime reads a timed or all-day boundary
func eventTime(t *gcal.EventDateTime) (time.Time, bool, error) {
	if t.DateTime != "" {
		v, err := time.Parse(time.RFC3339, t.DateTime)
		return v, false, err
	}
	loc := time.UTC
	if t.TimeZone != "" {
		if l, err := time.LoadLocation(t.TimeZone); err == nil {
			loc = l
		}
	}
	v, err := time.ParseInLocation("2006-01-02", t.Date, loc)
	return v, true, err
}

func upstreamError(stream string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &models.UpstreamTimeoutError{Stream: stream, Err: err}
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusGatewayTimeout || apiErr.Code == http.StatusRequestTimeout {
			return &models.UpstreamTimeoutError{Stream: stream, Err: err}
		}
		return &models.UpstreamUnavailableError{Stream: stream, StatusCode: apiErr.Code, Err: err}
	}
	return &models.UpstreamUnavailableError{Stream: stream, Err: err}
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

package models

import "time"

// AggregatedGroup is the summed duration of every activity sharing a group key
type AggregatedGroup struct {
	Key                      string            `json:"key"`
	Fields                   map[string]string `json:"fields"`
	TotalDuration            float64           `json:"total_duration_seconds"`
	Percentage               float64           `json:"percentage_of_total"`
	EventCount               int               `json:"event_count"`
	FirstSeen                time.Time         `json:"first_seen"`
	LastSeen                 time.Time         `json:"last_seen"`
	RepresentativeEnrichment *EnrichedActivity `json:"representative,omitempty"`
}

// MeetingSummary is the per-meeting result of the calendar overlay
type MeetingSummary struct {
	ID                 string  `json:"id"`
	Title              string  `json:"title"`
	DurationSeconds    float64 `json:"duration_seconds"`
	OverlapSeconds     float64 `json:"overlap_seconds"`
	MeetingOnlySeconds float64 `json:"meeting_only_seconds"`
}

// CalendarSummary totals the calendar overlay for one request
type CalendarSummary struct {
	FocusSeconds       float64          `json:"focus_seconds"`
	MeetingSeconds     float64          `json:"meeting_seconds"`
	MeetingOnlySeconds float64          `json:"meeting_only_seconds"`
	OverlapSeconds     float64          `json:"overlap_seconds"`
	UnionSeconds       float64          `json:"union_seconds"`
	MeetingCount       int              `json:"meeting_count"`
	Meetings           []MeetingSummary `json:"meetings,omitempty"`
}

// Bucket is a fixed time bin of the period breakdown
type Bucket struct {
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	ActiveSeconds float64   `json:"active_seconds"`
	TopApp        string    `json:"top_app,omitempty"`
	TopAppSeconds float64   `json:"top_app_seconds,omitempty"`
}

// Report is the engine output for one time range
type Report struct {
	RequestID       string            `json:"request_id"`
	TimeRange       TimeRange         `json:"time_range"`
	TotalDuration   float64           `json:"total_duration_seconds"`
	Groups          []AggregatedGroup `json:"groups"`
	CalendarSummary *CalendarSummary  `json:"calendar_summary,omitempty"`
	Bucketed        []Bucket          `json:"bucketed,omitempty"`
	Insights        []string          `json:"insights,omitempty"`
}

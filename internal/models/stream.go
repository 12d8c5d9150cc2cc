package models

import "time"

// StreamKind is the logical kind of a raw interval stream
type StreamKind string

const (
	StreamWindow   StreamKind = "window"
	StreamBrowser  StreamKind = "browser"
	StreamEditor   StreamKind = "editor"
	StreamAFK      StreamKind = "afk"
	StreamCalendar StreamKind = "calendar"
	StreamCustom   StreamKind = "custom"
)

// Valid reports whether k is one of the known stream kinds
func (k StreamKind) Valid() bool {
	switch k {
	case StreamWindow, StreamBrowser, StreamEditor, StreamAFK, StreamCalendar, StreamCustom:
		return true
	}
	return false
}

// Away-status values found in the afk stream's "status" field
const (
	StatusPresent = "not-afk"
	StatusAway    = "afk"
)

// StreamInfo describes a concrete stream known to the event store
type StreamInfo struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Client   string    `json:"client"`
	Hostname string    `json:"hostname"`
	Created  time.Time `json:"created"`
}

// TimeRange is a half-open [Start, End) range
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Validate returns an InvalidRangeError when Start is not before End
func (r TimeRange) Validate() error {
	if !r.Start.Before(r.End) {
		return &InvalidRangeError{Start: r.Start, End: r.End}
	}
	return nil
}

package models

import "time"

// TimeInterval is a start instant plus a non-negative duration in seconds.
type TimeInterval struct {
	Start    time.Time `json:"start"`
	Duration float64   `json:"duration_seconds"`
}

// End returns Start + Duration.
func (t TimeInterval) End() time.Time {
	return t.Start.Add(SecondsToDuration(t.Duration))
}

// RawActivityRecord is a single interval as returned by the event store
type RawActivityRecord struct {
	TimeInterval
	ID   int64          `json:"id,omitempty"`
	Data map[string]any `json:"data"`
}

// String returns the string value stored under key, or "" when absent
func (r RawActivityRecord) String(key string) string {
	if r.Data == nil {
		return ""
	}
	v, ok := r.Data[key].(string)
	if !ok {
		return ""
	}
	return v
}

// BrowserInfo is the browser payload attached to a window interval
type BrowserInfo struct {
	URL    string `json:"url"`
	Domain string `json:"domain"`
	Title  string `json:"title,omitempty"`
}

// VCSInfo carries optional version control metadata from editor watchers
type VCSInfo struct {
	Branch string `json:"branch,omitempty"`
	Commit string `json:"commit,omitempty"`
	Repo   string `json:"repo,omitempty"`
}

// EditorInfo is the editor payload attached to a window interval
type EditorInfo struct {
	File     string   `json:"file"`
	Project  string   `json:"project,omitempty"`
	Language string   `json:"language,omitempty"`
	VCS      *VCSInfo `json:"vcs,omitempty"`
}

// MeetingOverlap annotates an activity with a meeting it overlaps
type MeetingOverlap struct {
	MeetingID      string  `json:"meeting_id"`
	Title          string  `json:"title"`
	OverlapSeconds float64 `json:"overlap_seconds"`
}

// EnrichedActivity is one window-focus interval with the metadata of
// every stream that was active at the same time.
type EnrichedActivity struct {
	TimeInterval
	App          string           `json:"app"`
	Title        string           `json:"title"`
	Browser      *BrowserInfo     `json:"browser,omitempty"`
	Editor       *EditorInfo      `json:"editor,omitempty"`
	Category     string           `json:"category,omitempty"`
	Calendar     []MeetingOverlap `json:"calendar,omitempty"`
	CalendarOnly bool             `json:"calendar_only,omitempty"`
}

// SecondsToDuration converts fractional seconds to a time.Duration
func SecondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// SumDurations returns the summed duration of the given activities in seconds
func SumDurations(activities []EnrichedActivity) float64 {
	var total float64
	for _, a := range activities {
		total += a.Duration
	}
	return total
}

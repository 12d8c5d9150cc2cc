package models

// Calendar event statuses
const (
	EventConfirmed = "confirmed"
	EventTentative = "tentative"
	EventCancelled = "cancelled"
)

// CalendarEvent is a meeting imported from a calendar source
type CalendarEvent struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Calendar  string       `json:"calendar,omitempty"`
	Interval  TimeInterval `json:"interval"`
	Status    string       `json:"status,omitempty"`
	AllDay    bool         `json:"all_day,omitempty"`
	Attendees []string     `json:"attendees,omitempty"`
}

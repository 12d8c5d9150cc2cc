// Package afk restricts interval streams to the time the user was present.
package afk

import (
	"github.com/Auriora/activitywatch-mcp-sub002/internal/interval"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/models"
)

// Present returns the merged spans during which the away-status stream
// reports the user as present.
func Present(status []models.RawActivityRecord) []interval.Span {
	spans := make([]interval.Span, 0, len(status))
	for _, r := range status {
		if r.String("status") == models.StatusPresent {
			spans = append(spans, interval.FromInterval(r.TimeInterval))
		}
	}
	return interval.Merge(spans)
}

// Gate clips every primary interval to the present sub-intervals of the
// away-status stream. A primary interval spanning an away period is split
// into its present parts; parts keep the original ID and data.
//
// When the status stream is absent or empty every interval counts and
// primary is returned unchanged.
func Gate(primary, status []models.RawActivityRecord) []models.RawActivityRecord {
	if len(status) == 0 {
		return primary
	}
	return GateSpans(primary, Present(status))
}

// GateSpans is Gate with precomputed present spans, so several streams can
// share one status stream.
func GateSpans(primary []models.RawActivityRecord, present []interval.Span) []models.RawActivityRecord {
	out := make([]models.RawActivityRecord, 0, len(primary))
	for _, r := range primary {
		for _, part := range interval.Clip(interval.FromInterval(r.TimeInterval), present) {
			clipped := r
			clipped.TimeInterval = part.Interval()
			out = append(out, clipped)
		}
	}
	return out
}

// Package interval implements the half-open time span arithmetic used by the
// AFK gate, the calendar overlay and the period breakdown.
package interval

import (
	"sort"
	"time"

	"github.com/Auriora/activitywatch-mcp-sub002/internal/models"
)

// Span is a half-open [Start, End) range
type Span struct {
	Start time.Time
	End   time.Time
}

// FromInterval converts a start+duration interval into a span
func FromInterval(t models.TimeInterval) Span {
	return Span{Start: t.Start, End: t.End()}
}

// Interval converts the span back to start+duration form
func (s Span) Interval() models.TimeInterval {
	return models.TimeInterval{Start: s.Start, Duration: s.Seconds()}
}

// Seconds returns the span length, never negative
func (s Span) Seconds() float64 {
	if !s.End.After(s.Start) {
		return 0
	}
	return s.End.Sub(s.Start).Seconds()
}

// Empty reports whether the span has no length
func (s Span) Empty() bool {
	return !s.End.After(s.Start)
}

// Intersect returns the overlap of a and b and whether it is non-empty
func Intersect(a, b Span) (Span, bool) {
	start := a.Start
	if b.Start.After(start) {
		start = b.Start
	}
	end := a.End
	if b.End.Before(end) {
		end = b.End
	}
	out := Span{Start: start, End: end}
	return out, !out.Empty()
}

// OverlapSeconds returns the length of the intersection of a and b
func OverlapSeconds(a, b Span) float64 {
	s, ok := Intersect(a, b)
	if !ok {
		return 0
	}
	return s.Seconds()
}

// Merge returns the union of spans as a sorted list of disjoint spans.
// Touching spans are joined. The input is not modified.
func Merge(spans []Span) []Span {
	sorted := make([]Span, 0, len(spans))
	for _, s := range spans {
		if !s.Empty() {
			sorted = append(sorted, s)
		}
	}
	if len(sorted) == 0 {
		return nil
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := []Span{sorted[0]}
	for _, s := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !s.Start.After(last.End) {
			if s.End.After(last.End) {
				last.End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// Clip returns the parts of s covered by cover. cover must be sorted and
// disjoint, as returned by Merge.
func Clip(s Span, cover []Span) []Span {
	var out []Span
	for _, c := range firstOverlapping(cover, s) {
		if !c.Start.Before(s.End) {
			break
		}
		if part, ok := Intersect(s, c); ok {
			out = append(out, part)
		}
	}
	return out
}

// Subtract returns the parts of s not covered by cover. cover must be sorted
// and disjoint, as returned by Merge.
func Subtract(s Span, cover []Span) []Span {
	var out []Span
	cursor := s.Start
	for _, c := range firstOverlapping(cover, s) {
		if !c.Start.Before(s.End) {
			break
		}
		if c.Start.After(cursor) {
			out = append(out, Span{Start: cursor, End: c.Start})
		}
		if c.End.After(cursor) {
			cursor = c.End
		}
	}
	if s.End.After(cursor) {
		out = append(out, Span{Start: cursor, End: s.End})
	}
	return out
}

// Measure sums the lengths of spans; overlapping spans are counted once
func Measure(spans []Span) float64 {
	var total float64
	for _, s := range Merge(spans) {
		total += s.Seconds()
	}
	return total
}

// firstOverlapping skips the leading spans of a sorted disjoint list that end
// at or before s starts.
func firstOverlapping(cover []Span, s Span) []Span {
	i := sort.Search(len(cover), func(i int) bool {
		return cover[i].End.After(s.Start)
	})
	return cover[i:]
}

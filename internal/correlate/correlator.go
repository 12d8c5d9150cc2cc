// Package correlate merges the window focus stream with browser and editor
// streams into one enriched record per window interval.
package correlate

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/Auriora/activitywatch-mcp-sub002/internal/interval"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/models"

	"go.uber.org/zap"
)

// Enrichment is one enrichment stream kind and its (already gated) records
type Enrichment struct {
	Kind    models.StreamKind
	Records []models.RawActivityRecord
	// Apps restricts which window apps the payload may attach to, matched
	// as case-insensitive substrings. Empty matches every app.
	Apps []string
}

// Correlator attaches enrichment payloads to window intervals
type Correlator struct {
	logger *zap.Logger
}

// NewCorrelator creates a new correlator
func NewCorrelator(logger *zap.Logger) *Correlator {
	return &Correlator{logger: logger}
}

// Correlate returns one EnrichedActivity per base interval, ordered by start.
//
// Each base interval gets at most one payload per enrichment kind: the
// overlapping record with the largest overlap, earliest start on ties. The
// payload is metadata on the window interval and never splits it, so the
// summed output duration always equals the summed base duration.
func (c *Correlator) Correlate(base []models.RawActivityRecord, enrichments ...Enrichment) []models.EnrichedActivity {
	ordered := make([]models.RawActivityRecord, len(base))
	copy(ordered, base)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Start.Before(ordered[j].Start)
	})

	out := make([]models.EnrichedActivity, len(ordered))
	for i, r := range ordered {
		out[i] = models.EnrichedActivity{
			TimeInterval: r.TimeInterval,
			App:          r.String("app"),
			Title:        r.String("title"),
		}
	}

	for _, e := range mergeByKind(enrichments) {
		if e.Kind != models.StreamBrowser && e.Kind != models.StreamEditor {
			c.logger.Warn("Ignoring unsupported enrichment kind", zap.String("kind", string(e.Kind)))
			continue
		}

		idx := newSweepIndex(e.Records)
		attached := 0
		for i := range out {
			if !appMatches(out[i].App, e.Apps) {
				continue
			}
			best, ok := idx.bestOverlap(interval.FromInterval(out[i].TimeInterval))
			if !ok {
				continue
			}
			switch e.Kind {
			case models.StreamBrowser:
				out[i].Browser = browserPayload(best)
			case models.StreamEditor:
				out[i].Editor = editorPayload(best)
			}
			attached++
		}

		c.logger.Debug("Correlated enrichment stream",
			zap.String("kind", string(e.Kind)),
			zap.Int("records", len(e.Records)),
			zap.Int("attached", attached),
		)
	}

	return out
}

// mergeByKind concatenates enrichments of the same kind, keeping first-seen order
func mergeByKind(enrichments []Enrichment) []Enrichment {
	var merged []Enrichment
	pos := make(map[models.StreamKind]int)
	for _, e := range enrichments {
		if i, ok := pos[e.Kind]; ok {
			merged[i].Records = append(merged[i].Records, e.Records...)
			if len(merged[i].Apps) == 0 {
				merged[i].Apps = e.Apps
			}
			continue
		}
		pos[e.Kind] = len(merged)
		merged = append(merged, Enrichment{
			Kind:    e.Kind,
			Records: append([]models.RawActivityRecord(nil), e.Records...),
			Apps:    e.Apps,
		})
	}
	return merged
}

// sweepIndex holds enrichment records sorted by start plus the running
// maximum end, so the first candidate for a base interval can be found by
// a forward-only pointer even when records overlap each other.
type sweepIndex struct {
	records []models.RawActivityRecord
	spans   []interval.Span
	maxEnd  []time.Time
	lo      int
}

func newSweepIndex(records []models.RawActivityRecord) *sweepIndex {
	sorted := make([]models.RawActivityRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	idx := &sweepIndex{
		records: sorted,
		spans:   make([]interval.Span, len(sorted)),
		maxEnd:  make([]time.Time, len(sorted)),
	}
	for i, r := range sorted {
		idx.spans[i] = interval.FromInterval(r.TimeInterval)
		idx.maxEnd[i] = idx.spans[i].End
		if i > 0 && idx.maxEnd[i-1].After(idx.maxEnd[i]) {
			idx.maxEnd[i] = idx.maxEnd[i-1]
		}
	}
	return idx
}

// bestOverlap must be called with base spans in non-decreasing start order
func (idx *sweepIndex) bestOverlap(base interval.Span) (models.RawActivityRecord, bool) {
	for idx.lo < len(idx.records) && !idx.maxEnd[idx.lo].After(base.Start) {
		idx.lo++
	}
	hi := sort.Search(len(idx.spans), func(i int) bool {
		return !idx.spans[i].Start.Before(base.End)
	})

	bestIdx := -1
	var bestOverlap float64
	for i := idx.lo; i < hi; i++ {
		overlap := interval.OverlapSeconds(base, idx.spans[i])
		if overlap > bestOverlap {
			bestIdx = i
			bestOverlap = overlap
		}
	}
	if bestIdx < 0 {
		return models.RawActivityRecord{}, false
	}
	return idx.records[bestIdx], true
}

func appMatches(app string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	appLower := strings.ToLower(app)
	for _, p := range patterns {
		if p != "" && strings.Contains(appLower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func browserPayload(r models.RawActivityRecord) *models.BrowserInfo {
	rawURL := r.String("url")
	return &models.BrowserInfo{
		URL:    rawURL,
		Domain: Domain(rawURL),
		Title:  r.String("title"),
	}
}

func editorPayload(r models.RawActivityRecord) *models.EditorInfo {
	info := &models.EditorInfo{
		File:     r.String("file"),
		Project:  r.String("project"),
		Language: r.String("language"),
	}
	branch, commit, repo := r.String("branch"), r.String("commit"), r.String("repo")
	if branch != "" || commit != "" || repo != "" {
		info.VCS = &models.VCSInfo{Branch: branch, Commit: commit, Repo: repo}
	}
	return info
}

// Domain extracts the lower-cased host of a URL without a leading "www."
func Domain(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		u, err = url.Parse("https://" + rawURL)
		if err != nil {
			return ""
		}
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// Package aggregate groups enriched activity by a composite key and ranks
// the groups by total duration.
package aggregate

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Auriora/activitywatch-mcp-sub002/internal/models"
)

// Key is one component of a composite grouping key
type Key string

const (
	KeyApp      Key = "app"
	KeyCategory Key = "category"
	KeyTitle    Key = "title"
	KeyDomain   Key = "domain"
	KeyProject  Key = "project"
	KeyLanguage Key = "language"
	KeyFile     Key = "file"
)

const (
	// MissingValue stands in for a key component the activity does not carry
	MissingValue = "(none)"

	keySeparator = " | "
)

var extractors = map[Key]func(*models.EnrichedActivity) string{
	KeyApp:      func(a *models.EnrichedActivity) string { return a.App },
	KeyCategory: func(a *models.EnrichedActivity) string { return a.Category },
	KeyTitle:    func(a *models.EnrichedActivity) string { return a.Title },
	KeyDomain: func(a *models.EnrichedActivity) string {
		if a.Browser == nil {
			return ""
		}
		return a.Browser.Domain
	},
	KeyProject: func(a *models.EnrichedActivity) string {
		if a.Editor == nil {
			return ""
		}
		return a.Editor.Project
	},
	KeyLanguage: func(a *models.EnrichedActivity) string {
		if a.Editor == nil {
			return ""
		}
		return a.Editor.Language
	},
	KeyFile: func(a *models.EnrichedActivity) string {
		if a.Editor == nil {
			return ""
		}
		return a.Editor.File
	},
}

// ParseKeys validates a list of grouping key names
func ParseKeys(names []string) ([]Key, error) {
	if len(names) == 0 {
		return nil, &models.ValidationError{Field: "group by", Message: "at least one grouping key is required"}
	}
	keys := make([]Key, 0, len(names))
	for _, n := range names {
		k := Key(strings.ToLower(strings.TrimSpace(n)))
		if _, ok := extractors[k]; !ok {
			return nil, &models.ValidationError{Field: "group by", Message: fmt.Sprintf("unknown grouping key %q", n)}
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// Options controls grouping and ranking
type Options struct {
	GroupBy     []Key
	MinDuration float64
	// Exclude drops matching records before grouping, e.g. system apps.
	Exclude func(*models.EnrichedActivity) bool
	TopN    int
}

// Result is the ranked groups plus the duration they were measured against
type Result struct {
	Groups        []models.AggregatedGroup
	TotalDuration float64
}

type group struct {
	models.AggregatedGroup
}

// Aggregate drops filtered records, groups the rest by the composite key and
// returns at most TopN groups ordered by duration descending, then key
// ascending. Percentages are relative to the total of the kept records and
// rounded to two decimals.
func Aggregate(activities []models.EnrichedActivity, opts Options) (*Result, error) {
	if opts.TopN <= 0 {
		return nil, &models.ValidationError{Field: "top n", Message: "must be at least 1"}
	}
	if len(opts.GroupBy) == 0 {
		return nil, &models.ValidationError{Field: "group by", Message: "at least one grouping key is required"}
	}
	for _, k := range opts.GroupBy {
		if _, ok := extractors[k]; !ok {
			return nil, &models.ValidationError{Field: "group by", Message: fmt.Sprintf("unknown grouping key %q", k)}
		}
	}
	if opts.MinDuration < 0 {
		return nil, &models.ValidationError{Field: "min duration", Message: "must not be negative"}
	}

	groups := make(map[string]*group)
	var total float64
	for i := range activities {
		a := &activities[i]
		if a.Duration < opts.MinDuration {
			continue
		}
		if opts.Exclude != nil && opts.Exclude(a) {
			continue
		}

		key, fields := compositeKey(a, opts.GroupBy)
		g, ok := groups[key]
		if !ok {
			rep := *a
			g = &group{models.AggregatedGroup{
				Key:                      key,
				Fields:                   fields,
				FirstSeen:                a.Start,
				LastSeen:                 a.End(),
				RepresentativeEnrichment: &rep,
			}}
			groups[key] = g
		}

		g.TotalDuration += a.Duration
		g.EventCount++
		if a.Start.Before(g.FirstSeen) {
			g.FirstSeen = a.Start
		}
		if end := a.End(); end.After(g.LastSeen) {
			g.LastSeen = end
		}
		total += a.Duration
	}

	ranked := make([]models.AggregatedGroup, 0, len(groups))
	for _, g := range groups {
		if total > 0 {
			g.Percentage = round2(g.TotalDuration / total * 100)
		}
		ranked = append(ranked, g.AggregatedGroup)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TotalDuration != ranked[j].TotalDuration {
			return ranked[i].TotalDuration > ranked[j].TotalDuration
		}
		return ranked[i].Key < ranked[j].Key
	})
	if len(ranked) > opts.TopN {
		ranked = ranked[:opts.TopN]
	}

	return &Result{Groups: ranked, TotalDuration: total}, nil
}

func compositeKey(a *models.EnrichedActivity, keys []Key) (string, map[string]string) {
	parts := make([]string, len(keys))
	fields := make(map[string]string, len(keys))
	for i, k := range keys {
		v := extractors[k](a)
		if v == "" {
			v = MissingValue
		}
		parts[i] = v
		fields[string(k)] = v
	}
	return strings.Join(parts, keySeparator), fields
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SystemApps returns a predicate matching activities whose app equals one of
// names, ignoring case. Calendar-only records never match.
func SystemApps(names []string) func(*models.EnrichedActivity) bool {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[strings.ToLower(n)] = struct{}{}
	}
	return func(a *models.EnrichedActivity) bool {
		if a.CalendarOnly {
			return false
		}
		_, ok := set[strings.ToLower(a.App)]
		return ok
	}
}

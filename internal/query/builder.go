// Package query translates report parameters into programs for the event
// store's query endpoint.
package query

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Auriora/activitywatch-mcp-sub002/internal/models"
)

// OpKind identifies a program operation
type OpKind string

const (
	OpSelect     OpKind = "select"
	OpAllow      OpKind = "filter_allow"
	OpDeny       OpKind = "filter_deny"
	OpTitleRegex OpKind = "filter_regex"
)

const eventsVar = "events"

// Op is one operation of a program
type Op struct {
	Kind    OpKind
	Stream  string
	Key     string
	Values  []string
	Pattern string
}

// Filters are optional predicates applied to a stream
type Filters struct {
	AppAllow    []string
	AppDeny     []string
	DomainAllow []string
	TitleRegex  []string
	// MinDuration is applied by the client after the fetch; the query
	// language has no duration predicate.
	MinDuration float64
}

// Params describes a single stream request
type Params struct {
	Range   models.TimeRange
	Kind    models.StreamKind
	Streams []string
	Filters Filters

	// Program is used verbatim when Kind is custom.
	Program []string
}

// Request is the built query together with the streams it touches
type Request struct {
	Range       models.TimeRange
	Kind        models.StreamKind
	Streams     []string
	Ops         []Op
	Program     []string
	MinDuration float64
}

// Build validates params and renders the program
func Build(p Params) (*Request, error) {
	if err := p.Range.Validate(); err != nil {
		return nil, err
	}
	if !p.Kind.Valid() {
		return nil, &models.ValidationError{Field: "stream kind", Message: fmt.Sprintf("unknown kind %q", p.Kind)}
	}
	if len(p.Streams) == 0 {
		return nil, &models.ValidationError{Field: "streams", Message: "at least one stream id is required"}
	}
	if p.Filters.MinDuration < 0 {
		return nil, &models.ValidationError{Field: "min duration", Message: "must not be negative"}
	}

	req := &Request{
		Range:       p.Range,
		Kind:        p.Kind,
		Streams:     append([]string(nil), p.Streams...),
		MinDuration: p.Filters.MinDuration,
	}

	if p.Kind == models.StreamCustom {
		if len(p.Program) == 0 {
			return nil, &models.ValidationError{Field: "program", Message: "custom queries require a program"}
		}
		req.Program = append([]string(nil), p.Program...)
		return req, nil
	}

	for _, id := range p.Streams {
		req.Ops = append(req.Ops, Op{Kind: OpSelect, Stream: id})
	}

	f := p.Filters
	if len(f.AppAllow) > 0 {
		req.Ops = append(req.Ops, Op{Kind: OpAllow, Key: "app", Values: f.AppAllow})
	}
	if len(f.AppDeny) > 0 {
		req.Ops = append(req.Ops, Op{Kind: OpDeny, Key: "app", Values: f.AppDeny})
	}
	if len(f.DomainAllow) > 0 {
		req.Ops = append(req.Ops, Op{Kind: OpAllow, Key: "$domain", Values: f.DomainAllow})
	}
	if len(f.TitleRegex) > 0 {
		for _, pattern := range f.TitleRegex {
			if _, err := regexp.Compile(pattern); err != nil {
				return nil, &models.ValidationError{Field: "title regex", Message: err.Error()}
			}
		}
		req.Ops = append(req.Ops, Op{Kind: OpTitleRegex, Key: "title", Pattern: strings.Join(f.TitleRegex, "|")})
	}

	program, err := render(req.Ops)
	if err != nil {
		return nil, err
	}
	req.Program = program
	return req, nil
}

// render turns ops into query-language statements ending in RETURN
func render(ops []Op) ([]string, error) {
	var lines []string
	selected := false
	for _, op := range ops {
		switch op.Kind {
		case OpSelect:
			src := fmt.Sprintf("query_bucket(find_bucket(%s))", strconv.Quote(op.Stream))
			if !selected {
				lines = append(lines, fmt.Sprintf("%s = %s;", eventsVar, src))
				selected = true
			} else {
				lines = append(lines, fmt.Sprintf("%s = concat(%s, %s);", eventsVar, eventsVar, src))
			}
		case OpAllow, OpDeny:
			values, err := json.Marshal(op.Values)
			if err != nil {
				return nil, fmt.Errorf("failed to encode filter values: %w", err)
			}
			if op.Key == "$domain" {
				lines = append(lines, fmt.Sprintf("%s = split_url_events(%s);", eventsVar, eventsVar))
			}
			fn := "filter_keyvals"
			if op.Kind == OpDeny {
				fn = "exclude_keyvals"
			}
			lines = append(lines, fmt.Sprintf("%s = %s(%s, %s, %s);", eventsVar, fn, eventsVar, strconv.Quote(op.Key), values))
		case OpTitleRegex:
			lines = append(lines, fmt.Sprintf("%s = filter_keyvals_regex(%s, %s, %s);",
				eventsVar, eventsVar, strconv.Quote(op.Key), strconv.Quote(op.Pattern)))
		default:
			return nil, fmt.Errorf("unsupported op %q", op.Kind)
		}
	}
	if !selected {
		return nil, &models.ValidationError{Field: "program", Message: "no stream selected"}
	}
	lines = append(lines, fmt.Sprintf("RETURN = %s;", eventsVar))
	return lines, nil
}

// FilterMinDuration drops records shorter than min seconds
func FilterMinDuration(records []models.RawActivityRecord, min float64) []models.RawActivityRecord {
	if min <= 0 {
		return records
	}
	out := make([]models.RawActivityRecord, 0, len(records))
	for _, r := range records {
		if r.Duration >= min {
			out = append(out, r)
		}
	}
	return out
}

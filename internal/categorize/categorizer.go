// Package categorize assigns hierarchical categories to enriched activities.
package categorize

import (
	"regexp"
	"strings"

	"github.com/Auriora/activitywatch-mcp-sub002/internal/models"

	"go.uber.org/zap"
)

type compiledRule struct {
	rule models.CategoryRule
	re   *regexp.Regexp
}

// Categorizer matches activities against an ordered rule set.
//
// The deepest matching category path wins. Among matches of equal depth the
// rule that comes first in the rule set wins, so rule order is significant.
type Categorizer struct {
	rules  []compiledRule
	logger *zap.Logger
}

// NewCategorizer compiles rules case-insensitively. Rules with an empty
// name or an invalid regex are skipped with a warning.
func NewCategorizer(rules []models.CategoryRule, logger *zap.Logger) *Categorizer {
	c := &Categorizer{
		rules:  make([]compiledRule, 0, len(rules)),
		logger: logger,
	}
	for _, r := range rules {
		if r.Depth() == 0 || r.Regex == "" {
			logger.Warn("Skipping incomplete category rule", zap.String("rule_id", r.ID))
			continue
		}
		re, err := regexp.Compile("(?i)" + r.Regex)
		if err != nil {
			logger.Warn("Skipping category rule with invalid regex",
				zap.String("rule_id", r.ID),
				zap.String("category", r.Path()),
				zap.Error(err),
			)
			continue
		}
		c.rules = append(c.rules, compiledRule{rule: r, re: re})
	}
	return c
}

// Len returns the number of usable rules
func (c *Categorizer) Len() int {
	return len(c.rules)
}

// Match returns the best matching rule for text
func (c *Categorizer) Match(text string) (models.CategoryRule, bool) {
	best := -1
	bestDepth := 0
	for i, r := range c.rules {
		if r.rule.Depth() <= bestDepth {
			continue
		}
		if r.re.MatchString(text) {
			best = i
			bestDepth = r.rule.Depth()
		}
	}
	if best < 0 {
		return models.CategoryRule{}, false
	}
	return c.rules[best].rule, true
}

// Categorize sets a.Category to the best match or Uncategorized
func (c *Categorizer) Categorize(a *models.EnrichedActivity) {
	if rule, ok := c.Match(Blob(a)); ok {
		a.Category = rule.Path()
		return
	}
	a.Category = models.Uncategorized
}

// CategorizeAll categorizes every activity in place
func (c *Categorizer) CategorizeAll(activities []models.EnrichedActivity) {
	for i := range activities {
		c.Categorize(&activities[i])
	}
}

// Blob joins the searchable fields of an activity: app, title, url,
// domain, file and project, whichever are present.
func Blob(a *models.EnrichedActivity) string {
	parts := make([]string, 0, 6)
	add := func(s string) {
		if s != "" {
			parts = append(parts, s)
		}
	}
	add(a.App)
	add(a.Title)
	if a.Browser != nil {
		add(a.Browser.URL)
		add(a.Browser.Domain)
	}
	if a.Editor != nil {
		add(a.Editor.File)
		add(a.Editor.Project)
	}
	return strings.Join(parts, " ")
}

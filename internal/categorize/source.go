package categorize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Auriora/activitywatch-mcp-sub002/internal/cache"
	"github.com/Auriora/activitywatch-mcp-sub002/internal/models"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// RuleSource loads the ordered category rule set
type RuleSource interface {
	LoadRules(ctx context.Context) ([]models.CategoryRule, error)
}

// RuleSourceFunc adapts a function to RuleSource
type RuleSourceFunc func(ctx context.Context) ([]models.CategoryRule, error)

// LoadRules calls f
func (f RuleSourceFunc) LoadRules(ctx context.Context) ([]models.CategoryRule, error) {
	return f(ctx)
}

type rulesFile struct {
	Categories []models.CategoryRule `yaml:"categories"`
}

// FileSource reads rules from a YAML file:
//
//	categories:
//	  - id: coding
//	    name: [Work, Coding]
//	    regex: "code|vim"
type FileSource struct {
	Path string
}

// LoadRules reads and parses the file
func (s FileSource) LoadRules(_ context.Context) ([]models.CategoryRule, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", s.Path, err)
	}
	for i := range f.Categories {
		if f.Categories[i].ID == "" {
			f.Categories[i].ID = fmt.Sprintf("%s#%d", s.Path, i)
		}
	}
	return f.Categories, nil
}

// NamedSource labels a source for logging
type NamedSource struct {
	Name   string
	Source RuleSource
}

// FallbackSource tries each source in order and returns the first
// successful result. When every source fails it returns an empty rule set,
// so everything is Uncategorized rather than failing the request.
type FallbackSource struct {
	sources []NamedSource
	logger  *zap.Logger
}

// NewFallbackSource creates a new fallback chain
func NewFallbackSource(logger *zap.Logger, sources ...NamedSource) *FallbackSource {
	return &FallbackSource{sources: sources, logger: logger}
}

// LoadRules implements RuleSource
func (f *FallbackSource) LoadRules(ctx context.Context) ([]models.CategoryRule, error) {
	var errs []error
	for _, s := range f.sources {
		rules, err := s.Source.LoadRules(ctx)
		if err == nil {
			f.logger.Debug("Loaded category rules",
				zap.String("source", s.Name),
				zap.Int("count", len(rules)),
			)
			return rules, nil
		}
		f.logger.Warn("Category rule source failed, trying next",
			zap.String("source", s.Name),
			zap.Error(err),
		)
		errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
	}
	if len(errs) > 0 {
		f.logger.Warn("All category rule sources failed, using empty rule set", zap.Error(errors.Join(errs...)))
	}
	return []models.CategoryRule{}, nil
}

// CachedSource serves rules from a TTL cache in front of another source
type CachedSource struct {
	source RuleSource
	cache  *cache.Cache[[]models.CategoryRule]
}

// NewCachedSource wraps source with a cache of the given ttl
func NewCachedSource(source RuleSource, ttl time.Duration, logger *zap.Logger) *CachedSource {
	return &CachedSource{
		source: source,
		cache:  cache.New[[]models.CategoryRule]("category_rules", ttl, logger),
	}
}

// LoadRules implements RuleSource. The returned slice is shared between
// callers and must be treated as read-only.
func (c *CachedSource) LoadRules(ctx context.Context) ([]models.CategoryRule, error) {
	return c.cache.Get(ctx, c.source.LoadRules)
}

// Reset forces the next LoadRules to hit the underlying source
func (c *CachedSource) Reset() {
	c.cache.Reset()
}

package categorize

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Auriora/activitywatch-mcp-sub002/internal/models"
)

const rulesYAML = `categories:
  - id: work
    name: [Work]
    regex: "ide|code"
  - name: [Work, Coding]
    regex: code
    color: "#00FF00"
`

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(rulesYAML), 0o600))

	rules, err := FileSource{Path: path}.LoadRules(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "work", rules[0].ID)
	assert.Equal(t, path+"#1", rules[1].ID)
	assert.Equal(t, "Work > Coding", rules[1].Path())
	assert.Equal(t, "#00FF00", rules[1].Color)

	_, err = FileSource{Path: filepath.Join(t.TempDir(), "missing.yaml")}.LoadRules(context.Background())
	assert.Error(t, err)
}

func TestFallbackSource(t *testing.T) {
	failing := RuleSourceFunc(func(context.Context) ([]models.CategoryRule, error) {
		return nil, errors.New("settings unavailable")
	})
	working := RuleSourceFunc(func(context.Context) ([]models.CategoryRule, error) {
		return []models.CategoryRule{{ID: "x", Name: []string{"X"}, Regex: "x"}}, nil
	})

	rules, err := NewFallbackSource(zap.NewNop(),
		NamedSource{Name: "eventstore", Source: failing},
		NamedSource{Name: "file", Source: working},
	).LoadRules(context.Background())
	require.NoError(t, err)
	assert.Len(t, rules, 1)

	rules, err = NewFallbackSource(zap.NewNop(), NamedSource{Name: "eventstore", Source: failing}).LoadRules(context.Background())
	require.NoError(t, err, "exhausting every source degrades to no rules")
	assert.Empty(t, rules)
}

func TestCachedSource(t *testing.T) {
	calls := 0
	src := RuleSourceFunc(func(context.Context) ([]models.CategoryRule, error) {
		calls++
		return []models.CategoryRule{{ID: "x"}}, nil
	})

	cached := NewCachedSource(src, time.Hour, zap.NewNop())
	for i := 0; i < 3; i++ {
		_, err := cached.LoadRules(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 1, calls)

	cached.Reset()
	_, _ = cached.LoadRules(context.Background())
	assert.Equal(t, 2, calls)
}

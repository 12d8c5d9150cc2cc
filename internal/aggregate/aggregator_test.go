package aggregate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Auriora/activitywatch-mcp-sub002/internal/models"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func activity(offset time.Duration, seconds float64, app string) models.EnrichedActivity {
	return models.EnrichedActivity{
		TimeInterval: models.TimeInterval{Start: t0.Add(offset), Duration: seconds},
		App:          app,
	}
}

func TestTopNBreaksTiesByKey(t *testing.T) {
	in := []models.EnrichedActivity{
		activity(0, 300, "Zed"),
		activity(time.Hour, 500, "Mail"),
		activity(2*time.Hour, 300, "Browser"),
	}

	res, err := Aggregate(in, Options{GroupBy: []Key{KeyApp}, TopN: 2})
	require.NoError(t, err)
	require.Len(t, res.Groups, 2)
	assert.Equal(t, "Mail", res.Groups[0].Key)
	assert.Equal(t, "Browser", res.Groups[1].Key)
	assert.Equal(t, 1100.0, res.TotalDuration)
	assert.Equal(t, 45.45, res.Groups[0].Percentage)
}

func TestGroupTotalsAndTimestamps(t *testing.T) {
	first := activity(0, 60, "Editor")
	first.Title = "main.go"
	in := []models.EnrichedActivity{
		first,
		activity(10*time.Minute, 120, "editor"),
		activity(30*time.Minute, 30, "Editor"),
	}

	res, err := Aggregate(in, Options{GroupBy: []Key{KeyApp}, TopN: 10})
	require.NoError(t, err)
	require.Len(t, res.Groups, 2)

	g := res.Groups[0]
	assert.Equal(t, "editor", g.Key)
	assert.Equal(t, 1, g.EventCount)

	g = res.Groups[1]
	assert.Equal(t, "Editor", g.Key)
	assert.Equal(t, 90.0, g.TotalDuration)
	assert.Equal(t, 2, g.EventCount)
	assert.Equal(t, t0, g.FirstSeen)
	assert.Equal(t, t0.Add(30*time.Minute+30*time.Second), g.LastSeen)
	require.NotNil(t, g.RepresentativeEnrichment)
	assert.Equal(t, "main.go", g.RepresentativeEnrichment.Title)
}

func TestCompositeKeyUsesPlaceholder(t *testing.T) {
	withBrowser := activity(0, 100, "Firefox")
	withBrowser.Browser = &models.BrowserInfo{URL: "https://go.dev/doc", Domain: "go.dev"}

	res, err := Aggregate([]models.EnrichedActivity{withBrowser, activity(time.Minute, 50, "Editor")},
		Options{GroupBy: []Key{KeyApp, KeyDomain}, TopN: 5})
	require.NoError(t, err)

	assert.Equal(t, "Firefox | go.dev", res.Groups[0].Key)
	assert.Equal(t, map[string]string{"app": "Firefox", "domain": "go.dev"}, res.Groups[0].Fields)
	assert.Equal(t, "Editor | (none)", res.Groups[1].Key)
}

func TestFiltersApplyBeforeGrouping(t *testing.T) {
	in := []models.EnrichedActivity{
		activity(0, 5, "Editor"),
		activity(time.Minute, 100, "loginwindow"),
		activity(2*time.Minute, 100, "Editor"),
	}

	res, err := Aggregate(in, Options{
		GroupBy:     []Key{KeyApp},
		MinDuration: 10,
		Exclude:     SystemApps([]string{"LoginWindow"}),
		TopN:        5,
	})
	require.NoError(t, err)
	require.Len(t, res.Groups, 1)
	assert.Equal(t, 100.0, res.TotalDuration)
	assert.Equal(t, 100.0, res.Groups[0].Percentage)
}

func TestValidation(t *testing.T) {
	var vErr *models.ValidationError

	_, err := Aggregate(nil, Options{GroupBy: []Key{KeyApp}, TopN: 0})
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "top n", vErr.Field)

	_, err = Aggregate(nil, Options{GroupBy: []Key{"colour"}, TopN: 1})
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "group by", vErr.Field)

	_, err = ParseKeys([]string{"app", "bogus"})
	assert.True(t, errors.As(err, &vErr))

	keys, err := ParseKeys([]string{" App", "CATEGORY"})
	require.NoError(t, err)
	assert.Equal(t, []Key{KeyApp, KeyCategory}, keys)
}

func TestEmptyInput(t *testing.T) {
	res, err := Aggregate(nil, Options{GroupBy: []Key{KeyCategory}, TopN: 3})
	require.NoError(t, err)
	assert.Empty(t, res.Groups)
	assert.Zero(t, res.TotalDuration)
}

package afk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Auriora/activitywatch-mcp-sub002/internal/models"
)

var nine = time.Date(2026, time.October, 12, 9, 0, 0, 0, time.UTC)

func record(offsetMin int, seconds float64, data map[string]any) models.RawActivityRecord {
	return models.RawActivityRecord{
		TimeInterval: models.TimeInterval{Start: nine.Add(time.Duration(offsetMin) * time.Minute), Duration: seconds},
		Data:         data,
	}
}

func status(offsetMin int, seconds float64, s string) models.RawActivityRecord {
	return record(offsetMin, seconds, map[string]any{"status": s})
}

func TestGatePassthroughWithoutStatus(t *testing.T) {
	primary := []models.RawActivityRecord{record(0, 3600, map[string]any{"app": "Editor"})}
	assert.Equal(t, primary, Gate(primary, nil))
}

func TestGateSplitsAcrossAwayPeriod(t *testing.T) {
	primary := []models.RawActivityRecord{record(0, 3600, map[string]any{"app": "Editor"})}
	afk := []models.RawActivityRecord{
		status(0, 900, models.StatusPresent),
		status(15, 1800, models.StatusAway),
		status(45, 900, models.StatusPresent),
	}

	got := Gate(primary, afk)
	require.Len(t, got, 2)
	assert.Equal(t, nine, got[0].Start)
	assert.Equal(t, 900.0, got[0].Duration)
	assert.Equal(t, nine.Add(45*time.Minute), got[1].Start)
	assert.Equal(t, 900.0, got[1].Duration)
	assert.Equal(t, "Editor", got[1].String("app"))
}

func TestGateDropsFullyAwayIntervals(t *testing.T) {
	primary := []models.RawActivityRecord{record(0, 600, nil), record(20, 600, nil)}
	afk := []models.RawActivityRecord{status(0, 900, models.StatusAway), status(15, 900, models.StatusPresent)}

	got := Gate(primary, afk)
	require.Len(t, got, 1)
	assert.Equal(t, nine.Add(20*time.Minute), got[0].Start)
	assert.Equal(t, 600.0, got[0].Duration)
}

func TestGateMergesOverlappingPresence(t *testing.T) {
	primary := []models.RawActivityRecord{record(0, 1200, nil)}
	afk := []models.RawActivityRecord{status(0, 600, models.StatusPresent), status(5, 900, models.StatusPresent)}

	got := Gate(primary, afk)
	require.Len(t, got, 1, "overlapping present intervals must not duplicate time")
	assert.Equal(t, 1200.0, got[0].Duration)
}

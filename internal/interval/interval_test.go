package interval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, time.October, 12, 9, 0, 0, 0, time.UTC)

func span(fromMin, toMin int) Span {
	return Span{
		Start: base.Add(time.Duration(fromMin) * time.Minute),
		End:   base.Add(time.Duration(toMin) * time.Minute),
	}
}

func TestIntersect(t *testing.T) {
	got, ok := Intersect(span(0, 60), span(30, 90))
	require.True(t, ok)
	assert.Equal(t, span(30, 60), got)

	_, ok = Intersect(span(0, 30), span(30, 60))
	assert.False(t, ok, "touching spans do not overlap")

	assert.Equal(t, 600.0, OverlapSeconds(span(0, 60), span(10, 20)))
	assert.Zero(t, OverlapSeconds(span(0, 10), span(20, 30)))
}

func TestMerge(t *testing.T) {
	got := Merge([]Span{span(50, 60), span(0, 10), span(5, 20), span(20, 25), span(40, 40)})
	assert.Equal(t, []Span{span(0, 25), span(50, 60)}, got)
	assert.Nil(t, Merge(nil))
}

func TestClipAndSubtract(t *testing.T) {
	cover := Merge([]Span{span(10, 20), span(30, 40), span(70, 80)})

	assert.Equal(t, []Span{span(10, 20), span(30, 35)}, Clip(span(5, 35), cover))
	assert.Equal(t, []Span{span(5, 10), span(20, 30)}, Subtract(span(5, 35), cover))
	assert.Equal(t, []Span{span(40, 70), span(80, 90)}, Subtract(span(40, 90), cover))
	assert.Empty(t, Clip(span(50, 60), cover))
	assert.Equal(t, []Span{span(50, 60)}, Subtract(span(50, 60), cover))
}

func TestMeasureCountsOverlapOnce(t *testing.T) {
	assert.Equal(t, 1800.0, Measure([]Span{span(0, 20), span(10, 30)}))
}

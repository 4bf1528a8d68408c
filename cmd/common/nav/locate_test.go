package nav

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocate_Chart(t *testing.T) {
	tl := mustParse(t, "120:4, 90:3")

	pos, ok := Locate(0.7, 0, math.NaN(), tl)
	require.True(t, ok)
	assert.Equal(t, 1, pos.Index)
	assert.Equal(t, 0, pos.Measure)
	assert.Equal(t, 1, pos.Beat)

	pos, ok = Locate(12.0, 10, math.NaN(), tl)
	require.True(t, ok)
	assert.Equal(t, 4, pos.Index)
	assert.Equal(t, 1, pos.Measure)
	assert.Equal(t, 0, pos.Beat)
	assert.Equal(t, 3, pos.BeatsInMeasure)
	assert.Equal(t, &Span{Start: 7, End: 11}, pos.Highlight)

	_, ok = Locate(4.5, 0, math.NaN(), tl)
	assert.False(t, ok, "past the end")
	_, ok = Locate(-0.1, 0, math.NaN(), tl)
	assert.False(t, ok, "before the start")
	_, ok = Locate(1, math.NaN(), math.NaN(), tl)
	assert.False(t, ok, "no offset")
}

func TestLocate_Constant(t *testing.T) {
	pos, ok := Locate(3.6, 1, 120, nil)
	require.True(t, ok)
	assert.Equal(t, 5, pos.Index)
	assert.Equal(t, 1, pos.Measure)
	assert.Equal(t, 1, pos.Beat)
	assert.Equal(t, 4, pos.BeatsInMeasure)
	assert.Nil(t, pos.Highlight)

	_, ok = Locate(0.5, 1, 120, nil)
	assert.False(t, ok, "before the offset")
	_, ok = Locate(3, 0, 0, nil)
	assert.False(t, ok, "no tempo")
}

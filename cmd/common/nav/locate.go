package nav

import (
	"math"

	"github.com/gigurra/beatseek/cmd/common/chart"
)

// Position is the beat containing a point in time.
type Position struct {
	Index          int // running beat number from the chart start
	Measure        int
	Beat           int
	BeatsInMeasure int
	Highlight      *Span
}

// Locate finds the beat that contains currentTime. With a timeline the beat
// comes from the chart; otherwise tempo is used with 4-beat bars. It returns
// false when the inputs are missing or currentTime lies outside the chart.
func Locate(currentTime, offset, tempo float64, tl chart.Timeline) (Position, bool) {
	if !isFinite(offset) {
		return Position{}, false
	}
	relative := currentTime - offset

	if tl != nil {
		i := tl.SearchTime(math.Nextafter(relative, math.Inf(1))) - 1
		if i < 0 || tl[i].IsSentinel() {
			return Position{}, false
		}
		e := tl[i]
		return Position{
			Index:          i,
			Measure:        e.Measure,
			Beat:           e.Beat,
			BeatsInMeasure: e.BeatsInMeasure,
			Highlight:      &Span{Start: e.SourceStart, End: e.SourceEnd},
		}, true
	}

	if !isFinite(tempo) || tempo <= 0 || relative < 0 {
		return Position{}, false
	}
	index := int(math.Floor(relative / (60 / tempo)))
	return Position{
		Index:          index,
		Measure:        index / CoarseBeats,
		Beat:           index % CoarseBeats,
		BeatsInMeasure: CoarseBeats,
	}, true
}

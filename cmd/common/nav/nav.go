// Package nav computes beat-aligned seek targets, either from a parsed chart
// or from a constant tempo.
package nav

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gigurra/beatseek/cmd/common/chart"
)

const (
	// Epsilon keeps a seek that lands exactly on a boundary from re-triggering
	// on that same boundary.
	Epsilon = 0.01
	// CoarseBeats is the constant-tempo jump size for measure navigation.
	CoarseBeats = 4
	// DefaultDoubleTapWindow is how close two backward requests must be for
	// the second one to skip an extra step.
	DefaultDoubleTapWindow = 700 * time.Millisecond
)

var (
	ErrMissingOffset = errors.New("offset is not set")
	ErrMissingTempo  = errors.New("tempo is not set")
	ErrNoTarget      = errors.New("no beat in that direction")
)

type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Granularity selects where navigation may stop.
type Granularity int

const (
	// Measure stops on measure starts (4 beats without a chart).
	Measure Granularity = iota
	// Beat stops on every beat.
	Beat
)

func (g Granularity) String() string {
	if g == Beat {
		return "beat"
	}
	return "measure"
}

// Request is one navigation request. Offset and Tempo are NaN when the user
// has not supplied them; Timeline is nil when no chart is active.
type Request struct {
	CurrentTime float64
	Offset      float64
	Tempo       float64
	Direction   Direction
	Granularity Granularity
	Timeline    chart.Timeline
	Now         time.Time
}

// Result is a seek decision.
type Result struct {
	Target         float64 // seconds on the media clock
	Measure        int     // zero-based
	Beat           int     // zero-based
	BeatsInMeasure int
	FromChart      bool
	// Highlight is the chart source span of the target, set in chart mode.
	Highlight *Span
}

// Span is a byte range into the chart text.
type Span struct {
	Start, End int
}

// Label is a short human description of the target.
func (r Result) Label() string {
	if r.FromChart && r.BeatsInMeasure == 0 {
		return fmt.Sprintf("end of chart (%s)", FormatTime(r.Target))
	}
	return fmt.Sprintf("bar %d beat %d/%d at %s", r.Measure+1, r.Beat+1, r.BeatsInMeasure, FormatTime(r.Target))
}

// Navigator computes seek targets. It remembers when the last backward request
// happened so that two quick backward presses skip one step further. One
// Navigator per input handler; it is not safe for concurrent use.
type Navigator struct {
	DoubleTapWindow time.Duration

	lastBackward time.Time
}

func NewNavigator(doubleTapWindow time.Duration) *Navigator {
	return &Navigator{DoubleTapWindow: doubleTapWindow}
}

// Reset forgets the last backward request.
func (n *Navigator) Reset() {
	n.lastBackward = time.Time{}
}

// Seek computes the target for req. It returns ErrNoTarget when a chart has no
// eligible beat in the requested direction, and ErrMissingOffset or
// ErrMissingTempo when required inputs are absent.
func (n *Navigator) Seek(req Request) (Result, error) {
	if !isFinite(req.Offset) {
		return Result{}, ErrMissingOffset
	}
	if req.Timeline != nil {
		return n.seekChart(req)
	}
	if !isFinite(req.Tempo) || req.Tempo <= 0 {
		return Result{}, ErrMissingTempo
	}
	return n.seekConstant(req), nil
}

func (n *Navigator) seekConstant(req Request) Result {
	beatDuration := 60 / req.Tempo
	jump := float64(CoarseBeats)
	if req.Granularity == Beat {
		jump = 1
	}
	relative := req.CurrentTime - req.Offset

	var index float64
	if req.Direction == Forward {
		n.Reset()
		index = math.Ceil((relative+Epsilon)/beatDuration/jump) * jump
	} else {
		bonus := 0.0
		if n.isDoubleTap(req.Now) {
			bonus = 1
		}
		n.lastBackward = req.Now
		index = (math.Floor((relative-Epsilon)/beatDuration/jump) - bonus) * jump
	}

	beat := int(index)
	return Result{
		Target:         index*beatDuration + req.Offset,
		Measure:        floorDiv(beat, CoarseBeats),
		Beat:           floorMod(beat, CoarseBeats),
		BeatsInMeasure: CoarseBeats,
	}
}

func (n *Navigator) seekChart(req Request) (Result, error) {
	tl := req.Timeline
	relative := req.CurrentTime - req.Offset
	eligible := func(e chart.BeatEvent) bool {
		return req.Granularity == Beat || e.IsDownbeat()
	}

	found := -1
	if req.Direction == Forward {
		n.Reset()
		limit := relative + Epsilon
		for i := tl.SearchTime(limit); i < len(tl); i++ {
			if tl[i].Time > limit && eligible(tl[i]) {
				found = i
				break
			}
		}
	} else {
		n.lastBackward = req.Now
		limit := relative - Epsilon
		for i := tl.SearchTime(limit) - 1; i >= 0; i-- {
			if tl[i].Time < limit && eligible(tl[i]) {
				found = i
				break
			}
		}
	}
	if found < 0 {
		return Result{}, ErrNoTarget
	}

	e := tl[found]
	return Result{
		Target:         e.Time + req.Offset,
		Measure:        e.Measure,
		Beat:           e.Beat,
		BeatsInMeasure: e.BeatsInMeasure,
		FromChart:      true,
		Highlight:      &Span{Start: e.SourceStart, End: e.SourceEnd},
	}, nil
}

func (n *Navigator) isDoubleTap(now time.Time) bool {
	if n.lastBackward.IsZero() {
		return false
	}
	window := n.DoubleTapWindow
	if window <= 0 {
		window = DefaultDoubleTapWindow
	}
	return now.Sub(n.lastBackward) < window
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}

// FormatTime renders seconds as m:ss.mmm, with a leading minus for negative
// values.
func FormatTime(seconds float64) string {
	sign := ""
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	millis := int64(math.Round(seconds * 1000))
	return fmt.Sprintf("%s%d:%02d.%03d", sign, millis/60000, millis/1000%60, millis%1000)
}

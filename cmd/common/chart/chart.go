// Package chart parses beat charts: a compact notation of measures with their
// own tempo and beat count, one or more per line.
//
//	120:4, 120:4   # intro
//	90:3           # waltz bar
//
// Parsing produces a Timeline of BeatEvents terminated by a sentinel.
package chart

import (
	"errors"
	"fmt"
	"sort"
)

// ErrEmpty is returned when the text parsed cleanly but declared no measures.
var ErrEmpty = errors.New("chart is empty")

// BeatEvent is one scheduled beat boundary.
type BeatEvent struct {
	Time           float64 // seconds from chart start
	Measure        int     // zero-based measure index
	Beat           int     // zero-based beat within the measure
	Tempo          float64 // BPM of the measure, 0 for the sentinel
	BeatsInMeasure int     // declared beat count, 0 for the sentinel
	SourceStart    int     // byte offset of the declaration in the chart text
	SourceEnd      int
}

// IsSentinel reports whether e is the trailing end-of-chart marker.
func (e BeatEvent) IsSentinel() bool {
	return e.BeatsInMeasure == 0
}

// IsDownbeat reports whether e starts a measure (or is the sentinel).
func (e BeatEvent) IsDownbeat() bool {
	return e.Beat == 0
}

// Timeline is an ordered sequence of beat events ending with a sentinel.
type Timeline []BeatEvent

// Sentinel returns the trailing end marker.
func (t Timeline) Sentinel() BeatEvent {
	if len(t) == 0 {
		return BeatEvent{}
	}
	return t[len(t)-1]
}

// Duration is the chart length in seconds.
func (t Timeline) Duration() float64 {
	return t.Sentinel().Time
}

// Measures is the number of real measures in the chart.
func (t Timeline) Measures() int {
	return t.Sentinel().Measure
}

// Beats is the number of real beats, excluding the sentinel.
func (t Timeline) Beats() int {
	if len(t) == 0 {
		return 0
	}
	return len(t) - 1
}

// SearchTime returns the index of the first event with Time >= seconds.
func (t Timeline) SearchTime(seconds float64) int {
	return sort.Search(len(t), func(i int) bool {
		return t[i].Time >= seconds
	})
}

// ParseError describes the first syntax error in a chart.
type ParseError struct {
	Pos int // byte offset into the chart text
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("position %d: %s", e.Pos, e.Msg)
}

// LineCol converts Pos into a 1-based line number and the byte offset of the
// error within that line.
func (e *ParseError) LineCol(text string) (line int, col int) {
	line = 1
	lineStart := 0
	for i := 0; i < e.Pos && i < len(text); i++ {
		if text[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	return line, e.Pos - lineStart
}

// Package session holds the navigation state of one interactive user: the
// current chart, tempo and offset inputs, the navigator's repeat detection and
// the marker.
package session

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gigurra/beatseek/cmd/common/chart"
	"github.com/gigurra/beatseek/cmd/common/nav"
	"github.com/gigurra/beatseek/cmd/common/store"
)

// ErrNoMarker is returned by Recall before any marker was set.
var ErrNoMarker = errors.New("no marker set")

type Session struct {
	chartText string
	timeline  chart.Timeline

	tempoRaw  string
	tempo     float64
	offsetRaw string
	offset    float64

	navigator *nav.Navigator
	marker    nav.Marker
}

// New returns a session with no chart, tempo or offset.
func New(doubleTapWindow time.Duration) *Session {
	return &Session{
		tempo:     math.NaN(),
		offset:    math.NaN(),
		navigator: nav.NewNavigator(doubleTapWindow),
	}
}

// ParseNumber parses user input as a finite number. Empty or invalid input
// gives NaN.
func ParseNumber(raw string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}

// SetChart replaces the chart text and re-parses it. On ErrEmpty or a parse
// error the timeline is cleared and navigation falls back to constant tempo.
func (s *Session) SetChart(text string) error {
	s.chartText = text
	tl, err := chart.Parse(text)
	if err != nil {
		s.timeline = nil
		return err
	}
	s.timeline = tl
	return nil
}

func (s *Session) ChartText() string {
	return s.chartText
}

// Timeline returns the active timeline, nil when no chart is in use.
func (s *Session) Timeline() chart.Timeline {
	return s.timeline
}

// SetTempo stores raw tempo input. Values that are not a positive number
// leave the tempo unset.
func (s *Session) SetTempo(raw string) {
	s.tempoRaw = raw
	s.tempo = ParseNumber(raw)
	if s.tempo <= 0 {
		s.tempo = math.NaN()
	}
}

func (s *Session) Tempo() float64 {
	return s.tempo
}

// SetOffset stores raw offset input.
func (s *Session) SetOffset(raw string) {
	s.offsetRaw = raw
	s.offset = ParseNumber(raw)
}

func (s *Session) Offset() float64 {
	return s.offset
}

// NudgeOffset shifts the offset by delta seconds, treating an unset offset as 0.
func (s *Session) NudgeOffset(delta float64) {
	base := s.offset
	if math.IsNaN(base) {
		base = 0
	}
	s.SetOffset(strconv.FormatFloat(math.Round((base+delta)*1000)/1000, 'f', -1, 64))
}

// Seek computes the next target from currentTime.
func (s *Session) Seek(currentTime float64, dir nav.Direction, g nav.Granularity, now time.Time) (nav.Result, error) {
	return s.navigator.Seek(nav.Request{
		CurrentTime: currentTime,
		Offset:      s.offset,
		Tempo:       s.tempo,
		Direction:   dir,
		Granularity: g,
		Timeline:    s.timeline,
		Now:         now,
	})
}

// Locate returns the beat containing currentTime.
func (s *Session) Locate(currentTime float64) (nav.Position, bool) {
	return nav.Locate(currentTime, s.offset, s.tempo, s.timeline)
}

// Mark remembers t, replacing any earlier marker.
func (s *Session) Mark(t float64) {
	s.marker.Set(t)
}

// Recall returns the marked time. The caller pauses the player alongside the seek.
func (s *Session) Recall() (float64, error) {
	t, ok := s.marker.Recall()
	if !ok {
		return 0, ErrNoMarker
	}
	return t, nil
}

// Settings returns the raw inputs for persisting.
func (s *Session) Settings() store.Settings {
	return store.Settings{Tempo: s.tempoRaw, Offset: s.offsetRaw, Chart: s.chartText}
}

// Apply restores persisted inputs. The returned error is the chart outcome.
func (s *Session) Apply(v store.Settings) error {
	s.SetTempo(v.Tempo)
	s.SetOffset(v.Offset)
	return s.SetChart(v.Chart)
}

// Describe turns an outcome of this session into a one-line status message.
func (s *Session) Describe(err error) string {
	var perr *chart.ParseError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &perr):
		line, col := perr.LineCol(s.chartText)
		return fmt.Sprintf("chart error at line %d, column %d: %s", line, col+1, perr.Msg)
	case errors.Is(err, chart.ErrEmpty):
		return "chart is empty, using constant tempo"
	case errors.Is(err, nav.ErrMissingOffset):
		return "set an offset first"
	case errors.Is(err, nav.ErrMissingTempo):
		return "set a BPM or a chart first"
	case errors.Is(err, nav.ErrNoTarget):
		return "no beat in that direction"
	case errors.Is(err, ErrNoMarker):
		return "no marker set"
	default:
		return err.Error()
	}
}

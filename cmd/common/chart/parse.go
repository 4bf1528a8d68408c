package chart

import (
	"fmt"
	"strconv"
	"strings"
)

// maxBeatsPerMeasure bounds a single declaration so a typo like "120:40000000"
// cannot allocate millions of events.
const maxBeatsPerMeasure = 4096

// Parse converts chart text into a Timeline.
//
// It returns ErrEmpty when the text holds no measures, and a *ParseError for
// the first syntax error encountered. Positions in both the error and the
// produced events are byte offsets into text.
func Parse(text string) (Timeline, error) {
	p := &parser{text: text}
	for p.pos <= len(text) {
		lineEnd := strings.IndexByte(text[p.pos:], '\n')
		if lineEnd < 0 {
			lineEnd = len(text)
		} else {
			lineEnd += p.pos
		}
		p.end = lineEnd
		if hash := strings.IndexByte(text[p.pos:lineEnd], '#'); hash >= 0 {
			p.end = p.pos + hash
		}
		if err := p.line(); err != nil {
			return nil, err
		}
		p.pos = lineEnd + 1
	}

	if len(p.events) == 0 {
		return nil, ErrEmpty
	}

	p.events = append(p.events, BeatEvent{
		Time:        p.time,
		Measure:     p.measure,
		SourceStart: len(text),
		SourceEnd:   len(text),
	})
	return p.events, nil
}

type parser struct {
	text string
	pos  int // absolute position in text
	end  int // end of the current line, comments excluded

	time    float64
	measure int
	events  Timeline
}

func (p *parser) line() error {
	p.skipSpace()
	if p.pos >= p.end {
		return nil
	}
	for {
		p.skipSpace()
		start := p.pos
		tempo, err := p.tempo()
		if err != nil {
			return err
		}

		p.skipSpace()
		if !p.accept(':') {
			return p.errorf("expected ':' after tempo")
		}

		p.skipSpace()
		beats, err := p.beatCount()
		if err != nil {
			return err
		}

		p.emit(tempo, beats, start, p.pos)

		p.skipSpace()
		if p.pos >= p.end {
			return nil
		}
		if !p.accept(',') {
			return p.errorf("expected ',' or end of line after measure")
		}
	}
}

func (p *parser) emit(tempo float64, beats int, start, end int) {
	beatDuration := 60 / tempo
	for i := 0; i < beats; i++ {
		p.events = append(p.events, BeatEvent{
			Time:           p.time,
			Measure:        p.measure,
			Beat:           i,
			Tempo:          tempo,
			BeatsInMeasure: beats,
			SourceStart:    start,
			SourceEnd:      end,
		})
		p.time += beatDuration
	}
	p.measure++
}

func (p *parser) tempo() (float64, error) {
	start := p.pos
	digits := p.digits()
	if p.accept('.') {
		digits += p.digits()
	}
	if digits == 0 {
		p.pos = start
		return 0, p.errorf("expected tempo")
	}
	tempo, err := strconv.ParseFloat(p.text[start:p.pos], 64)
	if err != nil {
		return 0, &ParseError{Pos: start, Msg: fmt.Sprintf("invalid tempo: %v", err)}
	}
	if tempo <= 0 {
		return 0, &ParseError{Pos: start, Msg: "tempo must be greater than zero"}
	}
	return tempo, nil
}

func (p *parser) beatCount() (int, error) {
	start := p.pos
	if p.digits() == 0 {
		return 0, p.errorf("expected beat count after ':'")
	}
	beats, err := strconv.Atoi(p.text[start:p.pos])
	if err != nil || beats > maxBeatsPerMeasure {
		return 0, &ParseError{Pos: start, Msg: fmt.Sprintf("beat count must be at most %d", maxBeatsPerMeasure)}
	}
	if beats < 1 {
		return 0, &ParseError{Pos: start, Msg: "beat count must be at least 1"}
	}
	return beats, nil
}

func (p *parser) digits() int {
	n := 0
	for p.pos < p.end && p.text[p.pos] >= '0' && p.text[p.pos] <= '9' {
		p.pos++
		n++
	}
	return n
}

func (p *parser) accept(c byte) bool {
	if p.pos < p.end && p.text[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) skipSpace() {
	for p.pos < p.end {
		switch p.text[p.pos] {
		case ' ', '\t', '\r', '\v', '\f':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) errorf(format string, args ...any) *ParseError {
	return &ParseError{Pos: p.pos, Msg: fmt.Sprintf(format, args...)}
}

package play

import "time"

// Player is the media transport the navigator drives. It only has to report
// where it is and accept a new position.
type Player interface {
	CurrentTime() float64
	SeekTo(seconds float64)
	Playing() bool
	Play()
	Pause()
}

// clockPlayer is a virtual transport that advances with the wall clock. It
// stands in for a real media player so charts can be rehearsed in a terminal.
type clockPlayer struct {
	now    func() time.Time
	length float64 // 0 means unbounded

	position  float64 // position when last paused or seeked
	startedAt time.Time
	playing   bool
}

func newClockPlayer(now func() time.Time, start, length float64) *clockPlayer {
	p := &clockPlayer{now: now, length: length}
	p.position = p.clamp(start)
	return p
}

func (p *clockPlayer) CurrentTime() float64 {
	if !p.playing {
		return p.position
	}
	t := p.clamp(p.position + p.now().Sub(p.startedAt).Seconds())
	if p.length > 0 && t >= p.length {
		p.position = p.length
		p.playing = false
	}
	return t
}

func (p *clockPlayer) SeekTo(seconds float64) {
	p.position = p.clamp(seconds)
	p.startedAt = p.now()
}

func (p *clockPlayer) Playing() bool {
	return p.playing
}

func (p *clockPlayer) Play() {
	if p.playing {
		return
	}
	if p.length > 0 && p.position >= p.length {
		p.position = 0
	}
	p.startedAt = p.now()
	p.playing = true
}

func (p *clockPlayer) Pause() {
	if !p.playing {
		return
	}
	p.position = p.CurrentTime()
	p.playing = false
}

func (p *clockPlayer) Length() float64 {
	return p.length
}

func (p *clockPlayer) clamp(t float64) float64 {
	if t < 0 {
		return 0
	}
	if p.length > 0 && t > p.length {
		return p.length
	}
	return t
}

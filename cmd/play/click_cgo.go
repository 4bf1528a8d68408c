//go:build (linux && cgo) || windows || darwin

package play

import (
	"math"
	"sync"

	"github.com/gigurra/beatseek/cmd/common/config"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

const sampleRate = 44100

var speakerInit struct {
	once sync.Once
	err  error
}

type speakerClicker struct {
	cfg *config.MetronomeConfig
}

func newClicker(cfg *config.MetronomeConfig) (clicker, error) {
	speakerInit.once.Do(func() {
		speakerInit.err = speaker.Init(beep.SampleRate(sampleRate), sampleRate/100)
	})
	if speakerInit.err != nil {
		return nil, speakerInit.err
	}
	return &speakerClicker{cfg: cfg}, nil
}

func (c *speakerClicker) Click(accent bool) {
	freq := c.cfg.Frequency
	if accent {
		freq = c.cfg.AccentFrequency
	}
	speaker.Play(&toneStreamer{
		samples:   int(float64(sampleRate) * c.cfg.ClickDuration().Seconds()),
		frequency: freq,
	})
}

func (c *speakerClicker) Close() {
	speaker.Clear()
}

type toneStreamer struct {
	samples   int
	position  int
	frequency float64
}

func (t *toneStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if t.position >= t.samples {
			return i, i > 0
		}

		phase := 2 * math.Pi * t.frequency * float64(t.position) / float64(sampleRate)
		// Linear decay keeps the click short and free of pops.
		envelope := 1 - float64(t.position)/float64(t.samples)
		value := math.Sin(phase) * envelope * 0.5

		samples[i][0] = value
		samples[i][1] = value
		t.position++
	}
	return len(samples), true
}

func (t *toneStreamer) Err() error {
	return nil
}

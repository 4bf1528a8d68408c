//go:build linux && !cgo

package play

import (
	"github.com/gen2brain/beeep"
	"github.com/gigurra/beatseek/cmd/common/config"
)

// Without cgo there is no audio device access, so clicks go through the
// console beeper (or the terminal bell when that is unavailable).
type beepClicker struct {
	cfg *config.MetronomeConfig
}

func newClicker(cfg *config.MetronomeConfig) (clicker, error) {
	return &beepClicker{cfg: cfg}, nil
}

func (c *beepClicker) Click(accent bool) {
	freq := c.cfg.Frequency
	if accent {
		freq = c.cfg.AccentFrequency
	}
	go func() {
		_ = beeep.Beep(freq, c.cfg.ClickMillis)
	}()
}

func (c *beepClicker) Close() {}

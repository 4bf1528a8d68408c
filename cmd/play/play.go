package play

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gigurra/beatseek/cmd/common"
	"github.com/gigurra/beatseek/cmd/common/chart"
	"github.com/gigurra/beatseek/cmd/common/config"
	"github.com/gigurra/beatseek/cmd/common/session"
	"github.com/gigurra/beatseek/cmd/common/store"
	"github.com/gigurra/beatseek/cmd/common/watch"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type Params struct {
	Video  string  `short:"v" optional:"true" help:"Video id whose saved settings are loaded and updated. A new id is created when omitted."`
	BPM    string  `short:"b" optional:"true" help:"Constant tempo, overrides the saved one."`
	Offset string  `short:"o" optional:"true" help:"Seconds between the media start and beat zero, overrides the saved one."`
	Chart  string  `short:"c" optional:"true" help:"Chart file, re-read whenever it changes."`
	Length float64 `short:"l" optional:"true" default:"0" help:"Media length in seconds (0 for no end)."`
	Start  float64 `short:"s" optional:"true" default:"0" help:"Start position in seconds."`
	Click  bool    `short:"k" help:"Click on every beat while playing."`
	NoSave bool    `help:"Do not save settings on exit."`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:   "play",
		Short: "Rehearse beat-aligned seeking on a virtual playhead",
		Long: `Open an interactive player whose playhead runs on the wall clock.

Keys:
  ]  [    next / previous bar
  }  {    next / previous beat (press { twice quickly to skip back further)
  m       set marker
  r       return to marker and pause
  space   play / pause
  +  -    nudge offset by 10ms
  q       quit

Settings (tempo, offset, chart text) are saved per video id on exit.`,
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if err := runPlay(params, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "play: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runPlay(params *Params, stdout io.Writer) error {
	if params.Chart == "-" {
		return fmt.Errorf("the chart must be a file, stdin is used for keys")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	videos, err := store.Open(store.Path())
	if err != nil {
		return err
	}

	id := params.Video
	if id == "" {
		id = uuid.NewString()
	}
	s := session.New(cfg.Navigation.DoubleTapWindow())
	status, err := setup(s, videos, id, params)
	if err != nil {
		return err
	}

	m := newModel(s, newClockPlayer(time.Now, params.Start, params.Length), params.Chart)
	m.status = status
	if params.Click || cfg.Metronome.Enabled {
		c, err := newClicker(cfg.Metronome)
		if err != nil {
			m.status = fmt.Sprintf("metronome unavailable: %v", err)
		} else {
			m.clicker = c
			defer c.Close()
		}
	}

	p := tea.NewProgram(m, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if params.Chart != "" {
		go func() {
			err := watch.File(ctx, params.Chart, func() { p.Send(chartChangedMsg{}) })
			if err != nil {
				p.Send(statusMsg(err.Error()))
			}
		}()
	}

	if _, err := p.Run(); err != nil {
		return err
	}

	if params.NoSave {
		return nil
	}
	videos.Put(id, s.Settings())
	if err := videos.Save(); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	fmt.Fprintf(stdout, "saved settings for %s\n", id)
	return nil
}

// setup loads the saved settings for id into s and applies the overrides in
// params on top. It returns the initial status line.
func setup(s *session.Session, videos *store.Store, id string, params *Params) (string, error) {
	saved, _ := videos.Get(id)
	if params.BPM != "" {
		saved.Tempo = params.BPM
	}
	if params.Offset != "" {
		saved.Offset = params.Offset
	}
	if params.Chart != "" {
		text, err := os.ReadFile(params.Chart)
		if err != nil {
			return "", err
		}
		saved.Chart = string(text)
	}

	err := s.Apply(saved)
	if err != nil && !errors.Is(err, chart.ErrEmpty) {
		return s.Describe(err), nil
	}
	return "video " + id, nil
}

package seek

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/atotto/clipboard"
	"github.com/gigurra/beatseek/cmd/common"
	"github.com/gigurra/beatseek/cmd/common/chart"
	"github.com/gigurra/beatseek/cmd/common/config"
	"github.com/gigurra/beatseek/cmd/common/nav"
	"github.com/gigurra/beatseek/cmd/common/session"
	"github.com/spf13/cobra"
)

var clipboardWriteAll = clipboard.WriteAll

type Params struct {
	Time   float64 `short:"t" required:"true" help:"Current playback position in seconds."`
	Offset string  `short:"o" optional:"true" help:"Seconds between the media start and beat zero."`
	BPM    string  `short:"b" optional:"true" help:"Constant tempo, used when no chart is given."`
	Chart  string  `short:"c" optional:"true" help:"Chart file with per-measure tempos."`
	Back   bool    `short:"B" help:"Seek backward instead of forward."`
	Fine   bool    `short:"f" help:"Step one beat instead of one measure."`
	Copy   bool    `short:"C" help:"Copy the target time to the clipboard."`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:   "seek",
		Short: "Compute the next beat-aligned seek target",
		Long: `Compute where a beat-aligned seek from the given position lands.

Without a chart, --bpm gives a constant tempo and a measure is 4 beats.
With a chart, measures follow the chart and --bpm is not needed.

Examples:
  beatseek seek -t 73.2 -o 0.48 -b 128
  beatseek seek -t 73.2 -o 0.48 -c song.chart --back --fine`,
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if err := runSeek(params, os.Stdout, os.Stderr); err != nil {
				fmt.Fprintf(os.Stderr, "seek: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runSeek(params *Params, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	s := session.New(cfg.Navigation.DoubleTapWindow())
	s.SetTempo(params.BPM)
	s.SetOffset(params.Offset)

	if params.Chart != "" {
		text, err := os.ReadFile(params.Chart)
		if err != nil {
			return err
		}
		if err := s.SetChart(string(text)); err != nil {
			if !errors.Is(err, chart.ErrEmpty) {
				return fmt.Errorf("%s: %s", params.Chart, s.Describe(err))
			}
			fmt.Fprintf(stderr, "seek: %s\n", s.Describe(err))
		}
	}

	dir := nav.Forward
	if params.Back {
		dir = nav.Backward
	}
	granularity := nav.Measure
	if params.Fine {
		granularity = nav.Beat
	}

	res, err := s.Seek(params.Time, dir, granularity, time.Now())
	if errors.Is(err, nav.ErrNoTarget) {
		fmt.Fprintln(stdout, s.Describe(err))
		return nil
	}
	if err != nil {
		return errors.New(s.Describe(err))
	}

	target := strconv.FormatFloat(res.Target, 'f', 3, 64)
	fmt.Fprintf(stdout, "%s\t%s\n", target, res.Label())
	if res.Highlight != nil && res.Highlight.End > res.Highlight.Start {
		fmt.Fprintf(stdout, "\tfrom %q\n", s.ChartText()[res.Highlight.Start:res.Highlight.End])
	}

	if params.Copy {
		if err := clipboardWriteAll(target); err != nil {
			return fmt.Errorf("failed to write to clipboard: %w", err)
		}
	}
	return nil
}

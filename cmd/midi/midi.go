package midi

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/beatseek/cmd/common"
	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	defaultBPM     = 120.0
	measuresPerRow = 4
)

type Params struct {
	File   string `pos:"true" help:"Standard MIDI file to read the tempo map from."`
	Output string `short:"o" optional:"true" help:"Write the chart to this file instead of standard output."`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:   "midi <file>",
		Short: "Convert a MIDI tempo map into a beat chart",
		Long: `Read tempo and time signature events from a Standard MIDI File and
write one chart measure per bar.

The beat follows the time signature denominator, so 6/8 at 60 quarter-note BPM
becomes 120:6. Tempo changes take effect from the next bar line.`,
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if err := run(params); err != nil {
				fmt.Fprintf(os.Stderr, "midi: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func run(params *Params) error {
	s, err := smf.ReadFile(params.File)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", params.File, err)
	}
	text, err := ChartFromSMF(s)
	if err != nil {
		return err
	}
	if params.Output == "" {
		fmt.Print(text)
		return nil
	}
	return os.WriteFile(params.Output, []byte(text), 0644)
}

type tempoChange struct {
	tick uint64
	bpm  float64 // quarter notes per minute
}

type meterChange struct {
	tick       uint64
	num, denom uint8
}

// ChartFromSMF writes chart text for every bar of s.
func ChartFromSMF(s *smf.SMF) (string, error) {
	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return "", fmt.Errorf("unsupported time format, expected MetricTicks")
	}
	resolution := uint64(ticks)

	var tempos []tempoChange
	var meters []meterChange
	var end uint64
	for _, track := range s.Tracks {
		var tick uint64
		for _, ev := range track {
			tick += uint64(ev.Delta)
			var bpm float64
			var num, denom uint8
			if ev.Message.GetMetaTempo(&bpm) {
				tempos = append(tempos, tempoChange{tick: tick, bpm: bpm})
			}
			if ev.Message.GetMetaMeter(&num, &denom) {
				meters = append(meters, meterChange{tick: tick, num: num, denom: denom})
			}
		}
		end = max(end, tick)
	}
	sort.SliceStable(tempos, func(i, j int) bool { return tempos[i].tick < tempos[j].tick })
	sort.SliceStable(meters, func(i, j int) bool { return meters[i].tick < meters[j].tick })

	var measures []string
	for tick := uint64(0); tick < end; {
		num, denom := meterAt(meters, tick)
		if num == 0 || denom == 0 {
			return "", fmt.Errorf("invalid time signature %d/%d at tick %d", num, denom, tick)
		}
		barTicks := uint64(num) * resolution * 4 / uint64(denom)
		if barTicks == 0 {
			return "", fmt.Errorf("time signature %d/%d is too short at this resolution", num, denom)
		}
		beatBPM := tempoAt(tempos, tick) * float64(denom) / 4
		measures = append(measures, fmt.Sprintf("%s:%d", formatBPM(beatBPM), num))
		tick += barTicks
	}

	if len(measures) == 0 {
		return "", fmt.Errorf("file has no bars")
	}

	var b strings.Builder
	for i := 0; i < len(measures); i += measuresPerRow {
		row := measures[i:min(i+measuresPerRow, len(measures))]
		fmt.Fprintf(&b, "%s  # bar %d\n", strings.Join(row, ", "), i+1)
	}
	return b.String(), nil
}

func tempoAt(tempos []tempoChange, tick uint64) float64 {
	bpm := defaultBPM
	for _, t := range tempos {
		if t.tick > tick {
			break
		}
		bpm = t.bpm
	}
	return bpm
}

func meterAt(meters []meterChange, tick uint64) (uint8, uint8) {
	num, denom := uint8(4), uint8(4)
	for _, m := range meters {
		if m.tick > tick {
			break
		}
		num, denom = m.num, m.denom
	}
	return num, denom
}

func formatBPM(bpm float64) string {
	return strconv.FormatFloat(math.Round(bpm*1000)/1000, 'f', -1, 64)
}

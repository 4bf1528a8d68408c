package parse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/charmbracelet/lipgloss"
	"github.com/gigurra/beatseek/cmd/common"
	"github.com/gigurra/beatseek/cmd/common/chart"
	"github.com/gigurra/beatseek/cmd/common/nav"
	"github.com/gigurra/beatseek/cmd/common/watch"
	"github.com/hako/durafmt"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

// errInvalidChart is returned after a parse error has been rendered.
var errInvalidChart = errors.New("invalid chart")

type Params struct {
	File    string `pos:"true" optional:"true" help:"Chart file. If none specified or -, read from standard input." default:"-"`
	Summary bool   `short:"s" help:"Only print totals, not every beat."`
	Bars    bool   `short:"m" help:"List one row per measure instead of per beat."`
	Watch   bool   `short:"w" help:"Re-parse whenever the chart file changes."`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:   "parse [file]",
		Short: "Parse a beat chart and print its timeline",
		Long: `Parse a beat chart and print the resulting beat timeline.

A chart is a list of measures, each written as tempo:beats. Measures are
separated by commas or newlines, and # starts a comment.

Examples:
  beatseek parse song.chart
  echo "120:4, 90:3 # fill" | beatseek parse
  beatseek parse -m -w song.chart`,
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if params.Watch {
				if err := runWatch(params, os.Stdout); err != nil {
					fmt.Fprintf(os.Stderr, "parse: %v\n", err)
					os.Exit(1)
				}
				return
			}
			if err := runParse(params, os.Stdin, os.Stdout); err != nil {
				if !errors.Is(err, errInvalidChart) {
					fmt.Fprintf(os.Stderr, "parse: %v\n", err)
				}
				os.Exit(1)
			}
		},
	}.ToCobra()
}

var terminalWidth = func() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 120
	}
	return width
}

func runParse(params *Params, stdin io.Reader, stdout io.Writer) error {
	text, err := common.ReadSource(params.File, stdin)
	if err != nil {
		return err
	}
	return report(text, params, stdout)
}

func runWatch(params *Params, stdout io.Writer) error {
	if params.File == "" || params.File == "-" {
		return fmt.Errorf("--watch needs a chart file")
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	refresh := func() {
		text, err := os.ReadFile(params.File)
		if err != nil {
			fmt.Fprintf(stdout, "%s\n", errorStyle.Render(err.Error()))
			return
		}
		fmt.Fprintf(stdout, "── %s %s\n", params.File, time.Now().Format("15:04:05"))
		_ = report(string(text), params, stdout)
	}

	refresh()
	return watch.File(ctx, params.File, refresh)
}

func report(text string, params *Params, stdout io.Writer) error {
	tl, err := chart.Parse(text)
	var perr *chart.ParseError
	switch {
	case errors.Is(err, chart.ErrEmpty):
		fmt.Fprintln(stdout, "chart is empty")
		return nil
	case errors.As(err, &perr):
		fmt.Fprint(stdout, renderParseError(text, perr))
		return errInvalidChart
	case err != nil:
		return err
	}

	if !params.Summary {
		if params.Bars {
			renderMeasures(stdout, text, tl)
		} else {
			renderBeats(stdout, text, tl)
		}
	}
	fmt.Fprintln(stdout, summarize(tl))
	return nil
}

// renderParseError prints the offending line with a caret under the error.
func renderParseError(text string, perr *chart.ParseError) string {
	line, col := perr.LineCol(text)
	lineStart := perr.Pos - col
	lineEnd := strings.IndexByte(text[lineStart:], '\n')
	if lineEnd < 0 {
		lineEnd = len(text)
	} else {
		lineEnd += lineStart
	}
	source := strings.TrimRight(text[lineStart:lineEnd], "\r")

	var caret strings.Builder
	for _, r := range text[lineStart:perr.Pos] {
		if r == '\t' {
			caret.WriteRune('\t')
			continue
		}
		caret.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	caret.WriteRune('^')

	prefix := fmt.Sprintf("%d | ", line)
	pad := strings.Repeat(" ", len(prefix))
	return fmt.Sprintf("%s%s\n%s%s\n%s\n",
		prefix, source,
		pad, caret.String(),
		errorStyle.Render(fmt.Sprintf("line %d, column %d: %s", line, col+1, perr.Msg)))
}

func newTable(stdout io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(stdout)
	t.SetStyle(table.StyleLight)
	t.SetAllowedRowLength(terminalWidth())
	return t
}

func renderBeats(stdout io.Writer, text string, tl chart.Timeline) {
	t := newTable(stdout)
	t.AppendHeader(table.Row{"#", "Bar", "Beat", "Time", "BPM", "Source"})
	t.AppendRows(lo.Map(tl, func(e chart.BeatEvent, i int) table.Row {
		if e.IsSentinel() {
			return table.Row{i, "end", "", nav.FormatTime(e.Time), "", ""}
		}
		return table.Row{
			i,
			e.Measure + 1,
			fmt.Sprintf("%d/%d", e.Beat+1, e.BeatsInMeasure),
			nav.FormatTime(e.Time),
			formatTempo(e.Tempo),
			text[e.SourceStart:e.SourceEnd],
		}
	}))
	t.Render()
}

func renderMeasures(stdout io.Writer, text string, tl chart.Timeline) {
	t := newTable(stdout)
	t.AppendHeader(table.Row{"Bar", "Start", "Beats", "BPM", "Length", "Source"})
	downbeats := lo.Filter(tl, func(e chart.BeatEvent, _ int) bool {
		return e.IsDownbeat() && !e.IsSentinel()
	})
	for i, e := range downbeats {
		end := tl.Duration()
		if i+1 < len(downbeats) {
			end = downbeats[i+1].Time
		}
		t.AppendRow(table.Row{
			e.Measure + 1,
			nav.FormatTime(e.Time),
			e.BeatsInMeasure,
			formatTempo(e.Tempo),
			fmt.Sprintf("%.3fs", end-e.Time),
			text[e.SourceStart:e.SourceEnd],
		})
	}
	t.Render()
}

func summarize(tl chart.Timeline) string {
	length := time.Duration(tl.Duration() * float64(time.Second)).Round(time.Millisecond)
	return fmt.Sprintf("%d bars, %d beats, %s", tl.Measures(), tl.Beats(),
		durafmt.Parse(length).LimitFirstN(2).String())
}

func formatTempo(bpm float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.3f", bpm), "0"), ".")
}

package settings

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/beatseek/cmd/common"
	"github.com/gigurra/beatseek/cmd/common/chart"
	"github.com/gigurra/beatseek/cmd/common/store"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func Cmd() *cobra.Command {
	cmd := boa.CmdT[boa.NoParams]{
		Use:   "settings",
		Short: "Manage saved per-video tempo, offset and chart",
		SubCmds: []*cobra.Command{
			ListCmd(),
			ShowCmd(),
			SetCmd(),
			DeleteCmd(),
		},
	}.ToCobra()
	cmd.Aliases = []string{"videos"}
	return cmd
}

type ListParams struct{}

func ListCmd() *cobra.Command {
	return boa.CmdT[ListParams]{
		Use:         "list",
		Aliases:     []string{"ls"},
		Short:       "List saved videos",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *ListParams, cmd *cobra.Command, args []string) {
			exit(RunList(store.Path(), os.Stdout))
		},
	}.ToCobra()
}

type ShowParams struct {
	Video string `pos:"true" help:"Video id."`
}

func ShowCmd() *cobra.Command {
	return boa.CmdT[ShowParams]{
		Use:         "show",
		Short:       "Show the saved settings of a video",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *ShowParams, cmd *cobra.Command, args []string) {
			exit(RunShow(store.Path(), params, os.Stdout))
		},
	}.ToCobra()
}

type SetParams struct {
	Video  string `pos:"true" help:"Video id."`
	BPM    string `short:"b" optional:"true" help:"Tempo to save."`
	Offset string `short:"o" optional:"true" help:"Offset to save."`
	Chart  string `short:"c" optional:"true" help:"Chart file whose text is saved, or - for stdin."`
}

func SetCmd() *cobra.Command {
	return boa.CmdT[SetParams]{
		Use:         "set",
		Short:       "Save settings for a video",
		Long:        "Save settings for a video. Only the given values are changed.",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *SetParams, cmd *cobra.Command, args []string) {
			exit(RunSet(store.Path(), params, os.Stdin, os.Stdout))
		},
	}.ToCobra()
}

type DeleteParams struct {
	Video string `pos:"true" help:"Video id."`
}

func DeleteCmd() *cobra.Command {
	return boa.CmdT[DeleteParams]{
		Use:         "delete",
		Aliases:     []string{"rm"},
		Short:       "Forget the settings of a video",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *DeleteParams, cmd *cobra.Command, args []string) {
			exit(RunDelete(store.Path(), params, os.Stdout))
		},
	}.ToCobra()
}

func exit(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "settings: %v\n", err)
		os.Exit(1)
	}
}

func RunList(path string, stdout io.Writer) error {
	s, err := store.Open(path)
	if err != nil {
		return err
	}
	if len(s.Videos) == 0 {
		fmt.Fprintln(stdout, "no saved videos")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Video", "BPM", "Offset", "Chart"})
	for _, id := range s.IDs() {
		v, _ := s.Get(id)
		t.AppendRow(table.Row{id, v.Tempo, v.Offset, describeChart(v.Chart)})
	}
	t.Render()
	return nil
}

func RunShow(path string, params *ShowParams, stdout io.Writer) error {
	s, err := store.Open(path)
	if err != nil {
		return err
	}
	v, ok := s.Get(params.Video)
	if !ok {
		return fmt.Errorf("no settings saved for %s", params.Video)
	}
	fmt.Fprintf(stdout, "bpm:    %s\n", v.Tempo)
	fmt.Fprintf(stdout, "offset: %s\n", v.Offset)
	fmt.Fprintf(stdout, "chart:  %s\n", describeChart(v.Chart))
	if strings.TrimSpace(v.Chart) != "" {
		fmt.Fprintln(stdout, "---")
		fmt.Fprint(stdout, v.Chart)
		if !strings.HasSuffix(v.Chart, "\n") {
			fmt.Fprintln(stdout)
		}
	}
	return nil
}

func RunSet(path string, params *SetParams, stdin io.Reader, stdout io.Writer) error {
	s, err := store.Open(path)
	if err != nil {
		return err
	}
	v, _ := s.Get(params.Video)
	if params.BPM != "" {
		v.Tempo = params.BPM
	}
	if params.Offset != "" {
		v.Offset = params.Offset
	}
	if params.Chart != "" {
		text, err := common.ReadSource(params.Chart, stdin)
		if err != nil {
			return err
		}
		v.Chart = text
	}
	s.Put(params.Video, v)
	if err := s.Save(); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	fmt.Fprintf(stdout, "saved %s (chart: %s)\n", params.Video, describeChart(v.Chart))
	return nil
}

func RunDelete(path string, params *DeleteParams, stdout io.Writer) error {
	s, err := store.Open(path)
	if err != nil {
		return err
	}
	if !s.Delete(params.Video) {
		return fmt.Errorf("no settings saved for %s", params.Video)
	}
	if err := s.Save(); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	fmt.Fprintf(stdout, "deleted %s\n", params.Video)
	return nil
}

func describeChart(text string) string {
	tl, err := chart.Parse(text)
	var perr *chart.ParseError
	switch {
	case errors.Is(err, chart.ErrEmpty):
		return "none"
	case errors.As(err, &perr):
		return "invalid, " + perr.Error()
	case err != nil:
		return err.Error()
	}
	return fmt.Sprintf("%d bars", tl.Measures())
}

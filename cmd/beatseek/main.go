package main

import (
	"runtime/debug"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/beatseek/cmd/midi"
	"github.com/gigurra/beatseek/cmd/parse"
	"github.com/gigurra/beatseek/cmd/play"
	"github.com/gigurra/beatseek/cmd/seek"
	"github.com/gigurra/beatseek/cmd/settings"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Command group IDs
const (
	groupCharts   = "charts"
	groupSeeking  = "seeking"
	groupSettings = "settings"
)

// withGroup sets the GroupID on a command and returns it
func withGroup(cmd *cobra.Command, group string) *cobra.Command {
	cmd.GroupID = group
	return cmd
}

func main() {
	// A .env next to the working directory may set BEATSEEK_HOME.
	_ = godotenv.Load()

	boa.CmdT[boa.NoParams]{
		Use:     "beatseek",
		Short:   "Beat-aligned seeking for music videos",
		Version: appVersion(),
		Groups: []*cobra.Group{
			{ID: groupCharts, Title: "Charts:"},
			{ID: groupSeeking, Title: "Seeking:"},
			{ID: groupSettings, Title: "Settings:"},
		},
		SubCmds: []*cobra.Command{
			withGroup(parse.Cmd(), groupCharts),
			withGroup(midi.Cmd(), groupCharts),

			withGroup(seek.Cmd(), groupSeeking),
			withGroup(play.Cmd(), groupSeeking),

			withGroup(settings.Cmd(), groupSettings),
		},
	}.Run()
}

func appVersion() string {
	bi, hasBuilInfo := debug.ReadBuildInfo()
	if !hasBuilInfo {
		return "unknown-(no build info)"
	}

	versionString := bi.Main.Version
	if versionString == "" {
		versionString = "unknown-(no version)"
	}

	return versionString
}

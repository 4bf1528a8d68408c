package play

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gigurra/beatseek/cmd/common"
	"github.com/gigurra/beatseek/cmd/common/nav"
	"github.com/gigurra/beatseek/cmd/common/session"
	"github.com/mattn/go-runewidth"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	clockStyle     = lipgloss.NewStyle().Bold(true)
	beatStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	highlightStyle = lipgloss.NewStyle().Bold(true).Background(lipgloss.Color("238"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const (
	tickInterval  = 25 * time.Millisecond
	nudgeStep     = 0.01
	scrubStep     = 5.0
	maxChartLines = 12
)

type tickMsg time.Time

// chartChangedMsg is sent when the watched chart file has been written.
type chartChangedMsg struct{}

type statusMsg string

// clicker plays one metronome click without blocking.
type clicker interface {
	Click(accent bool)
	Close()
}

type model struct {
	session   *session.Session
	player    Player
	clicker   clicker // nil when the metronome is off
	chartPath string
	now       func() time.Time

	highlight *nav.Span
	lastBeat  int // beat index of the last tick, -1 when outside any beat
	status    string
	width     int
}

func newModel(s *session.Session, player Player, chartPath string) model {
	return model{
		session:   s,
		player:    player,
		chartPath: chartPath,
		now:       time.Now,
		lastBeat:  -1,
		width:     80,
	}
}

func (m model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tickMsg:
		m = m.follow(true)
		return m, tickCmd()

	case chartChangedMsg:
		return m.reloadChart(), nil

	case statusMsg:
		m.status = string(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "]":
		m = m.seek(nav.Forward, nav.Measure)
	case "[":
		m = m.seek(nav.Backward, nav.Measure)
	case "}":
		m = m.seek(nav.Forward, nav.Beat)
	case "{":
		m = m.seek(nav.Backward, nav.Beat)
	case "m":
		t := m.player.CurrentTime()
		m.session.Mark(t)
		m.status = "marked " + nav.FormatTime(t)
	case "r":
		t, err := m.session.Recall()
		if err != nil {
			m.status = m.session.Describe(err)
			break
		}
		m.player.SeekTo(t)
		m.player.Pause()
		m.status = "back to marker at " + nav.FormatTime(t)
		m = m.follow(false)
	case " ":
		if m.player.Playing() {
			m.player.Pause()
			m.status = "paused"
		} else {
			m.player.Play()
			m.status = "playing"
		}
	case "+", "=":
		m.session.NudgeOffset(nudgeStep)
		m.status = "offset " + formatOffset(m.session.Offset())
		m = m.follow(false)
	case "-", "_":
		m.session.NudgeOffset(-nudgeStep)
		m.status = "offset " + formatOffset(m.session.Offset())
		m = m.follow(false)
	case "right":
		m.player.SeekTo(m.player.CurrentTime() + scrubStep)
		m = m.follow(false)
	case "left":
		m.player.SeekTo(m.player.CurrentTime() - scrubStep)
		m = m.follow(false)
	}
	return m, nil
}

func (m model) seek(dir nav.Direction, g nav.Granularity) model {
	res, err := m.session.Seek(m.player.CurrentTime(), dir, g, m.now())
	if err != nil {
		m.status = m.session.Describe(err)
		return m
	}
	m.player.SeekTo(res.Target)
	m.status = res.Label()
	m = m.follow(false)
	if res.Highlight != nil {
		m.highlight = res.Highlight
	}
	return m
}

// follow moves the highlight to the beat under the playhead. With click set,
// crossing into a new beat while playing sounds the metronome.
func (m model) follow(click bool) model {
	pos, ok := m.session.Locate(m.player.CurrentTime())
	if !ok {
		m.lastBeat = -1
		return m
	}
	if pos.Highlight != nil {
		m.highlight = pos.Highlight
	}
	if click && pos.Index != m.lastBeat && m.player.Playing() && m.clicker != nil {
		m.clicker.Click(pos.Beat == 0)
	}
	m.lastBeat = pos.Index
	return m
}

func (m model) reloadChart() model {
	if m.chartPath == "" {
		return m
	}
	text, err := common.ReadSource(m.chartPath, nil)
	if err != nil {
		m.status = fmt.Sprintf("failed to read %s: %v", m.chartPath, err)
		return m
	}
	m.highlight = nil
	if err := m.session.SetChart(text); err != nil {
		m.status = m.session.Describe(err)
	} else {
		m.status = fmt.Sprintf("reloaded chart, %d bars", m.session.Timeline().Measures())
	}
	return m.follow(false)
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("beatseek"))
	b.WriteString("\n\n")

	state := "⏸"
	if m.player.Playing() {
		state = "▶"
	}
	t := m.player.CurrentTime()
	b.WriteString(fmt.Sprintf("%s %s", state, clockStyle.Render(nav.FormatTime(t))))
	if pos, ok := m.session.Locate(t); ok {
		b.WriteString("   ")
		b.WriteString(beatStyle.Render(fmt.Sprintf("bar %d beat %d/%d", pos.Measure+1, pos.Beat+1, pos.BeatsInMeasure)))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.describeInputs()))
	b.WriteString("\n\n")

	if chartView := renderChart(m.session.ChartText(), m.highlight, m.width); chartView != "" {
		b.WriteString(chartView)
		b.WriteString("\n\n")
	}

	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("] [ bar  } { beat  m mark  r recall  space play/pause  + - offset  ← → scrub  q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m model) describeInputs() string {
	var parts []string
	if tempo := m.session.Tempo(); !math.IsNaN(tempo) {
		parts = append(parts, fmt.Sprintf("bpm %g", tempo))
	}
	parts = append(parts, "offset "+formatOffset(m.session.Offset()))
	if tl := m.session.Timeline(); tl != nil {
		parts = append(parts, fmt.Sprintf("chart %d bars", tl.Measures()))
	} else {
		parts = append(parts, "no chart")
	}
	return strings.Join(parts, "  ")
}

func formatOffset(offset float64) string {
	if math.IsNaN(offset) {
		return "unset"
	}
	return fmt.Sprintf("%.3fs", offset)
}

// renderChart shows the chart text around the highlighted span, one terminal
// row per source line, truncated to width.
func renderChart(text string, span *nav.Span, width int) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")

	// Byte offset of each line start, to map the span onto lines.
	starts := make([]int, len(lines))
	pos := 0
	focus := 0
	for i, line := range lines {
		starts[i] = pos
		if span != nil && span.Start >= pos && span.Start <= pos+len(line) {
			focus = i
		}
		pos += len(line) + 1
	}

	first := 0
	if len(lines) > maxChartLines {
		first = min(max(focus-maxChartLines/2, 0), len(lines)-maxChartLines)
	}
	last := min(first+maxChartLines, len(lines))

	rows := make([]string, 0, last-first)
	for i := first; i < last; i++ {
		rows = append(rows, renderLine(lines[i], starts[i], span, width))
	}
	return strings.Join(rows, "\n")
}

func renderLine(line string, start int, span *nav.Span, width int) string {
	line = strings.ReplaceAll(line, "\t", " ")
	visible, shown := line, len(line)
	if width > 0 && runewidth.StringWidth(line) > width {
		visible = runewidth.Truncate(line, width, "…")
		shown = len(visible) - len("…")
	}

	if span == nil || span.End <= start || span.Start >= start+shown {
		return visible
	}
	from := max(span.Start-start, 0)
	to := min(span.End-start, shown)
	return visible[:from] + highlightStyle.Render(visible[from:to]) + visible[to:]
}

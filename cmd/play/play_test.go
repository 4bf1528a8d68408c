package play

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gigurra/beatseek/cmd/common/nav"
	"github.com/gigurra/beatseek/cmd/common/session"
	"github.com/gigurra/beatseek/cmd/common/store"
	"github.com/mattn/go-runewidth"
)

type fakeClicker struct {
	clicks []bool
}

func (c *fakeClicker) Click(accent bool) {
	c.clicks = append(c.clicks, accent)
}

func (c *fakeClicker) Close() {}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m model, keys ...string) model {
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(model)
	}
	return m
}

func testModel(t *testing.T, start float64) (model, *clockPlayer, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	player := newClockPlayer(clock.Now, start, 0)
	m := newModel(session.New(700*time.Millisecond), player, "")
	m.now = clock.Now
	return m, player, clock
}

func TestModel_SeekConstantTempo(t *testing.T) {
	m, player, _ := testModel(t, 0.9)
	m.session.SetTempo("120")
	m.session.SetOffset("0")

	m = press(m, "]")
	if !near(player.CurrentTime(), 2.0) {
		t.Fatalf("Expected seek to 2.0, got %v", player.CurrentTime())
	}
	if m.status != "bar 2 beat 1/4 at 0:02.000" {
		t.Errorf("Unexpected status %q", m.status)
	}

	// Two quick backward beat presses skip one extra beat.
	m = press(m, "{")
	if !near(player.CurrentTime(), 1.5) {
		t.Fatalf("Expected 1.5, got %v", player.CurrentTime())
	}
	m = press(m, "{")
	if !near(player.CurrentTime(), 0.5) {
		t.Errorf("Expected double tap to land on 0.5, got %v", player.CurrentTime())
	}
}

func TestModel_SeekWithoutInputs(t *testing.T) {
	m, player, _ := testModel(t, 3)

	m = press(m, "]")
	if m.status != "set an offset first" {
		t.Errorf("Unexpected status %q", m.status)
	}

	m.session.SetOffset("0.2")
	m = press(m, "[")
	if m.status != "set a BPM or a chart first" {
		t.Errorf("Unexpected status %q", m.status)
	}
	if player.CurrentTime() != 3 {
		t.Errorf("Player should not move, got %v", player.CurrentTime())
	}
}

func TestModel_SeekChartHighlights(t *testing.T) {
	m, player, _ := testModel(t, 0.2)
	text := "120:2, 60:2\n"
	if err := m.session.SetChart(text); err != nil {
		t.Fatal(err)
	}
	m.session.SetOffset("0")

	m = press(m, "]")
	if !near(player.CurrentTime(), 1.0) {
		t.Fatalf("Expected 1.0, got %v", player.CurrentTime())
	}
	if m.highlight == nil || text[m.highlight.Start:m.highlight.End] != "60:2" {
		t.Errorf("Expected highlight on second measure, got %+v", m.highlight)
	}

	m = press(m, "]")
	if m.status != "end of chart (0:03.000)" {
		t.Errorf("Unexpected status %q", m.status)
	}

	m = press(m, "]")
	if m.status != "no beat in that direction" {
		t.Errorf("Unexpected status %q", m.status)
	}
	if !near(player.CurrentTime(), 3.0) {
		t.Errorf("Player should stay at the end, got %v", player.CurrentTime())
	}
}

func TestModel_MarkAndRecall(t *testing.T) {
	m, player, clock := testModel(t, 0)

	m = press(m, "r")
	if m.status != "no marker set" {
		t.Errorf("Unexpected status %q", m.status)
	}

	player.SeekTo(12.5)
	m = press(m, "m")
	if m.status != "marked 0:12.500" {
		t.Errorf("Unexpected status %q", m.status)
	}

	m = press(m, " ")
	clock.Advance(4 * time.Second)
	m = press(m, "r")
	if player.Playing() {
		t.Error("Recall should pause the player")
	}
	if !near(player.CurrentTime(), 12.5) {
		t.Errorf("Expected 12.5, got %v", player.CurrentTime())
	}
}

func TestModel_PlayPause(t *testing.T) {
	m, player, _ := testModel(t, 0)

	m = press(m, " ")
	if !player.Playing() || m.status != "playing" {
		t.Errorf("Expected playing, status %q", m.status)
	}
	m = press(m, " ")
	if player.Playing() || m.status != "paused" {
		t.Errorf("Expected paused, status %q", m.status)
	}
}

func TestModel_NudgeOffset(t *testing.T) {
	m, _, _ := testModel(t, 0)
	m.session.SetOffset("0.5")

	m = press(m, "+", "+", "-", "+")
	if !near(m.session.Offset(), 0.52) {
		t.Errorf("Expected 0.52, got %v", m.session.Offset())
	}
	if m.status != "offset 0.520s" {
		t.Errorf("Unexpected status %q", m.status)
	}
}

func TestModel_Quit(t *testing.T) {
	m, _, _ := testModel(t, 0)
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("Expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
}

func TestModel_MetronomeClicksOnBeats(t *testing.T) {
	m, player, clock := testModel(t, 0)
	m.session.SetTempo("120")
	m.session.SetOffset("0")
	clicks := &fakeClicker{}
	m.clicker = clicks

	tick := func() {
		next, _ := m.Update(tickMsg(clock.Now()))
		m = next.(model)
	}

	tick()
	if len(clicks.clicks) != 0 {
		t.Fatal("Paused player should not click")
	}

	player.Play()
	for range 22 {
		tick()
		clock.Advance(100 * time.Millisecond)
	}
	// Beat 0 was already current when playback started. Beat 4 opens bar 2.
	expected := []bool{false, false, false, true}
	if fmt.Sprint(clicks.clicks) != fmt.Sprint(expected) {
		t.Errorf("Expected clicks %v, got %v", expected, clicks.clicks)
	}
}

func TestModel_ReloadChart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.chart")
	if err := os.WriteFile(path, []byte("120:4\n"), 0644); err != nil {
		t.Fatal(err)
	}
	m, _, _ := testModel(t, 0)
	m.chartPath = path

	next, _ := m.Update(chartChangedMsg{})
	m = next.(model)
	if m.status != "reloaded chart, 1 bars" {
		t.Errorf("Unexpected status %q", m.status)
	}

	if err := os.WriteFile(path, []byte("120:4,\n"), 0644); err != nil {
		t.Fatal(err)
	}
	next, _ = m.Update(chartChangedMsg{})
	m = next.(model)
	if m.status != "chart error at line 1, column 7: expected tempo" {
		t.Errorf("Unexpected status %q", m.status)
	}
	if m.session.Timeline() != nil {
		t.Error("A broken chart should clear the timeline")
	}
}

func TestModel_View(t *testing.T) {
	m, _, _ := testModel(t, 2.1)
	m.session.SetTempo("120")
	m.session.SetOffset("0")
	m.status = "hello"

	view := m.View()
	for _, want := range []string{"0:02.100", "bar 2 beat 1/4", "bpm 120", "offset 0.000s", "no chart", "hello", "q quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected view to contain %q, got:\n%s", want, view)
		}
	}
}

func TestRenderChart_Truncates(t *testing.T) {
	out := renderChart("120:4, 120:4, 120:4\n", nil, 10)
	if !strings.HasSuffix(out, "…") {
		t.Errorf("Expected truncation marker, got %q", out)
	}
	if w := runewidth.StringWidth(out); w > 10 {
		t.Errorf("Expected width at most 10, got %d", w)
	}
}

func TestRenderChart_ScrollsToHighlight(t *testing.T) {
	var b strings.Builder
	for i := range 30 {
		fmt.Fprintf(&b, "120:4  # line %d\n", i)
	}
	text := b.String()
	start := strings.Index(text, "120:4  # line 25")
	span := &nav.Span{Start: start, End: start + len("120:4")}

	out := renderChart(text, span, 80)
	if !strings.Contains(out, "# line 25") {
		t.Errorf("Expected highlighted line in view, got:\n%s", out)
	}
	if strings.Contains(out, "# line 0\n") {
		t.Errorf("Expected first lines scrolled away, got:\n%s", out)
	}
	if n := strings.Count(out, "\n") + 1; n != maxChartLines {
		t.Errorf("Expected %d rows, got %d", maxChartLines, n)
	}
}

func TestSetup_OverridesSaved(t *testing.T) {
	dir := t.TempDir()
	videos, err := store.Open(filepath.Join(dir, "videos.json"))
	if err != nil {
		t.Fatal(err)
	}
	videos.Put("clip", store.Settings{Tempo: "100", Offset: "0.25", Chart: "100:4\n"})

	s := session.New(700 * time.Millisecond)
	status, err := setup(s, videos, "clip", &Params{BPM: "128"})
	if err != nil {
		t.Fatal(err)
	}
	if status != "video clip" {
		t.Errorf("Unexpected status %q", status)
	}
	got := s.Settings()
	if got.Tempo != "128" || got.Offset != "0.25" || got.Chart != "100:4\n" {
		t.Errorf("Unexpected settings %+v", got)
	}

	chartPath := filepath.Join(dir, "new.chart")
	if err := os.WriteFile(chartPath, []byte("90:3 90:3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	s = session.New(700 * time.Millisecond)
	status, err = setup(s, videos, "clip", &Params{Chart: chartPath})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(status, "chart error at line 1, column 6") {
		t.Errorf("Unexpected status %q", status)
	}

	s = session.New(700 * time.Millisecond)
	if _, err := setup(s, videos, "clip", &Params{Chart: filepath.Join(dir, "missing.chart")}); err == nil {
		t.Error("Expected error for a missing chart file")
	}
}

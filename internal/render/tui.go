package render

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/danielpatrickdp/tau-anchor/internal/anchor"
	"github.com/danielpatrickdp/tau-anchor/internal/engine"
)

// #region feed

// Feed hands records from the step loop to the dashboard without blocking
// the loop. Records arriving while the buffer is full are dropped.
type Feed struct {
	ch      chan engine.Record
	dropped uint64
}

// NewFeed buffers up to n records.
func NewFeed(n int) *Feed {
	if n < 1 {
		n = 1
	}
	return &Feed{ch: make(chan engine.Record, n)}
}

// Observe implements host.Observer.
func (f *Feed) Observe(rec engine.Record) {
	select {
	case f.ch <- rec:
	default:
		f.dropped++
	}
}

// Close ends the stream; the dashboard shows the run as finished. Observe
// must not be called afterwards.
func (f *Feed) Close() { close(f.ch) }

// Dropped counts records the dashboard never saw. Only meaningful once the
// loop has stopped.
func (f *Feed) Dropped() uint64 { return f.dropped }

// #endregion feed

// #region styles

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Faint(true)
	rule       = strings.Repeat("─", 72)

	anchorStyles = map[anchor.State]lipgloss.Style{
		anchor.Init:      lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		anchor.FlowPlus:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		anchor.FlowMinus: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		anchor.Sync:      lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	}
)

// #endregion styles

// #region model

type recordMsg engine.Record

type streamDoneMsg struct{}

// Model is the live dashboard.
type Model struct {
	records    <-chan engine.Record
	ascii      bool
	encoded    bool
	quitOnDone bool

	pattern   *Pattern
	harmonics []float64
	counts    map[anchor.State]uint64
	last      engine.Record
	seen      bool
	done      bool
	quit      bool
}

// NewModel renders records read from feed. With quitOnDone the program
// exits as soon as the feed closes; otherwise it waits for q.
func NewModel(feed *Feed, ascii, encoded, quitOnDone bool) Model {
	return Model{
		records:    feed.ch,
		ascii:      ascii,
		encoded:    encoded,
		quitOnDone: quitOnDone,
		pattern:    NewPattern(PatternWidth),
		counts:     make(map[anchor.State]uint64, len(anchor.States)),
	}
}

// Quit reports whether the user asked to stop.
func (m Model) Quit() bool { return m.quit }

func (m Model) Init() tea.Cmd {
	return waitForRecord(m.records)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch v := msg.(type) {
	case tea.KeyMsg:
		switch v.String() {
		case "q", "ctrl+c", "esc":
			m.quit = true
			return m, tea.Quit
		}
	case recordMsg:
		m.apply(engine.Record(v))
		return m, waitForRecord(m.records)
	case streamDoneMsg:
		m.done = true
		if m.quitOnDone {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *Model) apply(rec engine.Record) {
	m.last = rec
	m.seen = true
	m.counts[rec.Anchor]++
	m.pattern.Push(rec.Anchor)
	if len(m.harmonics) == PatternWidth {
		m.harmonics = append(m.harmonics[:0:0], m.harmonics[1:]...)
	}
	m.harmonics = append(m.harmonics, rec.Harmonic)
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("tau-anchor") + "\n")
	b.WriteString(rule + "\n")
	if !m.seen {
		b.WriteString("   (waiting for the first step)\n")
		b.WriteString(rule + "\n")
		return b.String()
	}

	rec := m.last
	style := anchorStyles[rec.Anchor]
	b.WriteString(fmt.Sprintf("Step     %s\n", humanize.Comma(int64(rec.Step))))
	b.WriteString(fmt.Sprintf("Anchor   %s\n", style.Render(rec.Anchor.String())))
	b.WriteString(fmt.Sprintf("Harmonic %+.4f\n", rec.Harmonic))
	b.WriteString(fmt.Sprintf("Mode     %-11s Scale %-5s Memory %.2f\n",
		rec.Hints.Mode, rec.Hints.Attention, rec.Hints.MemoryPriority))
	b.WriteString(rule + "\n")
	b.WriteString("Plot     " + Sparkline(m.harmonics, PatternWidth, m.ascii) + "\n")
	b.WriteString("Pattern  " + m.pattern.String(m.encoded) + "\n")
	b.WriteString(rule + "\n")
	b.WriteString(fmt.Sprintf("FLOW_PLUS %s   FLOW_MINUS %s   SYNC %s\n",
		humanize.Comma(int64(m.counts[anchor.FlowPlus])),
		humanize.Comma(int64(m.counts[anchor.FlowMinus])),
		humanize.Comma(int64(m.counts[anchor.Sync]))))

	status := "running · q to stop"
	if m.done {
		status = "finished · q to exit"
	}
	b.WriteString(dimStyle.Render(status) + "\n")
	return b.String()
}

func waitForRecord(ch <-chan engine.Record) tea.Cmd {
	return func() tea.Msg {
		rec, ok := <-ch
		if !ok {
			return streamDoneMsg{}
		}
		return recordMsg(rec)
	}
}

// #endregion model

// Run starts the dashboard on the terminal and blocks until it exits. It
// reports whether the user quit before the feed closed.
func Run(model Model, opts ...tea.ProgramOption) (bool, error) {
	final, err := tea.NewProgram(model, opts...).Run()
	if err != nil {
		return false, fmt.Errorf("dashboard: %w", err)
	}
	m, _ := final.(Model)
	return m.quit && !m.done, nil
}

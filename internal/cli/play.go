package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/proxprefetch/pkg/geom"
	"github.com/matzehuels/proxprefetch/pkg/prefetch"
	"github.com/matzehuels/proxprefetch/pkg/sim"
)

const (
	// playKeyInterval is the virtual time that passes per key press, so
	// holding a key runs into the throttle the way a fast pointer does.
	playKeyInterval = 60 * time.Millisecond

	playDefaultStep = 20.0
	playHistory     = 6
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// playCommand starts the interactive playground.
func (c *CLI) playCommand() *cobra.Command {
	var options optionFlags

	cmd := &cobra.Command{
		Use:   "play [scenario]",
		Short: "Move a virtual pointer and watch links get prefetched",
		Long: `Open an interactive playground: the arrow keys (or h/j/k/l) move a virtual
pointer over the links of a scenario, or of a demo navigation bar when no
scenario is given. The scenario's steps are ignored.

Keys: +/- change the step size, a prefetches all links, r resets, q quits.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := demoScenario()
			if len(args) == 1 {
				var err error
				if s, err = sim.LoadScenario(args[0]); err != nil {
					return err
				}
			}
			m, err := newPlayModel(s, options.overrides(cmd).Options)
			if err != nil {
				return err
			}
			_, err = tea.NewProgram(m, tea.WithContext(cmd.Context()), tea.WithAltScreen()).Run()
			return err
		},
	}

	options.register(cmd, false)
	return cmd
}

// demoScenario is a navigation bar with a few routes and an external link.
func demoScenario() *sim.Scenario {
	names := []string{"/", "/docs", "/blog", "/pricing", "/about", "https://github.com/"}
	links := make([]sim.Link, len(names))
	for i, n := range names {
		links[i] = sim.Link{Href: n, Rect: geom.Rect{Left: 40 + float64(i)*140, Top: 20, Width: 80, Height: 20}}
	}
	links = append(links,
		sim.Link{Href: "#main", Rect: geom.Rect{Left: 40, Top: 80, Width: 120, Height: 20}},
		sim.Link{Href: "/docs/getting-started", Rect: geom.Rect{Left: 200, Top: 400, Width: 200, Height: 24}},
		sim.Link{Href: "/blog/release-notes", Rect: geom.Rect{Left: 520, Top: 400, Width: 200, Height: 24}},
	)
	return &sim.Scenario{Name: "demo", Links: links}
}

// =============================================================================
// PlayModel - interactive tracker playground
// =============================================================================

// PlayModel is the bubbletea model for the playground. It drives a real
// tracker against an in-memory page on a virtual clock.
type PlayModel struct {
	scenario *sim.Scenario
	cfg      prefetch.Config
	tracker  *prefetch.Tracker
	page     *sim.Page
	clock    *sim.Clock
	start    time.Time

	Pointer geom.Point
	Step    float64
	History []string
}

type playTickMsg struct{}

func newPlayModel(s *sim.Scenario, override prefetch.Options) (PlayModel, error) {
	cfg, err := prefetch.Resolve(s.Options.Merge(override))
	if err != nil {
		return PlayModel{}, err
	}
	m := PlayModel{scenario: s, cfg: cfg, Step: playDefaultStep}
	m.reset()
	return m, nil
}

func (m *PlayModel) reset() {
	m.start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.clock = sim.NewClock(m.start)
	m.page = sim.NewPage(m.scenario.Links)
	m.tracker = prefetch.New(m.page, m.cfg,
		prefetch.WithClock(m.clock),
		prefetch.WithLogger(log.New(io.Discard)))
	m.Pointer = geom.Point{X: 400, Y: 240}
	m.History = nil
}

func (m PlayModel) Init() tea.Cmd {
	return m.tickCmd()
}

func (m PlayModel) tickCmd() tea.Cmd {
	if m.cfg.EventDriven() {
		return nil
	}
	return tea.Tick(m.cfg.PredictionInterval, func(time.Time) tea.Msg { return playTickMsg{} })
}

func (m PlayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.move(0, -m.Step)
		case "down", "j":
			m.move(0, m.Step)
		case "left", "h":
			m.move(-m.Step, 0)
		case "right", "l":
			m.move(m.Step, 0)
		case "+", "=":
			m.Step *= 2
		case "-":
			if m.Step > 5 {
				m.Step /= 2
			}
		case "a":
			m.observe(func() { m.tracker.PrefetchAll() }, "all")
		case "r":
			m.reset()
		}

	case playTickMsg:
		m.clock.Advance(m.cfg.PredictionInterval)
		m.observe(func() { m.tracker.Tick() }, "tick")
		return m, m.tickCmd()
	}
	return m, nil
}

func (m *PlayModel) move(dx, dy float64) {
	m.clock.Advance(playKeyInterval)
	m.Pointer = geom.Point{X: m.Pointer.X + dx, Y: m.Pointer.Y + dy}
	m.observe(func() { m.tracker.PointerMove(m.Pointer) }, "move")
}

// observe runs fn and records the hints it inserted.
func (m *PlayModel) observe(fn func(), cause string) {
	before := len(m.page.Hints())
	fn()
	at := m.clock.Now().Sub(m.start).Milliseconds()
	for _, h := range m.page.Hints()[before:] {
		m.History = append(m.History, fmt.Sprintf("%6dms  %-5s %s", at, cause, h.Href))
	}
	if len(m.History) > playHistory {
		m.History = m.History[len(m.History)-playHistory:]
	}
}

func (m PlayModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Proximity Prefetch Playground"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("←↑↓→ move  +/- step  a prefetch all  r reset  q quit"))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("pointer %s  step %s  threshold %s  max %s\n\n",
		StyleNumber.Render(fmt.Sprintf("(%.0f, %.0f)", m.Pointer.X, m.Pointer.Y)),
		StyleNumber.Render(fmt.Sprintf("%.0fpx", m.Step)),
		StyleNumber.Render(fmt.Sprintf("%.0fpx", m.cfg.Threshold)),
		StyleNumber.Render(fmt.Sprintf("%d", m.cfg.MaxPrefetch))))

	prefetched := make(map[string]bool)
	for _, h := range m.tracker.Prefetched() {
		prefetched[h] = true
	}

	rows := make([][]string, 0, len(m.scenario.Links))
	for _, l := range m.scenario.Links {
		c := l.Rect.Center()
		d := geom.Distance(m.Pointer, c)
		status := "—"
		switch {
		case !prefetch.Eligible(l.Href):
			status = "ignored"
		case prefetched[l.Href]:
			status = iconSuccess + " prefetched"
		case d < m.cfg.Threshold:
			status = "near"
		}
		rows = append(rows, []string{l.Href, fmt.Sprintf("(%.0f, %.0f)", c.X, c.Y), fmt.Sprintf("%.0f", d), status})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	links := m.scenario.Links
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Route", "Center", "Distance", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row >= len(links) {
				return lipgloss.NewStyle()
			}
			href := links[row].Href
			switch {
			case prefetched[href]:
				return lipgloss.NewStyle().Foreground(colorGreen)
			case !prefetch.Eligible(href):
				return listDimStyle
			case geom.Distance(m.Pointer, links[row].Rect.Center()) < m.cfg.Threshold:
				return listSelectedStyle
			}
			return listNormalStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")

	for _, line := range m.History {
		b.WriteString(listDimStyle.Render(line))
		b.WriteString("\n")
	}

	st := m.tracker.Stats()
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d passes · %d throttled · %d prefetched]",
		st.Passes, st.Throttled, st.Dispatched)))
	return b.String()
}

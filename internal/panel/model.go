package panel

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/FiligranHQ/xtm-browser-extension-sub003/internal/utils"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/entity"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/lookup"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/navigation"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/platforms"
	"github.com/FiligranHQ/xtm-browser-extension-sub003/pkg/resolve"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("62")).Padding(0, 1)
	itemStyle     = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	primaryBadge  = lipgloss.NewStyle().Foreground(lipgloss.Color("16")).Background(lipgloss.Color("39")).Padding(0, 1)
	simBadge      = lipgloss.NewStyle().Foreground(lipgloss.Color("16")).Background(lipgloss.Color("214")).Padding(0, 1)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).MarginTop(1)
)

// maxDetailFields bounds how many raw fields the entity view prints.
const maxDetailFields = 12

type mode int

const (
	modeList mode = iota
	modeEntity
)

type searchDoneMsg struct {
	res *lookup.Result
	err error
}

// Config wires the panel to the platforms.
type Config struct {
	Query    string
	Lookup   lookup.Config
	Registry *platforms.Registry
	Timeout  time.Duration
}

// Model is the side panel: a result list and an entity view that pages through
// the platforms an entity was found on.
type Model struct {
	cfg   Config
	keys  keyMap
	sched *Scheduler
	store *navigation.Store
	guard *navigation.Guard
	nav   *navigation.Navigator

	spinner   spinner.Model
	mode      mode
	searching bool
	records   []resolve.Record
	cursor    int
	state     navigation.State
	errs      []error
	lastErr   error
	width     int
}

func New(cfg Config) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		cfg:       cfg,
		keys:      defaultKeys(),
		sched:     NewScheduler(),
		store:     navigation.NewStore(),
		spinner:   sp,
		searching: true,
	}
	m.guard = navigation.NewGuard(m.store, navigation.GuardConfig{
		Channel:   cfg.Lookup.Channel,
		Scheduler: m.sched,
		Log:       utils.Component("guard"),
		Timeout:   cfg.Timeout,
	})
	m.guard.OnSettle(m.settled)
	m.nav = navigation.NewNavigator(m.store, m.guard, cfg.Registry)
	m.store.Subscribe(func(st navigation.State) { m.state = st })
	return m
}

// Run starts the program and blocks until the user quits.
func Run(cfg Config) error {
	m := New(cfg)
	defer m.Close()
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

// Close stops in-flight fetches.
func (m *Model) Close() {
	m.sched.Stop()
	m.guard.Close()
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.sched.next(), m.search())
}

func (m *Model) search() tea.Cmd {
	cfg, query := m.cfg.Lookup, m.cfg.Query
	return func() tea.Msg {
		res, err := lookup.Search(context.Background(), cfg, query)
		return searchDoneMsg{res: res, err: err}
	}
}

func (m *Model) settled(s navigation.Settled) {
	switch s.Outcome {
	case navigation.OutcomeFailed:
		m.lastErr = fmt.Errorf("%s: %w", s.PlatformID, s.Err)
	case navigation.OutcomeApplied:
		m.lastErr = nil
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case continuationMsg:
		msg()
		return m, m.sched.next()

	case searchDoneMsg:
		m.searching = false
		if msg.err != nil {
			m.lastErr = msg.err
			return m, nil
		}
		m.records = msg.res.Records
		m.errs = msg.res.Errors
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	switch m.mode {
	case modeList:
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.records)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Open):
			if m.cursor < len(m.records) && m.nav.Open(m.records[m.cursor].Result()) {
				m.mode = modeEntity
				m.lastErr = nil
			}
		}

	case modeEntity:
		switch {
		case key.Matches(msg, m.keys.Next):
			m.nav.Next()
		case key.Matches(msg, m.keys.Prev):
			m.nav.Previous()
		case key.Matches(msg, m.keys.Back):
			m.nav.Close()
			m.mode = modeList
			m.lastErr = nil
		}
	}
	return m, nil
}

func (m *Model) View() string {
	var b strings.Builder
	switch m.mode {
	case modeList:
		m.viewList(&b)
	case modeEntity:
		m.viewEntity(&b)
	}
	if m.lastErr != nil {
		b.WriteString("\n" + errorStyle.Render(m.lastErr.Error()) + "\n")
	}
	return b.String()
}

func (m *Model) viewList(b *strings.Builder) {
	b.WriteString(titleStyle.Render(fmt.Sprintf("Results for %q", m.cfg.Query)) + "\n\n")
	if m.searching {
		b.WriteString(m.spinner.View() + " searching " + fmt.Sprint(len(m.cfg.Lookup.Platforms)) + " platforms\n")
		return
	}
	if len(m.records) == 0 {
		b.WriteString(mutedStyle.Render("No entity found.") + "\n")
	}
	for i, r := range m.records {
		names := make([]string, 0, len(r.Contributions))
		for _, c := range r.Contributions {
			names = append(names, c.PlatformName)
		}
		line := fmt.Sprintf("%s (%s)  %s", r.Name, r.Type, mutedStyle.Render(strings.Join(names, ", ")))
		if i == m.cursor {
			b.WriteString(selectedStyle.Render(line) + "\n")
		} else {
			b.WriteString(itemStyle.Render(line) + "\n")
		}
	}
	for _, err := range m.errs {
		b.WriteString(errorStyle.Render(err.Error()) + "\n")
	}
	b.WriteString(footerStyle.Render("↑/↓ select · enter open · q quit"))
}

func (m *Model) viewEntity(b *strings.Builder) {
	match, ok := m.state.Active()
	if !ok {
		return
	}
	desc, found := m.cfg.Registry.Descriptor(match.PlatformID)
	if !found {
		desc = entity.Descriptor{ID: match.PlatformID, DisplayName: match.PlatformID, Kind: match.PlatformKind}
	}
	badge := simBadge.Render("OpenAEV")
	if desc.Kind.IsPrimary() {
		badge = primaryBadge.Render("OpenCTI")
	}

	b.WriteString(badge + " " + titleStyle.Render(desc.DisplayName) + "\n\n")
	b.WriteString(fmt.Sprintf("%s  %s\n", titleStyle.Render(match.RepresentativeName()), mutedStyle.Render(match.Type)))
	if match.Value != "" && match.Value != match.Name {
		b.WriteString(mutedStyle.Render(match.Value) + "\n")
	}
	b.WriteString("\n")

	if !match.FullyLoaded {
		b.WriteString(m.spinner.View() + " loading details\n")
	} else {
		b.WriteString(renderDetails(match, m.width))
	}

	footer := fmt.Sprintf("platform %d/%d · ←/→ switch · esc back", m.state.ActiveIndex+1, len(m.state.Results))
	b.WriteString(footerStyle.Render(footer))
}

func renderDetails(match entity.Match, width int) string {
	limit := 80
	if width > 40 {
		limit = width - 20
	}

	keys := make([]string, 0, len(match.Raw))
	for k := range match.Raw {
		switch k {
		case "id", "type", "name", "value":
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > maxDetailFields {
		keys = keys[:maxDetailFields]
	}

	var b strings.Builder
	for _, k := range keys {
		v := string(match.Raw[k])
		if len(v) > limit {
			v = v[:limit-3] + "..."
		}
		b.WriteString(fmt.Sprintf("%s %s\n", mutedStyle.Render(k+":"), v))
	}
	return b.String()
}

package picker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/runger/cmdbook/internal/textmatch"
)

// defaultDebounce is the delay after the last keystroke before triggering a fetch.
const defaultDebounce = 80 * time.Millisecond

// pickerState represents the current state of the picker's state machine.
type pickerState int

const (
	stateIdle      pickerState = iota // Initial state before first fetch
	stateLoading                      // Fetch in progress
	stateLoaded                       // Items loaded successfully (len > 0)
	stateEmpty                        // Fetch succeeded but returned 0 items
	stateError                        // Fetch failed
	stateCancelled                    // User cancelled (Esc / Ctrl+C)
)

// fetchDoneMsg is sent when an async Provider.Fetch or a follow-up completes.
type fetchDoneMsg struct {
	requestID uint64
	query     string
	items     []Item
	followup  bool    // Result of Response.Followup
	next      tea.Cmd // Awaits the follow-up, if any
	err       error
}

// debounceMsg fires after the debounce timer expires.
type debounceMsg struct {
	id uint64 // Must match current debounceID to be accepted
}

// initMsg is sent by Init() to trigger the first fetch via Update(),
// ensuring state mutations are visible to the Bubble Tea runtime.
type initMsg struct{}

// Model is the Bubble Tea model for the command and value pickers.
type Model struct {
	state      pickerState
	modes      []textmatch.Mode
	activeMode int
	items      []Item
	// selection indexes items. -1 means nothing is highlighted; with
	// acceptQuery set it stands for the typed query.
	selection int
	err       error
	// pending is set while a follow-up for the current request is running.
	pending bool
	// warning keeps a follow-up error without discarding the shown items.
	warning error

	textInput   textinput.Model
	title       string
	acceptQuery bool
	debounce    time.Duration

	requestID uint64 // Monotonic counter for stale detection
	provider  Provider

	width  int
	height int

	result   Item
	accepted bool

	cancelFetch context.CancelFunc

	// debounceID tracks the latest debounce timer; only a matching
	// debounceMsg will trigger a fetch.
	debounceID uint64
}

// NewModel creates a picker over provider with a single auto mode.
func NewModel(provider Provider) Model {
	in := textinput.New()
	in.Prompt = "> "
	in.PromptStyle = queryStyle
	in.CharLimit = 4096
	in.Focus()

	return Model{
		state:     stateIdle,
		modes:     []textmatch.Mode{textmatch.ModeAuto},
		selection: -1,
		textInput: in,
		debounce:  defaultDebounce,
		provider:  provider,
	}
}

// WithQuery pre-fills the search query.
func (m Model) WithQuery(q string) Model {
	m.textInput.SetValue(q)
	return m
}

// WithModes sets the match modes shown as tabs; the first one is active.
// An empty list is ignored.
func (m Model) WithModes(modes ...textmatch.Mode) Model {
	if len(modes) > 0 {
		m.modes = modes
		m.activeMode = 0
	}
	return m
}

// WithStartMode activates mode if it is one of the tabs.
func (m Model) WithStartMode(mode textmatch.Mode) Model {
	for i, md := range m.modes {
		if md == mode {
			m.activeMode = i
		}
	}
	return m
}

// WithTitle sets a heading rendered above the tabs.
func (m Model) WithTitle(title string) Model {
	m.title = title
	return m
}

// WithAcceptQuery lets Enter return the typed query when no item is
// highlighted. The value picker uses it to enter new values.
func (m Model) WithAcceptQuery(accept bool) Model {
	m.acceptQuery = accept
	return m
}

// WithDebounce overrides the keystroke debounce. Non-positive values are ignored.
func (m Model) WithDebounce(d time.Duration) Model {
	if d > 0 {
		m.debounce = d
	}
	return m
}

// Result returns the chosen item and whether the user made a choice.
func (m Model) Result() (Item, bool) {
	return m.result, m.accepted
}

// IsCancelled reports whether the user dismissed the picker.
func (m Model) IsCancelled() bool {
	return m.state == stateCancelled
}

// Mode returns the active match mode.
func (m Model) Mode() textmatch.Mode {
	if m.activeMode >= 0 && m.activeMode < len(m.modes) {
		return m.modes[m.activeMode]
	}
	return textmatch.ModeAuto
}

func (m Model) query() string {
	return m.textInput.Value()
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, func() tea.Msg { return initMsg{} })
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.Width = max(msg.Width-len(m.textInput.Prompt)-1, 0)
		return m, nil

	case fetchDoneMsg:
		return m.handleFetchDone(msg)

	case debounceMsg:
		return m.handleDebounce(msg)

	case initMsg:
		return m, m.startFetch()
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// handleKey processes keyboard input. Navigation keys are handled here,
// everything else edits the query.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.state = stateCancelled
		m.cancelInflight()
		return m, tea.Quit

	case tea.KeyEnter:
		switch {
		case m.state != stateLoading && m.selection >= 0 && m.selection < len(m.items):
			m.result = m.items[m.selection]
			m.accepted = true
		case m.acceptQuery && (m.selection < 0 || m.state == stateLoading) && strings.TrimSpace(m.query()) != "":
			m.result = Item{Text: m.query()}
			m.accepted = true
		default:
			return m, nil
		}
		m.cancelInflight()
		return m, tea.Quit

	case tea.KeyUp, tea.KeyCtrlP:
		if m.state == stateLoading {
			return m, nil
		}
		floor := 0
		if m.acceptQuery {
			floor = -1
		}
		if m.selection > floor {
			m.selection--
		}
		return m, nil

	case tea.KeyDown, tea.KeyCtrlN:
		if m.state == stateLoading {
			return m, nil
		}
		if m.selection < len(m.items)-1 {
			m.selection++
		}
		return m, nil

	case tea.KeyTab:
		if len(m.modes) > 1 {
			m.activeMode = (m.activeMode + 1) % len(m.modes)
			return m, m.startFetch()
		}
		return m, nil

	case tea.KeyShiftTab:
		if len(m.modes) > 1 {
			m.activeMode = (m.activeMode + len(m.modes) - 1) % len(m.modes)
			return m, m.startFetch()
		}
		return m, nil
	}

	before := m.query()
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	if m.query() == before {
		return m, cmd
	}
	return m, tea.Batch(cmd, m.startDebounce())
}

// handleFetchDone processes the result of an async fetch or follow-up.
func (m Model) handleFetchDone(msg fetchDoneMsg) (tea.Model, tea.Cmd) {
	// Discard stale responses, including those for a query the user has
	// since edited but whose debounce has not fired yet.
	if msg.requestID != m.requestID || msg.query != m.query() {
		return m, nil
	}

	if msg.err != nil {
		if msg.followup && len(m.items) > 0 {
			m.pending = false
			m.warning = msg.err
			return m, nil
		}
		m.state = stateError
		m.err = msg.err
		m.pending = false
		m.items = nil
		m.selection = -1
		return m, nil
	}

	m.items = msg.items
	m.pending = msg.next != nil
	m.warning = nil

	if len(m.items) == 0 {
		m.state = stateEmpty
		m.selection = -1
	} else {
		m.state = stateLoaded
		m.clampSelection()
	}

	return m, msg.next
}

// handleDebounce fires the fetch if the debounce timer is still current.
func (m Model) handleDebounce(msg debounceMsg) (tea.Model, tea.Cmd) {
	if msg.id != m.debounceID {
		return m, nil
	}
	return m, m.startFetch()
}

func (m *Model) startDebounce() tea.Cmd {
	m.debounceID++
	id := m.debounceID
	return tea.Tick(m.debounce, func(time.Time) tea.Msg {
		return debounceMsg{id: id}
	})
}

// startFetch cancels any in-flight fetch, increments requestID, and
// returns a tea.Cmd that calls the provider.
func (m *Model) startFetch() tea.Cmd {
	m.cancelInflight()
	m.requestID++
	m.state = stateLoading
	m.pending = false
	m.warning = nil

	reqID := m.requestID
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelFetch = cancel

	req := Request{
		RequestID: reqID,
		Query:     m.query(),
		Mode:      m.Mode(),
		Limit:     m.listHeight(),
	}

	p := m.provider
	return func() tea.Msg {
		resp, err := p.Fetch(ctx, req)
		return responseMsg(ctx, req, resp, err, false)
	}
}

// responseMsg converts a provider answer into a fetchDoneMsg, chaining the
// follow-up under the same request id.
func responseMsg(ctx context.Context, req Request, resp Response, err error, followup bool) fetchDoneMsg {
	msg := fetchDoneMsg{requestID: req.RequestID, query: req.Query, followup: followup}
	if err != nil {
		msg.err = err
		return msg
	}
	msg.items = resp.Items
	if next := resp.Followup; next != nil {
		msg.next = func() tea.Msg {
			r, err := next(ctx)
			return responseMsg(ctx, req, r, err, true)
		}
	}
	return msg
}

func (m *Model) cancelInflight() {
	if m.cancelFetch != nil {
		m.cancelFetch()
		m.cancelFetch = nil
	}
}

func (m *Model) clampSelection() {
	if len(m.items) == 0 {
		m.selection = -1
		return
	}
	if m.selection < 0 && !m.acceptQuery {
		m.selection = 0
	}
	if m.selection >= len(m.items) {
		m.selection = len(m.items) - 1
	}
}

// listHeight returns the number of visible list rows.
func (m Model) listHeight() int {
	// tab bar, query line, status line and an optional title
	chrome := 3
	if m.title != "" {
		chrome++
	}
	h := m.height - chrome
	if h < 1 {
		h = 20 // Sensible default before first WindowSizeMsg
	}
	return h
}

// --- View rendering ---

var (
	titleStyle       = lipgloss.NewStyle().Bold(true)
	activeTabStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62"))
	inactiveTabStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	selectedStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	normalStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	queryStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	if m.title != "" {
		b.WriteString(titleStyle.Render(m.title))
		b.WriteRune('\n')
	}
	b.WriteString(m.viewTabBar())
	b.WriteRune('\n')
	b.WriteString(m.viewContent())
	b.WriteRune('\n')
	b.WriteString(m.viewStatus())
	b.WriteRune('\n')
	b.WriteString(m.textInput.View())

	return b.String()
}

func (m Model) viewTabBar() string {
	if len(m.modes) < 2 {
		return ""
	}
	parts := make([]string, 0, len(m.modes))
	for i, mode := range m.modes {
		label := " " + mode.String() + " "
		if i == m.activeMode {
			parts = append(parts, activeTabStyle.Render(label))
		} else {
			parts = append(parts, inactiveTabStyle.Render(label))
		}
	}
	return strings.Join(parts, " ")
}

// viewContent renders the item list or a status message.
func (m Model) viewContent() string {
	switch m.state {
	case stateIdle, stateLoading:
		return dimStyle.Render("Loading...")

	case stateEmpty:
		if m.acceptQuery && strings.TrimSpace(m.query()) != "" {
			return selectedStyle.Render("> " + m.newValueLabel())
		}
		return dimStyle.Render("No matches")

	case stateError:
		msg := "Error"
		if m.err != nil {
			msg = fmt.Sprintf("Error: %s", m.err)
		}
		return errorStyle.Render(msg)

	case stateCancelled:
		return dimStyle.Render("Cancelled")

	case stateLoaded:
		return m.viewList()

	default:
		return ""
	}
}

func (m Model) viewList() string {
	var lines []string
	maxItems := m.listHeight()
	if m.acceptQuery {
		row := "  " + m.newValueLabel()
		if m.selection == -1 {
			row = selectedStyle.Render("> " + m.newValueLabel())
		} else {
			row = dimStyle.Render(row)
		}
		lines = append(lines, row)
		maxItems--
	}

	for i, item := range m.items {
		if i >= maxItems {
			break
		}
		lines = append(lines, m.viewItem(item, i == m.selection))
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewItem(item Item, selected bool) string {
	text := DisplayText(item.Text)
	detail := DisplayText(item.Detail)

	avail := m.width - 4
	if avail > 0 {
		text = MiddleTruncate(text, avail)
		rest := avail - DisplayWidth(text) - 2
		if detail != "" && rest > 3 {
			detail = MiddleTruncate(detail, rest)
		} else {
			detail = ""
		}
	}

	var row string
	if selected {
		row = selectedStyle.Render("> " + text)
	} else {
		row = normalStyle.Render("  " + text)
	}
	if detail != "" {
		row += "  " + dimStyle.Render(detail)
	}
	return row
}

func (m Model) newValueLabel() string {
	q := m.query()
	if strings.TrimSpace(q) == "" {
		return "(type a new value)"
	}
	return "new value: " + DisplayText(q)
}

func (m Model) viewStatus() string {
	switch {
	case m.warning != nil:
		return errorStyle.Render("completion failed: " + m.warning.Error())
	case m.pending:
		return dimStyle.Render("Completing...")
	case m.state == stateLoaded:
		return dimStyle.Render(fmt.Sprintf("%d results", len(m.items)))
	default:
		return ""
	}
}

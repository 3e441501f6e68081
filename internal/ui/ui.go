package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/jarvis/internal/dispatch"
	"github.com/desertthunder/jarvis/internal/shared"
)

const (
	greeting      = "Hi, I'm Jarvis. Ask me anything, or try \"play hotel california\"."
	cancelledText = "File creation cancelled."
)

// Role says who wrote a transcript entry.
type Role int

const (
	RoleUser Role = iota
	RoleBot
)

func (r Role) String() string {
	if r == RoleUser {
		return "You"
	}
	return "Jarvis"
}

type entry struct {
	role Role
	text string
}

// Model represents the chat shell state.
type Model struct {
	ctx         context.Context
	cancel      context.CancelFunc
	dispatcher  *dispatch.Dispatcher
	openBrowser shared.BrowserOpener
	state       dispatch.CreateState
	pending     bool
	transcript  []entry
	input       textinput.Model
	content     textarea.Model
	viewport    viewport.Model
	spinner     spinner.Model
	help        help.Model
	keys        keyMap
	width       int
	height      int
}

// NewModel creates a new chat shell over dispatcher. A nil opener disables the browser.
// Quitting cancels the context handed to in-flight requests.
func NewModel(ctx context.Context, dispatcher *dispatch.Dispatcher, opener shared.BrowserOpener) *Model {
	ctx, cancel := context.WithCancel(ctx)

	input := textinput.New()
	input.Placeholder = "Type a message"
	input.Prompt = "> "
	input.CharLimit = 1000
	input.Focus()

	content := textarea.New()
	content.Placeholder = "File content"
	content.ShowLineNumbers = false

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		ctx:         ctx,
		cancel:      cancel,
		dispatcher:  dispatcher,
		openBrowser: opener,
		input:       input,
		content:     content,
		viewport:    viewport.New(80, 20),
		spinner:     sp,
		help:        help.New(),
		keys:        newKeyMap(),
		transcript:  []entry{{RoleBot, greeting}},
	}
	m.refresh()
	return m
}

// Init starts the cursor blinking.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case spinner.TickMsg:
		if !m.pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgReply:
			return m.handleReply(msg.data.(dispatch.Result))
		case MsgBrowserOpened:
			data := msg.data.(struct {
				url string
				err error
			})
			if data.err != nil {
				m.say(RoleBot, fmt.Sprintf("Couldn't open the browser. Please visit %s", data.url))
			}
			return m, nil
		}
	}

	return m.updateInputs(msg)
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.cancel()
		return m, tea.Quit
	case key.Matches(msg, m.keys.pageUp), key.Matches(msg, m.keys.pageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.pending {
		return m, nil
	}

	if m.state.Awaiting() {
		switch {
		case key.Matches(msg, m.keys.cancel):
			m.setState(m.dispatcher.Cancel(m.state).State)
			m.say(RoleBot, cancelledText)
			return m, m.focusInput()
		case key.Matches(msg, m.keys.save):
			text := m.content.Value()
			m.content.Reset()
			m.say(RoleUser, text)
			return m, m.submit(text)
		}
		return m.updateInputs(msg)
	}

	if key.Matches(msg, m.keys.send) {
		text := m.input.Value()
		if strings.TrimSpace(text) == "" {
			return m, nil
		}
		m.input.Reset()
		m.say(RoleUser, text)
		return m, m.submit(text)
	}
	return m.updateInputs(msg)
}

// submit locks the input and hands text to the dispatcher.
func (m *Model) submit(text string) tea.Cmd {
	m.pending = true
	state := m.state
	handle := func() tea.Msg {
		return replyMsg(m.dispatcher.Handle(m.ctx, text, state))
	}
	return tea.Batch(m.spinner.Tick, handle)
}

func (m *Model) handleReply(result dispatch.Result) (tea.Model, tea.Cmd) {
	m.pending = false
	m.setState(result.State)
	for _, text := range result.Messages {
		m.say(RoleBot, text)
	}

	var cmds []tea.Cmd
	if m.state.Awaiting() {
		m.input.Blur()
		cmds = append(cmds, m.content.Focus())
	} else {
		cmds = append(cmds, m.focusInput())
	}
	if result.AuthRequired() && m.openBrowser != nil {
		cmds = append(cmds, m.open(result.OpenURL))
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) open(url string) tea.Cmd {
	opener := m.openBrowser
	return func() tea.Msg {
		return browserOpenedMsg(url, opener(url))
	}
}

func (m *Model) focusInput() tea.Cmd {
	m.content.Blur()
	return m.input.Focus()
}

func (m *Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.state.Awaiting() {
		m.content, cmd = m.content.Update(msg)
	} else {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

// setState switches the create-file state and redoes the layout when the
// content box appears or goes away.
func (m *Model) setState(next dispatch.CreateState) {
	changed := next.Awaiting() != m.state.Awaiting()
	m.state = next
	if changed && m.width > 0 {
		m.resize(m.width, m.height)
	}
}

func (m *Model) say(role Role, text string) {
	m.transcript = append(m.transcript, entry{role, text})
	m.refresh()
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.input.Width = width - 4
	m.content.SetWidth(width - 2)
	m.content.SetHeight(6)

	// title, prompt line, status line and help
	reserved := 6
	if m.state.Awaiting() {
		reserved += m.content.Height()
	}
	m.viewport.Width = width
	m.viewport.Height = max(height-reserved, 3)
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m *Model) renderTranscript() string {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	body := lipgloss.NewStyle().Width(width - 2)

	var b strings.Builder
	for i, e := range m.transcript {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(styles.speaker(e.role))
		b.WriteString("\n")
		b.WriteString(body.Render(e.text))
	}
	return b.String()
}

// View renders the transcript and whichever input is active.
func (m *Model) View() string {
	title := styles.title.Render("Jarvis")

	var prompt, status string
	keys := []key.Binding{m.keys.send, m.keys.pageUp, m.keys.pageDown, m.keys.quit}
	if m.state.Awaiting() {
		status = styles.status.Render(fmt.Sprintf("Enter the content for '%s'.", m.state.Filename))
		prompt = m.content.View()
		keys = []key.Binding{m.keys.save, m.keys.cancel, m.keys.quit}
	} else {
		prompt = m.input.View()
	}
	if m.pending {
		status = m.spinner.View() + styles.help.Render(" thinking...")
	}

	return fmt.Sprintf("%s\n%s\n\n%s\n%s\n%s", title, m.viewport.View(), status, prompt, m.help.ShortHelpView(keys))
}

// Transcript returns the conversation so far as plain text lines.
func (m *Model) Transcript() []string {
	lines := make([]string, len(m.transcript))
	for i, e := range m.transcript {
		lines[i] = e.role.String() + ": " + e.text
	}
	return lines
}

package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/suPer8Hu/gopherchat/internal/auth"
	"github.com/suPer8Hu/gopherchat/internal/chat"
	"github.com/suPer8Hu/gopherchat/internal/controller"
)

// Controller is the part of *controller.Controller the terminal UI drives.
type Controller interface {
	Snapshot() controller.Snapshot
	SignIn(ctx context.Context, creds auth.Credentials) (*auth.Session, error)
	SignOut(ctx context.Context)
	Refresh(ctx context.Context) error
	Select(ctx context.Context, id string) error
	NewConversation(ctx context.Context, firstMessage string) (string, error)
	Send(ctx context.Context, content string) error
	Rename(ctx context.Context, id, title string) error
	DismissNotice()
}

type focus int

const (
	focusEmail focus = iota
	focusPassword
	focusList
	focusInput
)

const listWidth = 30

// resultMsg carries the controller state after an intent completed.
type resultMsg struct {
	snap controller.Snapshot
	err  error
}

type Options struct {
	// MarkdownStyle is a glamour standard style name.
	MarkdownStyle string
	Email         string
}

type Model struct {
	ctx   context.Context
	ctrl  Controller
	keys  KeyMap
	style *Style

	snap    controller.Snapshot
	focus   focus
	pending int
	sending string

	email    textinput.Model
	password textinput.Model
	list     ConversationList
	input    textinput.Model
	messages viewport.Model
	spinner  spinner.Model

	markdownStyle string
	renderer      *glamour.TermRenderer
	rendererWidth int

	width, height int
}

func NewModel(ctx context.Context, ctrl Controller, opts Options) Model {
	email := textinput.New()
	email.Placeholder = "email"
	email.SetValue(opts.Email)
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	input := textinput.New()
	input.Placeholder = "Send a message..."
	input.CharLimit = 4000

	s := spinner.New()
	s.Spinner = spinner.Dot

	if opts.MarkdownStyle == "" {
		opts.MarkdownStyle = "dark"
	}

	m := Model{
		ctx:           ctx,
		ctrl:          ctrl,
		keys:          DefaultKeyMap,
		style:         DefaultStyles(),
		email:         email,
		password:      password,
		list:          NewConversationList(),
		input:         input,
		messages:      viewport.New(60, 18),
		spinner:       s,
		markdownStyle: opts.MarkdownStyle,
		width:         100,
		height:        24,
	}
	m.apply(ctrl.Snapshot())
	if m.snap.User != nil {
		m.focus = focusInput
		m.email.Blur()
		m.input.Focus()
	} else if opts.Email != "" {
		m.focus = focusPassword
		m.email.Blur()
		m.password.Focus()
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// run executes an intent off the UI loop and reports the resulting snapshot.
func (m *Model) run(f func(ctx context.Context, c Controller) error) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	m.pending++
	call := func() tea.Msg {
		err := f(ctx, ctrl)
		return resultMsg{snap: ctrl.Snapshot(), err: err}
	}
	if m.pending == 1 {
		return tea.Batch(call, m.spinner.Tick)
	}
	return call
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case resultMsg:
		m.pending--
		if msg.err != nil {
			log.Debug().Err(msg.err).Msg("ui intent failed")
		}
		m.apply(msg.snap)
		if m.pending == 0 {
			m.sending = ""
		}
		if m.snap.User != nil && m.focus < focusList {
			m.focus = focusInput
			m.email.Blur()
			m.password.Blur()
			m.password.Reset()
			cmd := m.input.Focus()
			return m, cmd
		}
		if m.snap.User == nil && m.focus >= focusList {
			m.focus = focusEmail
			m.input.Blur()
			cmd := m.email.Focus()
			return m, cmd
		}
		return m, nil

	case spinner.TickMsg:
		if m.pending == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.apply(m.ctrl.Snapshot())
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if key.Matches(msg, m.keys.DismissNotice) {
			m.ctrl.DismissNotice()
			m.snap.Notice = ""
			return m, nil
		}
		switch m.focus {
		case focusEmail, focusPassword:
			return m.updateLogin(msg)
		case focusList:
			return m.updateList(msg)
		default:
			return m.updateInput(msg)
		}
	}
	return m, nil
}

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.SwitchFocus):
		if m.focus == focusEmail {
			m.focus = focusPassword
			m.email.Blur()
			cmd := m.password.Focus()
			return m, cmd
		}
		m.focus = focusEmail
		m.password.Blur()
		cmd := m.email.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Submit):
		if m.pending > 0 {
			return m, nil
		}
		creds := auth.Credentials{Email: m.email.Value(), Password: m.password.Value()}
		cmd := m.run(func(ctx context.Context, c Controller) error {
			_, err := c.SignIn(ctx, creds)
			return err
		})
		return m, cmd
	}

	var cmd tea.Cmd
	if m.focus == focusEmail {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.Editing() {
		switch {
		case key.Matches(msg, m.keys.Submit):
			id, title, _ := m.list.Confirm()
			cmd := m.run(func(ctx context.Context, c Controller) error {
				return c.Rename(ctx, id, title)
			})
			return m, cmd
		case key.Matches(msg, m.keys.Cancel):
			m.list.Cancel()
			return m, nil
		}
		cmd := m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.SwitchFocus):
		m.focus = focusInput
		cmd := m.input.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Up):
		m.list.Up()
	case key.Matches(msg, m.keys.Down):
		m.list.Down()
	case key.Matches(msg, m.keys.Submit):
		conv, ok := m.list.Selected()
		if !ok {
			return m, nil
		}
		m.focus = focusInput
		focusCmd := m.input.Focus()
		cmd := tea.Batch(focusCmd, m.run(func(ctx context.Context, c Controller) error {
			return c.Select(ctx, conv.ID)
		}))
		return m, cmd
	case key.Matches(msg, m.keys.NewChat):
		m.focus = focusInput
		focusCmd := m.input.Focus()
		cmd := tea.Batch(focusCmd, m.run(func(ctx context.Context, c Controller) error {
			_, err := c.NewConversation(ctx, "")
			return err
		}))
		return m, cmd
	case key.Matches(msg, m.keys.Rename):
		cmd, _ := m.list.StartEdit()
		return m, cmd
	case key.Matches(msg, m.keys.SignOut):
		cmd := m.run(func(ctx context.Context, c Controller) error {
			c.SignOut(ctx)
			return nil
		})
		return m, cmd
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.SwitchFocus):
		m.focus = focusList
		m.input.Blur()
		return m, nil
	case key.Matches(msg, m.keys.ScrollUp), key.Matches(msg, m.keys.ScrollDown):
		var cmd tea.Cmd
		m.messages, cmd = m.messages.Update(msg)
		return m, cmd
	case key.Matches(msg, m.keys.SignOut):
		cmd := m.run(func(ctx context.Context, c Controller) error {
			c.SignOut(ctx)
			return nil
		})
		return m, cmd
	case key.Matches(msg, m.keys.Submit):
		text := m.input.Value()
		if strings.TrimSpace(text) == "" {
			return m, nil
		}
		if m.snap.InFlight {
			// the controller would refuse; keep the draft
			return m, nil
		}
		m.input.Reset()
		m.sending = text
		m.refreshMessages()
		if m.snap.ActiveID == "" {
			cmd := m.run(func(ctx context.Context, c Controller) error {
				_, err := c.NewConversation(ctx, text)
				return err
			})
			return m, cmd
		}
		cmd := m.run(func(ctx context.Context, c Controller) error {
			return c.Send(ctx, text)
		})
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) apply(s controller.Snapshot) {
	m.snap = s
	m.list.SetItems(s.Conversations, s.ActiveID)
	m.refreshMessages()
}

func (m *Model) layout() {
	right := m.width - listWidth - 4
	if right < 20 {
		right = 20
	}
	h := m.height - 6
	if h < 3 {
		h = 3
	}
	m.messages.Width = right
	m.messages.Height = h
	m.input.Width = right - 4
	m.refreshMessages()
}

func (m *Model) refreshMessages() {
	m.messages.SetContent(m.renderMessages())
	m.messages.GotoBottom()
}

func (m *Model) renderMessages() string {
	var b strings.Builder
	for _, msg := range m.snap.Messages {
		if msg.Role == chat.RoleAssistant {
			b.WriteString(m.style.AssistantLabel.Render("Assistant"))
			b.WriteString("\n")
			b.WriteString(m.markdown(msg.Content))
			b.WriteString("\n")
			continue
		}
		b.WriteString(m.style.UserLabel.Render("You"))
		b.WriteString("\n")
		b.WriteString(msg.Content)
		b.WriteString("\n\n")
	}
	if m.sending != "" && !m.hasUserTurn(m.sending) {
		b.WriteString(m.style.UserLabel.Render("You"))
		b.WriteString("\n")
		b.WriteString(m.sending)
		b.WriteString("\n\n")
	}
	return b.String()
}

// hasUserTurn reports whether the last persisted user message already shows text.
func (m *Model) hasUserTurn(text string) bool {
	for i := len(m.snap.Messages) - 1; i >= 0; i-- {
		if m.snap.Messages[i].Role == chat.RoleUser {
			return m.snap.Messages[i].Content == text
		}
	}
	return false
}

func (m *Model) markdown(s string) string {
	w := m.messages.Width
	if m.renderer == nil || m.rendererWidth != w {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(m.markdownStyle),
			glamour.WithWordWrap(w),
		)
		if err != nil {
			log.Warn().Err(err).Msg("markdown renderer unavailable")
			return s + "\n"
		}
		m.renderer, m.rendererWidth = r, w
	}
	out, err := m.renderer.Render(s)
	if err != nil {
		return s + "\n"
	}
	return out
}

func (m Model) View() string {
	if m.snap.User == nil {
		return m.loginView()
	}

	listStyle := m.style.ListPane
	if m.focus == focusList {
		listStyle = m.style.FocusedPane
	}
	left := listStyle.Width(listWidth).Height(m.height - 4).Render(
		m.style.Title.Render("Conversations") + "\n" + m.list.View(m.style, listWidth),
	)

	inputStyle := m.style.ListPane
	if m.focus == focusInput {
		inputStyle = m.style.FocusedPane
	}
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.messages.View(),
		inputStyle.Render(m.input.View()),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, left, right),
		m.statusLine(),
	)
}

func (m Model) statusLine() string {
	if m.snap.Notice != "" {
		return m.style.Notice.Render("! " + m.snap.Notice + "  (ctrl+x to dismiss)")
	}
	if m.pending > 0 || m.snap.InFlight {
		return m.style.Status.Render(fmt.Sprintf("%s %s", m.spinner.View(), phaseLabel(m.snap.Phase)))
	}
	name := m.snap.User.DisplayName
	if name == "" {
		name = m.snap.User.Email
	}
	return m.style.Status.Render(fmt.Sprintf("%s · tab switch pane · n new · r rename · ctrl+o sign out · ctrl+c quit", name))
}

func phaseLabel(p controller.Phase) string {
	switch p {
	case controller.PhaseSending:
		return "sending..."
	case controller.PhaseAwaitingCompletion:
		return "waiting for the assistant..."
	case controller.PhasePersistingReply:
		return "saving reply..."
	case controller.PhaseReconciling:
		return "syncing..."
	default:
		return "working..."
	}
}

func (m Model) loginView() string {
	var b strings.Builder
	b.WriteString(m.style.Title.Render("GopherChat"))
	b.WriteString("\n")
	b.WriteString(m.email.View())
	b.WriteString("\n")
	b.WriteString(m.password.View())
	b.WriteString("\n\n")
	if m.pending > 0 {
		b.WriteString(m.spinner.View() + " signing in...")
	} else if m.snap.Notice != "" {
		b.WriteString(m.style.Notice.Render(m.snap.Notice))
	} else {
		b.WriteString(m.style.Status.Render("tab switch field · enter sign in · ctrl+c quit"))
	}
	return b.String()
}

package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/suPer8Hu/gopherchat/internal/chat"
)

// ConversationList is the sidebar. The rename buffer is the only state it
// owns; items always come from the controller snapshot.
type ConversationList struct {
	items    []chat.Conversation
	activeID string
	cursor   int

	editing bool
	editID  string
	buffer  textinput.Model
}

func NewConversationList() ConversationList {
	ti := textinput.New()
	ti.CharLimit = 120
	ti.Prompt = "> "
	return ConversationList{buffer: ti}
}

// SetItems replaces the items, keeping the cursor on the same conversation
// when it is still present.
func (l *ConversationList) SetItems(items []chat.Conversation, activeID string) {
	var cur string
	if c, ok := l.Selected(); ok {
		cur = c.ID
	}
	l.items = items
	l.activeID = activeID
	l.cursor = 0
	target := cur
	if target == "" {
		target = activeID
	}
	for i, c := range items {
		if c.ID == target {
			l.cursor = i
			break
		}
	}
	if l.editing && !l.contains(l.editID) {
		l.Cancel()
	}
}

func (l *ConversationList) contains(id string) bool {
	for _, c := range l.items {
		if c.ID == id {
			return true
		}
	}
	return false
}

func (l *ConversationList) Up() {
	if l.cursor > 0 {
		l.cursor--
	}
}

func (l *ConversationList) Down() {
	if l.cursor < len(l.items)-1 {
		l.cursor++
	}
}

func (l ConversationList) Selected() (chat.Conversation, bool) {
	if l.cursor < 0 || l.cursor >= len(l.items) {
		return chat.Conversation{}, false
	}
	return l.items[l.cursor], true
}

func (l ConversationList) Editing() bool { return l.editing }

// StartEdit enters rename mode for the selected conversation with its
// current title in the buffer.
func (l *ConversationList) StartEdit() (tea.Cmd, bool) {
	c, ok := l.Selected()
	if !ok {
		return nil, false
	}
	l.editing = true
	l.editID = c.ID
	l.buffer.SetValue(c.Title)
	l.buffer.CursorEnd()
	return l.buffer.Focus(), true
}

// Update feeds key input to the rename buffer while editing.
func (l *ConversationList) Update(msg tea.Msg) tea.Cmd {
	if !l.editing {
		return nil
	}
	var cmd tea.Cmd
	l.buffer, cmd = l.buffer.Update(msg)
	return cmd
}

// Confirm leaves edit mode and returns what should be committed.
func (l *ConversationList) Confirm() (id, title string, ok bool) {
	if !l.editing {
		return "", "", false
	}
	id, title = l.editID, l.buffer.Value()
	l.reset()
	return id, title, true
}

// Cancel leaves edit mode and discards the buffer.
func (l *ConversationList) Cancel() {
	l.reset()
}

func (l *ConversationList) reset() {
	l.editing = false
	l.editID = ""
	l.buffer.Reset()
	l.buffer.Blur()
}

func (l ConversationList) View(style *Style, width int) string {
	if len(l.items) == 0 {
		return style.Status.Render("No conversations yet.\nPress n to start one.")
	}
	var b strings.Builder
	for i, c := range l.items {
		if l.editing && c.ID == l.editID {
			b.WriteString(l.buffer.View())
			b.WriteString("\n")
			continue
		}
		line := truncate(c.Title, width-2)
		marker := "  "
		if c.ID == l.activeID {
			marker = "• "
		}
		switch {
		case i == l.cursor:
			line = style.SelectedItem.Render(marker + line)
		case c.ID == l.activeID:
			line = style.ActiveItem.Render(marker + line)
		default:
			line = style.Item.Render(marker + line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func truncate(s string, n int) string {
	if n <= 1 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

package preview

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jimmystridh/obsidian-inbox-browser/internal/inbox"
)

// ViewMode represents the current view mode
type ViewMode int

// View modes for the inbox TUI
const (
	ListViewMode ViewMode = iota
	DetailViewMode
	NoteViewMode
)

// Model represents the Bubble Tea model for the inbox browser TUI
type Model struct {
	entries       []Entry
	cursor        int
	viewMode      ViewMode
	renderer      *inbox.NoteRenderer
	width         int
	height        int
	selectedIndex int // Index of the entry currently being viewed in detail
}

// NewModel creates a new inbox browser model
func NewModel(entries []Entry, renderer *inbox.NoteRenderer) Model {
	return Model{
		entries:       entries,
		cursor:        0,
		viewMode:      ListViewMode,
		renderer:      renderer,
		selectedIndex: -1,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch m.viewMode {
		case ListViewMode:
			return m.updateListView(msg)
		case DetailViewMode, NoteViewMode:
			return m.updateDetailView(msg)
		}
	}

	return m, nil
}

// updateListView handles key presses in list view mode
func (m Model) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}

	case "enter":
		m.selectedIndex = m.cursor
		m.viewMode = DetailViewMode

	case "n":
		m.selectedIndex = m.cursor
		m.viewMode = NoteViewMode
	}

	return m, nil
}

// updateDetailView handles key presses in detail/note view modes
func (m Model) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "esc":
		m.viewMode = ListViewMode

	case "n":
		// Toggle between detail and note views
		if m.viewMode == DetailViewMode {
			m.viewMode = NoteViewMode
		} else {
			m.viewMode = DetailViewMode
		}
	}

	return m, nil
}

// View implements tea.Model
func (m Model) View() string {
	switch m.viewMode {
	case ListViewMode:
		return m.renderListView()
	case DetailViewMode:
		return m.renderDetailView()
	case NoteViewMode:
		return m.renderNoteView()
	}
	return ""
}

// renderListView renders the list view
func (m Model) renderListView() string {
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12"))

	header := fmt.Sprintf("Inbox (%d items)", len(m.entries))
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n\n")

	visibleStart := 0
	visibleEnd := len(m.entries)

	// Calculate visible range if height is set
	if m.height > 0 {
		maxVisible := m.height - 6 // Account for header, footer, and padding
		if maxVisible < len(m.entries) {
			// Keep cursor in the middle of the screen when possible
			visibleStart = m.cursor - maxVisible/2
			if visibleStart < 0 {
				visibleStart = 0
			}
			visibleEnd = visibleStart + maxVisible
			if visibleEnd > len(m.entries) {
				visibleEnd = len(m.entries)
				visibleStart = visibleEnd - maxVisible
				if visibleStart < 0 {
					visibleStart = 0
				}
			}
		}
	}

	for i := visibleStart; i < visibleEnd; i++ {
		line := FormatCompactListItem(i, m.entries[i])

		if i == m.cursor {
			selectedStyle := lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("12")).
				Bold(true)
			b.WriteString(selectedStyle.Render("→ " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240"))

	footer := "↑/↓ or j/k: navigate • enter: view details • n: note preview • q: quit"
	b.WriteString(footerStyle.Render(footer))

	return b.String()
}

// renderDetailView renders the detail view
func (m Model) renderDetailView() string {
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.entries) {
		return "No item selected"
	}

	content := FormatDetailedEntry(m.entries[m.selectedIndex])

	var b strings.Builder
	b.WriteString(content)
	b.WriteString("\n")

	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240"))

	footer := "esc: back to list • n: toggle note preview • q: quit"
	b.WriteString(footerStyle.Render(footer))

	return b.String()
}

// renderNoteView renders the generated-note preview
func (m Model) renderNoteView() string {
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.entries) {
		return "No item selected"
	}

	content := FormatNotePreview(m.entries[m.selectedIndex], m.renderer)

	var b strings.Builder

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12"))

	b.WriteString(headerStyle.Render("Note Preview"))
	b.WriteString("\n\n")
	b.WriteString(content)
	b.WriteString("\n")

	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240"))

	footer := "esc: back to list • n: toggle detail view • q: quit"
	b.WriteString(footerStyle.Render(footer))

	return b.String()
}

// Run starts the Bubble Tea program
func Run(entries []Entry, renderer *inbox.NoteRenderer) error {
	if len(entries) == 0 {
		fmt.Println("No items to preview")
		return nil
	}

	p := tea.NewProgram(NewModel(entries, renderer), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

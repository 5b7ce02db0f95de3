package components

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/shuttle/internal/tui/styles"
)

const modalWidth = 40

var errEmptyName = errors.New("name cannot be empty")

var (
	submitKey  = key.NewBinding(key.WithKeys("enter"))
	dismissKey = key.NewBinding(key.WithKeys("esc"))
)

// NameModal asks for a single name and refuses to submit one that fails validation.
// The problem is shown under the input until the name is edited.
type NameModal struct {
	visible  bool
	title    string
	action   string
	input    textinput.Model
	validate func(string) error
	problem  string
}

// NewNameModal creates a hidden modal. action labels the enter key;
// validate may be nil, in which case only empty names are refused.
func NewNameModal(placeholder, action string, validate func(string) error) NameModal {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 255
	ti.Width = modalWidth - 10
	ti.Prompt = "› "
	ti.PromptStyle = styles.AccentStyle
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle

	return NameModal{input: ti, action: action, validate: validate}
}

// Show opens the modal with an empty input
func (m *NameModal) Show(title string) {
	m.visible = true
	m.title = title
	m.problem = ""
	m.input.SetValue("")
	m.input.Focus()
}

// Hide dismisses the modal
func (m *NameModal) Hide() {
	m.visible = false
	m.input.Blur()
}

func (m NameModal) IsVisible() bool { return m.visible }

// Value returns the entered name without surrounding spaces
func (m NameModal) Value() string {
	return strings.TrimSpace(m.input.Value())
}

// Problem is the validation message of the last refused submit
func (m NameModal) Problem() string { return m.problem }

// Update handles input events. submitted is true only for a name that passed validation.
func (m NameModal) Update(msg tea.Msg) (_ NameModal, _ tea.Cmd, submitted bool) {
	if !m.visible {
		return m, nil, false
	}

	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(kmsg, submitKey):
			if err := m.check(m.Value()); err != nil {
				m.problem = err.Error()
				return m, nil, false
			}
			return m, nil, true
		case key.Matches(kmsg, dismissKey):
			m.Hide()
			return m, nil, false
		}
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.problem = ""
	}
	return m, cmd, false
}

func (m NameModal) check(name string) error {
	if name == "" {
		return errEmptyName
	}
	if m.validate != nil {
		return m.validate(name)
	}
	return nil
}

// View renders the modal, or nothing when hidden
func (m NameModal) View() string {
	if !m.visible {
		return ""
	}

	block := lipgloss.NewStyle().Width(modalWidth).Background(styles.SlateDark)

	lines := []string{
		block.Foreground(styles.White).Bold(true).Render(m.title),
		block.Render(""),
		block.Render(m.input.View()),
	}
	if m.problem != "" {
		lines = append(lines, styles.ErrorStyle.Render(m.problem))
	}
	lines = append(lines,
		block.Render(""),
		styles.HelpEntry("enter", m.action)+"  "+styles.HelpEntry("esc", "cancel"),
	)

	return styles.ModalStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

package prompt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Rana718/cargador/internal/config"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrCancelled is returned when the operator leaves the form with esc or ctrl+c.
var ErrCancelled = errors.New("connection prompt cancelled")

// field indexes, in the order they are asked
const (
	fieldUser = iota
	fieldPassword
	fieldHost
	fieldPort
	fieldDatabase
	fieldCount
)

var labels = [fieldCount]string{"User", "Password", "Host", "Port", "Database"}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).BorderStyle(lipgloss.DoubleBorder()).BorderBottom(true).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Model is the connection form. Each input shows the current value as its
// placeholder; leaving an input blank keeps that value.
type Model struct {
	inputs    []textinput.Model
	focused   int
	provider  string
	err       error
	submitted bool
	cancelled bool
}

func NewModel(db config.Database) Model {
	inputs := make([]textinput.Model, fieldCount)

	inputs[fieldUser] = textinput.New()
	inputs[fieldUser].Placeholder = db.User
	inputs[fieldUser].CharLimit = 128
	inputs[fieldUser].Focus()

	inputs[fieldPassword] = textinput.New()
	inputs[fieldPassword].EchoMode = textinput.EchoPassword
	inputs[fieldPassword].EchoCharacter = '*'
	inputs[fieldPassword].CharLimit = 256

	inputs[fieldHost] = textinput.New()
	inputs[fieldHost].Placeholder = db.Host
	inputs[fieldHost].CharLimit = 256

	inputs[fieldPort] = textinput.New()
	inputs[fieldPort].Placeholder = strconv.Itoa(db.Port)
	inputs[fieldPort].CharLimit = 5

	inputs[fieldDatabase] = textinput.New()
	inputs[fieldDatabase].Placeholder = db.Name
	inputs[fieldDatabase].CharLimit = 128

	return Model{
		inputs:   inputs,
		focused:  fieldUser,
		provider: db.Provider,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit

		case "tab", "down":
			m.focused = (m.focused + 1) % fieldCount
			cmd := m.updateFocus()
			return m, cmd

		case "shift+tab", "up":
			m.focused--
			if m.focused < 0 {
				m.focused = fieldCount - 1
			}
			cmd := m.updateFocus()
			return m, cmd

		case "enter":
			if m.focused < fieldCount-1 {
				m.focused++
				cmd := m.updateFocus()
				return m, cmd
			}
			if err := m.validate(); err != nil {
				m.err = err
				return m, nil
			}
			m.err = nil
			m.submitted = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Database connection ("+m.provider+")") + "\n\n")

	for i := 0; i < fieldCount; i++ {
		label := fmt.Sprintf("  %-10s ", labels[i])
		cursor := "  "
		if i == m.focused {
			cursor = highlightStyle.Render("> ")
		}
		b.WriteString(cursor + dimStyle.Render(label) + m.inputs[i].View() + "\n")
	}

	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errStyle.Render("  "+m.err.Error()) + "\n")
	}
	b.WriteString(dimStyle.Render("  Leave a field blank to keep the default • enter to continue • esc to cancel\n"))

	return b.String()
}

func (m Model) Submitted() bool {
	return m.submitted
}

func (m Model) Cancelled() bool {
	return m.cancelled
}

func (m *Model) updateFocus() tea.Cmd {
	cmds := make([]tea.Cmd, fieldCount)
	for i := range m.inputs {
		if i == m.focused {
			cmds[i] = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return tea.Batch(cmds...)
}

func (m Model) value(field int) string {
	return strings.TrimSpace(m.inputs[field].Value())
}

func (m Model) validate() error {
	port := m.value(fieldPort)
	if port == "" {
		return nil
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("invalid port %q", port)
	}
	return nil
}

// Apply copies every non-blank answer into db.
func (m Model) Apply(db *config.Database) error {
	if err := m.validate(); err != nil {
		return err
	}

	if v := m.value(fieldUser); v != "" {
		db.User = v
	}
	// passwords may legitimately start or end with spaces
	if v := m.inputs[fieldPassword].Value(); v != "" {
		db.Password = v
	}
	if v := m.value(fieldHost); v != "" {
		db.Host = v
	}
	if v := m.value(fieldPort); v != "" {
		db.Port, _ = strconv.Atoi(v)
	}
	if v := m.value(fieldDatabase); v != "" {
		db.Name = v
	}
	return nil
}

// Run shows the form and writes the answers into cfg.
func Run(cfg *config.Config) error {
	p := tea.NewProgram(NewModel(cfg.Database))

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("running connection prompt: %w", err)
	}

	m := final.(Model)
	if m.Cancelled() || !m.Submitted() {
		return ErrCancelled
	}
	return m.Apply(&cfg.Database)
}

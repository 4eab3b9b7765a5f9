package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	bsos "github.com/firecraftgaming/binary-structured-objects"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	schemaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	layoutStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

var errNoTerminal = errors.New("interactive mode needs a terminal")

func (a *app) interactive(schemaPath string) error {
	f, ok := a.stdout.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return errNoTerminal
	}
	reg, err := a.registry(schemaPath)
	if err != nil {
		return err
	}
	p := tea.NewProgram(newInteractiveModel(reg, schemaPath), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

type interactiveModel struct {
	err      error
	reg      *bsos.Registry
	filename string
	result   string
	schemas  []string
	input    textinput.Model
	selected int
}

func newInteractiveModel(reg *bsos.Registry, filename string) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "hex bytes, e.g. 01 78 00"
	ti.Prompt = "bytes: "
	ti.Width = 60
	ti.Focus()

	return &interactiveModel{
		reg:      reg,
		filename: filename,
		schemas:  reg.Schemas(),
		input:    ti,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "up":
			if m.selected > 0 {
				m.selected--
				m.decode()
			}
			return m, nil
		case "down":
			if m.selected < len(m.schemas)-1 {
				m.selected++
				m.decode()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.decode()
	return m, cmd
}

// decode runs the hex input through the selected schema.
func (m *interactiveModel) decode() {
	m.result, m.err = "", nil
	text := strings.Join(strings.Fields(m.input.Value()), "")
	if text == "" || len(m.schemas) == 0 {
		return
	}
	if len(text)%2 != 0 {
		m.err = errors.New("odd number of hex digits")
		return
	}
	data, err := hex.DecodeString(text)
	if err != nil {
		m.err = err
		return
	}
	v, err := m.reg.Decode(m.schemas[m.selected], data)
	if err != nil {
		m.err = err
		return
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		m.err = err
		return
	}
	m.result = string(out)
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("BSOS"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	if len(m.schemas) == 0 {
		b.WriteString("No schemas declared.\n\n")
		b.WriteString(helpStyle.Render("esc quit"))
		return b.String()
	}

	for i, name := range m.schemas {
		line := "  " + name
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + name))
		} else {
			b.WriteString(schemaStyle.Render(line))
		}
		b.WriteString("\n")
	}

	name := m.schemas[m.selected]
	if ref, ok := m.reg.Layout(name); ok {
		b.WriteString("\n")
		b.WriteString(layoutStyle.Render(m.reg.Set().Format(ref)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	case m.result != "":
		b.WriteString(resultStyle.Render(m.result))
		b.WriteString("\n\n")
	}

	b.WriteString(helpStyle.Render("↑/↓ select schema • type hex to decode • esc quit"))
	return b.String()
}

package views

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rendis/proximo/internal/tui/styles"
)

// Field indices
const (
	fieldSource = iota
	fieldAPIKey
	fieldLimit
	fieldPageSize
	fieldConcurrency
	fieldOutput
	fieldCount
)

type SyncModel struct {
	inputs  []textinput.Model
	focused int
	err     string
}

func NewSyncModel() SyncModel {
	// .env fills source credentials so the form starts pre-populated
	godotenv.Load()

	inputs := make([]textinput.Model, fieldCount)
	inputs[fieldSource] = newInput("https://api.example.com", os.Getenv("PROXIMO_API_URL"), 60)
	inputs[fieldAPIKey] = newInput("service key", os.Getenv("PROXIMO_API_KEY"), 60)
	inputs[fieldAPIKey].EchoMode = textinput.EchoPassword
	inputs[fieldLimit] = newInput("0 = all", "", 10)
	inputs[fieldPageSize] = newInput("100", "", 10)
	inputs[fieldConcurrency] = newInput("10", "", 5)
	inputs[fieldOutput] = newInput("./projects", "", 50)

	m := SyncModel{
		inputs:  inputs,
		focused: fieldSource,
	}
	m.inputs[fieldSource].Focus()
	return m
}

func newInput(placeholder, value string, width int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 200
	if width > 0 {
		ti.Width = width
	}
	if value != "" {
		ti.SetValue(value)
	}
	return ti
}

func (m SyncModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m SyncModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, func() tea.Msg { return NavigateToHome{} }

		case "up", "shift+tab":
			m.err = ""
			return m, m.focusPrev()

		case "down", "tab":
			m.err = ""
			return m, m.focusNext()

		case "enter":
			if cmd := m.submit(); cmd != nil {
				return m, cmd
			}
		}
	}

	var cmd tea.Cmd
	if m.focused >= 0 && m.focused < fieldCount {
		m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	}
	return m, cmd
}

func (m *SyncModel) focusNext() tea.Cmd {
	m.inputs[m.focused].Blur()
	m.focused++
	if m.focused >= fieldCount {
		m.focused = fieldSource
	}
	m.inputs[m.focused].Focus()
	return textinput.Blink
}

func (m *SyncModel) focusPrev() tea.Cmd {
	m.inputs[m.focused].Blur()
	m.focused--
	if m.focused < 0 {
		m.focused = fieldCount - 1
	}
	m.inputs[m.focused].Focus()
	return textinput.Blink
}

func (m *SyncModel) submit() tea.Cmd {
	source := strings.TrimSpace(m.inputs[fieldSource].Value())
	if source == "" {
		m.err = "Source URL is required"
		return nil
	}
	if u, err := url.Parse(source); err != nil || u.Scheme == "" || u.Host == "" {
		m.err = "Source must be a full URL, e.g. https://api.example.com"
		return nil
	}

	output := strings.TrimSpace(m.inputs[fieldOutput].Value())
	if output == "" {
		m.err = "Output directory is required"
		return nil
	}

	limitStr := strings.TrimSpace(m.inputs[fieldLimit].Value())
	if limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err != nil || n < 0 {
			m.err = "Limit must be a non-negative number"
			return nil
		}
	}

	pageStr := strings.TrimSpace(m.inputs[fieldPageSize].Value())
	if pageStr != "" {
		if n, err := strconv.Atoi(pageStr); err != nil || n < 1 {
			m.err = "Page size must be a positive number"
			return nil
		}
	}

	concStr := strings.TrimSpace(m.inputs[fieldConcurrency].Value())
	if concStr != "" {
		if n, err := strconv.Atoi(concStr); err != nil || n < 1 {
			m.err = "Concurrency must be a positive number"
			return nil
		}
	}

	return func() tea.Msg {
		return StartSyncMsg{
			Source:      source,
			APIKey:      strings.TrimSpace(m.inputs[fieldAPIKey].Value()),
			Limit:       limitStr,
			PageSize:    pageStr,
			Concurrency: concStr,
			Output:      output,
		}
	}
}

func (m SyncModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("New Sync") + "\n\n")

	b.WriteString(m.renderField("Source URL:", fieldSource))
	b.WriteString(m.renderField("API Key:", fieldAPIKey))
	b.WriteString("\n")
	b.WriteString(m.renderField("Limit:", fieldLimit))
	b.WriteString(m.renderField("Page Size:", fieldPageSize))
	b.WriteString(m.renderField("Concurrency:", fieldConcurrency))
	b.WriteString(m.renderField("Output:", fieldOutput))

	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(styles.ErrorText.Render("  " + m.err))
	}

	b.WriteString("\n\n")
	b.WriteString(styles.StatusBar.Render("enter start • tab next • esc back"))

	return styles.Border.Render(b.String())
}

func (m SyncModel) renderField(label string, idx int) string {
	l := styles.Label.Render(label)
	v := m.inputs[idx].View()
	return fmt.Sprintf("%s %s\n", l, v)
}

// Messages
type NavigateToHome struct{}

type StartSyncMsg struct {
	Source      string
	APIKey      string
	Limit       string
	PageSize    string
	Concurrency string
	Output      string
}

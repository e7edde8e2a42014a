// Package tui provides a Bubble Tea terminal front end for the download server.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	api "github.com/mediafetch/video-downloader/api/v1alpha1"
	"github.com/mediafetch/video-downloader/internal/controller"
)

const refreshInterval = 100 * time.Millisecond

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	buttonStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(0, 2)
)

var formats = []string{string(api.FormatMP4), string(api.FormatMP3)}

type refreshMsg struct{}

// Model is the Bubble Tea model driving a download controller.
type Model struct {
	ctrl      *controller.Controller
	screen    *Screen
	baseURL   string
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	format    int
	view      screenState
	active    bool
}

// NewModel wires a controller to a fresh screen. baseURL prefixes the
// rendered download link.
func NewModel(c controller.Client, baseURL string, opts ...controller.Option) Model {
	screen := &Screen{}

	ti := textinput.New()
	ti.Placeholder = "https://www.youtube.com/watch?v=..."
	ti.Focus()
	ti.CharLimit = 2048
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	return Model{
		ctrl:      controller.New(c, screen, opts...),
		screen:    screen,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		textInput: ti,
		spinner:   sp,
		progress:  prog,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, refresh())
}

func refresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return refreshMsg{}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.progress.Width = min(max(msg.Width-20, 20), 80)
		return m, nil

	case tea.KeyMsg:
		m.screen.DismissAlert()

		switch msg.String() {
		case "ctrl+c", "esc":
			m.ctrl.Close()
			return m, tea.Quit

		case "tab":
			m.format = (m.format + 1) % len(formats)
			m.ctrl.SetFormat(formats[m.format])
			return m, nil

		case "enter":
			m.ctrl.SetURL(m.textInput.Value())
			_ = m.ctrl.HandleKey("enter")
			m.view = m.screen.snapshot()
			return m, nil
		}

	case refreshMsg:
		m.view = m.screen.snapshot()
		state := m.ctrl.Snapshot().State
		m.active = state == controller.StateStarting || state == controller.StatePolling
		return m, refresh()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	before := m.textInput.Value()
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	cmds = append(cmds, cmd)
	if m.textInput.Value() != before {
		m.ctrl.SetURL(m.textInput.Value())
		m.view = m.screen.snapshot()
	}

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Video Downloader"))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render("Video URL:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	for i, f := range formats {
		mark := "( )"
		if i == m.format {
			mark = "(•)"
		}
		b.WriteString(fmt.Sprintf("  %s %s", mark, strings.ToUpper(f)))
	}
	b.WriteString("\n\n")

	if m.view.ButtonVisible {
		b.WriteString(buttonStyle.Render("Download"))
		b.WriteString("\n\n")
	}

	if m.view.ProgressVisible {
		b.WriteString(m.progress.ViewAs(m.view.Progress / 100))
		b.WriteString("\n\n")
	}

	switch {
	case m.view.LinkHref != "":
		b.WriteString(successStyle.Render(fmt.Sprintf("%s: %s%s", m.view.LinkLabel, m.baseURL, m.view.LinkHref)))
		b.WriteString("\n")
	case m.view.Status != "":
		if m.active {
			b.WriteString(m.spinner.View())
			b.WriteString(" ")
		}
		b.WriteString(m.view.Status)
		b.WriteString("\n")
	}

	if m.view.Alert != "" {
		b.WriteString(warningStyle.Render(m.view.Alert))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("enter: download • tab: format • esc: quit"))

	return b.String()
}

// Run starts the terminal UI.
func Run(c controller.Client, baseURL string) error {
	p := tea.NewProgram(NewModel(c, baseURL), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

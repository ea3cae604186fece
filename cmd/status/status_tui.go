package status

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// --- Messages ---

type fetchResultMsg struct {
	snapshot *StatusSnapshot
	err      error
}

type tickMsg time.Time

// --- Model ---

type model struct {
	checker     *StatusChecker
	snapshot    *StatusSnapshot
	err         error
	loading     bool
	pollSeconds int
	width       int
	height      int
}

func newModel(checker *StatusChecker, pollSeconds int) model {
	return model{
		checker:     checker,
		pollSeconds: pollSeconds,
		loading:     true,
	}
}

func newProgram(m model) *tea.Program {
	return tea.NewProgram(m, tea.WithAltScreen())
}

// --- Init ---

func (m model) Init() tea.Cmd {
	return tea.Batch(fetchCmd(m.checker), tea.WindowSize())
}

// --- Update ---

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			if !m.loading {
				m.loading = true
				return m, fetchCmd(m.checker)
			}
			return m, nil
		case "+", "=":
			if m.pollSeconds < 60 {
				m.pollSeconds++
			}
			return m, nil
		case "-", "_":
			if m.pollSeconds > 1 {
				m.pollSeconds--
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case fetchResultMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			// keep retrying on next tick
			return m, scheduleTick(m.pollSeconds)
		}
		m.err = nil
		m.snapshot = msg.snapshot
		return m, scheduleTick(m.pollSeconds)

	case tickMsg:
		if m.loading {
			return m, nil
		}
		m.loading = true
		return m, fetchCmd(m.checker)
	}

	return m, nil
}

// --- View ---

var errorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color(movementRed)).
	Bold(true)

func (m model) View() string {
	var b strings.Builder

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)))
		b.WriteString("\n  Check the state file and kubeconfig.\n\n")
	}

	if m.snapshot != nil {
		b.WriteString(renderSnapshot(m.snapshot))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render(fmt.Sprintf("  Refreshing every %ds  |  Last updated: %s",
			m.pollSeconds, m.snapshot.ObservedAt.Format("15:04:05"))))
		b.WriteString("\n")
	} else if m.err == nil {
		b.WriteString("  Loading...\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("  q quit  •  r refresh  •  +/- interval"))
	b.WriteString("\n")

	return b.String()
}

// --- Commands ---

func fetchCmd(checker *StatusChecker) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		snapshot, err := checker.Fetch(ctx)
		return fetchResultMsg{snapshot: snapshot, err: err}
	}
}

func scheduleTick(seconds int) tea.Cmd {
	return tea.Tick(time.Duration(seconds)*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

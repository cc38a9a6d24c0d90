// Package monitor is a terminal view of axis state, refreshed by polling
// GET ALL.
package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"stepperhub/host/client"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	axisStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	movingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Padding(0, 1)
	stoppedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Padding(0, 1)
	tableHeader  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
)

const maxArrivals = 5

// Source is what the monitor polls.
type Source interface {
	Snapshot(ctx context.Context, axis byte) (client.Snapshot, error)
	Arrivals() <-chan client.Arrival
}

type tickMsg time.Time

type snapshotMsg struct {
	snaps map[byte]client.Snapshot
	errs  map[byte]error
}

type arrivalMsg client.Arrival

// Model is the bubbletea model of the monitor.
type Model struct {
	source   Source
	axes     []byte
	interval time.Duration

	snaps    map[byte]client.Snapshot
	errs     map[byte]error
	arrivals []client.Arrival
	polls    int
	quitting bool
}

// New creates a monitor of axes refreshed every interval.
func New(source Source, axes []byte, interval time.Duration) Model {
	return Model{
		source:   source,
		axes:     axes,
		interval: interval,
		snaps:    make(map[byte]client.Snapshot),
		errs:     make(map[byte]error),
	}
}

// Run shows the monitor until the user quits.
func Run(source Source, axes []byte, interval time.Duration) error {
	_, err := tea.NewProgram(New(source, axes, interval)).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.poll, m.waitArrival)
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) poll() tea.Msg {
	msg := snapshotMsg{
		snaps: make(map[byte]client.Snapshot),
		errs:  make(map[byte]error),
	}
	for _, axis := range m.axes {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		s, err := m.source.Snapshot(ctx, axis)
		cancel()
		if err != nil {
			msg.errs[axis] = err
			continue
		}
		msg.snaps[axis] = s
	}
	return msg
}

func (m Model) waitArrival() tea.Msg {
	a, ok := <-m.source.Arrivals()
	if !ok {
		return nil
	}
	return arrivalMsg(a)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		return m, m.poll

	case snapshotMsg:
		m.polls++
		m.snaps = msg.snaps
		m.errs = msg.errs
		return m, m.tick()

	case arrivalMsg:
		m.arrivals = append(m.arrivals, client.Arrival(msg))
		if len(m.arrivals) > maxArrivals {
			m.arrivals = m.arrivals[len(m.arrivals)-maxArrivals:]
		}
		return m, m.waitArrival
	}

	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("Stepper Monitor"))
	sb.WriteString("\n\n")

	rows := make([][]string, 0, len(m.axes))
	moving := make([]bool, 0, len(m.axes))
	for _, axis := range m.axes {
		s, ok := m.snaps[axis]
		if !ok {
			rows = append(rows, []string{string(axis), "-", "-", "-", "-", "-"})
			moving = append(moving, false)
			continue
		}
		rows = append(rows, []string{
			string(axis),
			fmt.Sprintf("%d", s.CurrentPosition),
			fmt.Sprintf("%d", s.TargetPosition),
			fmt.Sprintf("%d", s.CurrentSPS),
			fmt.Sprintf("%d..%d", s.MinSPS, s.MaxSPS),
			s.Status.String(),
		})
		moving = append(moving, !s.Status.Stopped())
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Axis", "Position", "Target", "Speed", "Range", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tableHeader
			case col == 0:
				return axisStyle
			case col == 5 && row >= 0 && row < len(moving) && moving[row]:
				return movingStyle
			case col == 5:
				return stoppedStyle
			}
			return cellStyle
		})
	sb.WriteString(t.Render())
	sb.WriteString("\n")

	for _, axis := range m.axes {
		if err, ok := m.errs[axis]; ok {
			sb.WriteString(errorStyle.Render(fmt.Sprintf("%c: %v", axis, err)))
			sb.WriteString("\n")
		}
	}
	for _, a := range m.arrivals {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("%c arrived at %d", a.Axis, a.Position)))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render("Press q to quit"))
	return sb.String()
}

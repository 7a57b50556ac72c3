// Copyright 2026 The Flowlog Authors
// SPDX-License-Identifier: Apache-2.0

package flowui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hydrolab/flowlog/lib/acquire"
	"github.com/hydrolab/flowlog/lib/livebuf"
)

// rollingWindow is the trailing window for the displayed average,
// matching the offline report's convention.
const rollingWindow = 10 * time.Second

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle  = lipgloss.NewStyle().Bold(true)
	targetStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	sparkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// KeyMap defines the display's key bindings.
type KeyMap struct {
	Stop key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Stop: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "stop session"),
		),
	}
}

// pollMsg carries one poll tick.
type pollMsg time.Time

// SessionDoneMsg tells the display that the acquisition session ended.
// The command running the session sends it via Program.Send.
type SessionDoneMsg struct {
	Err error
}

// Model is the bubbletea model for one session's display.
type Model struct {
	live       *livebuf.Buffer
	controller *acquire.Controller
	targetFlow float64
	interval   time.Duration
	keys       KeyMap

	width    int
	samples  []livebuf.Sample
	stats    acquire.Stats
	stopping bool
	done     bool
	err      error
}

// NewModel creates a display for a running session.
func NewModel(live *livebuf.Buffer, controller *acquire.Controller, targetFlow float64, interval time.Duration) Model {
	return Model{
		live:       live,
		controller: controller,
		targetFlow: targetFlow,
		interval:   interval,
		keys:       DefaultKeyMap(),
		width:      80,
	}
}

// Err returns the session error captured from SessionDoneMsg, for the
// command to surface after the program exits.
func (m Model) Err() error { return m.err }

// Init schedules the first poll.
func (m Model) Init() tea.Cmd {
	return m.schedulePoll()
}

func (m Model) schedulePoll() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return pollMsg(t)
	})
}

// Update handles ticks, key presses, and session termination.
func (m Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case pollMsg:
		if m.done {
			return m, nil
		}
		m.samples = m.live.Snapshot()
		m.stats = m.controller.Stats()
		return m, m.schedulePoll()

	case SessionDoneMsg:
		m.done = true
		m.err = message.Err
		// Final refresh so the closing screen shows the last record.
		m.samples = m.live.Snapshot()
		m.stats = m.controller.Stats()
		return m, tea.Quit

	case tea.KeyMsg:
		if key.Matches(message, m.keys.Stop) {
			// Request the stop and keep displaying until the session
			// confirms; quitting immediately would race the store
			// close.
			m.stopping = true
			m.controller.Stop()
			return m, nil
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = message.Width
		return m, nil
	}
	return m, nil
}

// View renders the display.
func (m Model) View() string {
	var lines []string

	lines = append(lines, titleStyle.Render(fmt.Sprintf("Live Flow  (target %g l/s)", m.targetFlow)))
	lines = append(lines, "")

	if len(m.samples) == 0 {
		lines = append(lines, labelStyle.Render("waiting for first record..."))
	} else {
		latest := m.samples[len(m.samples)-1]
		lines = append(lines,
			fmt.Sprintf("%s %s l/s    %s %s l/s    %s %s",
				labelStyle.Render("flow"),
				valueStyle.Render(fmt.Sprintf("%.3f", latest.Value)),
				labelStyle.Render("avg(10s)"),
				valueStyle.Render(fmt.Sprintf("%.3f", m.rollingAverage())),
				labelStyle.Render("target"),
				targetStyle.Render(fmt.Sprintf("%g", m.targetFlow)),
			),
		)
		lines = append(lines, "")
		lines = append(lines, sparkStyle.Render(sparkline(m.flowValues(), m.width-4)))
		lines = append(lines, labelStyle.Render(fmt.Sprintf("last sample %s",
			latest.Timestamp.Format("15:04:05"))))
	}

	lines = append(lines, "")
	lines = append(lines, labelStyle.Render(fmt.Sprintf(
		"records %d   dropped %d   framing resets %d   regressions %d",
		m.stats.RecordsStored, m.stats.FramesDropped,
		m.stats.FramingResets, m.stats.TimestampRegressions)))

	switch {
	case m.done && m.err != nil:
		lines = append(lines, errorStyle.Render("session failed: "+m.err.Error()))
	case m.done:
		lines = append(lines, labelStyle.Render("session ended"))
	case m.stopping:
		lines = append(lines, labelStyle.Render("stopping..."))
	default:
		lines = append(lines, helpStyle.Render("q to stop"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...) + "\n"
}

// flowValues projects the sampled flow values for the sparkline.
func (m Model) flowValues() []float64 {
	values := make([]float64, len(m.samples))
	for i, sample := range m.samples {
		values[i] = sample.Value
	}
	return values
}

// rollingAverage is the mean of samples within the trailing window,
// anchored at the newest sample.
func (m Model) rollingAverage() float64 {
	if len(m.samples) == 0 {
		return 0
	}
	cutoff := m.samples[len(m.samples)-1].Timestamp.Add(-rollingWindow)
	sum, count := 0.0, 0
	for i := len(m.samples) - 1; i >= 0; i-- {
		if !m.samples[i].Timestamp.After(cutoff) {
			break
		}
		sum += m.samples[i].Value
		count++
	}
	if count == 0 {
		return m.samples[len(m.samples)-1].Value
	}
	return sum / float64(count)
}

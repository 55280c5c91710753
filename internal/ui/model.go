// Package ui provides the Bubbletea terminal interface: two scrolling
// waveform panes, one per engine channel, plus the auto-balance status line.
package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/duoscope/duoscope/internal/engine"
	"github.com/duoscope/duoscope/internal/loudness"
	"github.com/duoscope/duoscope/internal/scope"
)

// refreshInterval is the display frame budget (~30fps). All display-path
// work for both channels must finish inside it.
const refreshInterval = 33 * time.Millisecond

// channelPane is the per-channel display state the views render from.
type channelPane struct {
	Samples  []float32 // current displayable window
	Gain     float64   // display gain applied when plotting
	SyncFreq float64   // frequency the window was sized for
	MixGain  float64   // balancing multiplier on the mix path
	Loudness float64   // last measured source loudness, dB
	Centroid float64   // spectral centroid of last capture, Hz
	Measured bool      // whether a valid measurement exists
}

// Model is the Bubbletea model for the scope.
type Model struct {
	Engine  *engine.Engine
	Output  engine.Output
	Views   [engine.NumChannels]*scope.ChannelView
	Manager *loudness.Manager

	// AutoBalance re-measures once per loop while playing.
	AutoBalance bool

	Panes     [engine.NumChannels]channelPane
	Playing   bool
	Balancing bool

	lastBalance time.Time

	Width  int
	Height int
	Err    error
}

// NewModel wires the display loop to an engine, its per-channel views and
// the loudness manager. The output backend is started and stopped from here
// so playback and display state stay in step.
func NewModel(e *engine.Engine, out engine.Output, views [engine.NumChannels]*scope.ChannelView, mgr *loudness.Manager, autoBalance bool) Model {
	m := Model{
		Engine:      e,
		Output:      out,
		Views:       views,
		Manager:     mgr,
		AutoBalance: autoBalance,
	}
	for ch := range m.Panes {
		m.Panes[ch].Gain = 1
		m.Panes[ch].MixGain = 1
		m.Panes[ch].Loudness = loudness.MinDB
	}
	return m
}

// Init starts playback and the refresh loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(func() tea.Msg { return startMsg{} }, tick())
}

// Update handles messages and advances the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case startMsg:
		return m, m.startPlayback()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.stopPlayback()
			return m, tea.Quit
		case " ":
			if m.Playing {
				m.stopPlayback()
				return m, nil
			}
			return m, m.startPlayback()
		case "b":
			if m.Playing {
				// Manual balance; overlapping requests coalesce inside the
				// manager, so mashing the key is harmless.
				m.Balancing = true
				return m, m.balanceCmd()
			}
		case "a":
			m.AutoBalance = !m.AutoBalance
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case TickMsg:
		cmds := []tea.Cmd{tick()}
		if m.Playing {
			m.refreshPanes()
			if cmd := m.maybeAutoBalance(); cmd != nil {
				m.Balancing = true
				cmds = append(cmds, cmd)
			}
		}
		return m, tea.Batch(cmds...)

	case BalanceResultMsg:
		m.Balancing = false
		m.lastBalance = time.Now()
		m.applyBalance(msg)
	}

	return m, nil
}

// View renders the scope.
func (m Model) View() string {
	if m.Width == 0 {
		return "starting..."
	}
	return renderScopeView(m)
}

// refreshPanes runs the per-frame display path for both channels.
func (m *Model) refreshPanes() {
	rate := float64(m.Engine.SampleRate())
	for ch := engine.Channel(0); ch < engine.NumChannels; ch++ {
		freq := m.Engine.LowestFrequency(ch)
		samples, gain := m.Views[ch].Frame(freq, rate)
		m.Panes[ch].Samples = samples
		m.Panes[ch].Gain = gain
		m.Panes[ch].SyncFreq = freq
		m.Panes[ch].MixGain = m.Engine.MixGain(ch)
	}
}

// maybeAutoBalance starts a measurement once per loop while playing.
func (m *Model) maybeAutoBalance() tea.Cmd {
	if !m.AutoBalance || m.Balancing {
		return nil
	}
	if time.Since(m.lastBalance) < m.Engine.LoopDuration() {
		return nil
	}
	return m.balanceCmd()
}

// balanceCmd measures one loop of both channels off the display loop.
func (m Model) balanceCmd() tea.Cmd {
	eng, mgr := m.Engine, m.Manager
	return func() tea.Msg {
		gains := mgr.Measure(context.Background(), eng.LoopDuration())
		return BalanceResultMsg{Gains: gains, Snapshots: mgr.Snapshots()}
	}
}

// applyBalance feeds a completed measurement into the mix path and the
// status display. Results arriving after stop are shown but not applied.
func (m *Model) applyBalance(msg BalanceResultMsg) {
	for ch := engine.Channel(0); ch < engine.NumChannels; ch++ {
		if int(ch) >= len(msg.Gains) {
			break
		}
		if m.Playing {
			m.Engine.SetMixGain(ch, msg.Gains[ch])
		}
		snap := msg.Snapshots[ch]
		m.Panes[ch].MixGain = m.Engine.MixGain(ch)
		m.Panes[ch].Loudness = snap.LoudnessDB
		m.Panes[ch].Centroid = snap.Centroid
		m.Panes[ch].Measured = snap.Valid
	}
}

func (m *Model) startPlayback() tea.Cmd {
	m.Engine.Start()
	if err := m.Output.Start(); err != nil {
		m.Err = err
		m.Engine.Stop()
		return tea.Quit
	}
	m.Playing = true
	m.lastBalance = time.Now()
	return nil
}

// stopPlayback halts the output and resets the display path so a restart
// aligns and scales from scratch. In-flight measurements are left to finish;
// their results just stop being applied.
func (m *Model) stopPlayback() {
	m.Playing = false
	m.Output.Stop()
	m.Engine.Stop()
	for _, v := range m.Views {
		v.Reset()
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

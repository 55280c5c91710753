package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/duoscope/duoscope/internal/engine"
	"github.com/duoscope/duoscope/internal/loudness"
)

// Palette: one trace colour per channel, shared chrome otherwise.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00AFAF"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	valueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF"))

	traceStyles = [engine.NumChannels]lipgloss.Style{
		lipgloss.NewStyle().Foreground(lipgloss.Color("#00D7AF")), // channel A
		lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAF00")), // channel B
	}

	axisStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#444444"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)
)

// renderScopeView renders the full screen: header, one pane per channel,
// footer.
func renderScopeView(m Model) string {
	var b strings.Builder

	b.WriteString(renderHeader(m))
	b.WriteString("\n")

	// Space left after header (2 lines), per-pane info line, footer.
	paneHeight := (m.Height - 4) / int(engine.NumChannels)
	traceHeight := paneHeight - 2
	if traceHeight < 3 {
		traceHeight = 3
	}
	width := m.Width - 2
	if width < 16 {
		width = 16
	}

	for ch := engine.Channel(0); ch < engine.NumChannels; ch++ {
		b.WriteString(renderPane(m.Panes[ch], ch, width, traceHeight))
		b.WriteString("\n")
	}

	b.WriteString(renderFooter(m))
	return b.String()
}

func renderHeader(m Model) string {
	state := "stopped"
	if m.Playing {
		state = "playing"
	}
	if m.Balancing {
		state += " · balancing"
	}
	auto := "off"
	if m.AutoBalance {
		auto = "on"
	}
	return titleStyle.Render("Duoscope") +
		labelStyle.Render(fmt.Sprintf("  %s · auto-balance %s", state, auto))
}

// renderPane renders one channel: an info line and the waveform trace.
func renderPane(p channelPane, ch engine.Channel, width, height int) string {
	info := fmt.Sprintf(" %s  %s %s  %s %s  %s %s",
		traceStyles[ch].Bold(true).Render("ch "+ch.String()),
		labelStyle.Render("sync"), valueStyle.Render(formatFreq(p.SyncFreq)),
		labelStyle.Render("scale"), valueStyle.Render(fmt.Sprintf("×%.2f", p.Gain)),
		labelStyle.Render("mix"), valueStyle.Render(fmt.Sprintf("×%.2f", p.MixGain)),
	)
	if p.Measured {
		info += fmt.Sprintf("  %s %s  %s %s",
			labelStyle.Render("loudness"), valueStyle.Render(formatDB(p.Loudness)),
			labelStyle.Render("centroid"), valueStyle.Render(formatFreq(p.Centroid)),
		)
	}
	return info + "\n" + renderTrace(p.Samples, p.Gain, width, height, traceStyles[ch])
}

// renderTrace plots the displayable window into a width×height character
// grid: one column per cell, vertical span from the column's min/max sample
// after display gain.
func renderTrace(samples []float32, gain float64, width, height int, style lipgloss.Style) string {
	grid := make([][]byte, height)
	for y := range grid {
		grid[y] = make([]byte, width)
		for x := range grid[y] {
			grid[y][x] = ' '
		}
	}
	mid := (height - 1) / 2

	if len(samples) > 0 {
		perCol := float64(len(samples)) / float64(width)
		for x := 0; x < width; x++ {
			lo := int(float64(x) * perCol)
			hi := int(float64(x+1) * perCol)
			if hi <= lo {
				hi = lo + 1
			}
			if hi > len(samples) {
				hi = len(samples)
			}

			colMin, colMax := 1.0, -1.0
			for _, s := range samples[lo:hi] {
				v := clampUnit(float64(s) * gain)
				if v < colMin {
					colMin = v
				}
				if v > colMax {
					colMax = v
				}
			}

			// +1 maps to the top row, -1 to the bottom row.
			yTop := int(math.Round((1 - colMax) / 2 * float64(height-1)))
			yBot := int(math.Round((1 - colMin) / 2 * float64(height-1)))
			for y := yTop; y <= yBot; y++ {
				grid[y][x] = '#'
			}
		}
	}

	var b strings.Builder
	for y, row := range grid {
		var line strings.Builder
		for x := range row {
			switch {
			case row[x] == '#':
				line.WriteString("█")
			case y == mid:
				line.WriteString("·")
			default:
				line.WriteString(" ")
			}
		}
		rowStyle := style
		if y == mid && !strings.Contains(line.String(), "█") {
			rowStyle = axisStyle
		}
		b.WriteString(rowStyle.Render(line.String()))
		b.WriteString("\n")
	}
	return b.String()
}

func renderFooter(m Model) string {
	keys := "space play/stop · b balance · a auto-balance · q quit"
	if m.Err != nil {
		return statusStyle.Render("error: " + m.Err.Error())
	}
	return statusStyle.Render(keys)
}

func formatFreq(hz float64) string {
	switch {
	case hz <= 0:
		return "—"
	case hz >= 1000:
		return fmt.Sprintf("%.1fkHz", hz/1000)
	default:
		return fmt.Sprintf("%.1fHz", hz)
	}
}

func formatDB(db float64) string {
	if db <= loudness.MinDB {
		return "silent"
	}
	return fmt.Sprintf("%.1fdB", db)
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

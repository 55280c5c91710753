package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/duoscope/duoscope/internal/cli"
	"github.com/duoscope/duoscope/internal/engine"
	"github.com/duoscope/duoscope/internal/loudness"
	"github.com/duoscope/duoscope/internal/mains"
	"github.com/duoscope/duoscope/internal/scope"
	"github.com/duoscope/duoscope/internal/ui"
)

var (
	version = "0.0.1"
)

// CLI defines the command-line interface
type CLI struct {
	Version    bool    `short:"v" help:"Show version information"`
	Output     string  `short:"o" default:"oto" enum:"oto,portaudio,none" help:"Audio output backend"`
	SampleRate int     `default:"44100" help:"Engine sample rate in Hz"`
	Tempo      float64 `short:"t" default:"120" help:"Pattern tempo in BPM"`
	Quality    int     `short:"q" default:"400" help:"Alignment search candidates per frame"`
	SyncFreq   float64 `help:"Sync frequency in Hz when a channel has no active notes (default: local line frequency)"`
	NoBalance  bool    `help:"Disable automatic loudness balancing"`
}

func main() {
	cliArgs := &CLI{}
	kong.Parse(cliArgs,
		kong.Name("duoscope"),
		kong.Description("Two-channel waveform scope with automatic loudness balancing"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	if cliArgs.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	// Line-trigger fallback: sync idle channels to the local mains
	// frequency unless overridden.
	syncFreq := cliArgs.SyncFreq
	if syncFreq <= 0 {
		syncFreq = float64(mains.Frequency())
	}

	// Engine with the built-in demo pattern.
	eng := engine.New(engine.Config{
		SampleRate: cliArgs.SampleRate,
		Tempo:      cliArgs.Tempo,
	})
	patterns := engine.DemoPatterns()
	for ch := engine.Channel(0); ch < engine.NumChannels; ch++ {
		eng.SetPattern(ch, patterns[ch])
	}

	// One display pipeline per channel, fed by the engine's render taps.
	// The ring holds the display window plus alignment slack for the lowest
	// note the pattern can reach.
	var views [engine.NumChannels]*scope.ChannelView
	ringCapacity := scope.WindowSamples(syncFreq, float64(cliArgs.SampleRate)) * 2
	for ch := engine.Channel(0); ch < engine.NumChannels; ch++ {
		view := scope.NewChannelView(scope.Config{
			RingCapacity:    ringCapacity,
			CandidateBudget: cliArgs.Quality,
			DefaultFreq:     syncFreq,
		})
		views[ch] = view
		eng.AddTap(ch, view.Push)
	}

	// Loudness balancing over the per-channel bus recorders.
	recorders := make([]loudness.Recorder, engine.NumChannels)
	for ch := engine.Channel(0); ch < engine.NumChannels; ch++ {
		recorders[ch] = eng.Recorder(ch)
	}
	manager := loudness.NewManager(recorders)

	out, err := engine.NewOutput(cliArgs.Output, eng)
	if err != nil {
		cli.PrintError(fmt.Sprintf("audio output: %v", err))
		os.Exit(1)
	}
	defer out.Close()

	model := ui.NewModel(eng, out, views, manager, !cliArgs.NoBalance)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		cli.PrintError(fmt.Sprintf("UI error: %v", err))
		os.Exit(1)
	}

	printSummary(manager)
}

// printSummary reports the final balance after the TUI exits.
func printSummary(manager *loudness.Manager) {
	gains := manager.Gains()
	snaps := manager.Snapshots()

	fmt.Println(cli.TitleStyle.Render("Balance summary"))
	for ch := engine.Channel(0); ch < engine.NumChannels; ch++ {
		snap := snaps[ch]
		loudnessStr := "not measured"
		if snap.Valid && snap.LoudnessDB > loudness.MinDB {
			loudnessStr = fmt.Sprintf("%.1f dB", snap.LoudnessDB)
		}
		fmt.Printf("%s %s  %s %s  %s ×%.2f\n",
			cli.KeyStyle.Render("channel"), cli.ValueStyle.Render(ch.String()),
			cli.KeyStyle.Render("loudness"), cli.ValueStyle.Render(loudnessStr),
			cli.KeyStyle.Render("gain"), gains[ch],
		)
	}
}

// Command mosaic-demo is an interactive tour of the mosaic renderer. It
// shows a live log with a status bar, a toggleable spinner, and a help
// overlay, and decodes every keypress through the key decoder.
//
// Usage:
//
//	go run ./cmd/mosaic-demo
//	go run ./cmd/mosaic-demo -debug /tmp/mosaic_render.log
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/lmittmann/tint"

	"github.com/mosaicterm/mosaic/pkg/mosaic"
)

var (
	statusStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252"))
	keyStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("81")).
			Bold(true)
	helpStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

func main() {
	debugLog := flag.String("debug", "", "write render stats (JSONL) to this file")
	logFile := flag.String("log", "", "write application logs to this file")
	flag.Parse()

	if err := run(*debugLog, *logFile); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(debugLog, logFile string) error {
	logger := slog.New(slog.DiscardHandler)
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		defer f.Close() //nolint:errcheck
		logger = slog.New(tint.NewHandler(f, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.TimeOnly,
			NoColor:    true,
		}))
	}

	term := mosaic.NewProcessTerminal()
	tui := mosaic.New(term)

	if debugLog != "" {
		f, err := os.OpenFile(debugLog, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return fmt.Errorf("open debug log: %w", err)
		}
		defer f.Close() //nolint:errcheck
		tui.SetDebugWriter(f)
	}

	log := mosaic.NewText("mosaic demo. Press ? for help, q to quit.")
	spinnerSlot := mosaic.NewSlot(nil)
	status := newStatusBar()

	tui.AddChild(log)
	tui.AddChild(spinnerSlot)
	tui.AddChild(status)

	var (
		spinner *mosaic.Spinner
		help    *mosaic.OverlayHandle
	)

	quit := make(chan struct{})
	doQuit := func() {
		select {
		case <-quit:
		default:
			close(quit)
		}
	}

	kd := tui.Keys()
	tui.AddInputListener(func(data []byte) *mosaic.InputListenerResult {
		consume := &mosaic.InputListenerResult{Consume: true}
		switch {
		case kd.Matches(data, "q"), kd.Matches(data, "ctrl+c"):
			doQuit()
			return consume

		case kd.Matches(data, "?"):
			if help != nil {
				help.Hide()
				help = nil
			} else {
				help = tui.ShowOverlay(helpBox(), &mosaic.OverlayOptions{
					Anchor: mosaic.AnchorCenter,
					Width:  mosaic.SizeAbs(44),
					// Hide the popup rather than mangle it on tiny terminals.
					Visible: func(w, h int) bool { return w >= 46 && h >= 10 },
				})
			}
			return consume

		case kd.Matches(data, "s"):
			if spinner == nil {
				spinner = mosaic.NewSpinner()
				spinner.SetLabel("working...")
				spinner.Style = func(s string) string { return "\x1b[35m" + s + "\x1b[0m" }
				spinnerSlot.Set(spinner)
			} else {
				spinner = nil
				spinnerSlot.Set(nil)
			}
			tui.RequestRender(false)
			return consume

		case kd.Matches(data, "t"):
			term.SetTitle("mosaic demo - " + time.Now().Format(time.Kitchen))
			return consume
		}

		if id := kd.Parse(data); id != "" {
			logger.Debug("key", "id", id, "raw", fmt.Sprintf("%q", data))
			log.Append(fmt.Sprintf("\nkey: %s", id))
			tui.RequestRender(false)
			return consume
		}
		return nil
	})

	if err := tui.Start(); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	logger.Info("started", "kitty", tui.HasKittyKeyboard())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-sig:
	}

	tui.Stop()
	logger.Info("stopped", "fullRedraws", tui.FullRedraws())
	return nil
}

func helpBox() mosaic.Component {
	text := helpStyle.Render(
		"q / ctrl+c  quit\n" +
			"?           toggle this help\n" +
			"s           toggle spinner\n" +
			"t           set terminal title\n" +
			"anything    decode and log the key")
	return mosaic.NewText(text)
}

type statusBar struct {
	mosaic.Compo
}

func newStatusBar() *statusBar { return &statusBar{} }

func (s *statusBar) Render(ctx mosaic.RenderContext) []string {
	line := statusStyle.Render(" ") +
		keyStyle.Render("?") + statusStyle.Render(" help  ") +
		keyStyle.Render("s") + statusStyle.Render(" spinner  ") +
		keyStyle.Render("t") + statusStyle.Render(" title  ") +
		keyStyle.Render("q") + statusStyle.Render(" quit ")
	pad := ctx.Width - mosaic.VisibleWidth(line)
	if pad > 0 {
		line += statusStyle.Render(fmt.Sprintf("%*s", pad, ""))
	}
	return []string{line}
}

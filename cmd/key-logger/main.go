// Command key-logger puts the terminal in raw mode and prints the decoded
// identifier for every input chunk, along with the raw bytes and the kitty
// event type when one applies. Useful for checking what a given terminal
// actually sends.
//
// Usage:
//
//	go run ./cmd/key-logger
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mosaicterm/mosaic/pkg/mosaic"
	"github.com/mosaicterm/mosaic/pkg/mosaic/keys"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	term := mosaic.NewProcessTerminal()
	kd := keys.NewDecoder()

	quit := make(chan struct{})
	doQuit := func() {
		select {
		case <-quit:
		default:
			close(quit)
		}
	}

	onInput := func(data []byte) {
		kd.SetKittyActive(term.HasKittyKeyboard())

		id := kd.Parse(data)
		line := fmt.Sprintf("%-18q", data)
		if id != "" {
			line += "  " + id
		} else {
			line += "  (unrecognized)"
		}
		switch {
		case kd.IsRelease(data):
			line += "  [release]"
		case kd.IsRepeat(data):
			line += "  [repeat]"
		}
		term.WriteString(line + "\r\n")

		if kd.Matches(data, "ctrl+c") || kd.Matches(data, "q") {
			doQuit()
		}
	}

	onResize := func() {
		cols, rows := term.Size()
		term.WriteString(fmt.Sprintf("resize: %dx%d\r\n", cols, rows))
	}

	if err := term.Start(onInput, onResize); err != nil {
		return fmt.Errorf("terminal start: %w", err)
	}
	defer term.Stop()

	term.WriteString("key-logger: press keys to see how they decode. q or ctrl+C exits.\r\n")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-sig:
	}
	return nil
}

// Package mosaic implements a differential terminal renderer that uses the
// normal scrollback buffer (no alternate screen). It can surgically update
// any line via cursor movement, and falls back to a full clear+repaint when
// off-screen content changes. Synchronized output prevents flickering.
package mosaic

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/cancelreader"
	"golang.org/x/sys/unix"
)

// Terminal abstracts terminal I/O so the renderer can be tested with a
// fake terminal.
type Terminal interface {
	// Start puts the terminal into raw mode and begins listening for input
	// and resize events. onInput receives complete input chunks (one escape
	// sequence, one paste payload, or a run of text). onResize is called
	// when the terminal dimensions change.
	Start(onInput func([]byte), onResize func()) error

	// Stop restores the terminal to its original state.
	Stop()

	// Write sends raw bytes to the terminal.
	Write(p []byte)

	// WriteString sends a string to the terminal.
	WriteString(s string)

	// Columns returns the current terminal width.
	Columns() int

	// Rows returns the current terminal height.
	Rows() int

	// Size returns the current terminal dimensions.
	Size() (cols, rows int)

	// HideCursor hides the hardware cursor.
	HideCursor()

	// ShowCursor shows the hardware cursor.
	ShowCursor()

	// HasKittyKeyboard reports whether the terminal answered the kitty
	// keyboard protocol query.
	HasKittyKeyboard() bool
}

// escFlushDelay is how long an incomplete escape prefix is held before it
// is delivered as-is (a human pressing ESC, not a sequence tail).
const escFlushDelay = 20 * time.Millisecond

var (
	kittyReplyRe    = regexp.MustCompile(`^\x1b\[\?(\d+)u$`)
	cellSizeReplyRe = regexp.MustCompile(`^\x1b\[6;(\d+);(\d+)t$`)
)

// ProcessTerminal is a Terminal backed by os.Stdin / os.Stdout.
// Terminal dimensions are cached and refreshed on SIGWINCH to avoid
// repeated ioctl syscalls during rendering.
type ProcessTerminal struct {
	origTermios *unix.Termios
	onInput     func([]byte)
	onResize    func()
	reader      cancelreader.CancelReader
	sigCh       chan os.Signal
	stopCancel  context.CancelFunc
	stopCtx     context.Context

	kittySupported atomic.Bool

	sizeMu sync.RWMutex
	cols   int
	rows   int

	cellMu sync.RWMutex
	cellW  int
	cellH  int
}

func NewProcessTerminal() *ProcessTerminal {
	return &ProcessTerminal{}
}

func (t *ProcessTerminal) Start(onInput func([]byte), onResize func()) error {
	t.onInput = onInput
	t.onResize = onResize
	t.stopCtx, t.stopCancel = context.WithCancel(context.Background())

	// Save and set raw mode.
	fd := int(os.Stdin.Fd())
	orig, err := unix.IoctlGetTermios(fd, ioctlReadTermios)
	if err != nil {
		return fmt.Errorf("get termios: %w", err)
	}
	t.origTermios = orig

	raw := *orig
	raw.Iflag &^= unix.BRKINT | unix.ICRNL | unix.INPCK | unix.ISTRIP | unix.IXON
	raw.Oflag &^= unix.OPOST
	raw.Cflag |= unix.CS8
	raw.Lflag &^= unix.ECHO | unix.ICANON | unix.IEXTEN | unix.ISIG
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, ioctlWriteTermios, &raw); err != nil {
		return fmt.Errorf("set raw: %w", err)
	}

	// Cache initial terminal size.
	t.refreshSize()

	// Enable bracketed paste.
	t.WriteString("\x1b[?2004h")

	// Enable the kitty keyboard protocol with flag 1 (disambiguate escape
	// codes), then query the terminal for its enhancement support. The
	// reply is intercepted in the read loop; silence means legacy.
	t.WriteString(ansi.KittyKeyboard(ansi.KittyDisambiguateEscapeCodes, 1))
	t.WriteString(ansi.RequestKittyKeyboard)

	reader, err := cancelreader.NewReader(os.Stdin)
	if err != nil {
		return fmt.Errorf("stdin reader: %w", err)
	}
	t.reader = reader

	// Read stdin in a goroutine, reassembling complete chunks. An
	// incomplete escape prefix is flushed after a quiet period so a bare
	// ESC keypress still gets through.
	go func() {
		var chunker InputBuffer
		var flushTimer *time.Timer
		var flushMu sync.Mutex

		deliver := func(chunk []byte) {
			if t.consumeReply(chunk) {
				return
			}
			t.onInput(chunk)
		}

		buf := make([]byte, 4096)
		for {
			n, err := t.reader.Read(buf)
			if n > 0 {
				flushMu.Lock()
				if flushTimer != nil {
					flushTimer.Stop()
					flushTimer = nil
				}
				chunker.Feed(buf[:n], deliver)
				if chunker.Pending() {
					flushTimer = time.AfterFunc(escFlushDelay, func() {
						flushMu.Lock()
						chunker.Flush(deliver)
						flushMu.Unlock()
					})
				}
				flushMu.Unlock()
			}
			if err != nil {
				return
			}
		}
	}()

	// Listen for SIGWINCH.
	t.sigCh = make(chan os.Signal, 1)
	signal.Notify(t.sigCh, syscall.SIGWINCH)
	go func() {
		for {
			select {
			case <-t.sigCh:
				t.refreshSize()
				if t.onResize != nil {
					t.onResize()
				}
			case <-t.stopCtx.Done():
				return
			}
		}
	}()

	return nil
}

func (t *ProcessTerminal) Stop() {
	// Disable the kitty keyboard protocol.
	t.WriteString(ansi.KittyKeyboard(0, 1))

	// Disable bracketed paste.
	t.WriteString("\x1b[?2004l")

	if t.stopCancel != nil {
		t.stopCancel()
	}
	if t.sigCh != nil {
		signal.Stop(t.sigCh)
	}
	if t.reader != nil {
		t.reader.Cancel()
	}
	if t.origTermios != nil {
		fd := int(os.Stdin.Fd())
		_ = unix.IoctlSetTermios(fd, ioctlWriteTermios, t.origTermios)
	}
}

// consumeReply intercepts terminal query replies that should never reach
// components: the kitty keyboard support report and the cell size report.
func (t *ProcessTerminal) consumeReply(chunk []byte) bool {
	if m := kittyReplyRe.FindSubmatch(chunk); m != nil {
		flags, _ := strconv.Atoi(string(m[1]))
		t.kittySupported.Store(flags&1 != 0)
		return true
	}
	if m := cellSizeReplyRe.FindSubmatch(chunk); m != nil {
		h, _ := strconv.Atoi(string(m[1]))
		w, _ := strconv.Atoi(string(m[2]))
		t.cellMu.Lock()
		t.cellH, t.cellW = h, w
		t.cellMu.Unlock()
		return true
	}
	return false
}

// HasKittyKeyboard reports whether the terminal answered the keyboard
// protocol query with the disambiguate flag set.
func (t *ProcessTerminal) HasKittyKeyboard() bool {
	return t.kittySupported.Load()
}

// QueryCellSize asks the terminal for its cell dimensions in pixels. The
// reply is captured asynchronously; read it later with CellSize. Used to
// size inline images.
func (t *ProcessTerminal) QueryCellSize() {
	t.WriteString("\x1b[16t")
}

// CellSize returns the cell dimensions in pixels, if the terminal has
// reported them.
func (t *ProcessTerminal) CellSize() (w, h int, ok bool) {
	t.cellMu.RLock()
	defer t.cellMu.RUnlock()
	return t.cellW, t.cellH, t.cellW > 0 && t.cellH > 0
}

// SetTitle sets the terminal window title.
func (t *ProcessTerminal) SetTitle(title string) {
	t.WriteString(ansi.SetWindowTitle(title))
}

func (t *ProcessTerminal) Write(p []byte) {
	_, _ = os.Stdout.Write(p)
}

func (t *ProcessTerminal) WriteString(s string) {
	_, _ = os.Stdout.WriteString(s)
}

func (t *ProcessTerminal) Columns() int {
	t.sizeMu.RLock()
	c := t.cols
	t.sizeMu.RUnlock()
	if c == 0 {
		return 80
	}
	return c
}

func (t *ProcessTerminal) Rows() int {
	t.sizeMu.RLock()
	r := t.rows
	t.sizeMu.RUnlock()
	if r == 0 {
		return 24
	}
	return r
}

func (t *ProcessTerminal) Size() (cols, rows int) {
	return t.Columns(), t.Rows()
}

// refreshSize queries the kernel for current terminal dimensions and caches
// them. Called once at Start and on every SIGWINCH.
func (t *ProcessTerminal) refreshSize() {
	ws, err := unix.IoctlGetWinsize(int(os.Stdout.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return
	}
	t.sizeMu.Lock()
	if ws.Col > 0 {
		t.cols = int(ws.Col)
	}
	if ws.Row > 0 {
		t.rows = int(ws.Row)
	}
	t.sizeMu.Unlock()
}

func (t *ProcessTerminal) HideCursor() {
	t.WriteString("\x1b[?25l")
}

func (t *ProcessTerminal) ShowCursor() {
	t.WriteString("\x1b[?25h")
}

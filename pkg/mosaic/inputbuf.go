package mosaic

import (
	"bytes"
	"unicode/utf8"
)

const (
	pasteStart = "\x1b[200~"
	pasteEnd   = "\x1b[201~"
)

// InputBuffer reassembles raw stdin reads into complete input chunks: one
// escape sequence, one bracketed-paste payload, or a run of plain text.
// Terminals write sequences atomically but the kernel is free to split them
// across reads, so a chunk boundary mid-sequence must never reach the key
// decoder.
//
// Incomplete tails are held until more bytes arrive. A caller that wants a
// lone ESC keypress delivered should call Flush after a short quiet period.
type InputBuffer struct {
	buf     []byte
	inPaste bool
}

// Feed appends data and emits every complete chunk. A bracketed paste is
// buffered until its end marker and emitted as a single chunk, markers
// included.
func (b *InputBuffer) Feed(data []byte, emit func([]byte)) {
	b.buf = append(b.buf, data...)

	for len(b.buf) > 0 {
		if b.inPaste {
			idx := bytes.Index(b.buf, []byte(pasteEnd))
			if idx < 0 {
				return
			}
			end := idx + len(pasteEnd)
			b.emit(b.buf[:end], emit)
			b.buf = b.buf[end:]
			b.inPaste = false
			continue
		}

		if bytes.HasPrefix(b.buf, []byte(pasteStart)) {
			b.inPaste = true
			continue
		}

		if b.buf[0] == 0x1b {
			n, ok := completeEscape(b.buf)
			if !ok {
				return
			}
			b.emit(b.buf[:n], emit)
			b.buf = b.buf[n:]
			continue
		}

		// Plain text up to the next escape.
		idx := bytes.IndexByte(b.buf, 0x1b)
		if idx < 0 {
			idx = len(b.buf)
		}
		text := b.buf[:idx]
		if idx == len(b.buf) {
			// Hold an incomplete trailing UTF-8 rune.
			text = text[:len(text)-incompleteRuneTail(text)]
		}
		if len(text) == 0 {
			return
		}
		b.emit(text, emit)
		b.buf = b.buf[len(text):]
	}
}

// Flush emits whatever is buffered, complete or not. Used to deliver a bare
// ESC (or a truncated sequence) after input has gone quiet.
func (b *InputBuffer) Flush(emit func([]byte)) {
	if len(b.buf) == 0 {
		return
	}
	b.emit(b.buf, emit)
	b.buf = nil
	b.inPaste = false
}

// Pending reports whether bytes are being held for completion.
func (b *InputBuffer) Pending() bool { return len(b.buf) > 0 }

// emit hands a copy to the callback; the internal buffer is reused.
func (b *InputBuffer) emit(chunk []byte, fn func([]byte)) {
	out := make([]byte, len(chunk))
	copy(out, chunk)
	fn(out)
}

// incompleteRuneTail returns how many trailing bytes of p form the prefix of
// an unfinished UTF-8 rune.
func incompleteRuneTail(p []byte) int {
	for i := 1; i <= utf8.UTFMax && i <= len(p); i++ {
		c := p[len(p)-i]
		if c < 0x80 {
			return 0
		}
		if c >= 0xc0 {
			// Lead byte: incomplete if fewer continuation bytes follow
			// than the rune needs.
			if r, _ := utf8.DecodeRune(p[len(p)-i:]); r == utf8.RuneError && i < runeLenFromLead(c) {
				return i
			}
			return 0
		}
	}
	return 0
}

func runeLenFromLead(c byte) int {
	switch {
	case c >= 0xf0:
		return 4
	case c >= 0xe0:
		return 3
	default:
		return 2
	}
}

// completeEscape reports the length of the escape sequence at the start of
// buf, or false when more bytes are needed. Covers CSI (including SGR mouse
// and rxvt's double-bracket function keys), SS3, the string kinds (OSC, DCS,
// APC, PM, SOS) terminated by BEL or ST, ESC-prefixed alt chords, and
// nested ESC prefixes for legacy alt+arrow sequences.
func completeEscape(buf []byte) (int, bool) {
	if len(buf) < 2 {
		return 0, false
	}
	switch buf[1] {
	case '[':
		// rxvt f-keys: \x1b[[A .. \x1b[[E
		if len(buf) >= 3 && buf[2] == '[' {
			if len(buf) < 4 {
				return 0, false
			}
			return 4, true
		}
		for i := 2; i < len(buf); i++ {
			c := buf[i]
			if c >= 0x40 && c <= 0x7e {
				return i + 1, true
			}
			if c < 0x20 || c > 0x3f {
				// Malformed; surface what we have so it isn't stuck.
				return i + 1, true
			}
		}
		return 0, false
	case 'O':
		if len(buf) < 3 {
			return 0, false
		}
		return 3, true
	case ']', 'P', '_', '^', 'X':
		for i := 2; i < len(buf); i++ {
			if buf[i] == 0x07 {
				return i + 1, true
			}
			if buf[i] == 0x1b {
				if i+1 >= len(buf) {
					return 0, false
				}
				if buf[i+1] == '\\' {
					return i + 2, true
				}
			}
		}
		return 0, false
	case 0x1b:
		n, ok := completeEscape(buf[1:])
		if !ok {
			return 0, false
		}
		return 1 + n, true
	default:
		return 2, true
	}
}

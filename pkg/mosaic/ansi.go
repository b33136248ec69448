package mosaic

import "strings"

// CursorMarker is a zero-width APC sequence components embed in a rendered
// line to request hardware cursor placement. Terminals ignore it; the
// renderer extracts and removes it before writing the frame.
const CursorMarker = "\x1b_mosaic:c\x07"

// SegmentReset resets all SGR attributes and cancels any active hyperlink.
const SegmentReset = "\x1b[0m\x1b]8;;\x07"

// ExtractEscape returns the escape sequence starting at pos, its byte
// length, and whether a complete sequence was found. Three families are
// recognized:
//
//   - CSI:  ESC [ ... final byte in 0x40-0x7E
//   - OSC:  ESC ] ... BEL or ST
//   - APC:  ESC _ ... BEL or ST
//
// Anything else (including a bare ESC) is not treated as a sequence.
func ExtractEscape(s string, pos int) (code string, length int, ok bool) {
	if pos+1 >= len(s) || s[pos] != '\x1b' {
		return "", 0, false
	}

	switch s[pos+1] {
	case '[':
		for j := pos + 2; j < len(s); j++ {
			if s[j] >= 0x40 && s[j] <= 0x7e {
				return s[pos : j+1], j + 1 - pos, true
			}
		}
	case ']', '_':
		for j := pos + 2; j < len(s); j++ {
			if s[j] == '\x07' {
				return s[pos : j+1], j + 1 - pos, true
			}
			if s[j] == '\x1b' && j+1 < len(s) && s[j+1] == '\\' {
				return s[pos : j+2], j + 2 - pos, true
			}
		}
	}
	return "", 0, false
}

// stripEscapes removes all recognized escape sequences from s.
func stripEscapes(s string) string {
	if !strings.Contains(s, "\x1b") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if _, n, ok := ExtractEscape(s, i); ok {
			i += n
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

// containsImage reports whether a line carries an inline-image payload:
// kitty graphics protocol (ESC _ G) or iTerm2 inline images (OSC 1337).
// Such lines are passed through the renderer verbatim.
func containsImage(line string) bool {
	return strings.Contains(line, "\x1b_G") || strings.Contains(line, "\x1b]1337;File=")
}

// Hyperlink wraps text in an OSC 8 hyperlink pointing at url.
func Hyperlink(url, text string) string {
	return "\x1b]8;;" + url + "\x07" + text + "\x1b]8;;\x07"
}

package mosaic

import (
	"strconv"
	"strings"
)

// StyleState tracks the SGR attributes active at a point in a styled line.
// The wrapper feeds every escape sequence it consumes through Process, then
// uses ActiveCodes to replay the current style at the start of continuation
// lines, so visual style survives wrap points.
type StyleState struct {
	bold          bool
	dim           bool
	italic        bool
	underline     bool
	blink         bool
	inverse       bool
	hidden        bool
	strikethrough bool
	fg            string
	bg            string
}

// Process updates the state from one escape sequence. Non-SGR sequences are
// ignored.
func (t *StyleState) Process(seq string) {
	if len(seq) < 3 || seq[len(seq)-1] != 'm' || !strings.HasPrefix(seq, "\x1b[") {
		return
	}
	params := seq[2 : len(seq)-1]
	if params == "" || params == "0" {
		t.Reset()
		return
	}

	parts := strings.Split(params, ";")
	for i := 0; i < len(parts); {
		code, _ := strconv.Atoi(parts[i])

		// Extended color forms consume multiple parameters.
		if code == 38 || code == 48 {
			if i+2 < len(parts) && parts[i+1] == "5" {
				color := strings.Join(parts[i:i+3], ";")
				if code == 38 {
					t.fg = color
				} else {
					t.bg = color
				}
				i += 3
				continue
			}
			if i+4 < len(parts) && parts[i+1] == "2" {
				color := strings.Join(parts[i:i+5], ";")
				if code == 38 {
					t.fg = color
				} else {
					t.bg = color
				}
				i += 5
				continue
			}
		}

		switch {
		case code == 0:
			t.Reset()
		case code == 1:
			t.bold = true
		case code == 2:
			t.dim = true
		case code == 3:
			t.italic = true
		case code == 4:
			t.underline = true
		case code == 5:
			t.blink = true
		case code == 7:
			t.inverse = true
		case code == 8:
			t.hidden = true
		case code == 9:
			t.strikethrough = true
		case code == 21, code == 22:
			t.bold = false
			t.dim = false
		case code == 23:
			t.italic = false
		case code == 24:
			t.underline = false
		case code == 25:
			t.blink = false
		case code == 27:
			t.inverse = false
		case code == 28:
			t.hidden = false
		case code == 29:
			t.strikethrough = false
		case code == 39:
			t.fg = ""
		case code == 49:
			t.bg = ""
		case (code >= 30 && code <= 37) || (code >= 90 && code <= 97):
			t.fg = parts[i]
		case (code >= 40 && code <= 47) || (code >= 100 && code <= 107):
			t.bg = parts[i]
		}
		i++
	}
}

// ProcessString feeds every escape sequence found in text through Process.
func (t *StyleState) ProcessString(text string) {
	for i := 0; i < len(text); {
		if seq, n, ok := ExtractEscape(text, i); ok {
			t.Process(seq)
			i += n
			continue
		}
		i++
	}
}

// Reset clears all tracked attributes.
func (t *StyleState) Reset() {
	*t = StyleState{}
}

// Active reports whether any attribute is currently set.
func (t *StyleState) Active() bool {
	return t.bold || t.dim || t.italic || t.underline || t.blink ||
		t.inverse || t.hidden || t.strikethrough || t.fg != "" || t.bg != ""
}

// ActiveCodes returns a single SGR sequence re-establishing the current
// attributes, or "" when nothing is active.
func (t *StyleState) ActiveCodes() string {
	if !t.Active() {
		return ""
	}
	codes := make([]string, 0, 10)
	if t.bold {
		codes = append(codes, "1")
	}
	if t.dim {
		codes = append(codes, "2")
	}
	if t.italic {
		codes = append(codes, "3")
	}
	if t.underline {
		codes = append(codes, "4")
	}
	if t.blink {
		codes = append(codes, "5")
	}
	if t.inverse {
		codes = append(codes, "7")
	}
	if t.hidden {
		codes = append(codes, "8")
	}
	if t.strikethrough {
		codes = append(codes, "9")
	}
	if t.fg != "" {
		codes = append(codes, t.fg)
	}
	if t.bg != "" {
		codes = append(codes, t.bg)
	}
	return "\x1b[" + strings.Join(codes, ";") + "m"
}

// LineEndReset returns the SGR sequence a wrapped visual line must end with
// so its active style does not leak past the line break.
func (t *StyleState) LineEndReset() string {
	if !t.Active() {
		return ""
	}
	return "\x1b[0m"
}

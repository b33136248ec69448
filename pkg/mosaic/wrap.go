package mosaic

import (
	"strings"

	"github.com/rivo/uniseg"
)

// WrapText word-wraps styled text to the given column width. Escape
// sequences never count toward width; the SGR state active at a break point
// is replayed at the start of the continuation line and cancelled at the end
// of the broken line, so style neither disappears nor leaks. Words longer
// than the width are hard-broken at the column boundary.
func WrapText(text string, width int) []string {
	if width < 1 {
		width = 1
	}
	if text == "" {
		return []string{""}
	}

	var result []string
	var tracker StyleState
	for i, input := range strings.Split(text, "\n") {
		prefix := ""
		if i > 0 {
			prefix = tracker.ActiveCodes()
		}
		result = append(result, wrapLine(prefix+input, width)...)
		tracker.ProcessString(input)
	}
	return result
}

// wrapLine wraps a single physical line (no newlines).
func wrapLine(line string, width int) []string {
	if line == "" || VisibleWidth(line) <= width {
		return []string{line}
	}

	var (
		wrapped []string
		tracker StyleState
		current strings.Builder
		curW    int
	)

	flush := func(trim bool) {
		s := current.String()
		if trim {
			s = strings.TrimRight(s, " ")
		}
		if reset := tracker.LineEndReset(); reset != "" {
			s += reset
		}
		wrapped = append(wrapped, s)
		current.Reset()
		curW = 0
	}

	for _, token := range splitTokens(line) {
		tokenW := VisibleWidth(token)
		isSpace := strings.TrimSpace(stripEscapes(token)) == ""

		if tokenW > width && !isSpace {
			// Word longer than the line: hard-break at column boundaries.
			if curW > 0 {
				flush(true)
			}
			broken := breakLongWord(token, width, &tracker)
			wrapped = append(wrapped, broken[:len(broken)-1]...)
			tail := broken[len(broken)-1]
			current.WriteString(tail)
			curW = VisibleWidth(tail)
			continue
		}

		if curW+tokenW > width && curW > 0 {
			flush(true)
			if isSpace {
				current.WriteString(tracker.ActiveCodes())
			} else {
				current.WriteString(tracker.ActiveCodes())
				current.WriteString(token)
				curW = tokenW
			}
		} else {
			current.WriteString(token)
			curW += tokenW
		}
		tracker.ProcessString(token)
	}

	if current.Len() > 0 {
		flush(false)
	}
	if len(wrapped) == 0 {
		return []string{""}
	}
	for i := range wrapped {
		wrapped[i] = strings.TrimRight(wrapped[i], " ")
	}
	return wrapped
}

// splitTokens splits a line into alternating word and whitespace tokens.
// Escape sequences attach to the token that follows them so style changes
// travel with the text they apply to.
func splitTokens(line string) []string {
	var (
		tokens  []string
		current strings.Builder
		pending strings.Builder
		inSpace bool
	)

	for i := 0; i < len(line); {
		if seq, n, ok := ExtractEscape(line, i); ok {
			pending.WriteString(seq)
			i += n
			continue
		}

		isSpace := line[i] == ' '
		if isSpace != inSpace && current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
		inSpace = isSpace

		if pending.Len() > 0 {
			current.WriteString(pending.String())
			pending.Reset()
		}
		current.WriteByte(line[i])
		i++
	}

	if pending.Len() > 0 {
		current.WriteString(pending.String())
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

// breakLongWord splits a word wider than width at grapheme boundaries. The
// final element is the (possibly partial) last line, left unflushed so the
// caller can continue filling it.
func breakLongWord(word string, width int, tracker *StyleState) []string {
	var lines []string
	var current strings.Builder
	current.WriteString(tracker.ActiveCodes())
	curW := 0

	for i := 0; i < len(word); {
		if seq, n, ok := ExtractEscape(word, i); ok {
			current.WriteString(seq)
			tracker.Process(seq)
			i += n
			continue
		}

		cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(word[i:], -1)
		if cluster == "" {
			break
		}
		w := clusterWidth(cluster)

		if curW+w > width && curW > 0 {
			s := current.String()
			if reset := tracker.LineEndReset(); reset != "" {
				s += reset
			}
			lines = append(lines, s)
			current.Reset()
			current.WriteString(tracker.ActiveCodes())
			curW = 0
		}
		current.WriteString(cluster)
		curW += w
		i += len(cluster)
	}

	lines = append(lines, current.String())
	return lines
}

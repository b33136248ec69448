package mosaic

import (
	"strings"

	"github.com/rivo/uniseg"
)

// SliceResult is a column-addressed extract of a styled line together with
// the visible width actually collected (which can fall short of the request
// when wide clusters straddle the boundary).
type SliceResult struct {
	Text  string
	Width int
}

// SliceByColumn extracts length visible columns starting at startCol.
// Escape sequences preceding the range are carried into the result so the
// slice keeps its style. A wide cluster straddling a boundary is included
// whole when strict is false, or replaced by spaces (preserving total
// width) when strict is true.
func SliceByColumn(line string, startCol, length int, strict bool) string {
	return SliceWithWidth(line, startCol, length, strict).Text
}

// SliceWithWidth is SliceByColumn with the collected width reported.
func SliceWithWidth(line string, startCol, length int, strict bool) SliceResult {
	if length <= 0 {
		return SliceResult{}
	}
	endCol := startCol + length

	var (
		result  strings.Builder
		pending strings.Builder
		col     int
		width   int
		started bool
	)

	for i := 0; i < len(line); {
		if seq, n, ok := ExtractEscape(line, i); ok {
			if started {
				result.WriteString(seq)
			} else {
				pending.WriteString(seq)
			}
			i += n
			continue
		}

		cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(line[i:], -1)
		if cluster == "" {
			break
		}
		w := clusterWidth(cluster)
		lo, hi := col, col+w

		if hi > startCol && lo < endCol {
			if !started {
				started = true
				result.WriteString(pending.String())
				pending.Reset()
			}
			if lo >= startCol && hi <= endCol {
				result.WriteString(cluster)
				width += w
			} else if strict {
				overlap := min(hi, endCol) - max(lo, startCol)
				result.WriteString(strings.Repeat(" ", overlap))
				width += overlap
			} else {
				result.WriteString(cluster)
				width += w
			}
		}

		col = hi
		i += len(cluster)
		if col >= endCol {
			break
		}
	}

	return SliceResult{Text: result.String(), Width: width}
}

// ExtractSegments splits a styled line into the part before column beforeEnd
// and the part covering [afterStart, afterStart+afterLen). The after segment
// begins with the SGR codes active at that point so it renders with the
// style the original line had there. Used by overlay compositing to keep the
// base line's flanks around a spliced-in overlay.
func ExtractSegments(line string, beforeEnd, afterStart, afterLen int, strictAfter bool) (before string, beforeWidth int, after string, afterWidth int) {
	var (
		beforeB  strings.Builder
		afterB   strings.Builder
		pending  strings.Builder
		tracker  StyleState
		col      int
		afterOn  bool
		afterEnd = afterStart + afterLen
	)

	for i := 0; i < len(line); {
		if seq, n, ok := ExtractEscape(line, i); ok {
			tracker.Process(seq)
			if col < beforeEnd {
				pending.WriteString(seq)
			} else if afterOn && col < afterEnd {
				afterB.WriteString(seq)
			}
			i += n
			continue
		}

		cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(line[i:], -1)
		if cluster == "" {
			break
		}
		w := clusterWidth(cluster)
		lo, hi := col, col+w

		if hi <= beforeEnd {
			if pending.Len() > 0 {
				beforeB.WriteString(pending.String())
				pending.Reset()
			}
			beforeB.WriteString(cluster)
			beforeWidth += w
		} else if hi > afterStart && lo < afterEnd && afterLen > 0 {
			fits := !strictAfter || (lo >= afterStart && hi <= afterEnd)
			if fits {
				if !afterOn {
					afterB.WriteString(tracker.ActiveCodes())
					afterOn = true
				}
				afterB.WriteString(cluster)
				afterWidth += w
			} else if strictAfter {
				overlap := min(hi, afterEnd) - max(lo, afterStart)
				if overlap > 0 {
					if !afterOn {
						afterB.WriteString(tracker.ActiveCodes())
						afterOn = true
					}
					afterB.WriteString(strings.Repeat(" ", overlap))
					afterWidth += overlap
				}
			}
		}

		col = hi
		i += len(cluster)
		if afterLen <= 0 && col >= beforeEnd {
			break
		}
		if afterLen > 0 && col >= afterEnd {
			break
		}
	}

	return beforeB.String(), beforeWidth, afterB.String(), afterWidth
}

// CompositeLineAt splices an overlay line into a base line at the given
// column. Both flanks of the splice are reset so SGR state never bleeds
// between base and overlay content. Lines carrying inline images are never
// spliced into.
func CompositeLineAt(baseLine, overlayLine string, col, overlayWidth, termWidth int) string {
	if containsImage(baseLine) {
		return baseLine
	}

	afterStart := col + overlayWidth
	before, beforeWidth, after, afterWidth := ExtractSegments(baseLine, col, afterStart, termWidth-afterStart, true)
	overlay := SliceWithWidth(overlayLine, 0, overlayWidth, true)

	beforePad := max(0, col-beforeWidth)
	overlayPad := max(0, overlayWidth-overlay.Width)
	afterTarget := max(0, termWidth-max(col, beforeWidth)-max(overlayWidth, overlay.Width))
	afterPad := max(0, afterTarget-afterWidth)

	var b strings.Builder
	b.WriteString(before)
	b.WriteString(strings.Repeat(" ", beforePad))
	b.WriteString(SegmentReset)
	b.WriteString(overlay.Text)
	b.WriteString(strings.Repeat(" ", overlayPad))
	b.WriteString(SegmentReset)
	b.WriteString(after)
	b.WriteString(strings.Repeat(" ", afterPad))

	out := b.String()
	if VisibleWidth(out) <= termWidth {
		return out
	}
	return SliceByColumn(out, 0, termWidth, true)
}

// Truncate cuts s to the given display width, appending tail (e.g. "…")
// when anything was removed. Escape sequences are preserved.
func Truncate(s string, width int, tail string) string {
	if width <= 0 {
		return ""
	}
	if VisibleWidth(s) <= width {
		return s
	}
	keep := max(0, width-VisibleWidth(tail))
	return SliceByColumn(s, 0, keep, true) + tail
}

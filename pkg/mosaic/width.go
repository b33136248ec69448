package mosaic

import (
	"strings"
	"sync"
	"unicode"

	runewidth "github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// tabWidth is the fixed column width tabs are rendered at.
const tabWidth = 3

const widthCacheLimit = 2048

var (
	widthCacheMu sync.RWMutex
	widthCache   = make(map[string]int, widthCacheLimit)
)

// WidthPolicy decides whether a grapheme cluster renders as a width-2 emoji.
// Terminal emulators disagree on the exact set, so the classification is a
// policy; DefaultWidthPolicy approximates what modern emulators do.
type WidthPolicy func(cluster string) bool

var widthPolicy WidthPolicy = DefaultWidthPolicy

// SetWidthPolicy replaces the emoji classification used by VisibleWidth.
// Passing nil restores DefaultWidthPolicy. The width cache is flushed.
func SetWidthPolicy(p WidthPolicy) {
	if p == nil {
		p = DefaultWidthPolicy
	}
	widthCacheMu.Lock()
	widthPolicy = p
	widthCache = make(map[string]int, widthCacheLimit)
	widthCacheMu.Unlock()
}

// DefaultWidthPolicy classifies a cluster as emoji when it contains a
// variation selector-16, a zero-width joiner, a skin tone modifier, a
// regional indicator, or a codepoint from the common emoji blocks.
func DefaultWidthPolicy(cluster string) bool {
	for _, r := range cluster {
		switch {
		case r == 0xFE0F: // variation selector-16
			return true
		case r == 0x200D: // zero-width joiner
			return true
		case r >= 0x1F3FB && r <= 0x1F3FF: // skin tone modifiers
			return true
		case r >= 0x1F1E6 && r <= 0x1F1FF: // regional indicators
			return true
		case r >= 0x1F300 && r <= 0x1F5FF, // symbols & pictographs
			r >= 0x1F600 && r <= 0x1F64F, // emoticons
			r >= 0x1F680 && r <= 0x1F6FF, // transport & map
			r >= 0x1F900 && r <= 0x1F9FF, // supplemental symbols
			r >= 0x1FA70 && r <= 0x1FAFF: // extended-A
			return true
		}
	}
	return false
}

// VisibleWidth returns the number of terminal columns s occupies: escape
// sequences are zero width, tabs count as tabWidth columns, and everything
// else is measured per grapheme cluster (zero for control/format/combining
// clusters, two for emoji, otherwise the east-asian width).
func VisibleWidth(s string) int {
	if s == "" {
		return 0
	}
	if isPlainASCII(s) {
		return len(s)
	}

	widthCacheMu.RLock()
	if w, ok := widthCache[s]; ok {
		widthCacheMu.RUnlock()
		return w
	}
	widthCacheMu.RUnlock()

	clean := stripEscapes(s)
	if strings.Contains(clean, "\t") {
		clean = strings.ReplaceAll(clean, "\t", strings.Repeat(" ", tabWidth))
	}

	width := 0
	state := -1
	for len(clean) > 0 {
		var cluster string
		cluster, clean, _, state = uniseg.FirstGraphemeClusterInString(clean, state)
		width += clusterWidth(cluster)
	}

	widthCacheMu.Lock()
	if len(widthCache) >= widthCacheLimit {
		// Full flush on overflow; an LRU is not worth the bookkeeping here.
		widthCache = make(map[string]int, widthCacheLimit)
	}
	widthCache[s] = width
	widthCacheMu.Unlock()

	return width
}

// isPlainASCII reports whether s consists entirely of printable ASCII,
// making its width equal to its byte length.
func isPlainASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return false
		}
	}
	return true
}

// clusterWidth measures one grapheme cluster.
func clusterWidth(cluster string) int {
	if cluster == "" {
		return 0
	}
	r := []rune(cluster)[0]
	if r < 0x20 || r == 0x7f || unicode.Is(unicode.Cf, r) || unicode.Is(unicode.Mn, r) {
		return 0
	}
	if widthPolicy(cluster) {
		return 2
	}
	w := 0
	for _, cr := range cluster {
		if rw := runewidth.RuneWidth(cr); rw > w {
			w = rw
		}
	}
	return w
}

package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKittyCtrlLetter(t *testing.T) {
	d := NewDecoder()

	// codepoint 97 ('a') with modifier field 5 (1 + ctrl bit 4)
	assert.Equal(t, "ctrl+a", d.Parse([]byte("\x1b[97;5u")))
	assert.True(t, d.Matches([]byte("\x1b[97;5u"), "ctrl+a"))
	assert.False(t, d.Matches([]byte("\x1b[97;5u"), "ctrl+b"))
	assert.False(t, d.Matches([]byte("\x1b[97;5u"), "a"))
	assert.False(t, d.Matches([]byte("\x1b[97;5u"), "alt+a"))
}

func TestParsePrintableIdentity(t *testing.T) {
	d := NewDecoder()
	for _, s := range []string{"a", "z", "5", "/", "?"} {
		assert.Equal(t, s, d.Parse([]byte(s)), "byte %q", s)
		assert.True(t, d.Matches([]byte(s), s))
	}
}

func TestParseControlBytes(t *testing.T) {
	d := NewDecoder()
	assert.Equal(t, "ctrl+a", d.Parse([]byte{1}))
	assert.Equal(t, "ctrl+z", d.Parse([]byte{26}))
	assert.Equal(t, "ctrl+\\", d.Parse([]byte{0x1c}))
	assert.Equal(t, "ctrl+]", d.Parse([]byte{0x1d}))
	assert.Equal(t, "ctrl+-", d.Parse([]byte{0x1f}))
	assert.Equal(t, "ctrl+alt+[", d.Parse([]byte("\x1b\x1b")))
	assert.Equal(t, "escape", d.Parse([]byte("\x1b")))
	assert.Equal(t, "backspace", d.Parse([]byte{0x7f}))
	assert.Equal(t, "ctrl+space", d.Parse([]byte{0}))
}

func TestParseAltChords(t *testing.T) {
	d := NewDecoder()
	assert.Equal(t, "alt+x", d.Parse([]byte("\x1bx")))
	assert.Equal(t, "ctrl+alt+c", d.Parse([]byte{0x1b, 3}))
	assert.Equal(t, "shift+alt+x", d.Parse([]byte("\x1bX")))
	assert.Equal(t, "alt+backspace", d.Parse([]byte("\x1b\x7f")))
}

func TestLegacyNavigationSequences(t *testing.T) {
	d := NewDecoder()
	assert.Equal(t, "up", d.Parse([]byte("\x1b[A")))
	assert.Equal(t, "up", d.Parse([]byte("\x1bOA")))
	assert.Equal(t, "home", d.Parse([]byte("\x1b[7~")))
	assert.Equal(t, "end", d.Parse([]byte("\x1b[8~")))
	assert.Equal(t, "shift+up", d.Parse([]byte("\x1b[a")))
	assert.Equal(t, "ctrl+left", d.Parse([]byte("\x1bOd")))
	assert.Equal(t, "ctrl+shift+delete", d.Parse([]byte("\x1b[3@")))
	assert.Equal(t, "f1", d.Parse([]byte("\x1bOP")))
	assert.Equal(t, "f12", d.Parse([]byte("\x1b[24~")))

	assert.True(t, d.Matches([]byte("\x1b[A"), "up"))
	assert.True(t, d.Matches([]byte("\x1b[3$"), "shift+delete"))
	assert.True(t, d.Matches([]byte("\x1b\x1b[5~"), "alt+pageup"))
	assert.False(t, d.Matches([]byte("\x1b[A"), "down"))
}

func TestLegacyTablesAreExclusive(t *testing.T) {
	d := NewDecoder()
	// Each raw sequence parses to exactly one identifier, so matching any
	// other identifier must fail.
	seqs := []string{"\x1b[A", "\x1b[a", "\x1bOa", "\x1b[2~", "\x1b[2$", "\x1b[2^", "\x1b[2@"}
	ids := []string{"up", "shift+up", "ctrl+up", "insert", "shift+insert", "ctrl+insert", "ctrl+shift+insert"}
	for i, seq := range seqs {
		for j, id := range ids {
			got := d.Matches([]byte(seq), id)
			assert.Equal(t, i == j, got, "seq %q vs %q", seq, id)
		}
	}
}

func TestKittyArrowForm(t *testing.T) {
	d := NewDecoder()
	assert.Equal(t, "ctrl+up", d.Parse([]byte("\x1b[1;5A")))
	assert.Equal(t, "shift+left", d.Parse([]byte("\x1b[1;2D")))
	assert.Equal(t, "ctrl+shift+right", d.Parse([]byte("\x1b[1;6C")))
	assert.True(t, d.Matches([]byte("\x1b[1;5A"), "ctrl+up"))
}

func TestKittyFunctionalForm(t *testing.T) {
	d := NewDecoder()
	assert.Equal(t, "ctrl+delete", d.Parse([]byte("\x1b[3;5~")))
	assert.Equal(t, "shift+home", d.Parse([]byte("\x1b[1;2H")))
	assert.Equal(t, "alt+end", d.Parse([]byte("\x1b[1;3F")))
	assert.True(t, d.Matches([]byte("\x1b[3;5~"), "ctrl+delete"))
}

func TestKittyLockBitsIgnored(t *testing.T) {
	d := NewDecoder()
	// modifier 69 = 1 + ctrl(4) + caps lock(64)
	assert.Equal(t, "ctrl+a", d.Parse([]byte("\x1b[97;69u")))
	assert.True(t, d.Matches([]byte("\x1b[97;69u"), "ctrl+a"))
}

func TestKittyShiftedCodepointPreferred(t *testing.T) {
	d := NewDecoder()
	// shift+1 reports codepoint 49 ('1') with shifted key 33 ('!')
	assert.Equal(t, "!", d.Parse([]byte("\x1b[49:33;2u")))
	assert.True(t, d.Matches([]byte("\x1b[49:33;2u"), "shift+1"))
	// Legacy terminals send the shifted character directly.
	assert.True(t, d.Matches([]byte("!"), "shift+1"))
}

func TestKittyKPEnter(t *testing.T) {
	d := NewDecoder()
	assert.Equal(t, "enter", d.Parse([]byte("\x1b[57414u")))
	assert.True(t, d.Matches([]byte("\x1b[57414;5u"), "ctrl+enter"))
}

func TestModifierOnlySequencesRejected(t *testing.T) {
	d := NewDecoder()
	// left shift press/release are reported as codepoint 57441
	assert.Equal(t, "", d.Parse([]byte("\x1b[57441u")))
	assert.Equal(t, "", d.Parse([]byte("\x1b[57441;1:3u")))
	assert.False(t, d.Matches([]byte("\x1b[57441u"), "shift+a"))
}

func TestEventTypes(t *testing.T) {
	d := NewDecoder()

	seq := d.ParseKitty([]byte("\x1b[97;5:3u"))
	require.NotNil(t, seq)
	assert.Equal(t, EventRelease, seq.EventType)

	assert.True(t, d.IsRelease([]byte("\x1b[97;5:3u")))
	assert.True(t, d.IsRepeat([]byte("\x1b[97;5:2u")))
	assert.False(t, d.IsRelease([]byte("\x1b[97;5u")))
	assert.True(t, d.IsRelease([]byte("\x1b[1;1:3A")))

	// Paste payloads may contain ":3u" as literal text.
	assert.False(t, d.IsRelease([]byte("\x1b[200~x:3u~y\x1b[201~")))
}

func TestModifyOtherKeys(t *testing.T) {
	d := NewDecoder()
	assert.Equal(t, "ctrl+enter", d.Parse([]byte("\x1b[27;5;13~")))
	assert.Equal(t, "shift+enter", d.Parse([]byte("\x1b[27;2;13~")))
	assert.True(t, d.Matches([]byte("\x1b[27;2;13~"), "shift+enter"))
}

func TestEnterVariants(t *testing.T) {
	d := NewDecoder()
	assert.True(t, d.Matches([]byte("\r"), "enter"))
	assert.True(t, d.Matches([]byte("\n"), "enter"))
	assert.True(t, d.Matches([]byte("\x1bOM"), "enter"))
	assert.True(t, d.Matches([]byte("\x1b\r"), "alt+enter"))
	assert.Equal(t, "enter", d.Parse([]byte("\n")))

	// With the kitty protocol active the same bytes mean shift+enter.
	d.SetKittyActive(true)
	assert.True(t, d.Matches([]byte("\x1b\r"), "shift+enter"))
	assert.True(t, d.Matches([]byte("\n"), "shift+enter"))
	assert.False(t, d.Matches([]byte("\x1b\r"), "alt+enter"))
	assert.Equal(t, "shift+enter", d.Parse([]byte("\n")))
}

func TestKittyActiveDisablesRawAltChords(t *testing.T) {
	d := NewDecoder()
	assert.True(t, d.Matches([]byte("\x1bx"), "alt+x"))

	d.SetKittyActive(true)
	// Under the protocol, alt+x arrives as a CSI u sequence instead.
	assert.False(t, d.Matches([]byte("\x1bx"), "alt+x"))
	assert.True(t, d.Matches([]byte("\x1b[120;3u"), "alt+x"))
}

func TestBaseLayoutFallback(t *testing.T) {
	d := NewDecoder()
	// Cyrillic layout: codepoint 1092 with base layout key 'a'.
	assert.True(t, d.Matches([]byte("\x1b[1092::97;5u"), "ctrl+a"))
	assert.Equal(t, "ctrl+a", d.Parse([]byte("\x1b[1092::97;5u")))
}

func TestShiftLetterMatching(t *testing.T) {
	d := NewDecoder()
	assert.True(t, d.Matches([]byte("A"), "shift+a"))
	assert.Equal(t, "shift+a", d.Parse([]byte("A")))
	assert.True(t, d.Matches([]byte("\x1b[97;2u"), "shift+a"))
	assert.False(t, d.Matches([]byte("a"), "shift+a"))
}

func TestTabAndSpace(t *testing.T) {
	d := NewDecoder()
	assert.True(t, d.Matches([]byte("\t"), "tab"))
	assert.True(t, d.Matches([]byte("\x1b[Z"), "shift+tab"))
	assert.Equal(t, "shift+tab", d.Parse([]byte("\x1b[Z")))
	assert.True(t, d.Matches([]byte(" "), "space"))
	assert.True(t, d.Matches([]byte{0}, "ctrl+space"))
	assert.True(t, d.Matches([]byte("\x1b "), "alt+space"))
}

func TestUnrecognizedInput(t *testing.T) {
	d := NewDecoder()
	assert.Equal(t, "", d.Parse([]byte("hello")))
	assert.Equal(t, "", d.Parse([]byte("\x1b[999999z")))
	assert.Equal(t, "", d.Parse([]byte{}))
	assert.False(t, d.Matches([]byte("hello"), "h"))
}

package mosaic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedAll(b *InputBuffer, parts ...string) []string {
	var chunks []string
	for _, p := range parts {
		b.Feed([]byte(p), func(c []byte) { chunks = append(chunks, string(c)) })
	}
	return chunks
}

func TestInputBufferPlainText(t *testing.T) {
	var b InputBuffer
	chunks := feedAll(&b, "hello")
	assert.Equal(t, []string{"hello"}, chunks)
	assert.False(t, b.Pending())
}

func TestInputBufferSplitEscape(t *testing.T) {
	var b InputBuffer
	chunks := feedAll(&b, "\x1b[")
	assert.Empty(t, chunks)
	assert.True(t, b.Pending())

	chunks = feedAll(&b, "A")
	assert.Equal(t, []string{"\x1b[A"}, chunks)
	assert.False(t, b.Pending())
}

func TestInputBufferTextThenEscape(t *testing.T) {
	var b InputBuffer
	chunks := feedAll(&b, "ab\x1b[B")
	assert.Equal(t, []string{"ab", "\x1b[B"}, chunks)
}

func TestInputBufferMultipleSequences(t *testing.T) {
	var b InputBuffer
	chunks := feedAll(&b, "\x1b[A\x1b[B\x1b[97;5u")
	assert.Equal(t, []string{"\x1b[A", "\x1b[B", "\x1b[97;5u"}, chunks)
}

func TestInputBufferBracketedPaste(t *testing.T) {
	var b InputBuffer
	chunks := feedAll(&b, "\x1b[200~hel")
	assert.Empty(t, chunks)
	assert.True(t, b.Pending())

	chunks = feedAll(&b, "lo wor", "ld\x1b[201~")
	require.Len(t, chunks, 1)
	assert.Equal(t, "\x1b[200~hello world\x1b[201~", chunks[0])
}

func TestInputBufferPasteKeepsEscapes(t *testing.T) {
	var b InputBuffer
	chunks := feedAll(&b, "\x1b[200~a\x1b[Ab\x1b[201~")
	assert.Equal(t, []string{"\x1b[200~a\x1b[Ab\x1b[201~"}, chunks)
}

func TestInputBufferBareEscapeFlush(t *testing.T) {
	var b InputBuffer
	chunks := feedAll(&b, "\x1b")
	assert.Empty(t, chunks)
	assert.True(t, b.Pending())

	b.Flush(func(c []byte) { chunks = append(chunks, string(c)) })
	assert.Equal(t, []string{"\x1b"}, chunks)
	assert.False(t, b.Pending())
}

func TestInputBufferAltChord(t *testing.T) {
	var b InputBuffer
	chunks := feedAll(&b, "\x1bx")
	assert.Equal(t, []string{"\x1bx"}, chunks)
}

func TestInputBufferSS3(t *testing.T) {
	var b InputBuffer
	chunks := feedAll(&b, "\x1bOP")
	assert.Equal(t, []string{"\x1bOP"}, chunks)
}

func TestInputBufferRxvtFunctionKey(t *testing.T) {
	var b InputBuffer
	chunks := feedAll(&b, "\x1b[[A")
	assert.Equal(t, []string{"\x1b[[A"}, chunks)
}

func TestInputBufferNestedEscape(t *testing.T) {
	var b InputBuffer
	chunks := feedAll(&b, "\x1b\x1b[5~")
	assert.Equal(t, []string{"\x1b\x1b[5~"}, chunks)
}

func TestInputBufferOSCTerminators(t *testing.T) {
	var b InputBuffer
	chunks := feedAll(&b, "\x1b]8;;http://x\x07", "\x1b]0;title\x1b\\")
	assert.Equal(t, []string{"\x1b]8;;http://x\x07", "\x1b]0;title\x1b\\"}, chunks)
}

func TestInputBufferHoldsUTF8Tail(t *testing.T) {
	var b InputBuffer
	payload := []byte("héllo")

	var chunks []string
	emit := func(c []byte) { chunks = append(chunks, string(c)) }
	b.Feed(payload[:2], emit)
	assert.Equal(t, []string{"h"}, chunks)
	assert.True(t, b.Pending())

	b.Feed(payload[2:], emit)
	assert.Equal(t, []string{"h", "éllo"}, chunks)
	assert.False(t, b.Pending())
}

func TestInputBufferEmitCopies(t *testing.T) {
	var b InputBuffer
	var got []byte
	data := []byte("abc")
	b.Feed(data, func(c []byte) { got = c })
	data[0] = 'z'
	assert.Equal(t, "abc", string(got))
}

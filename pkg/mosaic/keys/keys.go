// Package keys decodes raw terminal input into canonical key identifiers.
//
// A key identifier is a modifier prefix in fixed order (ctrl, shift, alt)
// followed by a base key name: "a", "ctrl+c", "ctrl+shift+f5". The decoder
// understands three generations of wire conventions, tried in this order:
// the kitty keyboard protocol (CSI ... u plus modified arrow/functional
// forms), xterm's modifyOtherKeys (CSI 27;m;k~), and the fixed tables of
// legacy xterm/rxvt sequences, falling back to raw byte interpretation.
//
// Unrecognized input is never an error: Parse returns "" and Matches returns
// false, and the caller passes the bytes through unchanged.
package keys

import (
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
)

// EventType classifies a key event reported by the kitty protocol.
type EventType string

const (
	EventPress   EventType = "press"
	EventRepeat  EventType = "repeat"
	EventRelease EventType = "release"
)

// Modifier bits as encoded by the kitty protocol (after the 1-based field
// has been decremented).
const (
	ModShift = 1
	ModAlt   = 2
	ModCtrl  = 4

	// lockMask covers the caps-lock and num-lock bits, which are ignored
	// when comparing modifiers.
	lockMask = 64 | 128
)

// Codepoints for non-character keys. The kitty protocol reports real
// codepoints for printable keys; arrows and navigation keys are mapped into
// a reserved negative space so they can never collide with Unicode.
const (
	codeEscape    = 27
	codeTab       = 9
	codeEnter     = 13
	codeSpace     = 32
	codeBackspace = 127
	codeKPEnter   = 57414

	codeUp    = -1
	codeDown  = -2
	codeRight = -3
	codeLeft  = -4

	codeDelete   = -10
	codeInsert   = -11
	codePageUp   = -12
	codePageDown = -13
	codeHome     = -14
	codeEnd      = -15
)

// kitty reserves 57344-63743 for functional keys; anything in that range we
// don't explicitly handle (modifier keys, media keys, ...) must not match,
// or pure-modifier chords would seize input meant for raw bytes.
func isReservedFunctional(cp int) bool {
	return cp >= 57344 && cp <= 63743 && cp != codeKPEnter
}

// KittySequence is a decoded kitty-protocol event.
type KittySequence struct {
	Codepoint     int
	ShiftedKey    *int
	BaseLayoutKey *int
	Modifier      int // 0-based, lock bits still present
	EventType     EventType
}

var (
	csiURe        = regexp.MustCompile(`^\x1b\[(\d+)(?::(\d*))?(?::(\d+))?(?:;(\d+))?(?::(\d+))?u$`)
	arrowRe       = regexp.MustCompile(`^\x1b\[1;(\d+)(?::(\d+))?([ABCD])$`)
	functionalRe  = regexp.MustCompile(`^\x1b\[(\d+)(?:;(\d+))?(?::(\d+))?~$`)
	homeEndRe     = regexp.MustCompile(`^\x1b\[1;(\d+)(?::(\d+))?([HF])$`)
	modifyOtherRe = regexp.MustCompile(`^\x1b\[27;(\d+);(\d+)~$`)
)

// shiftedSymbols maps an unshifted US-layout key to the character produced
// with shift held. unshiftedSymbols is the reverse mapping.
var shiftedSymbols = map[rune]rune{
	'`': '~', '1': '!', '2': '@', '3': '#', '4': '$', '5': '%',
	'6': '^', '7': '&', '8': '*', '9': '(', '0': ')', '-': '_',
	'=': '+', '[': '{', ']': '}', '\\': '|', ';': ':', '\'': '"',
	',': '<', '.': '>', '/': '?',
}

var unshiftedSymbols = func() map[rune]rune {
	m := make(map[rune]rune, len(shiftedSymbols))
	for k, v := range shiftedSymbols {
		m[v] = k
	}
	return m
}()

// symbolKeys is the set of punctuation keys addressable in identifiers.
var symbolKeys = func() map[rune]bool {
	m := make(map[rune]bool, 2*len(shiftedSymbols))
	for k, v := range shiftedSymbols {
		m[k] = true
		m[v] = true
	}
	return m
}()

// Legacy escape-sequence tables, one per modifier combination. Plain and
// shift/ctrl variants are literal; alt combinations are the same sequences
// with an ESC prefix (see legacySequences).
var legacyPlain = map[string][]string{
	"up":       {"\x1b[A", "\x1bOA"},
	"down":     {"\x1b[B", "\x1bOB"},
	"right":    {"\x1b[C", "\x1bOC"},
	"left":     {"\x1b[D", "\x1bOD"},
	"home":     {"\x1b[H", "\x1bOH", "\x1b[1~", "\x1b[7~"},
	"end":      {"\x1b[F", "\x1bOF", "\x1b[4~", "\x1b[8~"},
	"insert":   {"\x1b[2~"},
	"delete":   {"\x1b[3~"},
	"pageup":   {"\x1b[5~", "\x1b[[5~"},
	"pagedown": {"\x1b[6~", "\x1b[[6~"},
	"clear":    {"\x1b[E", "\x1bOE"},
	"f1":       {"\x1bOP", "\x1b[11~", "\x1b[[A"},
	"f2":       {"\x1bOQ", "\x1b[12~", "\x1b[[B"},
	"f3":       {"\x1bOR", "\x1b[13~", "\x1b[[C"},
	"f4":       {"\x1bOS", "\x1b[14~", "\x1b[[D"},
	"f5":       {"\x1b[15~", "\x1b[[E"},
	"f6":       {"\x1b[17~"},
	"f7":       {"\x1b[18~"},
	"f8":       {"\x1b[19~"},
	"f9":       {"\x1b[20~"},
	"f10":      {"\x1b[21~"},
	"f11":      {"\x1b[23~"},
	"f12":      {"\x1b[24~"},
}

var legacyShift = map[string][]string{
	"up":       {"\x1b[a"},
	"down":     {"\x1b[b"},
	"right":    {"\x1b[c"},
	"left":     {"\x1b[d"},
	"clear":    {"\x1b[e"},
	"insert":   {"\x1b[2$"},
	"delete":   {"\x1b[3$"},
	"pageup":   {"\x1b[5$"},
	"pagedown": {"\x1b[6$"},
	"home":     {"\x1b[7$"},
	"end":      {"\x1b[8$"},
}

var legacyCtrl = map[string][]string{
	"up":       {"\x1bOa"},
	"down":     {"\x1bOb"},
	"right":    {"\x1bOc"},
	"left":     {"\x1bOd"},
	"clear":    {"\x1bOe"},
	"insert":   {"\x1b[2^"},
	"delete":   {"\x1b[3^"},
	"pageup":   {"\x1b[5^"},
	"pagedown": {"\x1b[6^"},
	"home":     {"\x1b[7^"},
	"end":      {"\x1b[8^"},
}

var legacyCtrlShift = map[string][]string{
	"insert":   {"\x1b[2@"},
	"delete":   {"\x1b[3@"},
	"pageup":   {"\x1b[5@"},
	"pagedown": {"\x1b[6@"},
	"home":     {"\x1b[7@"},
	"end":      {"\x1b[8@"},
}

// legacySequences returns the table entry for a key under a modifier
// combination. Alt adds an ESC prefix to the modifier-free combination's
// sequences (rxvt convention), giving the full set of eight tables.
func legacySequences(key string, mod int) []string {
	base := mod &^ ModAlt
	var table map[string][]string
	switch base {
	case 0:
		table = legacyPlain
	case ModShift:
		table = legacyShift
	case ModCtrl:
		table = legacyCtrl
	case ModCtrl | ModShift:
		table = legacyCtrlShift
	default:
		return nil
	}
	seqs := table[key]
	if mod&ModAlt == 0 {
		return seqs
	}
	alted := make([]string, len(seqs))
	for i, s := range seqs {
		alted[i] = "\x1b" + s
	}
	return alted
}

// legacyIDs maps literal sequences straight to identifiers, for Parse.
var legacyIDs = map[string]string{
	"\x1b[A":   "up",
	"\x1b[B":   "down",
	"\x1b[C":   "right",
	"\x1b[D":   "left",
	"\x1bOA":   "up",
	"\x1bOB":   "down",
	"\x1bOC":   "right",
	"\x1bOD":   "left",
	"\x1b[H":   "home",
	"\x1bOH":   "home",
	"\x1b[1~":  "home",
	"\x1b[7~":  "home",
	"\x1b[F":   "end",
	"\x1bOF":   "end",
	"\x1b[4~":  "end",
	"\x1b[8~":  "end",
	"\x1b[E":   "clear",
	"\x1bOE":   "clear",
	"\x1b[e":   "shift+clear",
	"\x1bOe":   "ctrl+clear",
	"\x1b[2~":  "insert",
	"\x1b[2$":  "shift+insert",
	"\x1b[2^":  "ctrl+insert",
	"\x1b[2@":  "ctrl+shift+insert",
	"\x1b[3~":  "delete",
	"\x1b[3$":  "shift+delete",
	"\x1b[3^":  "ctrl+delete",
	"\x1b[3@":  "ctrl+shift+delete",
	"\x1b[5~":  "pageup",
	"\x1b[6~":  "pagedown",
	"\x1b[[5~": "pageup",
	"\x1b[[6~": "pagedown",
	"\x1b[a":   "shift+up",
	"\x1b[b":   "shift+down",
	"\x1b[c":   "shift+right",
	"\x1b[d":   "shift+left",
	"\x1bOa":   "ctrl+up",
	"\x1bOb":   "ctrl+down",
	"\x1bOc":   "ctrl+right",
	"\x1bOd":   "ctrl+left",
	"\x1b[5$":  "shift+pageup",
	"\x1b[6$":  "shift+pagedown",
	"\x1b[7$":  "shift+home",
	"\x1b[8$":  "shift+end",
	"\x1b[5^":  "ctrl+pageup",
	"\x1b[6^":  "ctrl+pagedown",
	"\x1b[7^":  "ctrl+home",
	"\x1b[8^":  "ctrl+end",
	"\x1b[5@":  "ctrl+shift+pageup",
	"\x1b[6@":  "ctrl+shift+pagedown",
	"\x1b[7@":  "ctrl+shift+home",
	"\x1b[8@":  "ctrl+shift+end",
	"\x1bOP":   "f1",
	"\x1bOQ":   "f2",
	"\x1bOR":   "f3",
	"\x1bOS":   "f4",
	"\x1b[11~": "f1",
	"\x1b[12~": "f2",
	"\x1b[13~": "f3",
	"\x1b[14~": "f4",
	"\x1b[[A":  "f1",
	"\x1b[[B":  "f2",
	"\x1b[[C":  "f3",
	"\x1b[[D":  "f4",
	"\x1b[[E":  "f5",
	"\x1b[15~": "f5",
	"\x1b[17~": "f6",
	"\x1b[18~": "f7",
	"\x1b[19~": "f8",
	"\x1b[20~": "f9",
	"\x1b[21~": "f10",
	"\x1b[23~": "f11",
	"\x1b[24~": "f12",
	"\x1bb":    "alt+left",
	"\x1bf":    "alt+right",
	"\x1bp":    "alt+up",
	"\x1bn":    "alt+down",
}

// Decoder turns raw input chunks into key identifiers. The kitty-active
// flag changes how a handful of ambiguous legacy bytes are interpreted
// (e.g. "\x1b\r" is alt+enter on legacy terminals but shift+enter under the
// kitty protocol); it lives on the instance so independent decoders don't
// share hidden state.
type Decoder struct {
	kittyActive atomic.Bool
}

// NewDecoder returns a decoder assuming a legacy (non-kitty) terminal.
func NewDecoder() *Decoder { return &Decoder{} }

// SetKittyActive records whether the terminal confirmed kitty keyboard
// protocol support.
func (d *Decoder) SetKittyActive(active bool) { d.kittyActive.Store(active) }

// KittyActive reports the recorded protocol support.
func (d *Decoder) KittyActive() bool { return d.kittyActive.Load() }

// IsRelease reports whether data is a key-release event. Bracketed paste
// payloads are never classified as releases regardless of content.
func (d *Decoder) IsRelease(data []byte) bool { return hasEventSuffix(string(data), ":3") }

// IsRepeat reports whether data is a key-repeat event.
func (d *Decoder) IsRepeat(data []byte) bool { return hasEventSuffix(string(data), ":2") }

func hasEventSuffix(s, ev string) bool {
	if strings.Contains(s, "\x1b[200~") {
		return false
	}
	for _, suffix := range []string{"u", "~", "A", "B", "C", "D", "H", "F"} {
		if strings.Contains(s, ev+suffix) {
			return true
		}
	}
	return false
}

func parseEventType(s string) EventType {
	n, _ := strconv.Atoi(s)
	switch n {
	case 2:
		return EventRepeat
	case 3:
		return EventRelease
	default:
		return EventPress
	}
}

// ParseKitty decodes a kitty keyboard protocol sequence, or returns nil if
// data is not one. All four wire shapes are tried: the generic CSI u form,
// modified arrows, the functional CSI ~ form, and modified home/end.
func (d *Decoder) ParseKitty(data []byte) *KittySequence {
	s := string(data)

	if m := csiURe.FindStringSubmatch(s); m != nil {
		cp, _ := strconv.Atoi(m[1])
		seq := &KittySequence{Codepoint: cp, Modifier: 0, EventType: parseEventType(m[5])}
		if m[2] != "" {
			sk, _ := strconv.Atoi(m[2])
			seq.ShiftedKey = &sk
		}
		if m[3] != "" {
			bl, _ := strconv.Atoi(m[3])
			seq.BaseLayoutKey = &bl
		}
		if m[4] != "" {
			mod, _ := strconv.Atoi(m[4])
			seq.Modifier = mod - 1
		}
		return seq
	}

	if m := arrowRe.FindStringSubmatch(s); m != nil {
		mod, _ := strconv.Atoi(m[1])
		cp := map[string]int{"A": codeUp, "B": codeDown, "C": codeRight, "D": codeLeft}[m[3]]
		return &KittySequence{Codepoint: cp, Modifier: mod - 1, EventType: parseEventType(m[2])}
	}

	if m := functionalRe.FindStringSubmatch(s); m != nil {
		num, _ := strconv.Atoi(m[1])
		cp, ok := map[int]int{
			2: codeInsert, 3: codeDelete, 5: codePageUp,
			6: codePageDown, 7: codeHome, 8: codeEnd,
		}[num]
		if !ok {
			return nil
		}
		mod := 1
		if m[2] != "" {
			mod, _ = strconv.Atoi(m[2])
		}
		return &KittySequence{Codepoint: cp, Modifier: mod - 1, EventType: parseEventType(m[3])}
	}

	if m := homeEndRe.FindStringSubmatch(s); m != nil {
		mod, _ := strconv.Atoi(m[1])
		cp := codeHome
		if m[3] == "F" {
			cp = codeEnd
		}
		return &KittySequence{Codepoint: cp, Modifier: mod - 1, EventType: parseEventType(m[2])}
	}

	return nil
}

// matchesKitty reports whether data is a kitty sequence for the expected
// codepoint and modifier set, ignoring lock bits. A sequence whose base
// layout key matches is accepted when the reported codepoint is not itself
// an addressable key (so non-Latin layouts still match ASCII bindings).
func (d *Decoder) matchesKitty(s string, wantCp, wantMod int) bool {
	seq := d.ParseKitty([]byte(s))
	if seq == nil {
		return false
	}
	if seq.Modifier&^lockMask != wantMod&^lockMask {
		return false
	}
	if seq.Codepoint == wantCp {
		return true
	}
	if seq.BaseLayoutKey != nil && *seq.BaseLayoutKey == wantCp {
		cp := seq.Codepoint
		isLatin := cp >= 'a' && cp <= 'z'
		if !isLatin && !symbolKeys[rune(cp)] {
			return true
		}
	}
	return false
}

// matchesModifyOtherKeys checks the xterm modifyOtherKeys form
// CSI 27;<modifier>;<keycode>~.
func matchesModifyOtherKeys(s string, wantKeycode, wantMod int) bool {
	m := modifyOtherRe.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	mod, _ := strconv.Atoi(m[1])
	keycode, _ := strconv.Atoi(m[2])
	return keycode == wantKeycode && mod-1 == wantMod
}

// rawCtrlByte returns the C0 byte a terminal sends for ctrl+key, or "" when
// the key has no control form.
func rawCtrlByte(key string) string {
	c := key[0]
	if (c >= 'a' && c <= 'z') || c == '[' || c == '\\' || c == ']' || c == '_' {
		return string(rune(int(c) & 0x1f))
	}
	if c == '-' {
		return "\x1f"
	}
	return ""
}

type parsedID struct {
	key              string
	ctrl, shift, alt bool
}

func parseKeyID(keyID string) *parsedID {
	parts := strings.Split(strings.ToLower(keyID), "+")
	key := parts[len(parts)-1]
	if key == "" {
		// "ctrl++" addresses the plus key itself.
		if strings.HasSuffix(keyID, "+") && len(parts) >= 2 {
			key = "+"
		} else {
			return nil
		}
	}
	p := &parsedID{key: key}
	for _, part := range parts[:len(parts)-1] {
		switch part {
		case "ctrl":
			p.ctrl = true
		case "shift":
			p.shift = true
		case "alt":
			p.alt = true
		}
	}
	return p
}

func containsSeq(s string, seqs []string) bool {
	for _, seq := range seqs {
		if s == seq {
			return true
		}
	}
	return false
}

func (p *parsedID) modifier() int {
	mod := 0
	if p.shift {
		mod |= ModShift
	}
	if p.alt {
		mod |= ModAlt
	}
	if p.ctrl {
		mod |= ModCtrl
	}
	return mod
}

// Matches reports whether the raw input chunk is exactly the key named by
// keyID, under any of the supported wire conventions.
func (d *Decoder) Matches(data []byte, keyID string) bool {
	p := parseKeyID(keyID)
	if p == nil {
		return false
	}
	s := string(data)
	mod := p.modifier()
	kitty := d.kittyActive.Load()

	switch p.key {
	case "escape", "esc":
		if mod != 0 {
			return false
		}
		return s == "\x1b" || d.matchesKitty(s, codeEscape, 0)

	case "space":
		if !kitty {
			if p.ctrl && !p.alt && !p.shift && s == "\x00" {
				return true
			}
			if p.alt && !p.ctrl && !p.shift && s == "\x1b " {
				return true
			}
		}
		if mod == 0 && s == " " {
			return true
		}
		return d.matchesKitty(s, codeSpace, mod)

	case "tab":
		if p.shift && !p.ctrl && !p.alt {
			return s == "\x1b[Z" || d.matchesKitty(s, codeTab, ModShift)
		}
		if mod == 0 && s == "\t" {
			return true
		}
		return d.matchesKitty(s, codeTab, mod)

	case "enter", "return":
		return d.matchesEnter(s, p, mod)

	case "backspace":
		if p.alt && !p.ctrl && !p.shift {
			return s == "\x1b\x7f" || s == "\x1b\b" || d.matchesKitty(s, codeBackspace, ModAlt)
		}
		if mod == 0 && (s == "\x7f" || s == "\x08") {
			return true
		}
		return d.matchesKitty(s, codeBackspace, mod)

	case "insert", "delete", "home", "end", "pageup", "pagedown":
		cp := map[string]int{
			"insert": codeInsert, "delete": codeDelete, "home": codeHome,
			"end": codeEnd, "pageup": codePageUp, "pagedown": codePageDown,
		}[p.key]
		if containsSeq(s, legacySequences(p.key, mod)) {
			return true
		}
		return d.matchesKitty(s, cp, mod)

	case "clear":
		return containsSeq(s, legacySequences("clear", mod))

	case "up", "down", "left", "right":
		return d.matchesArrow(s, p, mod)

	case "f1", "f2", "f3", "f4", "f5", "f6", "f7", "f8", "f9", "f10", "f11", "f12":
		if mod != 0 {
			return false
		}
		return containsSeq(s, legacySequences(p.key, 0))
	}

	return d.matchesCharacter(s, p, mod, kitty)
}

func (d *Decoder) matchesEnter(s string, p *parsedID, mod int) bool {
	kitty := d.kittyActive.Load()
	switch {
	case p.shift && !p.ctrl && !p.alt:
		if d.matchesKitty(s, codeEnter, ModShift) || d.matchesKitty(s, codeKPEnter, ModShift) {
			return true
		}
		if matchesModifyOtherKeys(s, codeEnter, ModShift) {
			return true
		}
		// Some emulators report shift+enter as alt-CR or LF even with the
		// protocol active.
		if kitty {
			return s == "\x1b\r" || s == "\n"
		}
		return false
	case p.alt && !p.ctrl && !p.shift:
		if d.matchesKitty(s, codeEnter, ModAlt) || d.matchesKitty(s, codeKPEnter, ModAlt) {
			return true
		}
		if matchesModifyOtherKeys(s, codeEnter, ModAlt) {
			return true
		}
		if !kitty {
			return s == "\x1b\r"
		}
		return false
	case mod == 0:
		return s == "\r" ||
			(!kitty && s == "\n") ||
			s == "\x1bOM" ||
			d.matchesKitty(s, codeEnter, 0) ||
			d.matchesKitty(s, codeKPEnter, 0)
	default:
		return d.matchesKitty(s, codeEnter, mod) || d.matchesKitty(s, codeKPEnter, mod)
	}
}

func (d *Decoder) matchesArrow(s string, p *parsedID, mod int) bool {
	kitty := d.kittyActive.Load()
	cp := map[string]int{"up": codeUp, "down": codeDown, "left": codeLeft, "right": codeRight}[p.key]

	if p.alt && !p.ctrl && !p.shift {
		// Readline word motions double as alt+arrow.
		switch p.key {
		case "up":
			if s == "\x1bp" {
				return true
			}
		case "down":
			if s == "\x1bn" {
				return true
			}
		case "left":
			if s == "\x1b[1;3D" || s == "\x1bb" || (!kitty && s == "\x1bB") {
				return true
			}
		case "right":
			if s == "\x1b[1;3C" || s == "\x1bf" || (!kitty && s == "\x1bF") {
				return true
			}
		}
	}

	if containsSeq(s, legacySequences(p.key, mod)) {
		return true
	}
	return d.matchesKitty(s, cp, mod)
}

func (d *Decoder) matchesCharacter(s string, p *parsedID, mod int, kitty bool) bool {
	if len(p.key) != 1 {
		return false
	}
	r := rune(p.key[0])
	if !(r >= 'a' && r <= 'z') && !symbolKeys[r] {
		return false
	}
	cp := int(r)
	rawCtrl := rawCtrlByte(p.key)

	if p.ctrl && p.alt && !p.shift && !kitty && rawCtrl != "" {
		return s == "\x1b"+rawCtrl
	}
	if p.alt && !p.ctrl && !p.shift && !kitty && r >= 'a' && r <= 'z' {
		if s == "\x1b"+p.key {
			return true
		}
	}
	if p.ctrl && !p.shift && !p.alt {
		if rawCtrl != "" && s == rawCtrl {
			return true
		}
		return d.matchesKitty(s, cp, ModCtrl)
	}
	if p.shift && !p.ctrl && !p.alt {
		if shifted, ok := shiftedSymbols[r]; ok {
			// shift+1 arrives as "!" on legacy terminals, and the kitty
			// payload may report the shifted codepoint directly.
			if s == string(shifted) || d.matchesKitty(s, int(shifted), ModShift) {
				return true
			}
		}
		if r >= 'a' && r <= 'z' && s == strings.ToUpper(p.key) {
			return true
		}
		return d.matchesKitty(s, cp, ModShift)
	}
	if mod != 0 {
		return d.matchesKitty(s, cp, mod)
	}
	return s == p.key || d.matchesKitty(s, cp, 0)
}

// modifierPrefix renders the canonical identifier prefix: ctrl, shift, alt,
// in that order.
func modifierPrefix(mod int) string {
	var b strings.Builder
	if mod&ModCtrl != 0 {
		b.WriteString("ctrl+")
	}
	if mod&ModShift != 0 {
		b.WriteString("shift+")
	}
	if mod&ModAlt != 0 {
		b.WriteString("alt+")
	}
	return b.String()
}

// Parse decodes a raw input chunk into its canonical key identifier, or ""
// when the chunk is not a single recognizable key.
func (d *Decoder) Parse(data []byte) string {
	s := string(data)
	kitty := d.kittyActive.Load()

	if seq := d.ParseKitty(data); seq != nil {
		if id := d.identifyKitty(seq); id != "" {
			return id
		}
		// A kitty sequence for a key we can't name (media keys, bare
		// modifiers) is deliberately not matched.
		return ""
	}

	if m := modifyOtherRe.FindStringSubmatch(s); m != nil {
		modValue, _ := strconv.Atoi(m[1])
		keycode, _ := strconv.Atoi(m[2])
		return identifyModifyOtherKeys(keycode, modValue-1)
	}

	if kitty && (s == "\x1b\r" || s == "\n") {
		return "shift+enter"
	}
	if id, ok := legacyIDs[s]; ok {
		return id
	}
	return d.parseRawBytes(s, kitty)
}

// identifyKitty names a decoded kitty sequence, applying the lock-bit mask
// and preferring the shifted codepoint when shift is held.
func (d *Decoder) identifyKitty(seq *KittySequence) string {
	mod := seq.Modifier &^ lockMask
	cp := seq.Codepoint
	if isReservedFunctional(cp) {
		return ""
	}

	isLatin := cp >= 'a' && cp <= 'z'
	if !isLatin && !symbolKeys[rune(cp)] && seq.BaseLayoutKey != nil {
		cp = *seq.BaseLayoutKey
	}

	// With shift held, the shifted codepoint names the key: shift+1 is "!".
	if mod&ModShift != 0 && seq.ShiftedKey != nil {
		if sk := *seq.ShiftedKey; symbolKeys[rune(sk)] {
			cp = sk
			mod &^= ModShift
		}
	}

	var name string
	switch cp {
	case codeEscape:
		name = "escape"
	case codeTab:
		name = "tab"
	case codeEnter, codeKPEnter:
		name = "enter"
	case codeSpace:
		name = "space"
	case codeBackspace:
		name = "backspace"
	case codeDelete:
		name = "delete"
	case codeInsert:
		name = "insert"
	case codeHome:
		name = "home"
	case codeEnd:
		name = "end"
	case codePageUp:
		name = "pageup"
	case codePageDown:
		name = "pagedown"
	case codeUp:
		name = "up"
	case codeDown:
		name = "down"
	case codeLeft:
		name = "left"
	case codeRight:
		name = "right"
	default:
		if (cp >= 'a' && cp <= 'z') || symbolKeys[rune(cp)] {
			name = string(rune(cp))
		}
	}
	if name == "" {
		return ""
	}
	return modifierPrefix(mod) + name
}

func identifyModifyOtherKeys(keycode, mod int) string {
	var name string
	switch keycode {
	case codeEnter:
		name = "enter"
	case codeTab:
		name = "tab"
	case codeSpace:
		name = "space"
	case codeBackspace:
		name = "backspace"
	default:
		if (keycode >= 'a' && keycode <= 'z') || symbolKeys[rune(keycode)] {
			name = string(rune(keycode))
		}
	}
	if name == "" {
		return ""
	}
	return modifierPrefix(mod&^lockMask) + name
}

// parseRawBytes is the last-resort interpretation of short chunks: C0
// control bytes, ESC-prefixed alt chords, and single printable characters.
func (d *Decoder) parseRawBytes(s string, kitty bool) string {
	switch s {
	case "\x1b":
		return "escape"
	case "\x1c":
		return "ctrl+\\"
	case "\x1d":
		return "ctrl+]"
	case "\x1f":
		return "ctrl+-"
	case "\x1b\x1b":
		return "ctrl+alt+["
	case "\x1b\x1c":
		return "ctrl+alt+\\"
	case "\x1b\x1d":
		return "ctrl+alt+]"
	case "\x1b\x1f":
		return "ctrl+alt+-"
	case "\t":
		return "tab"
	case "\r", "\x1bOM":
		return "enter"
	case "\x00":
		return "ctrl+space"
	case " ":
		return "space"
	case "\x7f", "\x08":
		return "backspace"
	case "\x1b[Z":
		return "shift+tab"
	case "\x1b\x7f", "\x1b\b":
		return "alt+backspace"
	}

	if !kitty {
		switch s {
		case "\n":
			return "enter"
		case "\x1b\r":
			return "alt+enter"
		case "\x1b ":
			return "alt+space"
		case "\x1bB":
			return "alt+left"
		case "\x1bF":
			return "alt+right"
		}
		if len(s) == 2 && s[0] == '\x1b' {
			code := int(s[1])
			if code >= 1 && code <= 26 {
				return "ctrl+alt+" + string(rune(code+96))
			}
			if code >= 'a' && code <= 'z' {
				return "alt+" + string(rune(code))
			}
			if code >= 'A' && code <= 'Z' {
				return "shift+alt+" + string(rune(code+32))
			}
		}
	}

	if len(s) == 1 {
		code := int(s[0])
		if code >= 1 && code <= 26 {
			return "ctrl+" + string(rune(code+96))
		}
		if code >= 'A' && code <= 'Z' {
			return "shift+" + strings.ToLower(s)
		}
		if code >= 32 && code <= 126 {
			return s
		}
	}
	return ""
}

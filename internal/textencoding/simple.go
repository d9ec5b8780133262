/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

// Package textencoding maps font character codes to Unicode: the base
// WinAnsi/MacRoman/Standard encoding tables, the Adobe Glyph List support
// table (agl.go), and the simple-font and Type0 code-to-Unicode resolution
// chains that sit on top of them.
package textencoding

import "golang.org/x/text/encoding/charmap"

// SimpleTable is a 256-entry glyph-name table for a simple (8-bit) font's
// code space, indexed by raw byte value.
type SimpleTable [256]string

// winAnsiOverrides lists the handful of code points where PDF's WinAnsi
// glyph names diverge from Windows-1252 (the C1 control range 0x80-0x9F,
// which CP1252 maps to printable glyphs PDF names differently in a few
// slots, and 0xA0/0xAD which PDF names "space"/"hyphen" rather than
// leaving as the Latin-1 no-break forms).
var winAnsiOverrides = map[byte]string{
	0x80: "Euro", 0x82: "quotesinglbase", 0x83: "florin", 0x84: "quotedblbase",
	0x85: "ellipsis", 0x86: "dagger", 0x87: "daggerdbl", 0x88: "circumflex",
	0x89: "perthousand", 0x8a: "Scaron", 0x8b: "guilsinglleft", 0x8c: "OE",
	0x8e: "Zcaron", 0x91: "quoteleft", 0x92: "quoteright", 0x93: "quotedblleft",
	0x94: "quotedblright", 0x95: "bullet", 0x96: "endash", 0x97: "emdash",
	0x98: "tilde", 0x99: "trademark", 0x9a: "scaron", 0x9b: "guilsinglright",
	0x9c: "oe", 0x9e: "zcaron", 0x9f: "Ydieresis", 0xa0: "space", 0xad: "hyphen",
}

// BuildWinAnsi returns the WinAnsiEncoding glyph-name table, seeded from
// golang.org/x/text's Windows-1252 codec and
// patched with PDF's handful of documented overrides.
func BuildWinAnsi() SimpleTable {
	return buildFromCharmap(charmap.Windows1252, winAnsiOverrides)
}

// macRomanOverrides covers the few code points (mostly 0xD8-0xFF) where
// PDF's documented MacRomanEncoding diverges from golang.org/x/text's
// Macintosh codec, which follows the Apple Mac OS Roman table exactly;
// the PDF spec's Appendix D table matches it closely enough that no
// override is required in practice, so this exists only for parity with
// BuildWinAnsi's shape.
var macRomanOverrides = map[byte]string{}

// BuildMacRoman returns the MacRomanEncoding glyph-name table.
func BuildMacRoman() SimpleTable {
	return buildFromCharmap(charmap.Macintosh, macRomanOverrides)
}

func buildFromCharmap(cm *charmap.Charmap, overrides map[byte]string) SimpleTable {
	var t SimpleTable
	for i := 0; i < 256; i++ {
		b := byte(i)
		if name, ok := overrides[b]; ok {
			t[i] = name
			continue
		}
		r := cm.DecodeByte(b)
		if r == 0 && i != 0 {
			continue
		}
		if name, ok := runeToStandardGlyphName(r); ok {
			t[i] = name
		}
	}
	return t
}

// standardEncodingTable is PDF's StandardEncoding (Appendix D.2), built by
// hand: no ecosystem charmap matches it (it is Adobe's original Type1
// font encoding, distinct from Latin-1/CP1252/MacRoman in the upper
// range), so unlike WinAnsi/MacRoman this table cannot be derived from
// golang.org/x/text.
var standardEncodingTable = buildStandardEncoding()

// BuildStandardEncoding returns PDF's StandardEncoding glyph-name table.
func BuildStandardEncoding() SimpleTable { return standardEncodingTable }

func buildStandardEncoding() SimpleTable {
	var t SimpleTable
	// ASCII range 0x20-0x7E is shared by every PDF simple-font encoding.
	ascii := map[byte]string{
		0x20: "space", 0x21: "exclam", 0x22: "quotedbl", 0x23: "numbersign",
		0x24: "dollar", 0x25: "percent", 0x26: "ampersand", 0x27: "quoteright",
		0x28: "parenleft", 0x29: "parenright", 0x2a: "asterisk", 0x2b: "plus",
		0x2c: "comma", 0x2d: "hyphen", 0x2e: "period", 0x2f: "slash",
		0x3a: "colon", 0x3b: "semicolon", 0x3c: "less", 0x3d: "equal",
		0x3e: "greater", 0x3f: "question", 0x40: "at", 0x5b: "bracketleft",
		0x5c: "backslash", 0x5d: "bracketright", 0x5e: "asciicircum",
		0x5f: "underscore", 0x60: "quoteleft", 0x7b: "braceleft", 0x7c: "bar",
		0x7d: "braceright", 0x7e: "asciitilde",
	}
	for b, name := range ascii {
		t[b] = name
	}
	for b := byte('0'); b <= '9'; b++ {
		t[b] = digitName(b)
	}
	for b := byte('A'); b <= 'Z'; b++ {
		t[b] = string(rune(b))
	}
	for b := byte('a'); b <= 'z'; b++ {
		t[b] = string(rune(b))
	}
	// High range: the subset of accented/punctuation glyphs Standard
	// Encoding actually assigns (Appendix D.2); everything else is .notdef.
	high := map[byte]string{
		0xa1: "exclamdown", 0xa2: "cent", 0xa3: "sterling", 0xa4: "fraction",
		0xa5: "yen", 0xa6: "florin", 0xa7: "section", 0xa8: "currency",
		0xa9: "quotesingle", 0xaa: "quotedblleft", 0xab: "guillemotleft",
		0xac: "guilsinglleft", 0xad: "guilsinglright", 0xae: "fi", 0xaf: "fl",
		0xb1: "endash", 0xb2: "dagger", 0xb3: "daggerdbl", 0xb4: "periodcentered",
		0xb6: "paragraph", 0xb7: "bullet", 0xb8: "quotesinglbase",
		0xb9: "quotedblbase", 0xba: "quotedblright", 0xbb: "guillemotright",
		0xbc: "ellipsis", 0xbd: "perthousand", 0xbf: "questiondown",
		0xc1: "grave", 0xc2: "acute", 0xc3: "circumflex", 0xc4: "tilde",
		0xc5: "macron", 0xc6: "breve", 0xc7: "dotaccent", 0xc8: "dieresis",
		0xca: "ring", 0xcb: "cedilla", 0xcd: "hungarumlaut", 0xce: "ogonek",
		0xcf: "caron", 0xd0: "emdash", 0xe1: "AE", 0xe3: "ordfeminine",
		0xe8: "Lslash", 0xe9: "Oslash", 0xea: "OE", 0xeb: "ordmasculine",
		0xf1: "ae", 0xf5: "dotlessi", 0xf8: "lslash", 0xf9: "oslash",
		0xfa: "oe", 0xfb: "germandbls",
	}
	for b, name := range high {
		t[b] = name
	}
	return t
}

func digitName(b byte) string {
	names := [10]string{"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine"}
	return names[b-'0']
}

// runeToStandardGlyphName maps a decoded rune back to an Adobe glyph name
// via the AGL's reverse direction, for building a SimpleTable from a
// byte->rune charmap.
func runeToStandardGlyphName(r rune) (string, bool) {
	if r == 0 {
		return "", false
	}
	if name, ok := runeToGlyphCache[r]; ok {
		return name, true
	}
	return "", false
}

var runeToGlyphCache = invertAGL()

// invertAGL picks one glyph name per rune. Several AGL names can share a
// rune; the shortest (then lexicographically smallest) wins, so the
// inversion is deterministic and prefers the canonical short names
// ("space" over its longer aliases).
func invertAGL() map[rune]string {
	out := make(map[rune]string, len(glyphlistGlyphToRuneMap))
	for name, r := range glyphlistGlyphToRuneMap {
		prev, ok := out[r]
		if !ok || len(name) < len(prev) || (len(name) == len(prev) && name < prev) {
			out[r] = name
		}
	}
	return out
}

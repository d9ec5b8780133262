/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package textencoding

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWinAnsiTable(t *testing.T) {
	table := BuildWinAnsi()
	assert.Equal(t, "A", table[0x41])
	assert.Equal(t, "space", table[0x20])
	assert.Equal(t, "Euro", table[0x80])
	assert.Equal(t, "quoteright", table[0x92])
	assert.Equal(t, "hyphen", table[0xAD])
}

func TestStandardEncodingTable(t *testing.T) {
	table := BuildStandardEncoding()
	assert.Equal(t, "quoteright", table[0x27])
	assert.Equal(t, "fi", table[0xAE])
	assert.Equal(t, "emdash", table[0xD0])
	// Standard Encoding leaves most of the C1 range unassigned.
	assert.Empty(t, table[0x90])
}

func TestSimpleFontEncodingDifferences(t *testing.T) {
	enc := NewSimpleFontEncoding(WinAnsiEncoding, map[byte]string{0x41: "eacute"})
	name, ok := enc.GlyphName(0x41)
	require.True(t, ok)
	assert.Equal(t, "eacute", name)

	name, ok = enc.GlyphName(0x42)
	require.True(t, ok)
	assert.Equal(t, "B", name)
}

func TestSimpleFontEncodingToUnicode(t *testing.T) {
	enc := NewSimpleFontEncoding(WinAnsiEncoding, nil)
	s, ok := enc.ToUnicode(0x41, nil)
	require.True(t, ok)
	assert.Equal(t, "A", s)
}

func TestGlyphToRuneUniForm(t *testing.T) {
	r, ok := GlyphToRune("uni0416")
	require.True(t, ok)
	assert.Equal(t, 'Ж', r)

	r, ok = GlyphToRune("eacute")
	require.True(t, ok)
	assert.Equal(t, 'é', r)

	_, ok = GlyphToRune("definitelynotaglyph")
	assert.False(t, ok)
}

// sfntStub builds a minimal sfnt header whose table directory lists the
// given tags.
func sfntStub(tags ...string) []byte {
	out := make([]byte, 12+16*len(tags))
	binary.BigEndian.PutUint32(out[0:], 0x00010000)
	binary.BigEndian.PutUint16(out[4:], uint16(len(tags)))
	for i, tag := range tags {
		copy(out[12+16*i:], tag)
	}
	return out
}

func TestHasCmapTable(t *testing.T) {
	assert.True(t, HasCmapTable(sfntStub("glyf", "cmap", "head")))
	assert.False(t, HasCmapTable(sfntStub("glyf", "head")))
	assert.False(t, HasCmapTable([]byte{0, 1}))
	// Truncated directory.
	stub := sfntStub("cmap")
	assert.False(t, HasCmapTable(stub[:14]))
}

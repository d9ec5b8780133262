/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package cmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const toUnicodeHeader = `/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
/CIDSystemInfo << /Registry (Adobe) /Ordering (UCS) /Supplement 0 >> def
/CMapName /Adobe-Identity-UCS def
/CMapType 2 def
`

const toUnicodeFooter = `endcmap
CMapName currentdict /CMap defineresource pop
end
end`

func TestLoadBfchar(t *testing.T) {
	data := toUnicodeHeader + `1 begincodespacerange
<0000> <FFFF>
endcodespacerange
2 beginbfchar
<0041> <0048>
<0042> <00480065006C006C006F>
endbfchar
` + toUnicodeFooter

	cm, err := LoadCmapFromData([]byte(data), false)
	require.NoError(t, err)

	s, ok := cm.CharcodeToUnicode(0x41)
	require.True(t, ok)
	assert.Equal(t, "H", s)

	s, ok = cm.CharcodeToUnicode(0x42)
	require.True(t, ok)
	assert.Equal(t, "Hello", s)

	_, ok = cm.CharcodeToUnicode(0x43)
	assert.False(t, ok)
}

func TestLoadBfrangeIncrement(t *testing.T) {
	data := toUnicodeHeader + `1 begincodespacerange
<0000> <FFFF>
endcodespacerange
1 beginbfrange
<0010> <0013> <0061>
endbfrange
` + toUnicodeFooter

	cm, err := LoadCmapFromData([]byte(data), false)
	require.NoError(t, err)
	for i, want := range []string{"a", "b", "c", "d"} {
		s, ok := cm.CharcodeToUnicode(CharCode(0x10 + i))
		require.True(t, ok)
		assert.Equal(t, want, s)
	}
}

func TestLoadBfrangeArray(t *testing.T) {
	data := toUnicodeHeader + `1 begincodespacerange
<00> <FF>
endcodespacerange
1 beginbfrange
<20> <22> [<0058> <0059> <005A>]
endbfrange
` + toUnicodeFooter

	cm, err := LoadCmapFromData([]byte(data), true)
	require.NoError(t, err)
	got := ""
	for code := CharCode(0x20); code <= 0x22; code++ {
		s, ok := cm.CharcodeToUnicode(code)
		require.True(t, ok)
		got += s
	}
	assert.Equal(t, "XYZ", got)
}

func TestSurrogatePairFolding(t *testing.T) {
	// <D835DC00> is the UTF-16BE encoding of U+1D400 (mathematical bold A).
	data := toUnicodeHeader + `1 begincodespacerange
<0000> <FFFF>
endcodespacerange
1 beginbfchar
<0001> <D835DC00>
endbfchar
` + toUnicodeFooter

	cm, err := LoadCmapFromData([]byte(data), false)
	require.NoError(t, err)
	s, ok := cm.CharcodeToUnicode(0x01)
	require.True(t, ok)
	assert.Equal(t, "\U0001D400", s)
}

func TestCharcodeBytesToUnicode(t *testing.T) {
	data := toUnicodeHeader + `1 begincodespacerange
<0000> <FFFF>
endcodespacerange
2 beginbfchar
<0001> <0041>
<0002> <0042>
endbfchar
` + toUnicodeFooter

	cm, err := LoadCmapFromData([]byte(data), false)
	require.NoError(t, err)
	s, missing := cm.CharcodeBytesToUnicode([]byte{0x00, 0x01, 0x00, 0x02, 0x00, 0x09})
	assert.Equal(t, 1, missing)
	assert.Equal(t, "AB"+MissingCodeString, s)
}

func TestGarbageInputRejected(t *testing.T) {
	_, err := LoadCmapFromData([]byte("this is not a cmap at all"), false)
	assert.Error(t, err)
}

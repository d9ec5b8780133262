/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khawkins98/pdfshrink/core"
)

func TestUsedRunesSimpleASCII(t *testing.T) {
	doc := core.NewDocument()
	font := core.MakeDict()
	font.Set("Type", core.Name("Font"))
	font.Set("Subtype", core.Name("Type1"))
	font.Set("BaseFont", core.Name("Helvetica"))

	runes := UsedRunes(doc, font, [][]byte{[]byte("Hi!")})
	assert.Equal(t, []rune{'!', 'H', 'i'}, runes)
}

func TestUsedRunesDifferences(t *testing.T) {
	doc := core.NewDocument()
	enc := core.MakeDict()
	enc.Set("Type", core.Name("Encoding"))
	enc.Set("BaseEncoding", core.Name("WinAnsiEncoding"))
	enc.Set("Differences", core.MakeArray(
		core.Integer(65), core.Name("eacute"), core.Name("agrave"),
	))
	font := core.MakeDict()
	font.Set("Type", core.Name("Font"))
	font.Set("Subtype", core.Name("Type1"))
	font.Set("Encoding", doc.Register(enc))

	// Codes 65 and 66 are remapped by Differences; 67 stays 'C'.
	runes := UsedRunes(doc, font, [][]byte{{65, 66, 67}})
	assert.Equal(t, []rune{'C', 'à', 'é'}, runes)
}

func TestUsedRunesToUnicodeWins(t *testing.T) {
	doc := core.NewDocument()
	cmapText := `/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
1 begincodespacerange
<00> <ff>
endcodespacerange
1 beginbfchar
<41> <0416>
endbfchar
endcmap
end
end`
	tu := core.MakeStream([]byte(cmapText))
	tu.Set("Length", core.Integer(int64(len(cmapText))))
	font := core.MakeDict()
	font.Set("Type", core.Name("Font"))
	font.Set("Subtype", core.Name("Type1"))
	font.Set("ToUnicode", doc.Register(tu))

	runes := UsedRunes(doc, font, [][]byte{{0x41}})
	// ToUnicode maps code 0x41 to U+0416, overriding the encoding's 'A'.
	assert.Equal(t, []rune{'Ж'}, runes)
}

func TestUsedRunesType0RequiresToUnicode(t *testing.T) {
	doc := core.NewDocument()
	font := core.MakeDict()
	font.Set("Type", core.Name("Font"))
	font.Set("Subtype", core.Name("Type0"))
	font.Set("Encoding", core.Name("Identity-H"))

	runes := UsedRunes(doc, font, [][]byte{{0x00, 0x41}})
	assert.Empty(t, runes)
}

func TestUsedRunesType0BFRange(t *testing.T) {
	doc := core.NewDocument()
	cmapText := `/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
1 begincodespacerange
<0000> <ffff>
endcodespacerange
1 beginbfrange
<0010> <0012> <0061>
endbfrange
endcmap
end
end`
	tu := core.MakeStream([]byte(cmapText))
	tu.Set("Length", core.Integer(int64(len(cmapText))))
	font := core.MakeDict()
	font.Set("Type", core.Name("Font"))
	font.Set("Subtype", core.Name("Type0"))
	font.Set("Encoding", core.Name("Identity-H"))
	font.Set("ToUnicode", doc.Register(tu))

	runes := UsedRunes(doc, font, [][]byte{{0x00, 0x10, 0x00, 0x12}})
	assert.Equal(t, []rune{'a', 'c'}, runes)
}

func TestUsedCIDs(t *testing.T) {
	cids := UsedCIDs([][]byte{{0x00, 0x02, 0x01, 0x00}, {0x00, 0x02, 0x03}})
	assert.Equal(t, []uint16{0x0002, 0x0100}, cids)
}

func TestIsIdentityH(t *testing.T) {
	doc := core.NewDocument()
	desc := core.MakeDict()
	desc.Set("Type", core.Name("Font"))
	desc.Set("Subtype", core.Name("CIDFontType2"))
	descRef := doc.Register(desc)

	font := core.MakeDict()
	font.Set("Type", core.Name("Font"))
	font.Set("Subtype", core.Name("Type0"))
	font.Set("Encoding", core.Name("Identity-H"))
	font.Set("DescendantFonts", core.MakeArray(descRef))

	require.True(t, IsIdentityH(doc, font))

	desc.Set("CIDToGIDMap", core.Name("Identity"))
	assert.True(t, IsIdentityH(doc, font))

	desc.Set("CIDToGIDMap", core.Ref{Num: 99})
	assert.False(t, IsIdentityH(doc, font))

	font.Set("Encoding", core.Name("Identity-V"))
	assert.False(t, IsIdentityH(doc, font))
}

func TestStandard14Names(t *testing.T) {
	assert.True(t, IsStandard14("Helvetica"))
	assert.True(t, IsStandard14("GHIJKL+Times-BoldItalic"))
	assert.True(t, IsStandard14("ZapfDingbats"))
	assert.False(t, IsStandard14("Arial"))
	assert.Equal(t, "Courier", StripSubsetPrefix("ABCDEF+Courier"))
	assert.Equal(t, "NotAPrefix", StripSubsetPrefix("NotAPrefix"))
	assert.False(t, HasSubsetPrefix("abcdef+Courier"))
}

/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package contentstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khawkins98/pdfshrink/core"
)

// fixture builds a document with one font resource and returns the doc,
// the resources dict, and the font's reference.
func fixture(t *testing.T) (*core.Document, *core.Dict, core.Ref) {
	t.Helper()
	doc := core.NewDocument()
	font := core.MakeDict()
	font.Set("Type", core.Name("Font"))
	font.Set("Subtype", core.Name("Type1"))
	font.Set("BaseFont", core.Name("Helvetica"))
	fontRef := doc.Register(font)

	fonts := core.MakeDict()
	fonts.Set("F1", fontRef)
	resources := core.MakeDict()
	resources.Set("Font", fonts)
	return doc, resources, fontRef
}

func TestTokenizeTjAndQuotes(t *testing.T) {
	doc, res, fontRef := fixture(t)
	content := []byte("BT /F1 12 Tf (ab) Tj (cd) ' (ef) \" ET")
	usage, err := Tokenize(doc, content, res)
	require.NoError(t, err)
	rec := usage[fontRef]
	require.NotNil(t, rec)
	assert.Equal(t, [][]byte{[]byte("ab"), []byte("cd"), []byte("ef")}, rec.Bytes)
}

func TestTokenizeTJDiscardsKerning(t *testing.T) {
	doc, res, fontRef := fixture(t)
	content := []byte("BT /F1 12 Tf [(He) -120 (llo) 40.5 (!)] TJ ET")
	usage, err := Tokenize(doc, content, res)
	require.NoError(t, err)
	rec := usage[fontRef]
	require.NotNil(t, rec)
	assert.Equal(t, [][]byte{[]byte("He"), []byte("llo"), []byte("!")}, rec.Bytes)
}

func TestTokenizeHexStringOperand(t *testing.T) {
	doc, res, fontRef := fixture(t)
	content := []byte("BT /F1 12 Tf <00410042> Tj ET")
	usage, err := Tokenize(doc, content, res)
	require.NoError(t, err)
	rec := usage[fontRef]
	require.NotNil(t, rec)
	require.Len(t, rec.Bytes, 1)
	assert.Equal(t, []byte{0x00, 0x41, 0x00, 0x42}, rec.Bytes[0])
}

func TestTokenizeNoCurrentFont(t *testing.T) {
	doc, res, _ := fixture(t)
	// Show-text before any Tf has no font to attribute to.
	usage, err := Tokenize(doc, []byte("BT (orphan) Tj ET"), res)
	require.NoError(t, err)
	assert.Empty(t, usage)
}

func TestTokenizeFollowsFormXObject(t *testing.T) {
	doc, res, fontRef := fixture(t)

	form := core.MakeStream([]byte("BT /F1 9 Tf (inner) Tj ET"))
	form.Set("Subtype", core.Name("Form"))
	form.Set("Length", core.Integer(int64(len(form.Data))))
	// No Resources on the form: the outer Resources apply.
	formRef := doc.Register(form)

	xobjs := core.MakeDict()
	xobjs.Set("Fm0", formRef)
	res.Set("XObject", xobjs)

	usage, err := Tokenize(doc, []byte("/Fm0 Do"), res)
	require.NoError(t, err)
	rec := usage[fontRef]
	require.NotNil(t, rec)
	assert.Equal(t, [][]byte{[]byte("inner")}, rec.Bytes)
}

func TestTokenizeSkipsInlineImage(t *testing.T) {
	doc, res, fontRef := fixture(t)
	content := []byte("BT /F1 12 Tf (a) Tj ET BI /W 2 /H 2 /BPC 8 ID \x01\x02\x03\x04 EI BT (b) Tj ET")
	usage, err := Tokenize(doc, content, res)
	require.NoError(t, err)
	rec := usage[fontRef]
	require.NotNil(t, rec)
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b")}, rec.Bytes)
}

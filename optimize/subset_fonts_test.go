/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package optimize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khawkins98/pdfshrink/core"
)

// embedFont wires a TrueType font dict with an embedded program into the
// page resources and returns the font dict and program stream.
func embedFont(t *testing.T, doc *core.Document, res *core.Dict, resName, baseFont string, program []byte) (*core.Dict, *core.Stream) {
	t.Helper()
	ff := core.MakeStream(program)
	ff.Set("Length", core.Integer(int64(len(program))))
	ffRef := doc.Register(ff)

	fd := core.MakeDict()
	fd.Set("Type", core.Name("FontDescriptor"))
	fd.Set("FontFile2", ffRef)
	fdRef := doc.Register(fd)

	font := core.MakeDict()
	font.Set("Type", core.Name("Font"))
	font.Set("Subtype", core.Name("TrueType"))
	font.Set("BaseFont", core.Name(baseFont))
	font.Set("FontDescriptor", fdRef)
	fontRef := doc.Register(font)

	fonts, ok := doc.ResolveDict(res.Get("Font"))
	if !ok {
		fonts = core.MakeDict()
		res.Set("Font", fonts)
	}
	fonts.Set(core.Name(resName), fontRef)

	ffStream, _ := doc.ResolveStream(ffRef)
	return font, ffStream
}

func TestSubsetFontsSkipsUnusedFont(t *testing.T) {
	// The font is never referenced by a Tf, so there is no usage record
	// and nothing to subset.
	doc, _, res := pageDoc(t, []byte("q Q"))
	_, ff := embedFont(t, doc, res, "F1", "SomeFace", make([]byte, 20000))
	before := len(ff.Data)

	counts, err := SubsetFonts{}.Optimize(passContext(doc))
	require.NoError(t, err)
	assert.Equal(t, 0, counts["subsetted"])
	assert.Equal(t, before, len(ff.Data))
}

func TestSubsetFontsSkipsSmallProgram(t *testing.T) {
	doc, _, res := pageDoc(t, []byte("BT /F1 10 Tf (abc) Tj ET"))
	_, ff := embedFont(t, doc, res, "F1", "SomeFace", make([]byte, 512))

	counts, err := SubsetFonts{}.Optimize(passContext(doc))
	require.NoError(t, err)
	assert.Equal(t, 0, counts["subsetted"])
	assert.Equal(t, 1, counts["skipped"])
	assert.Equal(t, 512, len(ff.Data))
}

func TestSubsetFontsSkipsSubsetPrefixedSimpleFont(t *testing.T) {
	doc, _, res := pageDoc(t, []byte("BT /F1 10 Tf (abc) Tj ET"))
	_, ff := embedFont(t, doc, res, "F1", "ABCDEF+SomeFace", make([]byte, 20000))

	counts, err := SubsetFonts{}.Optimize(passContext(doc))
	require.NoError(t, err)
	assert.Equal(t, 0, counts["subsetted"])
	assert.Equal(t, 1, counts["skipped"])
	assert.Equal(t, 20000, len(ff.Data))
}

func TestSubsetFontsSkipsNonSfntProgram(t *testing.T) {
	// A Type1 program (no sfnt magic) cannot go through the TrueType
	// subsetter.
	doc, _, res := pageDoc(t, []byte("BT /F1 10 Tf (abc) Tj ET"))
	program := append([]byte("%!PS-AdobeFont-1.0: SomeFace"), make([]byte, 20000)...)
	_, ff := embedFont(t, doc, res, "F1", "SomeFace", program)
	before := len(ff.Data)

	counts, err := SubsetFonts{}.Optimize(passContext(doc))
	require.NoError(t, err)
	assert.Equal(t, 0, counts["subsetted"])
	assert.Equal(t, before, len(ff.Data))
}

func TestSubsetFontsSkipsSharedProgram(t *testing.T) {
	doc, _, res := pageDoc(t, []byte("BT /F1 10 Tf (ab) Tj /F2 10 Tf (cd) Tj ET"))
	_, ff := embedFont(t, doc, res, "F1", "FaceOne", make([]byte, 20000))

	// Second font's descriptor points at the first font's program stream.
	var sharedRef core.Ref
	doc.Enumerate(func(ref core.Ref, obj core.Object) error {
		if s, ok := core.GetStream(obj); ok && s == ff {
			sharedRef = ref
		}
		return nil
	})
	fd := core.MakeDict()
	fd.Set("Type", core.Name("FontDescriptor"))
	fd.Set("FontFile2", sharedRef)
	fdRef := doc.Register(fd)

	font2 := core.MakeDict()
	font2.Set("Type", core.Name("Font"))
	font2.Set("Subtype", core.Name("TrueType"))
	font2.Set("BaseFont", core.Name("FaceTwo"))
	font2.Set("FontDescriptor", fdRef)
	fonts, _ := doc.ResolveDict(res.Get("Font"))
	fonts.Set("F2", doc.Register(font2))

	counts, err := SubsetFonts{}.Optimize(passContext(doc))
	require.NoError(t, err)
	assert.Equal(t, 0, counts["subsetted"])
	assert.Equal(t, 20000, len(ff.Data))
}

func TestSubsetFontsDisabled(t *testing.T) {
	doc, _, res := pageDoc(t, []byte("BT /F1 10 Tf (abc) Tj ET"))
	embedFont(t, doc, res, "F1", "SomeFace", make([]byte, 20000))

	ctx := passContext(doc)
	ctx.Options.SubsetFonts = false
	counts, err := SubsetFonts{}.Optimize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, counts["subsetted"])
	assert.Equal(t, 0, counts["skipped"])
}

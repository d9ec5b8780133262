/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package optimize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khawkins98/pdfshrink/core"
	"github.com/khawkins98/pdfshrink/model"
)

// pageDoc builds a single-page document and returns it with the page dict
// and its resources, so tests can hang fonts and XObjects off it.
func pageDoc(t *testing.T, content []byte) (*core.Document, *core.Dict, *core.Dict) {
	t.Helper()
	doc := core.NewDocument()

	cs := core.MakeStream(content)
	cs.Set("Length", core.Integer(int64(len(content))))
	contentRef := doc.Register(cs)

	res := core.MakeDict()
	page := core.MakeDict()
	page.Set("Type", core.Name("Page"))
	page.Set("Contents", contentRef)
	page.Set("Resources", res)
	page.Set("MediaBox", core.MakeArray(core.Integer(0), core.Integer(0), core.Integer(612), core.Integer(792)))
	pageRef := doc.Register(page)

	pages := core.MakeDict()
	pages.Set("Type", core.Name("Pages"))
	pages.Set("Kids", core.MakeArray(pageRef))
	pages.Set("Count", core.Integer(1))
	pagesRef := doc.Register(pages)
	page.Set("Parent", pagesRef)

	cat := core.MakeDict()
	cat.Set("Type", core.Name("Catalog"))
	cat.Set("Pages", pagesRef)
	doc.Trailer.Set("Root", doc.Register(cat))
	return doc, page, res
}

func passContext(doc *core.Document) *Context {
	return &Context{Doc: doc, Options: DefaultOptions(), Usage: CollectFontUsage(doc)}
}

func TestCompressStreamsShrinksLevelOneDeflate(t *testing.T) {
	doc, _, _ := pageDoc(t, []byte("q Q"))

	// A very repetitive payload stored uncompressed.
	raw := make([]byte, 4096)
	for i := range raw {
		raw[i] = byte(i % 7)
	}
	s := core.MakeStream(raw)
	s.Set("Length", core.Integer(int64(len(raw))))
	doc.Register(s)

	counts, err := CompressStreams{}.Optimize(passContext(doc))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, counts["recompressed"], 1)

	name, _ := core.GetName(s.Get("Filter"))
	assert.Equal(t, core.Name("FlateDecode"), name)
	length, _ := core.GetIntVal(s.Get("Length"))
	assert.EqualValues(t, len(s.Data), length)
	assert.Less(t, len(s.Data), len(raw))
}

func TestCompressStreamsLeavesImageNativeAlone(t *testing.T) {
	doc, _, _ := pageDoc(t, []byte("q Q"))
	s := core.MakeStream([]byte("jpeg bytes"))
	s.Set("Filter", core.Name("DCTDecode"))
	s.Set("Length", core.Integer(10))
	doc.Register(s)

	counts, err := CompressStreams{}.Optimize(passContext(doc))
	require.NoError(t, err)
	assert.Equal(t, 0, counts["recompressed"])
	assert.Equal(t, []byte("jpeg bytes"), s.Data)
}

func TestCombineDuplicateStreams(t *testing.T) {
	doc, page, _ := pageDoc(t, []byte("q Q"))

	mk := func() core.Ref {
		s := core.MakeStream([]byte("identical payload"))
		s.Set("Length", core.Integer(17))
		return doc.Register(s)
	}
	r1, r2, r3 := mk(), mk(), mk()
	page.Set("Extra", core.MakeArray(r1, r2, r3))

	counts, err := CombineDuplicateStreams{}.Optimize(passContext(doc))
	require.NoError(t, err)
	assert.Equal(t, 2, counts["deduplicated"])

	arr, _ := core.GetArray(page.Get("Extra"))
	first, _ := core.GetRef(arr.Get(0))
	for i := 1; i < 3; i++ {
		ref, _ := core.GetRef(arr.Get(i))
		assert.Equal(t, first, ref)
	}

	// Second run finds nothing left to merge.
	counts, err = CombineDuplicateStreams{}.Optimize(passContext(doc))
	require.NoError(t, err)
	assert.Equal(t, 0, counts["deduplicated"])
}

func TestCombineDuplicateStreamsRespectsDictDifferences(t *testing.T) {
	doc, page, _ := pageDoc(t, []byte("q Q"))

	s1 := core.MakeStream([]byte("payload"))
	s1.Set("Subtype", core.Name("Image"))
	s1.Set("Length", core.Integer(7))
	s2 := core.MakeStream([]byte("payload"))
	s2.Set("Subtype", core.Name("Form"))
	s2.Set("Length", core.Integer(7))
	page.Set("Extra", core.MakeArray(doc.Register(s1), doc.Register(s2)))

	counts, err := CombineDuplicateStreams{}.Optimize(passContext(doc))
	require.NoError(t, err)
	assert.Equal(t, 0, counts["deduplicated"])
}

func TestCombineDuplicateFonts(t *testing.T) {
	doc, page, _ := pageDoc(t, []byte("q Q"))

	program := []byte("font program bytes, identical across both copies")
	mkFD := func() core.Ref {
		ff := core.MakeStream(program)
		ff.Set("Length", core.Integer(int64(len(program))))
		ffRef := doc.Register(ff)
		fd := core.MakeDict()
		fd.Set("Type", core.Name("FontDescriptor"))
		fd.Set("FontFile2", ffRef)
		return doc.Register(fd)
	}
	fd1, fd2 := mkFD(), mkFD()
	page.Set("Extra", core.MakeArray(fd1, fd2))

	counts, err := CombineDuplicateFonts{}.Optimize(passContext(doc))
	require.NoError(t, err)
	assert.Equal(t, 1, counts["deduplicated"])

	d1, _ := doc.ResolveDict(fd1)
	d2, _ := doc.ResolveDict(fd2)
	ref1, _ := core.GetRef(d1.Get("FontFile2"))
	ref2, _ := core.GetRef(d2.Get("FontFile2"))
	assert.Equal(t, ref1, ref2)

	counts, err = CombineDuplicateFonts{}.Optimize(passContext(doc))
	require.NoError(t, err)
	assert.Equal(t, 0, counts["deduplicated"])
}

func TestStripMetadata(t *testing.T) {
	doc, page, _ := pageDoc(t, []byte("q Q"))
	cat := doc.Catalog()

	xmp := `<dc:language><rdf:Bag><rdf:li>fr</rdf:li></rdf:Bag></dc:language>`
	md := core.MakeStream([]byte(xmp))
	md.Set("Type", core.Name("Metadata"))
	md.Set("Length", core.Integer(int64(len(xmp))))
	mdRef := doc.Register(md)
	cat.Set("Metadata", mdRef)
	page.Set("PieceInfo", core.MakeDict())
	page.Set("Thumb", core.MakeDict())

	counts, err := StripMetadata{}.Optimize(passContext(doc))
	require.NoError(t, err)
	assert.Equal(t, 1, counts["removed-streams"])
	assert.Equal(t, 2, counts["removed-keys"])

	assert.Nil(t, cat.Get("Metadata"))
	assert.Nil(t, page.Get("PieceInfo"))
	assert.Nil(t, page.Get("Thumb"))
	_, exists := doc.Lookup(mdRef)
	assert.False(t, exists)

	lang, _ := core.GetStringVal(cat.Get("Lang"))
	assert.Equal(t, "fr", lang)
}

func TestStripMetadataKeepsExistingLang(t *testing.T) {
	doc, _, _ := pageDoc(t, []byte("q Q"))
	cat := doc.Catalog()
	cat.Set("Lang", core.MakeString("en-US"))

	xmp := `<dc:language><rdf:li>fr</rdf:li></dc:language>`
	md := core.MakeStream([]byte(xmp))
	md.Set("Type", core.Name("Metadata"))
	md.Set("Length", core.Integer(int64(len(xmp))))
	cat.Set("Metadata", doc.Register(md))

	_, err := StripMetadata{}.Optimize(passContext(doc))
	require.NoError(t, err)
	lang, _ := core.GetStringVal(cat.Get("Lang"))
	assert.Equal(t, "en-US", lang)
}

func TestStripMetadataKeepsPDFAXMP(t *testing.T) {
	doc, _, _ := pageDoc(t, []byte("q Q"))
	cat := doc.Catalog()
	md := core.MakeStream([]byte(`<pdfaid:part>1</pdfaid:part>`))
	md.Set("Type", core.Name("Metadata"))
	md.Set("Length", core.Integer(28))
	cat.Set("Metadata", doc.Register(md))

	ctx := passContext(doc)
	ctx.Traits = model.Traits{IsPDFA: true, PDFALevel: "1B"}
	_, err := StripMetadata{}.Optimize(ctx)
	require.NoError(t, err)
	assert.NotNil(t, cat.Get("Metadata"))
}

func TestRemoveUnreferenced(t *testing.T) {
	doc, _, _ := pageDoc(t, []byte("q Q"))

	orphan := core.MakeStream([]byte("orphaned"))
	orphan.Set("Length", core.Integer(8))
	o1 := doc.Register(orphan)
	o2 := doc.Register(core.MakeDict())

	before := doc.Len()
	counts, err := RemoveUnreferenced{}.Optimize(passContext(doc))
	require.NoError(t, err)
	assert.Equal(t, 2, counts["removed"])
	assert.Equal(t, before-2, doc.Len())
	_, ok := doc.Lookup(o1)
	assert.False(t, ok)
	_, ok = doc.Lookup(o2)
	assert.False(t, ok)

	counts, err = RemoveUnreferenced{}.Optimize(passContext(doc))
	require.NoError(t, err)
	assert.Equal(t, 0, counts["removed"])
}

func TestUnembedStandardFonts(t *testing.T) {
	doc, _, res := pageDoc(t, []byte("BT /F1 10 Tf (x) Tj ET"))

	ff := core.MakeStream(make([]byte, 256))
	ff.Set("Length", core.Integer(256))
	ffRef := doc.Register(ff)
	fd := core.MakeDict()
	fd.Set("Type", core.Name("FontDescriptor"))
	fd.Set("FontFile2", ffRef)
	fdRef := doc.Register(fd)

	font := core.MakeDict()
	font.Set("Type", core.Name("Font"))
	font.Set("Subtype", core.Name("Type1"))
	font.Set("BaseFont", core.Name("ABCDEF+Helvetica"))
	font.Set("FontDescriptor", fdRef)
	font.Set("ToUnicode", core.Ref{Num: 77})
	fontRef := doc.Register(font)

	fonts := core.MakeDict()
	fonts.Set("F1", fontRef)
	res.Set("Font", fonts)

	counts, err := UnembedStandardFonts{}.Optimize(passContext(doc))
	require.NoError(t, err)
	assert.Equal(t, 1, counts["unembedded"])

	base, _ := core.GetName(font.Get("BaseFont"))
	assert.Equal(t, core.Name("Helvetica"), base)
	assert.Nil(t, font.Get("FontDescriptor"))
	enc, _ := core.GetName(font.Get("Encoding"))
	assert.Equal(t, core.Name("WinAnsiEncoding"), enc)
	assert.NotNil(t, font.Get("ToUnicode"))
}

func TestUnembedStandardFontsPDFASkips(t *testing.T) {
	doc, _, _ := pageDoc(t, []byte("q Q"))
	ctx := passContext(doc)
	ctx.Traits = model.Traits{IsPDFA: true, PDFALevel: "1B"}

	counts, err := UnembedStandardFonts{}.Optimize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts["pdfa-skipped"])
	assert.Equal(t, 0, counts["unembedded"])
}

func TestUnembedIgnoresNonStandardAndType0(t *testing.T) {
	doc, _, _ := pageDoc(t, []byte("q Q"))

	custom := core.MakeDict()
	custom.Set("Type", core.Name("Font"))
	custom.Set("Subtype", core.Name("Type1"))
	custom.Set("BaseFont", core.Name("CustomSans"))
	custom.Set("FontDescriptor", core.MakeDict())
	doc.Register(custom)

	composite := core.MakeDict()
	composite.Set("Type", core.Name("Font"))
	composite.Set("Subtype", core.Name("Type0"))
	composite.Set("BaseFont", core.Name("Helvetica"))
	doc.Register(composite)

	counts, err := UnembedStandardFonts{}.Optimize(passContext(doc))
	require.NoError(t, err)
	assert.Equal(t, 0, counts["unembedded"])
	assert.NotNil(t, custom.Get("FontDescriptor"))
}

func TestChainRunsAllPassesInOrder(t *testing.T) {
	doc, _, _ := pageDoc(t, []byte("q Q"))

	var labels []string
	var fractions []float64
	progress := func(f float64, label string) {
		fractions = append(fractions, f)
		labels = append(labels, label)
	}

	results, err := NewChain().Run(context.Background(), doc, model.Traits{}, DefaultOptions(), progress)
	require.NoError(t, err)

	want := []string{
		"recompress-streams", "recompress-images", "unembed-standard-fonts",
		"subset-fonts", "deduplicate-objects", "deduplicate-fonts",
		"strip-metadata", "remove-unreferenced",
	}
	require.Len(t, results, len(want))
	for i, r := range results {
		assert.Equal(t, want[i], r.Name)
		assert.NoError(t, r.Err)
		assert.GreaterOrEqual(t, r.Ms, 0.0)
	}

	// Progress fires twice per pass at (i+0.5)/N and (i+1)/N.
	require.Len(t, fractions, 2*len(want))
	n := float64(len(want))
	for i := range want {
		assert.InDelta(t, (float64(i)+0.5)/n, fractions[2*i], 1e-9)
		assert.InDelta(t, (float64(i)+1)/n, fractions[2*i+1], 1e-9)
		assert.Equal(t, want[i], labels[2*i])
	}
}

func TestChainCancelledContext(t *testing.T) {
	doc, _, _ := pageDoc(t, []byte("q Q"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := NewChain().Run(ctx, doc, model.Traits{}, DefaultOptions(), nil)
	assert.Error(t, err)
	assert.Empty(t, results)
}

func TestCheckContentIntegrity(t *testing.T) {
	doc, page, _ := pageDoc(t, []byte("q Q"))
	assert.Empty(t, CheckContentIntegrity(doc))

	contentRef, _ := core.GetRef(page.Get("Contents"))
	doc.Delete(contentRef)
	warnings := CheckContentIntegrity(doc)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "page 1")
}

/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package pdfshrink_test

import (
	"bytes"
	"compress/zlib"
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdfshrink "github.com/khawkins98/pdfshrink"
	"github.com/khawkins98/pdfshrink/core"
)

// letterNoise produces deterministic, digit-free pseudo-random letters:
// incompressible enough to act as payload ballast, and free of byte
// patterns that could read as object headers.
func letterNoise(seed uint32, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		seed = seed*1664525 + 1013904223
		out[i] = byte('a' + (seed>>24)%26)
	}
	return out
}

// photoSamples synthesizes photo-like RGB data for the image scenarios.
func photoSamples(seed uint32, w, h int) []byte {
	out := make([]byte, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			seed = seed*1664525 + 1013904223
			noise := float64(int(seed>>29) - 3)
			v := 128 + 90*math.Sin(float64(x)/19)*math.Cos(float64(y)/29) + noise
			if v < 0 {
				v = 0
			}
			if v > 255 {
				v = 255
			}
			i := (y*w + x) * 3
			out[i] = byte(v)
			out[i+1] = byte(v * 0.7)
			out[i+2] = byte(255 - v)
		}
	}
	return out
}

// docBuilder accumulates a test document around a single page.
type docBuilder struct {
	doc  *core.Document
	cat  *core.Dict
	page *core.Dict
	res  *core.Dict
}

func newDocBuilder(t *testing.T, content []byte, pageW, pageH int64) *docBuilder {
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
	page.Set("MediaBox", core.MakeArray(core.Integer(0), core.Integer(0), core.Integer(pageW), core.Integer(pageH)))
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

	return &docBuilder{doc: doc, cat: cat, page: page, res: res}
}

func (b *docBuilder) addEmbeddedType1(resName, baseFont string, program []byte) core.Ref {
	ff := core.MakeStream(program)
	ff.Set("Length", core.Integer(int64(len(program))))
	ff.Set("Length1", core.Integer(int64(len(program))))
	ffRef := b.doc.Register(ff)

	fd := core.MakeDict()
	fd.Set("Type", core.Name("FontDescriptor"))
	fd.Set("FontName", core.Name(baseFont))
	fd.Set("FontFile2", ffRef)
	fdRef := b.doc.Register(fd)

	font := core.MakeDict()
	font.Set("Type", core.Name("Font"))
	font.Set("Subtype", core.Name("Type1"))
	font.Set("BaseFont", core.Name(baseFont))
	font.Set("FontDescriptor", fdRef)
	fontRef := b.doc.Register(font)

	fonts, ok := b.doc.ResolveDict(b.res.Get("Font"))
	if !ok {
		fonts = core.MakeDict()
		b.res.Set("Font", fonts)
	}
	fonts.Set(core.Name(resName), fontRef)
	return fontRef
}

func (b *docBuilder) addImage(resName string, samples []byte, w, h int) core.Ref {
	s := core.MakeStream(nil)
	s.Set("Subtype", core.Name("Image"))
	s.Set("Width", core.Integer(int64(w)))
	s.Set("Height", core.Integer(int64(h)))
	s.Set("ColorSpace", core.Name("DeviceRGB"))
	s.Set("BitsPerComponent", core.Integer(8))
	if err := core.ReplaceWithFlate(s, samples); err != nil {
		panic(err)
	}
	ref := b.doc.Register(s)

	xobjs, ok := b.doc.ResolveDict(b.res.Get("XObject"))
	if !ok {
		xobjs = core.MakeDict()
		b.res.Set("XObject", xobjs)
	}
	xobjs.Set(core.Name(resName), ref)
	return ref
}

func (b *docBuilder) addXMP(packet []byte) core.Ref {
	md := core.MakeStream(packet)
	md.Set("Type", core.Name("Metadata"))
	md.Set("Subtype", core.Name("XML"))
	md.Set("Length", core.Integer(int64(len(packet))))
	ref := b.doc.Register(md)
	b.cat.Set("Metadata", ref)
	return ref
}

func (b *docBuilder) addOrphan(payload []byte) core.Ref {
	s := core.MakeStream(payload)
	s.Set("Length", core.Integer(int64(len(payload))))
	return b.doc.Register(s)
}

func (b *docBuilder) bytes(t *testing.T) []byte {
	t.Helper()
	data, err := b.doc.Serialize(core.SerializeOptions{})
	require.NoError(t, err)
	return data
}

func passByName(t *testing.T, report pdfshrink.Report, name string) pdfshrink.PassReport {
	t.Helper()
	for _, p := range report.Passes {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("pass %q missing from report", name)
	return pdfshrink.PassReport{}
}

func runEngine(t *testing.T, input []byte, opts pdfshrink.Options) ([]byte, pdfshrink.Report) {
	t.Helper()
	out, report, err := pdfshrink.Optimize(context.Background(), input, opts, nil)
	require.NoError(t, err)
	return out, report
}

// zlibLevel1 deflates at the lowest level, mimicking producers that favor
// write speed over size.
func zlibLevel1(t *testing.T, raw []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, 1)
	require.NoError(t, err)
	_, err = w.Write(raw)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestScenarioS1GeneralCleanup(t *testing.T) {
	b := newDocBuilder(t, []byte("BT /F1 12 Tf (Hello) Tj /F2 12 Tf (World) Tj ET"), 612, 792)
	b.addEmbeddedType1("F1", "Helvetica", letterNoise(1, 3000))
	b.addEmbeddedType1("F2", "Courier", letterNoise(2, 3000))

	xmp := append([]byte(`<x:xmpmeta><dc:language><rdf:Bag><rdf:li>en</rdf:li></rdf:Bag></dc:language>`),
		append(letterNoise(3, 2000), []byte(`</x:xmpmeta>`)...)...)
	b.addXMP(xmp)
	b.page.Set("PieceInfo", core.MakeDict())

	for i := uint32(0); i < 3; i++ {
		b.addOrphan(letterNoise(10+i, 2000))
	}

	dupPayload := letterNoise(20, 2000)
	var dupRefs []core.Object
	for i := 0; i < 4; i++ {
		s := core.MakeStream(dupPayload)
		s.Set("Length", core.Integer(int64(len(dupPayload))))
		dupRefs = append(dupRefs, b.doc.Register(s))
	}
	b.page.Set("Attachments", core.MakeArray(dupRefs...))

	// A stream its producer deflated at level 1.
	repetitive := bytes.Repeat([]byte("pattern pattern pattern! "), 400)
	lvl1 := zlibLevel1(t, repetitive)
	weak := core.MakeStream(lvl1)
	weak.Set("Filter", core.Name("FlateDecode"))
	weak.Set("Length", core.Integer(int64(len(lvl1))))
	b.page.Set("Extra", b.doc.Register(weak))

	input := b.bytes(t)
	output, report := runEngine(t, input, pdfshrink.DefaultOptions())

	assert.GreaterOrEqual(t, report.SavedPercent, 30.0)
	assert.False(t, report.SizeGuard)
	assert.False(t, report.ContentGuard)
	assert.GreaterOrEqual(t, passByName(t, report, "unembed-standard-fonts").Counts["unembedded"], 2)
	assert.GreaterOrEqual(t, passByName(t, report, "deduplicate-objects").Counts["deduplicated"], 2)
	assert.GreaterOrEqual(t, passByName(t, report, "remove-unreferenced").Counts["removed"], 3)

	reparsed, err := core.Parse(output)
	require.NoError(t, err)
	assert.Nil(t, reparsed.Catalog().Get("Metadata"))
	reparsed.Enumerate(func(ref core.Ref, obj core.Object) error {
		if d, ok := core.GetDict(obj); ok {
			assert.Nil(t, d.Get("PieceInfo"))
		}
		return nil
	})
}

func TestScenarioS2LossyImages(t *testing.T) {
	b := newDocBuilder(t, []byte("q 100 0 0 100 0 0 cm /Im0 Do Q"), 100, 100)
	b.addImage("Im0", photoSamples(5, 200, 200), 200, 200)
	b.addImage("Im1", photoSamples(6, 200, 200), 200, 200)
	b.addImage("Im2", photoSamples(7, 400, 400), 400, 400)

	opts := pdfshrink.DefaultOptions()
	opts.Lossy = true
	opts.ImageQuality = 0.75
	opts.MaxImageDPI = 150

	input := b.bytes(t)
	output, report := runEngine(t, input, opts)

	images := passByName(t, report, "recompress-images")
	assert.GreaterOrEqual(t, images.Counts["converted"], 2)
	assert.GreaterOrEqual(t, images.Counts["downsampled"], 1)
	assert.GreaterOrEqual(t, report.SavedPercent, 20.0)

	reparsed, err := core.Parse(output)
	require.NoError(t, err)
	imageStreams := 0
	reparsed.Enumerate(func(ref core.Ref, obj core.Object) error {
		s, ok := core.GetStream(obj)
		if !ok {
			return nil
		}
		if sub, _ := reparsed.ResolveName(s.Get("Subtype")); sub != "Image" {
			return nil
		}
		imageStreams++
		name, _ := reparsed.ResolveName(s.Get("Filter"))
		assert.Equal(t, core.Name("DCTDecode"), name)
		return nil
	})
	assert.Equal(t, 3, imageStreams)
}

func TestScenarioS3TaggedPDF(t *testing.T) {
	b := newDocBuilder(t, []byte("BT (tagged) Tj ET"), 612, 792)

	elemP := core.MakeDict()
	elemP.Set("Type", core.Name("StructElem"))
	elemP.Set("S", core.Name("P"))
	elemPRef := b.doc.Register(elemP)
	elemH1 := core.MakeDict()
	elemH1.Set("Type", core.Name("StructElem"))
	elemH1.Set("S", core.Name("H1"))
	elemH1.Set("Alt", core.MakeString("Heading"))
	elemH1Ref := b.doc.Register(elemH1)

	structRoot := core.MakeDict()
	structRoot.Set("Type", core.Name("StructTreeRoot"))
	structRoot.Set("K", core.MakeArray(elemPRef, elemH1Ref))
	structRootRef := b.doc.Register(structRoot)
	elemP.Set("P", structRootRef)
	elemH1.Set("P", structRootRef)

	b.cat.Set("StructTreeRoot", structRootRef)
	mi := core.MakeDict()
	mi.Set("Marked", core.Boolean(true))
	b.cat.Set("MarkInfo", mi)
	b.cat.Set("Lang", core.MakeString("en-US"))

	b.addOrphan(letterNoise(30, 4000))

	input := b.bytes(t)
	output, report := runEngine(t, input, pdfshrink.DefaultOptions())

	assert.True(t, report.Traits.IsTagged)
	assert.True(t, report.Traits.HasStructTree)

	reparsed, err := core.Parse(output)
	require.NoError(t, err)
	cat := reparsed.Catalog()
	root, ok := reparsed.ResolveDict(cat.Get("StructTreeRoot"))
	require.True(t, ok)
	kids, ok := reparsed.ResolveArray(root.Get("K"))
	require.True(t, ok)
	require.Equal(t, 2, kids.Len())
	types := map[string]bool{}
	for _, kid := range kids.Elements {
		elem, ok := reparsed.ResolveDict(kid)
		require.True(t, ok)
		s, _ := reparsed.ResolveName(elem.Get("S"))
		types[string(s)] = true
	}
	assert.True(t, types["P"] && types["H1"])

	lang, _ := core.GetStringVal(reparsed.Resolve(cat.Get("Lang")))
	assert.Equal(t, "en-US", lang)
}

func TestScenarioS4PDFA(t *testing.T) {
	b := newDocBuilder(t, []byte("BT /F1 12 Tf (archival) Tj ET"), 612, 792)
	b.addEmbeddedType1("F1", "Helvetica", letterNoise(40, 3000))
	b.addXMP([]byte(`<x:xmpmeta><rdf:Description pdfaid:part="1" pdfaid:conformance="B"/>` +
		`<dc:language><rdf:Bag><rdf:li>fr</rdf:li></rdf:Bag></dc:language></x:xmpmeta>`))
	b.addOrphan(letterNoise(41, 4000))
	b.addOrphan(letterNoise(42, 4000))

	input := b.bytes(t)
	output, report := runEngine(t, input, pdfshrink.DefaultOptions())

	assert.True(t, report.Traits.IsPDFA)
	assert.Equal(t, "1B", report.Traits.PDFALevel)
	assert.Equal(t, 1, passByName(t, report, "unembed-standard-fonts").Counts["pdfa-skipped"])
	assert.NotContains(t, string(output), "ObjStm")

	reparsed, err := core.Parse(output)
	require.NoError(t, err)
	cat := reparsed.Catalog()
	assert.NotNil(t, cat.Get("Metadata"))

	fontFiles := 0
	reparsed.Enumerate(func(ref core.Ref, obj core.Object) error {
		d, ok := core.GetDict(obj)
		if !ok {
			return nil
		}
		if typ, _ := reparsed.ResolveName(d.Get("Type")); typ == "FontDescriptor" {
			if d.Get("FontFile2") != nil {
				fontFiles++
			}
		}
		return nil
	})
	assert.Equal(t, 1, fontFiles)
}

func TestScenarioS5ManyStandardFonts(t *testing.T) {
	b := newDocBuilder(t, []byte("BT /F1 9 Tf (a) Tj ET"), 612, 792)
	b.addEmbeddedType1("F1", "ABCDEF+Helvetica", letterNoise(50, 2200))
	b.addEmbeddedType1("F2", "GHIJKL+Helvetica", letterNoise(51, 2200))
	b.addEmbeddedType1("F3", "MNOPQR+Helvetica", letterNoise(52, 2200))
	b.addEmbeddedType1("F4", "STUVWX+Courier", letterNoise(53, 2200))
	b.addEmbeddedType1("F5", "Courier", letterNoise(54, 2200))
	b.addEmbeddedType1("F6", "Times-Roman", letterNoise(55, 2200))
	b.addEmbeddedType1("F7", "CustomSans", letterNoise(56, 2200))

	input := b.bytes(t)
	output, report := runEngine(t, input, pdfshrink.DefaultOptions())

	assert.GreaterOrEqual(t, passByName(t, report, "unembed-standard-fonts").Counts["unembedded"], 6)

	reparsed, err := core.Parse(output)
	require.NoError(t, err)
	customDescriptors := 0
	reparsed.Enumerate(func(ref core.Ref, obj core.Object) error {
		d, ok := core.GetDict(obj)
		if !ok {
			return nil
		}
		if typ, _ := reparsed.ResolveName(d.Get("Type")); typ != "Font" {
			return nil
		}
		base, _ := reparsed.ResolveName(d.Get("BaseFont"))
		if fd := d.Get("FontDescriptor"); fd != nil {
			// Only the custom face may stay embedded.
			assert.Equal(t, core.Name("CustomSans"), base)
			fdDict, ok := reparsed.ResolveDict(fd)
			require.True(t, ok)
			assert.NotNil(t, fdDict.Get("FontFile2"))
			customDescriptors++
		}
		return nil
	})
	assert.Equal(t, 1, customDescriptors)
}

func TestScenarioS6CalibratedColorSpaces(t *testing.T) {
	b := newDocBuilder(t, []byte("/CS0 cs 0.2 0.4 0.6 sc 0 0 50 50 re f"), 612, 792)

	calRGB := core.MakeDict()
	calRGB.Set("WhitePoint", core.MakeArray(core.Float(0.9505), core.Float(1), core.Float(1.089)))
	calGray := core.MakeDict()
	calGray.Set("WhitePoint", core.MakeArray(core.Float(0.9505), core.Float(1), core.Float(1.089)))
	colorSpaces := core.MakeDict()
	colorSpaces.Set("CS0", core.MakeArray(core.Name("CalRGB"), calRGB))
	colorSpaces.Set("CS1", core.MakeArray(core.Name("CalGray"), calGray))
	b.res.Set("ColorSpace", colorSpaces)

	b.addOrphan(letterNoise(60, 4000))

	input := b.bytes(t)
	output, report := runEngine(t, input, pdfshrink.DefaultOptions())

	assert.Greater(t, report.SavedPercent, 0.0)
	assert.False(t, report.SizeGuard)
	assert.False(t, report.ContentGuard)

	reparsed, err := core.Parse(output)
	require.NoError(t, err)
	cat := reparsed.Catalog()
	pages, _ := reparsed.ResolveDict(cat.Get("Pages"))
	kids, _ := reparsed.ResolveArray(pages.Get("Kids"))
	page, ok := reparsed.ResolveDict(kids.Get(0))
	require.True(t, ok)
	res, ok := reparsed.ResolveDict(page.Get("Resources"))
	require.True(t, ok)
	cs, ok := reparsed.ResolveDict(res.Get("ColorSpace"))
	require.True(t, ok)

	names := map[string]bool{}
	for _, key := range cs.Keys() {
		arr, ok := reparsed.ResolveArray(cs.Get(key))
		require.True(t, ok)
		family, _ := reparsed.ResolveName(arr.Get(0))
		names[string(family)] = true
	}
	assert.True(t, names["CalRGB"])
	assert.True(t, names["CalGray"])
}

func TestTinyInputSizeGuard(t *testing.T) {
	b := newDocBuilder(t, []byte("q Q"), 612, 792)
	// Serialize the input in the compact layout the engine itself emits,
	// so there is genuinely nothing left to save.
	input, err := b.doc.Serialize(core.SerializeOptions{UseObjectStreams: true})
	require.NoError(t, err)

	output, report := runEngine(t, input, pdfshrink.DefaultOptions())
	assert.True(t, report.SizeGuard)
	assert.Equal(t, input, output)
	assert.Equal(t, len(input), report.OutputSize)
	assert.Zero(t, report.SavedBytes)
}

func TestIdempotence(t *testing.T) {
	b := newDocBuilder(t, []byte("BT (once) Tj ET"), 612, 792)
	b.addOrphan(letterNoise(70, 5000))
	b.addXMP(letterNoise(71, 1000))

	first, report := runEngine(t, b.bytes(t), pdfshrink.DefaultOptions())
	require.False(t, report.SizeGuard)

	second, report2 := runEngine(t, first, pdfshrink.DefaultOptions())
	// A second run finds nothing left: one of the guards fires and the
	// bytes come back unchanged.
	assert.True(t, report2.SizeGuard || report2.ContentGuard)
	assert.Equal(t, first, second)
}

func TestReportCompleteness(t *testing.T) {
	b := newDocBuilder(t, []byte("q Q"), 612, 792)
	_, report := runEngine(t, b.bytes(t), pdfshrink.DefaultOptions())

	want := []string{
		"recompress-streams", "recompress-images", "unembed-standard-fonts",
		"subset-fonts", "deduplicate-objects", "deduplicate-fonts",
		"strip-metadata", "remove-unreferenced",
	}
	require.Len(t, report.Passes, len(want))
	for i, p := range report.Passes {
		assert.Equal(t, want[i], p.Name)
		assert.GreaterOrEqual(t, p.Ms, 0.0)
		assert.Empty(t, p.Error)
	}
	assert.NotZero(t, report.Inspect.Before.ObjectCount)
	assert.NotZero(t, report.Inspect.After.ObjectCount)
}

func TestUnreadableInput(t *testing.T) {
	_, _, err := pdfshrink.Optimize(context.Background(), []byte("garbage"), pdfshrink.DefaultOptions(), nil)
	require.Error(t, err)
	var engineErr *pdfshrink.Error
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, pdfshrink.UnreadableInput, engineErr.Kind)
}

func TestProgressCallback(t *testing.T) {
	b := newDocBuilder(t, []byte("q Q"), 612, 792)
	var fractions []float64
	_, _, err := pdfshrink.Optimize(context.Background(), b.bytes(t), pdfshrink.DefaultOptions(),
		func(f float64, label string) {
			fractions = append(fractions, f)
			assert.NotEmpty(t, label)
		})
	require.NoError(t, err)
	require.NotEmpty(t, fractions)
	assert.InDelta(t, 1.0, fractions[len(fractions)-1], 1e-9)
	for i := 1; i < len(fractions); i++ {
		assert.GreaterOrEqual(t, fractions[i], fractions[i-1])
	}
}

func TestPageCountAndSizePreserved(t *testing.T) {
	b := newDocBuilder(t, []byte("BT (page) Tj ET"), 595, 842)
	b.addOrphan(letterNoise(80, 4000))

	input := b.bytes(t)
	output, _ := runEngine(t, input, pdfshrink.DefaultOptions())

	reparsed, err := core.Parse(output)
	require.NoError(t, err)
	cat := reparsed.Catalog()
	pages, ok := reparsed.ResolveDict(cat.Get("Pages"))
	require.True(t, ok)
	kids, ok := reparsed.ResolveArray(pages.Get("Kids"))
	require.True(t, ok)
	require.Equal(t, 1, kids.Len())
	page, ok := reparsed.ResolveDict(kids.Get(0))
	require.True(t, ok)
	mb, ok := reparsed.ResolveArray(page.Get("MediaBox"))
	require.True(t, ok)
	w, _ := core.GetIntVal(reparsed.Resolve(mb.Get(2)))
	h, _ := core.GetIntVal(reparsed.Resolve(mb.Get(3)))
	assert.EqualValues(t, 595, w)
	assert.EqualValues(t, 842, h)
}

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

func catalogDoc(t *testing.T) (*core.Document, *core.Dict) {
	t.Helper()
	doc := core.NewDocument()
	cat := core.MakeDict()
	cat.Set("Type", core.Name("Catalog"))
	doc.Trailer.Set("Root", doc.Register(cat))
	return doc, cat
}

func attachXMP(doc *core.Document, cat *core.Dict, packet string) {
	s := core.MakeStream([]byte(packet))
	s.Set("Type", core.Name("Metadata"))
	s.Set("Subtype", core.Name("XML"))
	s.Set("Length", core.Integer(int64(len(packet))))
	cat.Set("Metadata", doc.Register(s))
}

func TestComputeTraitsEmpty(t *testing.T) {
	doc, _ := catalogDoc(t)
	traits := ComputeTraits(doc)
	assert.False(t, traits.IsTagged)
	assert.False(t, traits.HasStructTree)
	assert.False(t, traits.IsPDFA)
	assert.Empty(t, traits.Lang)
}

func TestComputeTraitsTagged(t *testing.T) {
	doc, cat := catalogDoc(t)
	mi := core.MakeDict()
	mi.Set("Marked", core.Boolean(true))
	cat.Set("MarkInfo", mi)
	str := core.MakeDict()
	str.Set("Type", core.Name("StructTreeRoot"))
	cat.Set("StructTreeRoot", doc.Register(str))
	cat.Set("Lang", core.MakeString("en-US"))

	traits := ComputeTraits(doc)
	assert.True(t, traits.IsTagged)
	assert.True(t, traits.HasStructTree)
	assert.Equal(t, "en-US", traits.Lang)
}

func TestComputeTraitsPDFAElementForm(t *testing.T) {
	doc, cat := catalogDoc(t)
	attachXMP(doc, cat, `<x:xmpmeta xmlns:x="adobe:ns:meta/">
<rdf:Description xmlns:pdfaid="http://www.aiim.org/pdfa/ns/id/">
<pdfaid:part>1</pdfaid:part><pdfaid:conformance>b</pdfaid:conformance>
</rdf:Description></x:xmpmeta>`)

	traits := ComputeTraits(doc)
	require.True(t, traits.IsPDFA)
	assert.Equal(t, "1B", traits.PDFALevel)
	assert.False(t, traits.IsPDFUA)
}

func TestComputeTraitsPDFAAttributeFormAndUA(t *testing.T) {
	doc, cat := catalogDoc(t)
	attachXMP(doc, cat, `<rdf:Description pdfaid:part="2" pdfaid:conformance="A" pdfuaid:part="1"/>`)

	traits := ComputeTraits(doc)
	require.True(t, traits.IsPDFA)
	assert.Equal(t, "2A", traits.PDFALevel)
	assert.True(t, traits.IsPDFUA)
}

func TestComputeTraitsLangFromXMP(t *testing.T) {
	doc, cat := catalogDoc(t)
	attachXMP(doc, cat, `<dc:language><rdf:Bag><rdf:li>fr</rdf:li></rdf:Bag></dc:language>`)
	traits := ComputeTraits(doc)
	assert.Equal(t, "fr", traits.Lang)
}

func TestComputeTraitsMalformedXMP(t *testing.T) {
	doc, cat := catalogDoc(t)
	attachXMP(doc, cat, `<<<< not xml at all`)
	traits := ComputeTraits(doc)
	assert.False(t, traits.IsPDFA)
	assert.Empty(t, traits.Lang)
}

func TestXMPLanguage(t *testing.T) {
	assert.Equal(t, "en-US",
		XMPLanguage([]byte(`<dc:language><rdf:Alt><rdf:li xml:lang="x-default">en-US</rdf:li></rdf:Alt></dc:language>`)))
	assert.Equal(t, "de", XMPLanguage([]byte(`<rdf:li xml:lang="de">text</rdf:li>`)))
	assert.Empty(t, XMPLanguage([]byte(`xml:lang="x-default"`)))
	assert.Empty(t, XMPLanguage([]byte(`<dc:language><rdf:li>not a lang tag!</rdf:li></dc:language>`)))
}

/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildMinimalDoc assembles a one-page document through the arena
// constructors: catalog, page tree, a single page, and a content stream.
func buildMinimalDoc(t *testing.T) *Document {
	t.Helper()
	doc := NewDocument()

	content := MakeStream([]byte("BT /F1 12 Tf (Hi) Tj ET"))
	content.Set("Length", Integer(int64(len(content.Data))))
	contentRef := doc.Register(content)

	page := MakeDict()
	page.Set("Type", Name("Page"))
	page.Set("Contents", contentRef)
	pageRef := doc.Register(page)

	pages := MakeDict()
	pages.Set("Type", Name("Pages"))
	pages.Set("Kids", MakeArray(pageRef))
	pages.Set("Count", Integer(1))
	pages.Set("MediaBox", MakeArray(Integer(0), Integer(0), Integer(612), Integer(792)))
	pagesRef := doc.Register(pages)
	page.Set("Parent", pagesRef)

	cat := MakeDict()
	cat.Set("Type", Name("Catalog"))
	cat.Set("Pages", pagesRef)
	catRef := doc.Register(cat)

	doc.Trailer.Set("Root", catRef)
	return doc
}

func TestParseRejectsNonPDF(t *testing.T) {
	_, err := Parse([]byte("not a pdf at all"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreadableInput)
}

func TestParseRejectsEncrypted(t *testing.T) {
	doc := buildMinimalDoc(t)
	doc.Trailer.Set("Encrypt", MakeDict())
	data, err := doc.Serialize(SerializeOptions{})
	require.NoError(t, err)

	_, err = Parse(data)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreadableInput)
}

func TestSerializeParseRoundTripClassic(t *testing.T) {
	doc := buildMinimalDoc(t)
	data, err := doc.Serialize(SerializeOptions{})
	require.NoError(t, err)

	reparsed, err := Parse(data)
	require.NoError(t, err)

	cat := reparsed.Catalog()
	require.NotNil(t, cat)
	pages, ok := reparsed.ResolveDict(cat.Get("Pages"))
	require.True(t, ok)
	kids, ok := reparsed.ResolveArray(pages.Get("Kids"))
	require.True(t, ok)
	require.Equal(t, 1, kids.Len())

	page, ok := reparsed.ResolveDict(kids.Get(0))
	require.True(t, ok)
	content, ok := reparsed.ResolveStream(page.Get("Contents"))
	require.True(t, ok)
	assert.Equal(t, []byte("BT /F1 12 Tf (Hi) Tj ET"), content.Data)
}

func TestSerializeParseRoundTripObjectStreams(t *testing.T) {
	doc := buildMinimalDoc(t)
	data, err := doc.Serialize(SerializeOptions{UseObjectStreams: true})
	require.NoError(t, err)

	reparsed, err := Parse(data)
	require.NoError(t, err)
	cat := reparsed.Catalog()
	require.NotNil(t, cat)
	pages, ok := reparsed.ResolveDict(cat.Get("Pages"))
	require.True(t, ok)
	kids, ok := reparsed.ResolveArray(pages.Get("Kids"))
	require.True(t, ok)
	page, ok := reparsed.ResolveDict(kids.Get(0))
	require.True(t, ok)
	_, ok = reparsed.ResolveStream(page.Get("Contents"))
	assert.True(t, ok)
}

func TestLexerStringEscapes(t *testing.T) {
	l := newLexer([]byte(`(a\(b\)c \\ \101 nested (inner) done)`), 0)
	obj, err := l.parseObject()
	require.NoError(t, err)
	s, ok := obj.(*String)
	require.True(t, ok)
	assert.Equal(t, `a(b)c \ A nested (inner) done`, string(s.Value))
}

func TestLexerNameHexEscape(t *testing.T) {
	l := newLexer([]byte("/A#20B"), 0)
	obj, err := l.parseObject()
	require.NoError(t, err)
	assert.Equal(t, Name("A B"), obj)
}

func TestLexerReferenceLookahead(t *testing.T) {
	l := newLexer([]byte("12 0 R"), 0)
	obj, err := l.parseObject()
	require.NoError(t, err)
	assert.Equal(t, Ref{Num: 12, Gen: 0}, obj)

	// Two bare integers must not collapse into a reference.
	l = newLexer([]byte("[12 0 34]"), 0)
	obj, err = l.parseObject()
	require.NoError(t, err)
	arr, ok := obj.(*Array)
	require.True(t, ok)
	require.Equal(t, 3, arr.Len())
	assert.Equal(t, Integer(12), arr.Get(0))
}

/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khawkins98/pdfshrink/core"
)

// inspectorFixture builds a document exercising every category: a page
// with a content stream and an image, an embedded font with descriptor and
// program, an XMP stream, and an ICC profile.
func inspectorFixture(t *testing.T) *core.Document {
	t.Helper()
	doc := core.NewDocument()

	fontFile := core.MakeStream(make([]byte, 64))
	fontFile.Set("Length", core.Integer(64))
	fontFileRef := doc.Register(fontFile)

	fd := core.MakeDict()
	fd.Set("Type", core.Name("FontDescriptor"))
	fd.Set("FontName", core.Name("ABCDEF+Helvetica"))
	fd.Set("FontFile2", fontFileRef)
	fdRef := doc.Register(fd)

	font := core.MakeDict()
	font.Set("Type", core.Name("Font"))
	font.Set("Subtype", core.Name("TrueType"))
	font.Set("BaseFont", core.Name("ABCDEF+Helvetica"))
	font.Set("FontDescriptor", fdRef)
	fontRef := doc.Register(font)

	img := core.MakeStream(make([]byte, 48))
	img.Set("Subtype", core.Name("Image"))
	img.Set("Width", core.Integer(4))
	img.Set("Height", core.Integer(4))
	img.Set("ColorSpace", core.Name("DeviceRGB"))
	img.Set("BitsPerComponent", core.Integer(8))
	img.Set("Length", core.Integer(48))
	imgRef := doc.Register(img)

	icc := core.MakeStream(make([]byte, 16))
	icc.Set("N", core.Integer(3))
	icc.Set("Alternate", core.Name("DeviceRGB"))
	icc.Set("Length", core.Integer(16))
	iccRef := doc.Register(icc)
	_ = iccRef

	xmp := core.MakeStream([]byte("<x:xmpmeta/>"))
	xmp.Set("Type", core.Name("Metadata"))
	xmp.Set("Subtype", core.Name("XML"))
	xmp.Set("Length", core.Integer(12))
	xmpRef := doc.Register(xmp)

	content := core.MakeStream([]byte("BT /F1 10 Tf (x) Tj ET"))
	content.Set("Length", core.Integer(int64(len(content.Data))))
	contentRef := doc.Register(content)

	xobjs := core.MakeDict()
	xobjs.Set("Im0", imgRef)
	fonts := core.MakeDict()
	fonts.Set("F1", fontRef)
	res := core.MakeDict()
	res.Set("XObject", xobjs)
	res.Set("Font", fonts)

	page := core.MakeDict()
	page.Set("Type", core.Name("Page"))
	page.Set("Contents", contentRef)
	page.Set("Resources", res)
	page.Set("MediaBox", core.MakeArray(core.Integer(0), core.Integer(0), core.Integer(200), core.Integer(100)))
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
	cat.Set("Metadata", xmpRef)
	doc.Trailer.Set("Root", doc.Register(cat))

	return doc
}

func categoryByName(t *testing.T, snap Snapshot, name string) CategorySnapshot {
	t.Helper()
	for _, c := range snap.Categories {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("category %q missing", name)
	return CategorySnapshot{}
}

func TestInspectCategories(t *testing.T) {
	doc := inspectorFixture(t)
	snap := Inspect(doc)

	assert.Equal(t, doc.Len(), snap.ObjectCount)

	fonts := categoryByName(t, snap, CategoryFonts)
	// Font dict, descriptor, and program all land in Fonts.
	assert.Len(t, fonts.Items, 3)

	images := categoryByName(t, snap, CategoryImages)
	require.Len(t, images.Items, 1)
	assert.Equal(t, "4 × 4 DeviceRGB", images.Items[0].Display)

	content := categoryByName(t, snap, CategoryContent)
	require.Len(t, content.Items, 1)
	assert.Equal(t, "Page 1", content.Items[0].Display)

	metadata := categoryByName(t, snap, CategoryMetadata)
	assert.Len(t, metadata.Items, 1)

	structure := categoryByName(t, snap, CategoryStructure)
	// Page, Pages, Catalog.
	assert.Len(t, structure.Items, 3)

	other := categoryByName(t, snap, CategoryOther)
	require.Len(t, other.Items, 1)
	assert.Equal(t, "ICC profile", other.Items[0].SubCategory)
}

func TestInspectFontDisplayStripsSubsetPrefix(t *testing.T) {
	doc := inspectorFixture(t)
	snap := Inspect(doc)
	fonts := categoryByName(t, snap, CategoryFonts)
	var displays []string
	for _, item := range fonts.Items {
		displays = append(displays, item.Display)
	}
	assert.Contains(t, displays, "Helvetica (TrueType)")
}

func TestSnapshotIsJSONSerializable(t *testing.T) {
	snap := Inspect(inspectorFixture(t))
	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"total_bytes"`)
	assert.Contains(t, string(data), `"Page Content"`)
}

func TestInspectTotalBytesSumsStreams(t *testing.T) {
	doc := inspectorFixture(t)
	snap := Inspect(doc)
	// 64 (font file) + 48 (image) + 16 (icc) + 12 (xmp) + content length.
	assert.Equal(t, 64+48+16+12+22, snap.TotalBytes)
}

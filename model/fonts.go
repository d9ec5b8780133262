/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package model

import (
	"github.com/khawkins98/pdfshrink/core"
	"github.com/khawkins98/pdfshrink/internal/cmap"
)

// FontFileKeys are the FontDescriptor entries that may point at an
// embedded font program, in the order they are probed.
var FontFileKeys = []core.Name{"FontFile", "FontFile2", "FontFile3"}

// IsFont reports whether d is a font dictionary.
func IsFont(doc *core.Document, d *core.Dict) bool {
	typ, _ := doc.ResolveName(d.Get("Type"))
	return typ == "Font"
}

// FontDescriptor resolves a font's FontDescriptor, following the
// DescendantFonts indirection for Type0 composites. The descriptor's own
// reference is returned when the entry is indirect, so callers can rewrite
// or unlink it.
func FontDescriptor(doc *core.Document, font *core.Dict) (*core.Dict, core.Ref, bool) {
	entry := font.Get("FontDescriptor")
	if entry == nil {
		if desc, ok := DescendantFont(doc, font); ok {
			entry = desc.Get("FontDescriptor")
		}
	}
	if entry == nil {
		return nil, core.Ref{}, false
	}
	ref, _ := core.GetRef(entry)
	fd, ok := doc.ResolveDict(entry)
	if !ok {
		return nil, core.Ref{}, false
	}
	return fd, ref, true
}

// DescendantFont resolves a Type0 font's first (and in practice only)
// descendant CIDFont dictionary.
func DescendantFont(doc *core.Document, font *core.Dict) (*core.Dict, bool) {
	arr, ok := doc.ResolveArray(font.Get("DescendantFonts"))
	if !ok || arr.Len() == 0 {
		return nil, false
	}
	return doc.ResolveDict(arr.Get(0))
}

// FontFileRef returns the FontFile* reference in fd and which key carries
// it.
func FontFileRef(fd *core.Dict, _ *core.Document) (core.Ref, core.Name, bool) {
	for _, key := range FontFileKeys {
		if ref, ok := core.GetRef(fd.Get(key)); ok {
			return ref, key, true
		}
	}
	return core.Ref{}, "", false
}

// IsIdentityH reports whether a Type0 font uses the Identity-H encoding
// with an identity CID-to-GID mapping: /Encoding is the name Identity-H
// and the first descendant's CIDToGIDMap is absent or the name Identity.
func IsIdentityH(doc *core.Document, font *core.Dict) bool {
	enc, _ := doc.ResolveName(font.Get("Encoding"))
	if enc != "Identity-H" {
		return false
	}
	desc, ok := DescendantFont(doc, font)
	if !ok {
		return false
	}
	c2g := desc.Get("CIDToGIDMap")
	if c2g == nil {
		return true
	}
	name, ok := doc.ResolveName(c2g)
	return ok && name == "Identity"
}

// ToUnicodeCMap loads and parses a font's ToUnicode stream, or nil when
// the font carries none or the CMap does not parse. simple selects the
// 1-byte code space (simple fonts) over the CMap's declared codespaces
// (Type0).
func ToUnicodeCMap(doc *core.Document, font *core.Dict, simple bool) *cmap.CMap {
	s, ok := doc.ResolveStream(font.Get("ToUnicode"))
	if !ok {
		return nil
	}
	if !doc.AllFiltersDecodable(s) {
		return nil
	}
	data, err := doc.DecodeStream(s)
	if err != nil {
		return nil
	}
	cm, err := cmap.LoadCmapFromData(data, simple)
	if err != nil {
		return nil
	}
	return cm
}

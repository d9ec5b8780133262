/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package model

import "github.com/khawkins98/pdfshrink/core"

// Traits is the accessibility/conformance summary computed once at load
// and handed to every pass as read-only advice. Passes that would damage a
// declared conformance level (standard-font unembedding under PDF/A)
// consult it and skip themselves.
type Traits struct {
	IsTagged      bool   `json:"is_tagged"`
	HasStructTree bool   `json:"has_struct_tree"`
	Lang          string `json:"lang,omitempty"`
	IsPDFA        bool   `json:"is_pdf_a"`
	PDFALevel     string `json:"pdf_a_level,omitempty"`
	IsPDFUA       bool   `json:"is_pdf_ua"`
}

// ComputeTraits probes the catalog and, when present, the /Metadata XMP
// stream. Malformed or missing metadata never fails the probe; the
// corresponding fields are simply left at their zero values.
func ComputeTraits(doc *core.Document) Traits {
	var t Traits
	cat := doc.Catalog()
	if cat == nil {
		return t
	}
	if mi, ok := doc.ResolveDict(cat.Get("MarkInfo")); ok {
		marked, _ := core.GetBoolVal(doc.Resolve(mi.Get("Marked")))
		t.IsTagged = marked
	}
	if _, ok := doc.ResolveDict(cat.Get("StructTreeRoot")); ok {
		t.HasStructTree = true
	}
	if lang, ok := core.GetStringVal(doc.Resolve(cat.Get("Lang"))); ok {
		t.Lang = lang
	}
	xmp := metadataBytes(doc, cat)
	if xmp == nil {
		return t
	}
	if level, ok := xmpPDFA(xmp); ok {
		t.IsPDFA = true
		t.PDFALevel = level
	}
	t.IsPDFUA = xmpPDFUA(xmp)
	if t.Lang == "" {
		t.Lang = XMPLanguage(xmp)
	}
	return t
}

// metadataBytes decodes the catalog's /Metadata stream, or nil when absent
// or undecodable. XMP packets are usually stored unfiltered, but a Flate
// wrapper is legal outside PDF/A-1 and is handled the same way.
func metadataBytes(doc *core.Document, cat *core.Dict) []byte {
	s, ok := doc.ResolveStream(cat.Get("Metadata"))
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
	return data
}

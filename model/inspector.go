/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package model

import (
	"fmt"

	"github.com/khawkins98/pdfshrink/core"
)

// Category names, in the order they appear in a snapshot.
const (
	CategoryFonts     = "Fonts"
	CategoryImages    = "Images"
	CategoryContent   = "Page Content"
	CategoryMetadata  = "Metadata"
	CategoryStructure = "Document Structure"
	CategoryOther     = "Other Data"
)

var categoryOrder = []string{
	CategoryFonts, CategoryImages, CategoryContent,
	CategoryMetadata, CategoryStructure, CategoryOther,
}

// Item is one indirect object's entry in a snapshot.
type Item struct {
	Ref         string   `json:"ref"`
	Size        int      `json:"size"`
	Filters     []string `json:"filters,omitempty"`
	Display     string   `json:"display,omitempty"`
	SubCategory string   `json:"sub_category,omitempty"`
}

// CategorySnapshot groups the items of one of the six categories.
type CategorySnapshot struct {
	Name  string `json:"name"`
	Bytes int    `json:"bytes"`
	Items []Item `json:"items"`
}

// Snapshot is the six-category classification of every indirect object,
// taken before and after the pass sequence. It reads the graph without
// mutating it and is immutable thereafter.
type Snapshot struct {
	TotalBytes  int                `json:"total_bytes"`
	ObjectCount int                `json:"object_count"`
	Categories  []CategorySnapshot `json:"categories"`
}

// Inspect classifies every indirect object in doc into exactly one of the
// six categories, with display metadata per object.
func Inspect(doc *core.Document) Snapshot {
	pre := prescan(doc)

	byCategory := make(map[string]*CategorySnapshot, len(categoryOrder))
	snap := Snapshot{}
	for _, name := range categoryOrder {
		byCategory[name] = &CategorySnapshot{Name: name}
	}

	doc.Enumerate(func(ref core.Ref, obj core.Object) error {
		snap.ObjectCount++
		item := Item{Ref: fmt.Sprintf("%d %d", ref.Num, ref.Gen)}
		var dict *core.Dict
		if s, ok := core.GetStream(obj); ok {
			dict = s.Dict
			item.Size = len(s.Data)
			names := doc.FilterNames(s)
			for _, n := range names {
				item.Filters = append(item.Filters, string(n))
			}
			snap.TotalBytes += item.Size
		} else if d, ok := core.GetDict(obj); ok {
			dict = d
		}

		category := classify(doc, ref, dict, obj, pre, &item)
		cs := byCategory[category]
		cs.Bytes += item.Size
		cs.Items = append(cs.Items, item)
		return nil
	})

	for _, name := range categoryOrder {
		snap.Categories = append(snap.Categories, *byCategory[name])
	}
	return snap
}

// prescanInfo is the inspector's one-time page walk: Contents reference to
// page index, image XObject references, and the set of references
// reachable through a FontDescriptor's FontFile keys.
type prescanInfo struct {
	contentPage map[core.Ref]int
	imageRefs   map[core.Ref]bool
	fontFiles   map[core.Ref]bool
}

func prescan(doc *core.Document) prescanInfo {
	pre := prescanInfo{
		contentPage: make(map[core.Ref]int),
		imageRefs:   make(map[core.Ref]bool),
		fontFiles:   make(map[core.Ref]bool),
	}
	for _, page := range Pages(doc) {
		for _, ref := range page.Contents {
			if _, seen := pre.contentPage[ref]; !seen {
				pre.contentPage[ref] = page.Index
			}
		}
		if page.Resources == nil {
			continue
		}
		if xobjs, ok := doc.ResolveDict(page.Resources.Get("XObject")); ok {
			for _, name := range xobjs.Keys() {
				ref, ok := core.GetRef(xobjs.Get(name))
				if !ok {
					continue
				}
				if s, ok := doc.ResolveStream(ref); ok {
					if sub, _ := doc.ResolveName(s.Get("Subtype")); sub == "Image" {
						pre.imageRefs[ref] = true
					}
				}
			}
		}
	}
	doc.Enumerate(func(ref core.Ref, obj core.Object) error {
		d, ok := core.GetDict(obj)
		if !ok {
			return nil
		}
		if typ, _ := doc.ResolveName(d.Get("Type")); typ != "FontDescriptor" {
			return nil
		}
		for _, key := range FontFileKeys {
			if ffRef, ok := core.GetRef(d.Get(key)); ok {
				pre.fontFiles[ffRef] = true
			}
		}
		return nil
	})
	return pre
}

func classify(doc *core.Document, ref core.Ref, dict *core.Dict, obj core.Object, pre prescanInfo, item *Item) string {
	typ, _ := doc.ResolveName(dict.Get("Type"))
	subtype, _ := doc.ResolveName(dict.Get("Subtype"))

	switch {
	case subtype == "Image":
		item.Display = imageDisplay(doc, dict)
		return CategoryImages
	case typ == "Metadata" || subtype == "XML":
		return CategoryMetadata
	case pre.fontFiles[ref]:
		item.Display = "Font program"
		return CategoryFonts
	case typ == "Font":
		item.Display = fontDisplay(doc, dict)
		return CategoryFonts
	case typ == "FontDescriptor":
		if base, ok := core.GetName(doc.Resolve(dict.Get("FontName"))); ok {
			item.Display = StripSubsetPrefix(string(base)) + " descriptor"
		}
		return CategoryFonts
	case pre.contentPage[ref] != 0:
		item.Display = fmt.Sprintf("Page %d", pre.contentPage[ref])
		return CategoryContent
	case typ == "Page" || typ == "Pages" || typ == "Catalog":
		item.Display = string(typ)
		return CategoryStructure
	default:
		item.SubCategory = otherSubCategory(doc, dict, obj, typ, subtype)
		return CategoryOther
	}
}

// otherSubCategory refines Other Data by object shape.
func otherSubCategory(doc *core.Document, dict *core.Dict, obj core.Object, typ, subtype core.Name) string {
	if dict != nil {
		switch {
		case dict.Get("N") != nil && dict.Get("Alternate") != nil:
			return "ICC profile"
		case dict.Get("CMapName") != nil:
			return "CMap"
		case subtype == "Form":
			return "Form XObject"
		case typ == "Annot" || subtype == "Link" || subtype == "Widget":
			return "Annotation"
		case dict.Get("Differences") != nil:
			return "Encoding"
		case dict.Get("Registry") != nil && dict.Get("Ordering") != nil:
			return "CID Registry"
		}
	}
	if arr, ok := core.GetArray(obj); ok && arr.Len() > 0 {
		allNumeric := true
		for _, el := range arr.Elements {
			if _, ok := core.GetFloatVal(el); !ok {
				allNumeric = false
				break
			}
		}
		if allNumeric {
			return "Widths"
		}
	}
	return "Miscellaneous"
}

func imageDisplay(doc *core.Document, dict *core.Dict) string {
	w, _ := core.GetIntVal(doc.Resolve(dict.Get("Width")))
	h, _ := core.GetIntVal(doc.Resolve(dict.Get("Height")))
	cs := "?"
	switch v := doc.Resolve(dict.Get("ColorSpace")).(type) {
	case core.Name:
		cs = string(v)
	case *core.Array:
		if n, ok := core.GetName(doc.Resolve(v.Get(0))); ok {
			cs = string(n)
		}
	}
	return fmt.Sprintf("%d × %d %s", w, h, cs)
}

func fontDisplay(doc *core.Document, dict *core.Dict) string {
	base, _ := doc.ResolveName(dict.Get("BaseFont"))
	subtype, _ := doc.ResolveName(dict.Get("Subtype"))
	name := StripSubsetPrefix(string(base))
	if name == "" {
		name = "(unnamed)"
	}
	if subtype != "" {
		return name + " (" + string(subtype) + ")"
	}
	return name
}

/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

// Package model sits between the core object arena and the optimization
// passes: it knows what catalogs, page trees, fonts, and metadata streams
// look like, computes the accessibility/conformance traits record, and
// produces the before/after inspector snapshots.
package model

import (
	"github.com/khawkins98/pdfshrink/core"
)

// Page is one leaf of the page tree with its inherited attributes already
// resolved: MediaBox dimensions in points, the effective Resources
// dictionary, and the Contents reference list in declaration order.
type Page struct {
	Ref       core.Ref
	Dict      *core.Dict
	Index     int // 1-based
	Width     float64
	Height    float64
	Resources *core.Dict
	Contents  []core.Ref
}

// Pages walks the catalog's page tree depth-first and returns the leaves
// in document order. MediaBox and Resources are inherited from Pages nodes
// when a leaf omits them. Malformed nodes are skipped rather than failing
// the walk; a cycle in the tree is cut by the visited set.
func Pages(doc *core.Document) []Page {
	cat := doc.Catalog()
	if cat == nil {
		return nil
	}
	rootRef, ok := core.GetRef(cat.Get("Pages"))
	if !ok {
		return nil
	}
	var pages []Page
	visited := make(map[core.Ref]bool)
	var walk func(ref core.Ref, inheritedBox *core.Array, inheritedRes *core.Dict)
	walk = func(ref core.Ref, inheritedBox *core.Array, inheritedRes *core.Dict) {
		if visited[ref] {
			return
		}
		visited[ref] = true
		node, ok := doc.ResolveDict(ref)
		if !ok {
			return
		}
		box := inheritedBox
		if mb, ok := doc.ResolveArray(node.Get("MediaBox")); ok {
			box = mb
		}
		res := inheritedRes
		if rd, ok := doc.ResolveDict(node.Get("Resources")); ok {
			res = rd
		}
		typ, _ := doc.ResolveName(node.Get("Type"))
		switch typ {
		case "Pages":
			kids, ok := doc.ResolveArray(node.Get("Kids"))
			if !ok {
				return
			}
			for _, kid := range kids.Elements {
				if kidRef, ok := core.GetRef(kid); ok {
					walk(kidRef, box, res)
				}
			}
		case "Page":
			w, h := mediaBoxSize(doc, box)
			pages = append(pages, Page{
				Ref:       ref,
				Dict:      node,
				Index:     len(pages) + 1,
				Width:     w,
				Height:    h,
				Resources: res,
				Contents:  contentRefs(doc, node.Get("Contents")),
			})
		}
	}
	walk(rootRef, nil, nil)
	return pages
}

// contentRefs flattens a page's Contents entry (a single reference or an
// array of references) into the reference list, preserving order.
func contentRefs(doc *core.Document, obj core.Object) []core.Ref {
	if ref, ok := core.GetRef(obj); ok {
		if arr, isArr := doc.ResolveArray(ref); isArr {
			var out []core.Ref
			for _, el := range arr.Elements {
				if r, ok := core.GetRef(el); ok {
					out = append(out, r)
				}
			}
			return out
		}
		return []core.Ref{ref}
	}
	if arr, ok := core.GetArray(obj); ok {
		var out []core.Ref
		for _, el := range arr.Elements {
			if r, ok := core.GetRef(el); ok {
				out = append(out, r)
			}
		}
		return out
	}
	return nil
}

// ContentBytes decodes and concatenates a page's content streams,
// separated by a newline so operators never run together across stream
// boundaries.
func ContentBytes(doc *core.Document, page Page) ([]byte, error) {
	var out []byte
	for _, ref := range page.Contents {
		s, ok := doc.ResolveStream(ref)
		if !ok {
			continue
		}
		if !doc.AllFiltersDecodable(s) {
			continue
		}
		data, err := doc.DecodeStream(s)
		if err != nil {
			return nil, err
		}
		if len(out) > 0 {
			out = append(out, '\n')
		}
		out = append(out, data...)
	}
	return out, nil
}

func mediaBoxSize(doc *core.Document, box *core.Array) (float64, float64) {
	if box == nil || box.Len() < 4 {
		// US Letter, the same fallback every mainstream reader applies.
		return 612, 792
	}
	nums := make([]float64, 4)
	for i := 0; i < 4; i++ {
		v, _ := core.GetFloatVal(doc.Resolve(box.Get(i)))
		nums[i] = v
	}
	w := nums[2] - nums[0]
	h := nums[3] - nums[1]
	if w < 0 {
		w = -w
	}
	if h < 0 {
		h = -h
	}
	return w, h
}

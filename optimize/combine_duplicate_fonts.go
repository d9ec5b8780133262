/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package optimize

import (
	"github.com/khawkins98/pdfshrink/core"
	"github.com/khawkins98/pdfshrink/model"
)

// CombineDuplicateFonts deduplicates embedded font programs: every
// FontFile* stream is hashed by payload alone (the surrounding dictionary
// may differ in incidentals like Length1 while the program bytes are
// identical), FontDescriptor fields are rewritten onto the canonical
// stream, and a general reference rewrite catches any stray reference
// elsewhere in the graph.
type CombineDuplicateFonts struct{}

// Name implements Pass.
func (CombineDuplicateFonts) Name() string { return "deduplicate-fonts" }

// Optimize implements Pass.
func (CombineDuplicateFonts) Optimize(ctx *Context) (Counts, error) {
	doc := ctx.Doc
	counts := Counts{"deduplicated": 0}

	canonical := make(map[string]core.Ref)
	replace := make(map[core.Ref]core.Ref)
	doc.Enumerate(func(ref core.Ref, obj core.Object) error {
		fd, ok := core.GetDict(obj)
		if !ok {
			return nil
		}
		if typ, _ := doc.ResolveName(fd.Get("Type")); typ != "FontDescriptor" {
			return nil
		}
		for _, key := range model.FontFileKeys {
			ffRef, ok := core.GetRef(fd.Get(key))
			if !ok {
				continue
			}
			s, ok := doc.ResolveStream(ffRef)
			if !ok {
				continue
			}
			digest := core.ContentHash(s.Data)
			first, seen := canonical[digest]
			if !seen {
				canonical[digest] = ffRef
				continue
			}
			if first == ffRef {
				continue
			}
			fd.Set(key, first)
			replace[ffRef] = first
		}
		return nil
	})

	rewriteReferences(doc, replace)
	for dup := range replace {
		doc.Delete(dup)
	}
	counts["deduplicated"] = len(replace)
	return counts, nil
}

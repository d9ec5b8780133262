/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package optimize

import (
	"github.com/khawkins98/pdfshrink/core"
)

// CombineDuplicateStreams elects one canonical stream per content digest
// (serialized dictionary minus Length, plus payload), rewrites every
// reference to a duplicate onto its canonical, and deletes the duplicates.
type CombineDuplicateStreams struct{}

// Name implements Pass.
func (CombineDuplicateStreams) Name() string { return "deduplicate-objects" }

// Optimize implements Pass.
func (CombineDuplicateStreams) Optimize(ctx *Context) (Counts, error) {
	doc := ctx.Doc
	counts := Counts{"deduplicated": 0}

	canonical := make(map[string]core.Ref)
	replace := make(map[core.Ref]core.Ref)
	doc.Enumerate(func(ref core.Ref, obj core.Object) error {
		s, ok := core.GetStream(obj)
		if !ok {
			return nil
		}
		digest := core.HashStreamForDedup(s)
		if first, seen := canonical[digest]; seen {
			replace[ref] = first
			return nil
		}
		canonical[digest] = ref
		return nil
	})

	rewriteReferences(doc, replace)
	for dup := range replace {
		doc.Delete(dup)
	}
	counts["deduplicated"] = len(replace)
	return counts, nil
}

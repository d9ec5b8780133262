/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package optimize

import (
	"github.com/khawkins98/pdfshrink/core"
)

// RemoveUnreferenced deletes every indirect object unreachable from the
// trailer's root pointers. It must run last: objects orphaned by earlier
// passes (unembedded font programs, stripped metadata streams,
// deduplicated duplicates) are collected here.
type RemoveUnreferenced struct{}

// Name implements Pass.
func (RemoveUnreferenced) Name() string { return "remove-unreferenced" }

// Optimize implements Pass.
func (RemoveUnreferenced) Optimize(ctx *Context) (Counts, error) {
	doc := ctx.Doc
	reachable := reachableRefs(doc)
	var toDelete []core.Ref
	doc.Enumerate(func(ref core.Ref, obj core.Object) error {
		if !reachable[ref] {
			toDelete = append(toDelete, ref)
		}
		return nil
	})
	for _, ref := range toDelete {
		doc.Delete(ref)
	}
	return Counts{"removed": len(toDelete)}, nil
}

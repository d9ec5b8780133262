/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package optimize

import (
	"sort"

	"github.com/khawkins98/pdfshrink/contentstream"
	"github.com/khawkins98/pdfshrink/core"
	"github.com/khawkins98/pdfshrink/model"
)

// FontUsage is one font's show-text record across the whole document, in
// deterministic (reference) order.
type FontUsage struct {
	Ref   core.Ref
	Dict  *core.Dict
	Bytes [][]byte
}

// CollectFontUsage tokenizes every page's content streams and merges the
// per-font raw byte sequences. Tokenizer failures on an individual page
// degrade to that page contributing nothing, matching the engine's rule
// that recoverable conditions are skips, not errors.
func CollectFontUsage(doc *core.Document) []FontUsage {
	merged := make(map[core.Ref]*FontUsage)
	for _, page := range model.Pages(doc) {
		content, err := model.ContentBytes(doc, page)
		if err != nil || len(content) == 0 {
			continue
		}
		usage, err := contentstream.Tokenize(doc, content, page.Resources)
		if err != nil {
			continue
		}
		for ref, rec := range usage {
			m, ok := merged[ref]
			if !ok {
				m = &FontUsage{Ref: ref, Dict: rec.Dict}
				merged[ref] = m
			}
			m.Bytes = append(m.Bytes, rec.Bytes...)
		}
	}
	refs := make([]core.Ref, 0, len(merged))
	for ref := range merged {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Num != refs[j].Num {
			return refs[i].Num < refs[j].Num
		}
		return refs[i].Gen < refs[j].Gen
	})
	out := make([]FontUsage, 0, len(refs))
	for _, ref := range refs {
		out = append(out, *merged[ref])
	}
	return out
}

// rewriteReferences walks every dictionary and array in the arena (and the
// trailer) and replaces each reference found in the table with its
// replacement. Traversal recurses through direct values only; references
// are edges, not containers, so cycles cannot occur.
func rewriteReferences(doc *core.Document, table map[core.Ref]core.Ref) {
	if len(table) == 0 {
		return
	}
	doc.Enumerate(func(ref core.Ref, obj core.Object) error {
		rewriteObject(obj, table)
		return nil
	})
	rewriteObject(doc.Trailer, table)
}

func rewriteObject(obj core.Object, table map[core.Ref]core.Ref) {
	switch v := obj.(type) {
	case *core.Dict:
		rewriteDict(v, table)
	case *core.Stream:
		rewriteDict(v.Dict, table)
	case *core.Array:
		rewriteArray(v, table)
	}
}

func rewriteDict(d *core.Dict, table map[core.Ref]core.Ref) {
	for _, key := range d.Keys() {
		val := d.Get(key)
		if ref, ok := core.GetRef(val); ok {
			if repl, found := table[ref]; found {
				d.Set(key, repl)
			}
			continue
		}
		rewriteObject(val, table)
	}
}

func rewriteArray(a *core.Array, table map[core.Ref]core.Ref) {
	for i, el := range a.Elements {
		if ref, ok := core.GetRef(el); ok {
			if repl, found := table[ref]; found {
				a.Elements[i] = repl
			}
			continue
		}
		rewriteObject(el, table)
	}
}

// reachableRefs runs a BFS from the trailer's root pointers and
// returns every reference tag reachable through dictionary values, array
// elements, and stream dictionaries.
func reachableRefs(doc *core.Document) map[core.Ref]bool {
	seen := make(map[core.Ref]bool)
	var queue []core.Ref

	var scan func(obj core.Object)
	scan = func(obj core.Object) {
		switch v := obj.(type) {
		case core.Ref:
			if !seen[v] {
				seen[v] = true
				queue = append(queue, v)
			}
		case *core.Dict:
			for _, key := range v.Keys() {
				scan(v.Get(key))
			}
		case *core.Stream:
			for _, key := range v.Keys() {
				scan(v.Get(key))
			}
		case *core.Array:
			for _, el := range v.Elements {
				scan(el)
			}
		}
	}

	for _, root := range []core.Name{"Root", "Info", "Encrypt", "ID"} {
		scan(doc.Trailer.Get(root))
	}
	for len(queue) > 0 {
		ref := queue[0]
		queue = queue[1:]
		if obj, ok := doc.Lookup(ref); ok {
			scan(obj)
		}
	}
	return seen
}

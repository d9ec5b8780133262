/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package optimize

import (
	"github.com/khawkins98/pdfshrink/core"
	"github.com/khawkins98/pdfshrink/model"
)

// privateKeys is the fixed set of producer-private dictionary keys removed
// from every indirect dictionary in the graph.
var privateKeys = []core.Name{
	"PieceInfo", "Thumb",
	"AIPrivateData1", "AIPrivateData2", "AIPrivateData3", "AIPrivateData4",
	"AIMetaData", "Photoshop", "IRB",
}

// StripMetadata deletes the catalog's XMP packet and producer-private keys
// throughout the graph. The document language, if declared only in XMP, is
// migrated to the catalog's Lang before the packet is deleted; /Info stays
// untouched.
//
// A PDF/A document keeps its XMP: the conformance declaration lives there,
// and deleting it would silently strip the archival claim.
type StripMetadata struct{}

// Name implements Pass.
func (StripMetadata) Name() string { return "strip-metadata" }

// Optimize implements Pass.
func (StripMetadata) Optimize(ctx *Context) (Counts, error) {
	doc := ctx.Doc
	counts := Counts{"removed-keys": 0, "removed-streams": 0}
	cat := doc.Catalog()

	if cat != nil && !ctx.Traits.IsPDFA {
		if mdRef, ok := core.GetRef(cat.Get("Metadata")); ok {
			if s, ok := doc.ResolveStream(mdRef); ok && doc.AllFiltersDecodable(s) {
				if cat.Get("Lang") == nil {
					if data, err := doc.DecodeStream(s); err == nil {
						if lang := model.XMPLanguage(data); lang != "" {
							cat.Set("Lang", core.MakeString(lang))
						}
					}
				}
			}
			cat.Delete("Metadata")
			doc.Delete(mdRef)
			counts["removed-streams"]++
		}
	}

	doc.Enumerate(func(ref core.Ref, obj core.Object) error {
		d, ok := core.GetDict(obj)
		if !ok {
			return nil
		}
		for _, key := range privateKeys {
			if d.Get(key) != nil {
				d.Delete(key)
				counts["removed-keys"]++
			}
		}
		return nil
	})
	return counts, nil
}

/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package optimize

import (
	"github.com/khawkins98/pdfshrink/common"
	"github.com/khawkins98/pdfshrink/core"
)

// CompressStreams re-deflates every decodable non-image stream at the
// maximum level and keeps the result only when strictly smaller than the
// original raw payload.
type CompressStreams struct{}

// Name implements Pass.
func (CompressStreams) Name() string { return "recompress-streams" }

// Optimize implements Pass.
func (CompressStreams) Optimize(ctx *Context) (Counts, error) {
	doc := ctx.Doc
	counts := Counts{"recompressed": 0, "skipped": 0}
	doc.Enumerate(func(ref core.Ref, obj core.Object) error {
		s, ok := core.GetStream(obj)
		if !ok {
			return nil
		}
		if doc.HasImageNativeFilter(s) || !doc.AllFiltersDecodable(s) {
			counts["skipped"]++
			return nil
		}
		raw, err := doc.DecodeStream(s)
		if err != nil {
			common.Log.Debug("recompress: decode %s failed: %v", ref, err)
			counts["skipped"]++
			return nil
		}
		enc := core.NewFlateEncoder()
		deflated, err := enc.EncodeBytes(raw)
		if err != nil {
			counts["skipped"]++
			return nil
		}
		if len(deflated) >= len(s.Data) {
			counts["skipped"]++
			return nil
		}
		s.Data = deflated
		s.Set("Filter", core.Name("FlateDecode"))
		s.Delete("DecodeParms")
		s.Delete("DP")
		s.Set("Length", core.Integer(int64(len(deflated))))
		counts["recompressed"]++
		return nil
	})
	return counts, nil
}

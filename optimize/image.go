/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package optimize

import (
	"math"

	"github.com/h2non/filetype"

	"github.com/khawkins98/pdfshrink/common"
	"github.com/khawkins98/pdfshrink/core"
	"github.com/khawkins98/pdfshrink/internal/imageutil"
	"github.com/khawkins98/pdfshrink/model"
)

// minImageBytes is the decoded-payload floor below which recompression is
// not worth the quality trade.
const minImageBytes = 10 * 1024

// RecompressImages decodes eligible FlateDecode image XObjects, optionally
// downsamples them against an effective-DPI cap, JPEG-encodes the raster,
// and replaces the stream when the JPEG is strictly smaller. Active only
// when the Lossy option is set.
type RecompressImages struct{}

// Name implements Pass.
func (RecompressImages) Name() string { return "recompress-images" }

// Optimize implements Pass.
func (RecompressImages) Optimize(ctx *Context) (Counts, error) {
	counts := Counts{"converted": 0, "downsampled": 0, "skipped": 0}
	if !ctx.Options.Lossy {
		return counts, nil
	}
	doc := ctx.Doc
	pagesByImage := imagePages(doc)
	quality := jpegQuality(ctx.Options.ImageQuality)

	doc.Enumerate(func(ref core.Ref, obj core.Object) error {
		s, ok := core.GetStream(obj)
		if !ok {
			return nil
		}
		info, eligible := imageEligibility(doc, s)
		if !eligible {
			if sub, _ := doc.ResolveName(s.Get("Subtype")); sub == "Image" {
				counts["skipped"]++
			}
			return nil
		}
		restoreParms := normalizePredictorParms(doc, s, info)
		raw, err := doc.DecodeStream(s)
		if err != nil {
			restoreParms()
			counts["skipped"]++
			return nil
		}
		if len(raw) < minImageBytes {
			restoreParms()
			counts["skipped"]++
			return nil
		}
		// A payload that sniffs as an already-compressed container was
		// mislabeled by its producer; re-encoding its bytes as samples
		// would corrupt it.
		if t, _ := filetype.Match(raw); t != filetype.Unknown {
			restoreParms()
			counts["skipped"]++
			return nil
		}

		img, err := imageutil.ExpandRGBA(raw, info.width, info.height, info.components)
		if err != nil {
			common.Log.Debug("image %s: expand failed: %v", ref, err)
			restoreParms()
			counts["skipped"]++
			return nil
		}

		newW, newH := info.width, info.height
		downsampled := false
		if target := ctx.Options.MaxImageDPI; target > 0 {
			if page, ok := smallestPage(pagesByImage[ref]); ok {
				effective := math.Min(
					float64(info.width)*72/page.Width,
					float64(info.height)*72/page.Height,
				)
				if effective > float64(target) {
					newW = int(math.Round(float64(info.width) * float64(target) / effective))
					newH = int(math.Round(float64(info.height) * float64(target) / effective))
					if newW < 1 {
						newW = 1
					}
					if newH < 1 {
						newH = 1
					}
					img = imageutil.BoxDownsample(img, newW, newH)
					downsampled = true
				}
			}
		}

		encoded, err := imageutil.EncodeJPEG(img, quality)
		if err != nil {
			restoreParms()
			counts["skipped"]++
			return nil
		}
		if len(encoded) >= len(s.Data) {
			restoreParms()
			counts["skipped"]++
			return nil
		}

		s.Data = encoded
		s.Set("Filter", core.Name("DCTDecode"))
		s.Delete("DecodeParms")
		s.Delete("DP")
		s.Set("Length", core.Integer(int64(len(encoded))))
		if downsampled {
			s.Set("Width", core.Integer(int64(newW)))
			s.Set("Height", core.Integer(int64(newH)))
			counts["downsampled"]++
		}
		counts["converted"]++
		return nil
	})
	return counts, nil
}

type imageInfo struct {
	width, height int
	components    int
}

// imageEligibility applies the recompression gate: Subtype Image, no ImageMask, no
// SMask, no image-native filter, fully decodable, 8 bits per component,
// DeviceRGB or DeviceGray by name, Width and Height present.
func imageEligibility(doc *core.Document, s *core.Stream) (imageInfo, bool) {
	var info imageInfo
	if sub, _ := doc.ResolveName(s.Get("Subtype")); sub != "Image" {
		return info, false
	}
	if mask, ok := core.GetBoolVal(doc.Resolve(s.Get("ImageMask"))); ok && mask {
		return info, false
	}
	if s.Get("SMask") != nil {
		return info, false
	}
	if doc.HasImageNativeFilter(s) || !doc.AllFiltersDecodable(s) {
		return info, false
	}
	if bpc, ok := core.GetIntVal(doc.Resolve(s.Get("BitsPerComponent"))); ok && bpc != 8 {
		return info, false
	}
	cs, ok := doc.ResolveName(s.Get("ColorSpace"))
	if !ok {
		return info, false
	}
	switch cs {
	case "DeviceRGB":
		info.components = 3
	case "DeviceGray":
		info.components = 1
	default:
		return info, false
	}
	w, okW := core.GetIntVal(doc.Resolve(s.Get("Width")))
	h, okH := core.GetIntVal(doc.Resolve(s.Get("Height")))
	if !okW || !okH || w <= 0 || h <= 0 {
		return info, false
	}
	info.width, info.height = int(w), int(h)
	return info, true
}

// normalizePredictorParms fills in the image-specific predictor defaults
// a producer may have omitted: when DecodeParms declares Predictor >= 10,
// Columns defaults to the image's Width, Colors to its component count,
// and BitsPerComponent to 8. The returned restore function removes the
// keys that were added, for skip paths that leave the stream untouched.
func normalizePredictorParms(doc *core.Document, s *core.Stream, info imageInfo) func() {
	parms, ok := doc.ResolveDict(s.Get("DecodeParms"))
	if !ok {
		parms, ok = doc.ResolveDict(s.Get("DP"))
	}
	if !ok {
		return func() {}
	}
	pred, _ := core.GetIntVal(doc.Resolve(parms.Get("Predictor")))
	if pred < 10 {
		return func() {}
	}
	var added []core.Name
	setDefault := func(key core.Name, val int64) {
		if parms.Get(key) == nil {
			parms.Set(key, core.Integer(val))
			added = append(added, key)
		}
	}
	setDefault("Columns", int64(info.width))
	setDefault("Colors", int64(info.components))
	setDefault("BitsPerComponent", 8)
	return func() {
		for _, key := range added {
			parms.Delete(key)
		}
	}
}

// imagePages maps each image XObject reference to the pages whose
// Resources name it, for the effective-DPI estimate.
func imagePages(doc *core.Document) map[core.Ref][]model.Page {
	out := make(map[core.Ref][]model.Page)
	for _, page := range model.Pages(doc) {
		if page.Resources == nil {
			continue
		}
		xobjs, ok := doc.ResolveDict(page.Resources.Get("XObject"))
		if !ok {
			continue
		}
		for _, name := range xobjs.Keys() {
			if ref, ok := core.GetRef(xobjs.Get(name)); ok {
				out[ref] = append(out[ref], page)
			}
		}
	}
	return out
}

// smallestPage picks the page with the smallest area, the conservative
// choice for the DPI estimate (the image is at its densest there).
func smallestPage(pages []model.Page) (model.Page, bool) {
	var best model.Page
	found := false
	for _, p := range pages {
		if p.Width <= 0 || p.Height <= 0 {
			continue
		}
		if !found || p.Width*p.Height < best.Width*best.Height {
			best = p
			found = true
		}
	}
	return best, found
}

// jpegQuality converts the (0, 1] option to the encoder's 1-100 scale,
// clamping to [0.01, 1.0] first.
func jpegQuality(q float64) int {
	if q <= 0 {
		q = 0.85
	}
	if q < 0.01 {
		q = 0.01
	}
	if q > 1 {
		q = 1
	}
	return int(math.Round(q * 100))
}

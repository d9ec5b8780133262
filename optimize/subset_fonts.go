/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package optimize

import (
	"bytes"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"github.com/unidoc/unitype"

	"github.com/khawkins98/pdfshrink/common"
	"github.com/khawkins98/pdfshrink/core"
	"github.com/khawkins98/pdfshrink/internal/textencoding"
	"github.com/khawkins98/pdfshrink/model"
)

// minFontBytes is the decoded-program floor below which subsetting cannot
// recover enough to matter.
const minFontBytes = 10 * 1024

// SubsetFonts rewrites each eligible embedded font program down to the
// glyphs the document's content streams actually use. Simple fonts and
// Type0 Identity-H composites are handled; the subset keeps the original
// glyph indices so a CIDFont's identity CID-to-GID map still resolves.
type SubsetFonts struct{}

// Name implements Pass.
func (SubsetFonts) Name() string { return "subset-fonts" }

// Optimize implements Pass.
func (SubsetFonts) Optimize(ctx *Context) (Counts, error) {
	counts := Counts{"subsetted": 0, "skipped": 0}
	if !ctx.Options.SubsetFonts {
		return counts, nil
	}
	doc := ctx.Doc
	// Multiple font dicts can share one program stream. Subsetting against
	// one font's usage would drop glyphs another font needs, so shared
	// streams are left alone.
	sharers := make(map[core.Ref]int)
	for _, usage := range ctx.Usage {
		if fd, _, ok := model.FontDescriptor(doc, usage.Dict); ok {
			if ffRef, _, ok := model.FontFileRef(fd, doc); ok {
				sharers[ffRef]++
			}
		}
	}

	for _, usage := range ctx.Usage {
		if len(usage.Bytes) == 0 {
			continue
		}
		font := usage.Dict
		subtype, _ := doc.ResolveName(font.Get("Subtype"))
		switch subtype {
		case "Type1", "TrueType", "Type0":
		default:
			continue
		}
		isType0 := subtype == "Type0"
		if isType0 && !model.IsIdentityH(doc, font) {
			counts["skipped"]++
			continue
		}
		if !isType0 {
			// A subset-prefixed simple font's code space is already
			// renumbered against an unknown parent; re-subsetting it by
			// Unicode would drop glyphs.
			if base, ok := doc.ResolveName(font.Get("BaseFont")); ok && model.HasSubsetPrefix(string(base)) {
				counts["skipped"]++
				continue
			}
		}
		fd, _, ok := model.FontDescriptor(doc, font)
		if !ok {
			continue
		}
		ffRef, ffKey, ok := model.FontFileRef(fd, doc)
		if !ok {
			continue
		}
		if sharers[ffRef] > 1 {
			counts["skipped"]++
			continue
		}

		if subsetFontProgram(ctx, font, ffRef, ffKey, usage, isType0) {
			counts["subsetted"]++
		} else {
			counts["skipped"]++
		}
	}
	return counts, nil
}

func subsetFontProgram(ctx *Context, font *core.Dict, ffRef core.Ref, ffKey core.Name, usage FontUsage, isType0 bool) bool {
	doc := ctx.Doc
	stream, ok := doc.ResolveStream(ffRef)
	if !ok || !doc.AllFiltersDecodable(stream) {
		return false
	}
	decoded, err := doc.DecodeStream(stream)
	if err != nil {
		common.Log.Debug("subset: decode %s failed: %v", ffRef, err)
		return false
	}
	if len(decoded) < minFontBytes {
		return false
	}
	// unitype subsets sfnt-flavored programs only; a Type1/CFF payload
	// would fail its parser, so sniff the container first.
	if !filetype.IsType(decoded, matchers.TypeTtf) && !filetype.IsType(decoded, matchers.TypeOtf) {
		return false
	}

	var indices []unitype.GlyphIndex
	var runes []rune
	if isType0 && !textencoding.HasCmapTable(decoded) {
		// GID mode: without a cmap the program cannot be keyed by rune,
		// and under Identity-H the CIDs are the glyph indices.
		for _, cid := range model.UsedCIDs(usage.Bytes) {
			indices = append(indices, unitype.GlyphIndex(cid))
		}
		if len(indices) == 0 {
			return false
		}
	} else {
		runes = model.UsedRunes(doc, font, usage.Bytes)
		if len(runes) == 0 {
			return false
		}
	}

	fnt, err := unitype.Parse(bytes.NewReader(decoded))
	if err != nil {
		common.Log.Debug("subset: parse %s failed: %v", ffRef, err)
		return false
	}
	if len(runes) > 0 {
		indices = append(indices, fnt.LookupRunes(runes)...)
	}
	subset, err := fnt.SubsetKeepIndices(indices)
	if err != nil {
		common.Log.Debug("subset: %s: %v", ffRef, err)
		return false
	}
	var buf bytes.Buffer
	if err := subset.Write(&buf); err != nil {
		return false
	}
	if buf.Len() == 0 || buf.Len() >= len(decoded) {
		return false
	}

	if err := core.ReplaceWithFlate(stream, buf.Bytes()); err != nil {
		return false
	}
	if ffKey == "FontFile" || ffKey == "FontFile2" {
		stream.Set("Length1", core.Integer(int64(buf.Len())))
	}
	return true
}

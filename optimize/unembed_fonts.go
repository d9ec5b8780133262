/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package optimize

import (
	"github.com/khawkins98/pdfshrink/core"
	"github.com/khawkins98/pdfshrink/model"
)

// UnembedStandardFonts drops the embedded program and descriptor of
// simple Type1 fonts whose BaseFont names one of the 14 standard faces
// every reader renders natively. The orphaned font program stream is
// swept later by the unreferenced-removal pass.
//
// A document that declares PDF/A conformance keeps its fonts embedded:
// unembedding would break the archival guarantee, so the pass records a
// pdfa-skipped marker and does nothing.
type UnembedStandardFonts struct{}

// Name implements Pass.
func (UnembedStandardFonts) Name() string { return "unembed-standard-fonts" }

// Optimize implements Pass.
func (UnembedStandardFonts) Optimize(ctx *Context) (Counts, error) {
	counts := Counts{"unembedded": 0, "skipped": 0}
	if !ctx.Options.UnembedStandardFonts {
		return counts, nil
	}
	if ctx.Traits.IsPDFA {
		counts["pdfa-skipped"] = 1
		return counts, nil
	}
	doc := ctx.Doc
	doc.Enumerate(func(ref core.Ref, obj core.Object) error {
		font, ok := core.GetDict(obj)
		if !ok || !model.IsFont(doc, font) {
			return nil
		}
		subtype, _ := doc.ResolveName(font.Get("Subtype"))
		if subtype != "Type1" {
			return nil
		}
		base, ok := doc.ResolveName(font.Get("BaseFont"))
		if !ok {
			return nil
		}
		canonical := model.StripSubsetPrefix(string(base))
		if !model.IsStandard14(canonical) {
			return nil
		}
		if font.Get("FontDescriptor") == nil {
			counts["skipped"]++
			return nil
		}
		font.Set("BaseFont", core.Name(canonical))
		font.Delete("FontDescriptor")
		font.Set("Encoding", core.Name("WinAnsiEncoding"))
		// ToUnicode, Widths, FirstChar, LastChar stay untouched.
		counts["unembedded"]++
		return nil
	})
	return counts, nil
}

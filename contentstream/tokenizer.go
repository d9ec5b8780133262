/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package contentstream

import (
	"io"

	"github.com/khawkins98/pdfshrink/core"
)

// FontUsage records one font's raw show-text operand bytes, gathered
// across every Tj/'/"/TJ operator that referenced it. The byte slices are
// intentionally left unmapped to glyphs: one byte per code for simple
// fonts, two bytes big-endian per code for Identity-H Type0 fonts. The Unicode mapper and font-subsetting pass interpret them.
type FontUsage struct {
	Ref   core.Ref
	Dict  *core.Dict
	Bytes [][]byte
}

// maxFormDepth bounds Do-into-Form-XObject recursion against cyclic
// Resources references, which the PDF grammar does not forbid.
const maxFormDepth = 32

// Tokenize walks a page (or Form XObject) content stream and returns the
// accumulated per-font usage, keyed by the font's reference. `resources`
// is the Resources dictionary in effect for this content stream.
func Tokenize(doc *core.Document, content []byte, resources *core.Dict) (map[core.Ref]*FontUsage, error) {
	usage := make(map[core.Ref]*FontUsage)
	if err := tokenize(doc, content, resources, usage, 0); err != nil {
		return usage, err
	}
	return usage, nil
}

func tokenize(doc *core.Document, content []byte, resources *core.Dict, usage map[core.Ref]*FontUsage, depth int) error {
	if depth > maxFormDepth {
		return nil
	}

	lx := newLexer(content)
	var currentFont *FontUsage

	for {
		op, err := lx.next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}

		switch op.operator {
		case "Tf":
			currentFont = resolveFont(doc, resources, op.operands, usage)
		case "Tj", "'", "\"":
			if currentFont == nil {
				continue
			}
			for _, o := range op.operands {
				if s, ok := o.(*core.String); ok {
					currentFont.Bytes = append(currentFont.Bytes, append([]byte(nil), s.Value...))
				}
			}
		case "TJ":
			if currentFont == nil {
				continue
			}
			if len(op.operands) == 0 {
				continue
			}
			arr, ok := op.operands[len(op.operands)-1].(*core.Array)
			if !ok {
				continue
			}
			for _, el := range arr.Elements {
				if s, ok := el.(*core.String); ok {
					currentFont.Bytes = append(currentFont.Bytes, append([]byte(nil), s.Value...))
				}
				// Numeric kerning items are discarded.
			}
		case "Do":
			if err := followXObject(doc, resources, op.operands, usage, depth); err != nil {
				return err
			}
		case "BI":
			if err := skipInlineImage(lx); err != nil {
				return err
			}
		default:
			// Unrecognized operator: clear nothing here (operands already
			// consumed per-operation by the lexer), but an operator we
			// don't special-case must not leave stale font state wired to
			// operands it didn't understand.
		}
	}
	return nil
}

// resolveFont looks up the font resource named by Tf's first operand in
// Resources/Font, returning its FontUsage record from `usage` (creating
// and registering one on first reference).
func resolveFont(doc *core.Document, resources *core.Dict, operands []core.Object, usage map[core.Ref]*FontUsage) *FontUsage {
	if len(operands) < 1 {
		return nil
	}
	name, ok := operands[0].(core.Name)
	if !ok {
		return nil
	}
	raw := lookupResource(doc, resources, "Font", name)
	ref, ok := raw.(core.Ref)
	if !ok {
		return nil
	}
	if existing, ok := usage[ref]; ok {
		return existing
	}
	fontDict, ok := doc.ResolveDict(raw)
	if !ok {
		return nil
	}
	rec := &FontUsage{Ref: ref, Dict: fontDict}
	usage[ref] = rec
	return rec
}

func lookupResource(doc *core.Document, resources *core.Dict, category core.Name, name core.Name) core.Object {
	if resources == nil {
		return nil
	}
	cat, ok := doc.ResolveDict(resources.Get(category))
	if !ok {
		return nil
	}
	return cat.Get(name)
}

// followXObject recurses into a Form XObject's content stream when Do's
// operand names one, using the Form's own Resources if present, otherwise
// falling back to the caller's Resources.
func followXObject(doc *core.Document, resources *core.Dict, operands []core.Object, usage map[core.Ref]*FontUsage, depth int) error {
	if len(operands) < 1 {
		return nil
	}
	name, ok := operands[0].(core.Name)
	if !ok {
		return nil
	}
	xobj := lookupResource(doc, resources, "XObject", name)
	stream, ok := doc.ResolveStream(xobj)
	if !ok {
		return nil
	}
	if sub, _ := core.GetName(stream.Get("Subtype")); sub != "Form" {
		return nil
	}
	if !doc.AllFiltersDecodable(stream) {
		return nil
	}
	data, err := doc.DecodeStream(stream)
	if err != nil {
		return nil
	}

	formResources, ok := doc.ResolveDict(stream.Get("Resources"))
	if !ok {
		formResources = resources
	}

	return tokenize(doc, data, formResources, usage, depth+1)
}

// skipInlineImage consumes everything between BI and EI, including the
// dictionary-style key/value pairs and the raw image data in between,
// without interpreting any of it.
func skipInlineImage(lx *lexer) error {
	// Consume the inline dict entries until the ID operator.
	for {
		_, isOperand, err := lx.parseObject()
		if err != nil {
			return err
		}
		if isOperand {
			break // "ID"
		}
	}
	// Skip one whitespace byte separating ID from the binary data, then
	// scan for "EI" bounded by whitespace, which is not itself escapable
	// inside inline image data under the PDF grammar's informal convention.
	lx.reader.ReadByte()
	prev := byte(' ')
	for {
		b, err := lx.reader.ReadByte()
		if err != nil {
			return err
		}
		if b == 'E' && core.IsWhiteSpace(prev) {
			peek, _ := lx.reader.Peek(2)
			if len(peek) > 0 && peek[0] == 'I' && (len(peek) == 1 || core.IsWhiteSpace(peek[1])) {
				lx.reader.ReadByte()
				return nil
			}
		}
		prev = b
	}
}

/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package cmap

import (
	"io"

	"github.com/khawkins98/pdfshrink/common"
)

// parse walks the CMap token stream and fills the lookup tables. Only the
// sections a ToUnicode reader needs are interpreted: codespacerange,
// bfchar, bfrange, cidrange, and usecmap. Header definitions (CMapName,
// CMapType, CMapVersion, CIDSystemInfo) carry nothing this engine reads,
// so their value tokens are consumed and dropped.
func (cmap *CMap) parse() error {
	var prev token
	for {
		tok, err := cmap.tokens.next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			common.Log.Debug("cmap parse: %v", err)
			return err
		}
		switch t := tok.(type) {
		case tokOperand:
			switch t.val {
			case begincodespacerange:
				if err := cmap.parseCodespaceRange(); err != nil {
					return err
				}
			case beginbfchar:
				if err := cmap.parseBfchar(); err != nil {
					return err
				}
			case beginbfrange:
				if err := cmap.parseBfrange(); err != nil {
					return err
				}
			case begincidrange:
				if err := cmap.parseCIDRange(); err != nil {
					return err
				}
			case usecmap:
				name, ok := prev.(tokName)
				if !ok {
					common.Log.Debug("cmap parse: usecmap without a name")
					return ErrBadCMap
				}
				cmap.usecmap = name.val
			}
		case tokName:
			switch t.val {
			case cmapname, cmaptype, cmapversion, cidSystemInfo:
				if err := cmap.skipDefinition(); err != nil {
					return err
				}
			}
		}
		prev = tok
	}
}

// skipDefinition consumes a header definition's value tokens up to the
// closing "def" (or the "end" of an inline dict form). Bounded so a
// malformed header cannot loop forever.
func (cmap *CMap) skipDefinition() error {
	depth := 0
	for i := 0; i < 50; i++ {
		tok, err := cmap.tokens.next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		op, ok := tok.(tokOperand)
		if !ok {
			continue
		}
		switch op.val {
		case "begin":
			depth++
		case "end":
			if depth > 0 {
				depth--
			}
		case "def":
			if depth == 0 {
				return nil
			}
		}
	}
	common.Log.Debug("cmap parse: unterminated header definition")
	return ErrBadCMap
}

// rangeBounds reads the <low> <high> pair shared by the codespacerange
// and cidrange sections. ok is false when the section's end operand was
// reached instead.
func (cmap *CMap) rangeBounds(endOp string) (low, high tokHex, ok bool, err error) {
	tok, err := cmap.tokens.next()
	if err != nil {
		return low, high, false, err
	}
	switch t := tok.(type) {
	case tokOperand:
		if t.val == endOp {
			return low, high, false, nil
		}
		return low, high, false, ErrBadCMap
	case tokHex:
		low = t
	default:
		return low, high, false, ErrBadCMap
	}
	tok, err = cmap.tokens.next()
	if err != nil {
		return low, high, false, err
	}
	h, isHex := tok.(tokHex)
	if !isHex {
		return low, high, false, ErrBadCMap
	}
	high = h
	if len(low.data) != len(high.data) || high.charCode() < low.charCode() {
		common.Log.Debug("cmap parse: bad range <%x> <%x>", low.data, high.data)
		return low, high, false, ErrBadCMap
	}
	return low, high, true, nil
}

func (cmap *CMap) parseCodespaceRange() error {
	for {
		low, high, ok, err := cmap.rangeBounds(endcodespacerange)
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		if !ok {
			return nil
		}
		cmap.codespaces = append(cmap.codespaces, Codespace{
			NumBytes: high.size,
			Low:      low.charCode(),
			High:     high.charCode(),
		})
	}
	return nil
}

func (cmap *CMap) parseCIDRange() error {
	for {
		low, high, ok, err := cmap.rangeBounds(endcidrange)
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		if !ok {
			return nil
		}
		tok, err := cmap.tokens.next()
		if err != nil {
			return err
		}
		start, isInt := tok.(tokInt)
		if !isInt || start.val < 0 {
			common.Log.Debug("cmap parse: cidrange start is not a CID")
			return ErrBadCMap
		}
		cid := start.val
		for code := low.charCode(); code <= high.charCode(); code++ {
			cmap.codeToCID[code] = CharCode(cid)
			cid++
		}
	}
	return nil
}

func (cmap *CMap) parseBfchar() error {
	for {
		tok, err := cmap.tokens.next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		var code CharCode
		switch t := tok.(type) {
		case tokOperand:
			if t.val == endbfchar {
				return nil
			}
			return ErrBadCMap
		case tokHex:
			code = t.charCode()
		default:
			return ErrBadCMap
		}

		tok, err = cmap.tokens.next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		switch t := tok.(type) {
		case tokHex:
			cmap.codeToUnicode[code] = string(t.runes())
		case tokName:
			// A glyph-name destination is out of scope for a ToUnicode
			// reader; record the replacement character.
			cmap.codeToUnicode[code] = MissingCodeString
		default:
			return ErrBadCMap
		}
	}
	return nil
}

func (cmap *CMap) parseBfrange() error {
	for {
		low, high, ok, err := cmap.rangeBounds(endbfrange)
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		if !ok {
			return nil
		}

		tok, err := cmap.tokens.next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		from, to := low.charCode(), high.charCode()
		switch t := tok.(type) {
		case tokArray:
			// <from> <to> [<dst> ...]: one destination per code.
			if len(t.items) != int(to-from)+1 {
				common.Log.Debug("cmap parse: bfrange array length mismatch")
				return ErrBadCMap
			}
			for code := from; code <= to; code++ {
				dst, isHex := t.items[code-from].(tokHex)
				if !isHex {
					return ErrBadCMap
				}
				cmap.codeToUnicode[code] = string(dst.runes())
			}
		case tokHex:
			// <from> <to> <dst>: destination increments per step.
			runes := t.runes()
			if len(runes) == 0 {
				return ErrBadCMap
			}
			for code := from; code <= to; code++ {
				cmap.codeToUnicode[code] = string(runes)
				runes[len(runes)-1]++
			}
		default:
			return ErrBadCMap
		}
	}
	return nil
}

/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package model

import (
	"sort"

	"github.com/khawkins98/pdfshrink/core"
	"github.com/khawkins98/pdfshrink/internal/cmap"
	"github.com/khawkins98/pdfshrink/internal/textencoding"
)

// UsedRunes maps a font's raw show-text byte sequences to the set of
// Unicode codepoints they consume.
//
// Simple fonts resolve each unique code byte through, in order: the
// font's ToUnicode CMap, the glyph name assigned by the encoding
// (Differences overlay on the base table) via the Adobe Glyph List
// (including uniXXXX names), and finally a direct ASCII reading for bytes
// in the printable range. Type0 Identity-H fonts resolve each 2-byte
// big-endian CID through the ToUnicode CMap alone; with no ToUnicode the
// result is empty, which callers treat as "cannot subset by Unicode".
func UsedRunes(doc *core.Document, font *core.Dict, seqs [][]byte) []rune {
	subtype, _ := doc.ResolveName(font.Get("Subtype"))
	if subtype == "Type0" {
		return usedRunesType0(doc, font, seqs)
	}
	return usedRunesSimple(doc, font, seqs)
}

func usedRunesSimple(doc *core.Document, font *core.Dict, seqs [][]byte) []rune {
	enc := simpleEncoding(doc, font)
	toUni := ToUnicodeCMap(doc, font, true)

	used := make(map[byte]bool)
	for _, seq := range seqs {
		for _, b := range seq {
			used[b] = true
		}
	}
	set := make(map[rune]bool)
	for b := range used {
		if s, ok := enc.ToUnicode(b, toUni); ok {
			for _, r := range s {
				set[r] = true
			}
			continue
		}
		if b >= 0x20 && b <= 0x7E {
			set[rune(b)] = true
		}
	}
	return sortedRunes(set)
}

func usedRunesType0(doc *core.Document, font *core.Dict, seqs [][]byte) []rune {
	toUni := ToUnicodeCMap(doc, font, false)
	if toUni == nil {
		return nil
	}
	set := make(map[rune]bool)
	for _, cid := range UsedCIDs(seqs) {
		s, ok := toUni.CharcodeToUnicode(cmap.CharCode(cid))
		if !ok {
			continue
		}
		for _, r := range s {
			set[r] = true
		}
	}
	return sortedRunes(set)
}

// UsedCIDs interprets the show-text byte sequences of an Identity-H font
// as 2-byte big-endian CIDs, deduplicated and sorted. A trailing odd byte
// is ignored.
func UsedCIDs(seqs [][]byte) []uint16 {
	set := make(map[uint16]bool)
	for _, seq := range seqs {
		for i := 0; i+1 < len(seq); i += 2 {
			set[uint16(seq[i])<<8|uint16(seq[i+1])] = true
		}
	}
	out := make([]uint16, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// simpleEncoding builds the 256-entry glyph-name resolver a simple font's
// /Encoding selects: a fixed table when Encoding is one of the three
// standard names, a BaseEncoding table plus Differences overlay when it is
// a dictionary, and WinAnsi when Encoding is absent entirely.
func simpleEncoding(doc *core.Document, font *core.Dict) *textencoding.SimpleFontEncoding {
	enc := doc.Resolve(font.Get("Encoding"))
	switch v := enc.(type) {
	case core.Name:
		return textencoding.NewSimpleFontEncoding(baseEncodingByName(v), nil)
	case *core.Dict:
		base := textencoding.StandardEncoding
		if name, ok := doc.ResolveName(v.Get("BaseEncoding")); ok {
			base = baseEncodingByName(name)
		}
		return textencoding.NewSimpleFontEncoding(base, differences(doc, v))
	default:
		return textencoding.NewSimpleFontEncoding(textencoding.WinAnsiEncoding, nil)
	}
}

func baseEncodingByName(name core.Name) textencoding.BaseEncoding {
	switch name {
	case "WinAnsiEncoding":
		return textencoding.WinAnsiEncoding
	case "MacRomanEncoding":
		return textencoding.MacRomanEncoding
	default:
		return textencoding.StandardEncoding
	}
}

// differences reads an /Encoding dictionary's Differences array: an
// integer sets the current code, each following name assigns a glyph to
// the current code and increments it.
func differences(doc *core.Document, encDict *core.Dict) map[byte]string {
	arr, ok := doc.ResolveArray(encDict.Get("Differences"))
	if !ok {
		return nil
	}
	out := make(map[byte]string)
	code := 0
	for _, el := range arr.Elements {
		switch v := doc.Resolve(el).(type) {
		case core.Integer:
			code = int(v)
		case core.Name:
			if code >= 0 && code < 256 {
				out[byte(code)] = string(v)
			}
			code++
		}
	}
	return out
}

func sortedRunes(set map[rune]bool) []rune {
	out := make([]rune, 0, len(set))
	for r := range set {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

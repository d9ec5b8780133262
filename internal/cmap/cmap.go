/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

// Package cmap parses the CMap text format (Adobe's "CID font to Unicode"
// grammar) well enough to read a font's embedded ToUnicode stream. Only
// the read path is implemented: pdfshrink never writes CMaps and never
// looks one up by name, it only parses the bytes of the ToUnicode stream
// already attached to a font dict.
package cmap

import (
	"sort"
	"strings"

	"github.com/khawkins98/pdfshrink/common"
)

const (
	// Maximum number of possible bytes per code.
	maxCodeLen = 4

	// MissingCodeRune replaces runes that can't be decoded. '�' = �.
	MissingCodeRune = '�'

	// MissingCodeString replaces strings that can't be decoded.
	MissingCodeString = string(MissingCodeRune)
)

// CharCode is a character code or CID.
type CharCode uint32

// Codespace represents a single codespace range used in the CMap.
type Codespace struct {
	NumBytes int
	Low      CharCode
	High     CharCode
}

// CMap represents a character code to Unicode (or CID) mapping, as found in
// a font's ToUnicode stream.
type CMap struct {
	tokens *tokenReader

	nbits   int // 8 bits for simple fonts, 16 bits for CID fonts.
	usecmap string

	codespaces []Codespace

	codeToCID map[CharCode]CharCode
	cidToCode map[CharCode]CharCode

	codeToUnicode map[CharCode]string
	unicodeToCode map[string]CharCode
}

// newCMap returns an initialized CMap.
func newCMap(isSimple bool) *CMap {
	nbits := 16
	if isSimple {
		nbits = 8
	}
	return &CMap{
		nbits:         nbits,
		codeToCID:     make(map[CharCode]CharCode),
		cidToCode:     make(map[CharCode]CharCode),
		codeToUnicode: make(map[CharCode]string),
		unicodeToCode: make(map[string]CharCode),
	}
}

// LoadCmapFromDataCID parses the in-memory cmap `data` and returns the
// resulting CMap, using the codespaces declared in the data (CID fonts).
func LoadCmapFromDataCID(data []byte) (*CMap, error) {
	return LoadCmapFromData(data, false)
}

// LoadCmapFromData parses the in-memory cmap `data` and returns the
// resulting CMap. If `isSimple` is true, it uses 1-byte encodings,
// otherwise it uses the codespaces declared in the cmap (PDF32000 9.10.3,
// "ToUnicode CMaps").
func LoadCmapFromData(data []byte, isSimple bool) (*CMap, error) {
	common.Log.Trace("LoadCmapFromData: isSimple=%t", isSimple)

	cmap := newCMap(isSimple)
	cmap.tokens = newTokenReader(data)

	if err := cmap.parse(); err != nil {
		return nil, err
	}
	if len(cmap.codespaces) == 0 && cmap.usecmap == "" && len(cmap.codeToUnicode) == 0 && len(cmap.codeToCID) == 0 {
		return nil, ErrBadCMap
	}

	cmap.computeInverseMappings()
	return cmap, nil
}

func (cmap *CMap) computeInverseMappings() {
	for code, cid := range cmap.codeToCID {
		if c, ok := cmap.cidToCode[cid]; !ok || c > code {
			cmap.cidToCode[cid] = code
		}
	}
	for cid, s := range cmap.codeToUnicode {
		if c, ok := cmap.unicodeToCode[s]; !ok || c > cid {
			cmap.unicodeToCode[s] = cid
		}
	}
	sort.Slice(cmap.codespaces, func(i, j int) bool {
		return cmap.codespaces[i].Low < cmap.codespaces[j].Low
	})
}

// CharcodeBytesToUnicode converts a byte array of charcodes to a unicode
// string representation. It also returns the count of codes that had no
// mapping.
func (cmap *CMap) CharcodeBytesToUnicode(data []byte) (string, int) {
	charcodes, matched := cmap.BytesToCharcodes(data)
	if !matched {
		return "", 0
	}

	parts := make([]string, len(charcodes))
	var missing int
	for i, code := range charcodes {
		s, ok := cmap.codeToUnicode[code]
		if !ok {
			missing++
			s = MissingCodeString
		}
		parts[i] = s
	}
	return strings.Join(parts, ""), missing
}

// CharcodeToUnicode converts a single character code `code` to a unicode
// string. If `code` is not in the unicode map, '�' is returned.
func (cmap *CMap) CharcodeToUnicode(code CharCode) (string, bool) {
	if s, ok := cmap.codeToUnicode[code]; ok {
		return s, true
	}
	return MissingCodeString, false
}

// CharcodeToCID maps a character code to a CID via the cmap's cidrange
// sections, when present.
func (cmap *CMap) CharcodeToCID(code CharCode) (CharCode, bool) {
	cid, ok := cmap.codeToCID[code]
	return cid, ok
}

// BytesToCharcodes attempts to convert the entire byte array `data` to a
// list of character codes from the ranges specified by `cmap`'s codespaces.
// A partial list is returned if a complete match is not possible.
func (cmap *CMap) BytesToCharcodes(data []byte) ([]CharCode, bool) {
	var charcodes []CharCode
	if cmap.nbits == 8 {
		for _, b := range data {
			charcodes = append(charcodes, CharCode(b))
		}
		return charcodes, true
	}
	for i := 0; i < len(data); {
		code, n, matched := cmap.matchCode(data[i:])
		if !matched {
			return charcodes, false
		}
		charcodes = append(charcodes, code)
		i += n
	}
	return charcodes, true
}

// NBits returns 8 for simple-font CMaps and 16 for CID-font CMaps.
func (cmap *CMap) NBits() int { return cmap.nbits }

func (cmap *CMap) matchCode(data []byte) (code CharCode, n int, matched bool) {
	for j := 0; j < maxCodeLen; j++ {
		if j < len(data) {
			code = code<<8 | CharCode(data[j])
			n++
		}
		if cmap.inCodespace(code, j+1) {
			return code, n, true
		}
	}
	if len(cmap.codespaces) == 0 && len(data) >= 2 {
		// No declared codespace (common in hand-rolled ToUnicode streams):
		// fall back to 2-byte codes, matching nbits=16's usual shape.
		return CharCode(data[0])<<8 | CharCode(data[1]), 2, true
	}
	return 0, 0, false
}

func (cmap *CMap) inCodespace(code CharCode, numBytes int) bool {
	for _, cs := range cmap.codespaces {
		if cs.Low <= code && code <= cs.High && numBytes == cs.NumBytes {
			return true
		}
	}
	return false
}

/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package textencoding

import "github.com/khawkins98/pdfshrink/internal/cmap"

// BaseEncoding identifies the 8-bit base table a simple font's /Encoding
// entry selects before any /Differences are applied.
type BaseEncoding int

const (
	// StandardEncoding is Adobe's original Type1 encoding; fonts that name
	// no base encoding in an /Encoding dictionary start from it.
	StandardEncoding BaseEncoding = iota
	WinAnsiEncoding
	MacRomanEncoding
)

// SimpleFontEncoding resolves a simple (8-bit) font's code space to glyph
// names: a base table (Standard/WinAnsi/MacRoman) with an optional
// /Differences overlay.
type SimpleFontEncoding struct {
	base        SimpleTable
	differences map[byte]string
}

// NewSimpleFontEncoding builds a resolver for the given base encoding and
// an optional set of /Differences overrides (code -> glyph name).
func NewSimpleFontEncoding(base BaseEncoding, differences map[byte]string) *SimpleFontEncoding {
	var table SimpleTable
	switch base {
	case WinAnsiEncoding:
		table = BuildWinAnsi()
	case MacRomanEncoding:
		table = BuildMacRoman()
	default:
		table = BuildStandardEncoding()
	}
	return &SimpleFontEncoding{base: table, differences: differences}
}

// GlyphName returns the glyph name assigned to byte code `b`, preferring a
// /Differences override over the base table.
func (e *SimpleFontEncoding) GlyphName(b byte) (string, bool) {
	if e.differences != nil {
		if name, ok := e.differences[b]; ok {
			return name, true
		}
	}
	name := e.base[b]
	if name == "" {
		return "", false
	}
	return name, true
}

// ToUnicode resolves byte code `b` to a Unicode string, trying the
// font's embedded ToUnicode CMap first and falling back to the
// glyph-name chain (Differences/base-encoding -> Adobe Glyph List).
//
// An explicit ToUnicode mapping always wins, since it
// reflects the document author's actual intent for that code, and the
// built-in encoding is only a fallback for untagged text.
func (e *SimpleFontEncoding) ToUnicode(b byte, toUnicode *cmap.CMap) (string, bool) {
	if toUnicode != nil {
		if s, ok := toUnicode.CharcodeToUnicode(cmap.CharCode(b)); ok {
			return s, true
		}
	}
	name, ok := e.GlyphName(b)
	if !ok {
		return "", false
	}
	r, ok := GlyphToRune(name)
	if !ok {
		return "", false
	}
	return string(r), true
}

// Type0Encoding resolves a composite (Type0) font's multi-byte codes to
// Unicode. pdfshrink never decodes CID->GID mappings for layout purposes;
// it only needs Unicode text for subsetting decisions, so the only
// supported path is a font carrying its own ToUnicode CMap. IsIdentityH
// records whether the font's /Encoding name is exactly "Identity-H",
// which decides whether GID-keyed subsetting is even attemptable.
type Type0Encoding struct {
	IsIdentityH bool
	toUnicode   *cmap.CMap
}

// NewType0Encoding builds a resolver for a composite font given its
// declared /Encoding CMap name and parsed ToUnicode CMap (nil if absent).
func NewType0Encoding(encodingName string, toUnicode *cmap.CMap) *Type0Encoding {
	return &Type0Encoding{
		IsIdentityH: encodingName == "Identity-H",
		toUnicode:   toUnicode,
	}
}

// ToUnicode decodes the 2-byte-code-at-a-time text in `data` to a Unicode
// string, returning the count of codes with no ToUnicode entry. A font
// with no ToUnicode stream at all cannot be resolved (returns ok=false);
// the subsetting pass treats that as ineligible for Unicode-driven
// subsetting.
func (e *Type0Encoding) ToUnicode(data []byte) (text string, missing int, ok bool) {
	if e.toUnicode == nil {
		return "", 0, false
	}
	text, missing = e.toUnicode.CharcodeBytesToUnicode(data)
	return text, missing, true
}

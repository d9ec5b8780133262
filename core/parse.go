/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package core

import (
	"fmt"
)

// Parse reads a PDF byte sequence into a Document. Rather than trusting
// the cross-reference table, it scans the whole buffer for "N G obj"
// markers, parses each object body directly, and expands any compressed
// object streams it finds. This sidesteps an entire class of xref
// corruption a table-driven parser would choke on, at the cost of never
// reading an object only reachable through a well-formed xref table that
// the brute-force scan happens to miss, a trade made deliberately since
// the engine always round-trips its own output.
//
// Encrypted documents are rejected with ErrUnreadableInput.
func Parse(data []byte) (*Document, error) {
	if len(data) < 5 || string(data[:5]) != "%PDF-" {
		return nil, fmt.Errorf("%w: missing %%PDF- header", ErrUnreadableInput)
	}

	doc := NewDocument()
	type objLoc struct {
		ref Ref
		pos int
	}
	var locs []objLoc

	for i := 0; i < len(data); i++ {
		num, gen, next, ok := scanObjHeader(data, i)
		if !ok {
			continue
		}
		i = next - 1 // loop increment advances past "obj"
		l := newLexer(data, next)
		l.skipWhitespaceAndComments()
		obj, err := l.parseObject()
		if err != nil {
			continue
		}
		ref := Ref{Num: num, Gen: gen}
		doc.Assign(ref, obj)
		locs = append(locs, objLoc{ref: ref, pos: i})
	}

	if doc.Len() == 0 {
		return nil, fmt.Errorf("%w: no indirect objects found", ErrUnreadableInput)
	}

	if err := expandObjectStreams(doc); err != nil {
		return nil, err
	}

	if err := recoverTrailer(doc, data); err != nil {
		return nil, err
	}

	if doc.Trailer.Get("Encrypt") != nil {
		return nil, fmt.Errorf("%w: document is encrypted", ErrUnreadableInput)
	}

	return doc, nil
}

// scanObjHeader checks whether data[i:] begins a "<num> <gen> obj" token; it
// returns the parsed numbers and the offset immediately after "obj".
func scanObjHeader(data []byte, i int) (num, gen int64, next int, ok bool) {
	j := i
	numStart := j
	for j < len(data) && IsDecimalDigit(data[j]) {
		j++
	}
	if j == numStart {
		return 0, 0, 0, false
	}
	num = parseIntSafe(string(data[numStart:j]))
	k := j
	if k >= len(data) || !IsWhiteSpace(data[k]) {
		return 0, 0, 0, false
	}
	for k < len(data) && IsWhiteSpace(data[k]) {
		k++
	}
	genStart := k
	for k < len(data) && IsDecimalDigit(data[k]) {
		k++
	}
	if k == genStart {
		return 0, 0, 0, false
	}
	gen = parseIntSafe(string(data[genStart:k]))
	m := k
	for m < len(data) && IsWhiteSpace(data[m]) {
		m++
	}
	if m+3 > len(data) || string(data[m:m+3]) != "obj" {
		return 0, 0, 0, false
	}
	return num, gen, m + 3, true
}

// expandObjectStreams decodes every ObjStm found among the brute-force-scanned
// objects and registers the objects it contains, overriding any
// brute-force hit for the same object number (a compressed object stream
// always wins over a stray "N G obj" match inside its own encoded payload).
func expandObjectStreams(doc *Document) error {
	for _, ref := range doc.Refs() {
		s, ok := GetStream(doc.objects[ref])
		if !ok {
			continue
		}
		typ, _ := GetName(s.Get("Type"))
		if typ != "ObjStm" {
			continue
		}
		raw, err := doc.DecodeStream(s)
		if err != nil {
			continue
		}
		n, _ := GetIntVal(s.Get("N"))
		first, _ := GetIntVal(s.Get("First"))
		hl := newLexer(raw, 0)
		pairs := make([][2]int64, 0, n)
		for i := int64(0); i < n; i++ {
			hl.skipWhitespaceAndComments()
			numObj, err := hl.parseNumberOrReference()
			if err != nil {
				break
			}
			objNum, _ := GetIntVal(numObj)
			hl.skipWhitespaceAndComments()
			offObj, err := hl.parseNumberOrReference()
			if err != nil {
				break
			}
			off, _ := GetIntVal(offObj)
			pairs = append(pairs, [2]int64{objNum, off})
		}
		for _, p := range pairs {
			pos := int(first + p[1])
			if pos < 0 || pos >= len(raw) {
				continue
			}
			ol := newLexer(raw, pos)
			ol.skipWhitespaceAndComments()
			obj, err := ol.parseObject()
			if err != nil {
				continue
			}
			doc.Assign(Ref{Num: p[0], Gen: 0}, obj)
		}
	}
	return nil
}

// recoverTrailer locates the document trailer: the classic "trailer <<...>>"
// keyword if present, otherwise the dictionary of an XRef stream object (an
// xref stream's own dict doubles as the trailer), otherwise a best-effort
// fallback that hunts for the catalog directly.
func recoverTrailer(doc *Document, data []byte) error {
	if idx := lastIndexOf(data, "trailer"); idx >= 0 {
		l := newLexer(data, idx+len("trailer"))
		l.skipWhitespaceAndComments()
		if obj, err := l.parseObject(); err == nil {
			if d, ok := GetDict(obj); ok {
				doc.Trailer = d
				if doc.Catalog() != nil {
					return nil
				}
			}
		}
	}

	for _, ref := range doc.Refs() {
		s, ok := GetStream(doc.objects[ref])
		if !ok {
			continue
		}
		if typ, _ := GetName(s.Get("Type")); typ == "XRef" {
			doc.Trailer = s.Dict.Clone()
			doc.Trailer.Delete("Length")
			doc.Trailer.Delete("Filter")
			doc.Trailer.Delete("DecodeParms")
			doc.Trailer.Delete("W")
			doc.Trailer.Delete("Index")
			doc.Trailer.Delete("Type")
			if doc.Catalog() != nil {
				return nil
			}
		}
	}

	for _, ref := range doc.Refs() {
		d, ok := GetDict(doc.objects[ref])
		if !ok {
			continue
		}
		if typ, _ := GetName(d.Get("Type")); typ == "Catalog" {
			doc.Trailer.Set("Root", ref)
			return nil
		}
	}

	return fmt.Errorf("%w: no document catalog found", ErrUnreadableInput)
}

func lastIndexOf(haystack []byte, needle string) int {
	n := len(needle)
	for i := len(haystack) - n; i >= 0; i-- {
		if string(haystack[i:i+n]) == needle {
			return i
		}
	}
	return -1
}

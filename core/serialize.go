/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package core

import (
	"bytes"
	"fmt"
)

// SerializeOptions controls physical file layout, independent of the
// object-graph semantics every pass operates on.
type SerializeOptions struct {
	// UseObjectStreams emits a compact compressed xref (object streams plus
	// a cross-reference stream) instead of a classic xref table. The
	// pipeline sets this false automatically for PDF/A-1 input, since that
	// conformance level forbids object streams.
	UseObjectStreams bool

	// UpdateFieldAppearances is accepted for interface parity with hosts
	// that regenerate AcroForm appearances on save. The engine never
	// mutates AcroForm, so it has no effect here.
	UpdateFieldAppearances bool
}

// Serialize writes doc as a conventional PDF byte sequence. With
// UseObjectStreams, every non-stream indirect object is packed into a
// single compressed ObjStm and located through a cross-reference stream;
// otherwise a classic xref table plus trailer dictionary is emitted.
func (doc *Document) Serialize(opts SerializeOptions) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xE2\xE3\xCF\xD3\n")

	refs := doc.Refs()
	maxNum := int64(0)
	for _, r := range refs {
		if r.Num > maxNum {
			maxNum = r.Num
		}
	}

	offsets := make(map[Ref]int64, len(refs))

	if !opts.UseObjectStreams {
		for _, ref := range refs {
			offsets[ref] = int64(buf.Len())
			writeIndirectObject(&buf, ref, doc.objects[ref])
		}
		return finishClassic(&buf, doc, offsets, maxNum)
	}

	// Compressed layout: pack every non-stream object into one ObjStm.
	var objStmBody bytes.Buffer
	var header bytes.Buffer
	type compressedLoc struct {
		ref   Ref
		index int64
	}
	var compressed []compressedLoc
	var direct []Ref

	idx := int64(0)
	for _, ref := range refs {
		if _, isStream := doc.objects[ref].(*Stream); isStream {
			direct = append(direct, ref)
			continue
		}
		fmt.Fprintf(&header, "%d %d ", ref.Num, objStmBody.Len())
		objStmBody.WriteString(doc.objects[ref].WriteString())
		objStmBody.WriteByte(' ')
		compressed = append(compressed, compressedLoc{ref: ref, index: idx})
		idx++
	}

	objStmRef := Ref{Num: maxNum + 1, Gen: 0}
	xrefRef := Ref{Num: maxNum + 2, Gen: 0}

	objStm := MakeStream(nil)
	objStm.Set("Type", Name("ObjStm"))
	objStm.Set("N", Integer(int64(len(compressed))))
	objStm.Set("First", Integer(int64(header.Len())))
	if err := ReplaceWithFlate(objStm, append(header.Bytes(), objStmBody.Bytes()...)); err != nil {
		return nil, fmt.Errorf("compressing object stream: %w", err)
	}

	offsets[objStmRef] = int64(buf.Len())
	writeIndirectObject(&buf, objStmRef, objStm)

	for _, ref := range direct {
		offsets[ref] = int64(buf.Len())
		writeIndirectObject(&buf, ref, doc.objects[ref])
	}

	xrefOffset := int64(buf.Len())

	// Build the cross-reference stream body: one 9-byte entry (1+4+4) per
	// object number from 0..maxNum+2, type 0 (free), 1 (classic offset), or
	// 2 (index within an object stream).
	locByNum := make(map[int64]interface{}) // Ref or (objStmRef,index)
	for _, r := range direct {
		locByNum[r.Num] = r
	}
	for _, c := range compressed {
		locByNum[c.ref.Num] = c
	}

	var xrefBody bytes.Buffer
	writeEntry := func(typ byte, a, b uint32) {
		xrefBody.WriteByte(typ)
		xrefBody.Write([]byte{byte(a >> 24), byte(a >> 16), byte(a >> 8), byte(a)})
		xrefBody.Write([]byte{byte(b >> 24), byte(b >> 16), byte(b >> 8), byte(b)})
	}
	writeEntry(0, 0, 0xFFFF)
	for n := int64(1); n <= maxNum+2; n++ {
		switch v := locByNum[n].(type) {
		case Ref:
			if n == objStmRef.Num {
				writeEntry(1, uint32(offsets[objStmRef]), 0)
				continue
			}
			writeEntry(1, uint32(offsets[v]), uint32(v.Gen))
		case compressedLoc:
			writeEntry(2, uint32(objStmRef.Num), uint32(v.index))
		default:
			if n == objStmRef.Num {
				writeEntry(1, uint32(offsets[objStmRef]), 0)
			} else if n == xrefRef.Num {
				writeEntry(1, uint32(xrefOffset), 0)
			} else {
				writeEntry(0, 0, 0)
			}
		}
	}

	xrefDict := MakeDict()
	xrefDict.Set("Type", Name("XRef"))
	xrefDict.Set("Size", Integer(maxNum+3))
	xrefDict.Set("W", MakeArray(Integer(1), Integer(4), Integer(4)))
	xrefDict.Set("Root", doc.Trailer.Get("Root"))
	if info := doc.Trailer.Get("Info"); info != nil {
		xrefDict.Set("Info", info)
	}
	if id := doc.Trailer.Get("ID"); id != nil {
		xrefDict.Set("ID", id)
	}
	xrefStream := &Stream{Dict: xrefDict, Data: xrefBody.Bytes()}
	xrefDict.Set("Length", Integer(int64(len(xrefBody.Bytes()))))

	fmt.Fprintf(&buf, "%d %d obj\n", xrefRef.Num, xrefRef.Gen)
	buf.WriteString(xrefStream.WriteString())
	buf.WriteString("\nendobj\n")

	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF", xrefOffset)
	return buf.Bytes(), nil
}

func writeIndirectObject(buf *bytes.Buffer, ref Ref, obj Object) {
	fmt.Fprintf(buf, "%d %d obj\n", ref.Num, ref.Gen)
	buf.WriteString(obj.WriteString())
	buf.WriteString("\nendobj\n")
}

func finishClassic(buf *bytes.Buffer, doc *Document, offsets map[Ref]int64, maxNum int64) ([]byte, error) {
	xrefOffset := int64(buf.Len())
	fmt.Fprintf(buf, "xref\n0 %d\n", maxNum+1)
	buf.WriteString("0000000000 65535 f \n")
	for n := int64(1); n <= maxNum; n++ {
		ref, ok := resolveRefForNum(doc, n, offsets)
		if !ok {
			fmt.Fprintf(buf, "0000000000 00000 f \n")
			continue
		}
		fmt.Fprintf(buf, "%010d %05d n \n", offsets[ref], ref.Gen)
	}

	trailer := doc.Trailer.Clone()
	trailer.Set("Size", Integer(maxNum+1))
	buf.WriteString("trailer\n")
	buf.WriteString(trailer.WriteString())
	fmt.Fprintf(buf, "\nstartxref\n%d\n%%%%EOF", xrefOffset)
	return buf.Bytes(), nil
}

func resolveRefForNum(doc *Document, num int64, offsets map[Ref]int64) (Ref, bool) {
	// Generation is almost always 0 in this engine (no incremental update
	// support); look it up among the refs actually present.
	for ref := range offsets {
		if ref.Num == num {
			return ref, true
		}
	}
	_ = doc
	return Ref{}, false
}

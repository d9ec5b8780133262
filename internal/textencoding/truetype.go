/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package textencoding

import "encoding/binary"

// HasCmapTable reports whether a raw TrueType/OpenType font program
// (the bytes of a FontFile2 or OpenType-flavored FontFile3 stream)
// declares a "cmap" table, by walking its sfnt table directory.
//
// The subsetting pass uses this to decide whether GID-keyed subsetting
// can proceed without rebuilding a cmap: unitype's subsetter preserves the
// glyph index space, so a font lacking a cmap (as most embedded
// subsets already do) is always eligible; one that still carries a
// cmap needs it checked for consistency by the caller before trusting
// GID-based glyph selection.
func HasCmapTable(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	numTables := int(binary.BigEndian.Uint16(data[4:6]))
	const entrySize = 16
	const dirOffset = 12
	need := dirOffset + numTables*entrySize
	if len(data) < need {
		return false
	}
	for i := 0; i < numTables; i++ {
		off := dirOffset + i*entrySize
		tag := string(data[off : off+4])
		if tag == "cmap" {
			return true
		}
	}
	return false
}

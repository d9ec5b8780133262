/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package model

// standard14 is the set of base font names every conforming reader must
// render without an embedded program.
var standard14 = map[string]bool{
	"Helvetica":             true,
	"Helvetica-Bold":        true,
	"Helvetica-Oblique":     true,
	"Helvetica-BoldOblique": true,
	"Times-Roman":           true,
	"Times-Italic":          true,
	"Times-Bold":            true,
	"Times-BoldItalic":      true,
	"Courier":               true,
	"Courier-Bold":          true,
	"Courier-Oblique":       true,
	"Courier-BoldOblique":   true,
	"Symbol":                true,
	"ZapfDingbats":          true,
}

// IsStandard14 reports whether name (after subset-prefix stripping) is one
// of the 14 standard faces.
func IsStandard14(name string) bool {
	return standard14[StripSubsetPrefix(name)]
}

// HasSubsetPrefix reports whether a BaseFont name carries the six
// uppercase letters plus '+' marker of an already-subsetted face.
func HasSubsetPrefix(name string) bool {
	if len(name) < 7 || name[6] != '+' {
		return false
	}
	for i := 0; i < 6; i++ {
		if name[i] < 'A' || name[i] > 'Z' {
			return false
		}
	}
	return true
}

// StripSubsetPrefix removes the subset prefix, if any.
func StripSubsetPrefix(name string) string {
	if HasSubsetPrefix(name) {
		return name[7:]
	}
	return name
}

/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package model

import (
	"regexp"
	"strings"
)

// XMP recognition is deliberately regex-level: the probe needs five fields
// out of a metadata packet that is frequently malformed in the wild, and a
// packet that does not parse must yield null fields, never an error. Each
// field is matched in both its element form (<pdfaid:part>1</pdfaid:part>)
// and its attribute form (pdfaid:part="1").
var (
	rePDFAPart        = xmpField("pdfaid:part")
	rePDFAConformance = xmpField("pdfaid:conformance")
	rePDFUAPart       = xmpField("pdfuaid:part")
	reXMLLang         = regexp.MustCompile(`xml:lang\s*=\s*["']([^"']+)["']`)
	reDCLanguage      = regexp.MustCompile(`(?s)<dc:language[^>]*>.*?<rdf:li[^>]*>\s*([^<\s]+)\s*</rdf:li>`)
	reLangLiteral     = regexp.MustCompile(`^[A-Za-z]{2,3}(-[A-Za-z0-9-]+)?$`)
)

func xmpField(name string) *regexp.Regexp {
	q := regexp.QuoteMeta(name)
	return regexp.MustCompile(`(?:<` + q + `[^>]*>\s*([^<\s]+)\s*</` + q + `>|` + q + `\s*=\s*["']([^"']+)["'])`)
}

func xmpMatch(re *regexp.Regexp, data []byte) string {
	m := re.FindSubmatch(data)
	if m == nil {
		return ""
	}
	for _, g := range m[1:] {
		if len(g) > 0 {
			return string(g)
		}
	}
	return ""
}

// xmpPDFA extracts the declared PDF/A part and conformance, rendered as the
// compact level string ("1B", "2A", ...). Empty when the packet declares
// no pdfaid:part.
func xmpPDFA(data []byte) (level string, ok bool) {
	part := xmpMatch(rePDFAPart, data)
	if part == "" {
		return "", false
	}
	conf := strings.ToUpper(xmpMatch(rePDFAConformance, data))
	return part + conf, true
}

// xmpPDFUA reports whether the packet declares a pdfuaid:part.
func xmpPDFUA(data []byte) bool {
	return xmpMatch(rePDFUAPart, data) != ""
}

// XMPLanguage extracts a document language from an XMP packet: the
// dc:language bag's first rdf:li wins, falling back to any xml:lang
// attribute that is not the "x-default" placeholder. Only values shaped
// like a BCP 47-ish tag ([A-Za-z]{2,3} with optional subtags) are
// accepted.
func XMPLanguage(data []byte) string {
	if m := reDCLanguage.FindSubmatch(data); m != nil {
		if lang := string(m[1]); acceptLang(lang) {
			return lang
		}
	}
	for _, m := range reXMLLang.FindAllSubmatch(data, -1) {
		lang := string(m[1])
		if lang == "x-default" {
			continue
		}
		if acceptLang(lang) {
			return lang
		}
	}
	return ""
}

func acceptLang(s string) bool {
	return s != "x-default" && reLangLiteral.MatchString(s)
}

/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package core

import (
	"fmt"
)

// lexer is a minimal recursive-descent reader for the PDF object grammar,
// shared by the file-level parser (objects, xref, trailer) and reused in
// shape by the content-stream tokenizer in package contentstream: the same
// symbols.go character classes and the same escape handling for literal
// and hex strings, targeting core.Object/core.Ref.
type lexer struct {
	data []byte
	pos  int
}

func newLexer(data []byte, pos int) *lexer { return &lexer{data: data, pos: pos} }

func (l *lexer) eof() bool { return l.pos >= len(l.data) }

func (l *lexer) peek() byte {
	if l.eof() {
		return 0
	}
	return l.data[l.pos]
}

func (l *lexer) peekAt(off int) byte {
	if l.pos+off >= len(l.data) {
		return 0
	}
	return l.data[l.pos+off]
}

func (l *lexer) skipWhitespaceAndComments() {
	for !l.eof() {
		c := l.peek()
		if IsWhiteSpace(c) {
			l.pos++
			continue
		}
		if c == '%' {
			for !l.eof() && l.peek() != '\r' && l.peek() != '\n' {
				l.pos++
			}
			continue
		}
		break
	}
}

// parseObject parses the next PDF primitive at the current position.
func (l *lexer) parseObject() (Object, error) {
	l.skipWhitespaceAndComments()
	if l.eof() {
		return nil, fmt.Errorf("unexpected end of input")
	}
	switch c := l.peek(); {
	case c == '/':
		return l.parseName()
	case c == '(':
		return l.parseLiteralString()
	case c == '<':
		if l.peekAt(1) == '<' {
			return l.parseDictOrStream()
		}
		return l.parseHexString()
	case c == '[':
		return l.parseArray()
	case c == 't' || c == 'f':
		return l.parseBool()
	case c == 'n':
		return l.parseNull()
	case c == '+' || c == '-' || c == '.' || IsDecimalDigit(c):
		return l.parseNumberOrReference()
	default:
		return nil, fmt.Errorf("unexpected character %q at offset %d", c, l.pos)
	}
}

func (l *lexer) parseName() (Object, error) {
	l.pos++ // consume '/'
	var b []byte
	for !l.eof() {
		c := l.peek()
		if IsWhiteSpace(c) || IsDelimiter(c) {
			break
		}
		if c == '#' && IsHexDigit(l.peekAt(1)) && IsHexDigit(l.peekAt(2)) {
			b = append(b, hexVal(l.peekAt(1))<<4|hexVal(l.peekAt(2)))
			l.pos += 3
			continue
		}
		b = append(b, c)
		l.pos++
	}
	return Name(b), nil
}

func (l *lexer) parseLiteralString() (Object, error) {
	l.pos++ // consume '('
	depth := 1
	var b []byte
	for !l.eof() && depth > 0 {
		c := l.data[l.pos]
		switch c {
		case '(':
			depth++
			b = append(b, c)
			l.pos++
		case ')':
			depth--
			l.pos++
			if depth > 0 {
				b = append(b, c)
			}
		case '\\':
			l.pos++
			if l.eof() {
				break
			}
			e := l.data[l.pos]
			switch e {
			case 'n':
				b = append(b, '\n')
				l.pos++
			case 'r':
				b = append(b, '\r')
				l.pos++
			case 't':
				b = append(b, '\t')
				l.pos++
			case 'b':
				b = append(b, '\b')
				l.pos++
			case 'f':
				b = append(b, '\f')
				l.pos++
			case '(', ')', '\\':
				b = append(b, e)
				l.pos++
			case '\r':
				l.pos++
				if l.peek() == '\n' {
					l.pos++
				}
			case '\n':
				l.pos++
			default:
				if IsOctalDigit(e) {
					val := 0
					for i := 0; i < 3 && IsOctalDigit(l.peek()); i++ {
						val = val*8 + int(l.peek()-'0')
						l.pos++
					}
					b = append(b, byte(val))
				} else {
					b = append(b, e)
					l.pos++
				}
			}
		default:
			b = append(b, c)
			l.pos++
		}
	}
	return &String{Value: b}, nil
}

func (l *lexer) parseHexString() (Object, error) {
	l.pos++ // consume '<'
	var digits []byte
	for !l.eof() && l.peek() != '>' {
		c := l.peek()
		if IsWhiteSpace(c) {
			l.pos++
			continue
		}
		digits = append(digits, c)
		l.pos++
	}
	if !l.eof() {
		l.pos++ // consume '>'
	}
	if len(digits)%2 != 0 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	for i := range out {
		out[i] = hexVal(digits[2*i])<<4 | hexVal(digits[2*i+1])
	}
	return &String{Value: out, Hex: true}, nil
}

func (l *lexer) parseArray() (Object, error) {
	l.pos++ // consume '['
	arr := &Array{}
	for {
		l.skipWhitespaceAndComments()
		if l.eof() {
			return nil, fmt.Errorf("unterminated array")
		}
		if l.peek() == ']' {
			l.pos++
			return arr, nil
		}
		obj, err := l.parseObject()
		if err != nil {
			return nil, err
		}
		arr.Elements = append(arr.Elements, obj)
	}
}

func (l *lexer) parseBool() (Object, error) {
	if l.matchKeyword("true") {
		return Boolean(true), nil
	}
	if l.matchKeyword("false") {
		return Boolean(false), nil
	}
	return nil, fmt.Errorf("invalid boolean literal at offset %d", l.pos)
}

func (l *lexer) parseNull() (Object, error) {
	if l.matchKeyword("null") {
		return Null{}, nil
	}
	return nil, fmt.Errorf("invalid null literal at offset %d", l.pos)
}

func (l *lexer) matchKeyword(kw string) bool {
	if l.pos+len(kw) > len(l.data) {
		return false
	}
	if string(l.data[l.pos:l.pos+len(kw)]) != kw {
		return false
	}
	l.pos += len(kw)
	return true
}

// parseNumberOrReference disambiguates "N", "N.N", and the two-token
// lookahead "N G R" reference form.
func (l *lexer) parseNumberOrReference() (Object, error) {
	start := l.pos
	isFloat := false
	if l.peek() == '+' || l.peek() == '-' {
		l.pos++
	}
	for !l.eof() && (IsDecimalDigit(l.peek()) || l.peek() == '.') {
		if l.peek() == '.' {
			isFloat = true
		}
		l.pos++
	}
	numTxt := string(l.data[start:l.pos])

	if !isFloat {
		// Lookahead for "G R" / "G obj".
		save := l.pos
		l.skipWhitespaceAndComments()
		genStart := l.pos
		for !l.eof() && IsDecimalDigit(l.peek()) {
			l.pos++
		}
		if l.pos > genStart {
			genTxt := string(l.data[genStart:l.pos])
			afterGen := l.pos
			l.skipWhitespaceAndComments()
			if !l.eof() && l.peek() == 'R' && !isRegularChar(l.peekAt(1)) {
				l.pos++
				num := parseIntSafe(numTxt)
				gen := parseIntSafe(genTxt)
				return Ref{Num: num, Gen: gen}, nil
			}
			_ = afterGen
		}
		l.pos = save
	}
	return parseNumberToken(numTxt), nil
}

func isRegularChar(c byte) bool {
	return !IsWhiteSpace(c) && !IsDelimiter(c)
}

func parseIntSafe(s string) int64 {
	var v int64
	neg := false
	for i, c := range []byte(s) {
		if i == 0 && (c == '+' || c == '-') {
			neg = c == '-'
			continue
		}
		if c < '0' || c > '9' {
			break
		}
		v = v*10 + int64(c-'0')
	}
	if neg {
		v = -v
	}
	return v
}

func parseNumberToken(s string) Object {
	hasDot := false
	for _, c := range s {
		if c == '.' {
			hasDot = true
			break
		}
	}
	if !hasDot {
		return Integer(parseIntSafe(s))
	}
	var f float64
	neg := false
	intPart := true
	frac := 0.1
	for i := 0; i < len(s); i++ {
		c := s[i]
		if i == 0 && (c == '+' || c == '-') {
			neg = c == '-'
			continue
		}
		if c == '.' {
			intPart = false
			continue
		}
		if c < '0' || c > '9' {
			continue
		}
		if intPart {
			f = f*10 + float64(c-'0')
		} else {
			f += float64(c-'0') * frac
			frac /= 10
		}
	}
	if neg {
		f = -f
	}
	return Float(f)
}

// parseDictOrStream parses a "<< ... >>" dictionary, then checks for a
// following "stream" keyword to build a Stream instead.
func (l *lexer) parseDictOrStream() (Object, error) {
	l.pos += 2 // consume '<<'
	d := MakeDict()
	for {
		l.skipWhitespaceAndComments()
		if l.eof() {
			return nil, fmt.Errorf("unterminated dictionary")
		}
		if l.peek() == '>' && l.peekAt(1) == '>' {
			l.pos += 2
			break
		}
		keyObj, err := l.parseObject()
		if err != nil {
			return nil, err
		}
		key, ok := keyObj.(Name)
		if !ok {
			return nil, fmt.Errorf("dictionary key is not a name at offset %d", l.pos)
		}
		val, err := l.parseObject()
		if err != nil {
			return nil, err
		}
		d.Set(key, val)
	}

	save := l.pos
	l.skipWhitespaceAndComments()
	if l.matchKeyword("stream") {
		// Per spec, exactly one CRLF or LF (never bare CR) follows "stream".
		if l.peek() == '\r' {
			l.pos++
		}
		if l.peek() == '\n' {
			l.pos++
		}
		length, _ := GetIntVal(d.Get("Length"))
		dataStart := l.pos
		var payload []byte
		if length > 0 && dataStart+int(length) <= len(l.data) {
			payload = l.data[dataStart : dataStart+int(length)]
			l.pos = dataStart + int(length)
			l.skipWhitespaceAndComments()
			if !l.matchKeyword("endstream") {
				// Declared Length didn't land on "endstream"; fall back to
				// scanning for the keyword instead of trusting Length.
				l.pos = dataStart
				payload = l.scanToEndstream()
			}
		} else {
			payload = l.scanToEndstream()
		}
		s := &Stream{Dict: d, Data: payload}
		s.Set("Length", Integer(int64(len(payload))))
		return s, nil
	}
	l.pos = save
	return d, nil
}

func (l *lexer) scanToEndstream() []byte {
	idx := indexOf(l.data[l.pos:], "endstream")
	if idx < 0 {
		payload := l.data[l.pos:]
		l.pos = len(l.data)
		return payload
	}
	end := l.pos + idx
	trimmed := end
	for trimmed > l.pos && (l.data[trimmed-1] == '\n' || l.data[trimmed-1] == '\r') {
		trimmed--
	}
	payload := l.data[l.pos:trimmed]
	l.pos = end
	l.matchKeyword("endstream")
	return payload
}

func indexOf(haystack []byte, needle string) int {
	n := len(needle)
	for i := 0; i+n <= len(haystack); i++ {
		if string(haystack[i:i+n]) == needle {
			return i
		}
	}
	return -1
}

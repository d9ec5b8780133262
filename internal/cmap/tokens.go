/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package cmap

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"unicode/utf16"

	"github.com/khawkins98/pdfshrink/core"
)

// CMap text is a restricted PostScript dialect. The reader below produces
// one token per call; the section parser in cmap_parser.go drives it.
type token interface{}

type tokName struct{ val string }
type tokOperand struct{ val string }
type tokString struct{ val string }
type tokInt struct{ val int64 }
type tokFloat struct{ val float64 }
type tokArray struct{ items []token }
type tokDict struct{ entries map[string]token }

// tokHex is a <...> hex string. size is the byte count of the raw
// representation, which distinguishes <00> from <0000> in codespace
// declarations.
type tokHex struct {
	size int
	data []byte
}

// charCode returns the big-endian integer value of the hex string.
func (h tokHex) charCode() CharCode {
	var code CharCode
	for _, b := range h.data {
		code = code<<8 | CharCode(b)
	}
	return code
}

// runes decodes the hex string as UTF-16BE, folding surrogate pairs into
// single runes (destinations in bfchar/bfrange are UTF-16BE per PDF 32000
// 9.10.3). A single byte is taken verbatim.
func (h tokHex) runes() []rune {
	b := h.data
	if len(b) == 1 {
		return []rune{rune(b[0])}
	}
	if len(b)%2 != 0 {
		b = append(b, 0)
	}
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = uint16(b[2*i])<<8 | uint16(b[2*i+1])
	}
	return utf16.Decode(units)
}

type tokenReader struct {
	r *bufio.Reader
}

func newTokenReader(content []byte) *tokenReader {
	return &tokenReader{r: bufio.NewReader(bytes.NewReader(content))}
}

// next returns the next token, or io.EOF at end of input. Comments are
// consumed silently.
func (t *tokenReader) next() (token, error) {
	for {
		t.skipSpaces()
		bb, err := t.r.Peek(2)
		if err != nil && len(bb) == 0 {
			return nil, err
		}
		if len(bb) == 1 {
			bb = append(bb, ' ')
		}
		switch {
		case bb[0] == '%':
			t.skipComment()
		case bb[0] == '/':
			return t.readName()
		case bb[0] == '(':
			return t.readString()
		case bb[0] == '[':
			return t.readArray()
		case bb[0] == '<' && bb[1] == '<':
			return t.readDict()
		case bb[0] == '<':
			return t.readHex()
		case core.IsDecimalDigit(bb[0]) || bb[0] == '.' ||
			((bb[0] == '-' || bb[0] == '+') && (core.IsDecimalDigit(bb[1]) || bb[1] == '.')):
			return t.readNumber()
		default:
			return t.readOperand()
		}
	}
}

func (t *tokenReader) skipSpaces() {
	for {
		bb, err := t.r.Peek(1)
		if err != nil || !core.IsWhiteSpace(bb[0]) {
			return
		}
		t.r.ReadByte()
	}
}

func (t *tokenReader) skipComment() {
	for {
		b, err := t.r.ReadByte()
		if err != nil || b == '\r' || b == '\n' {
			return
		}
	}
}

func (t *tokenReader) readName() (token, error) {
	t.r.ReadByte() // '/'
	var name []byte
	for {
		bb, err := t.r.Peek(1)
		if err != nil {
			break
		}
		c := bb[0]
		if core.IsWhiteSpace(c) || core.IsDelimiter(c) {
			break
		}
		if c == '#' {
			esc, err := t.r.Peek(3)
			if err == nil && len(esc) == 3 {
				if decoded, derr := hex.DecodeString(string(esc[1:3])); derr == nil {
					t.r.Discard(3)
					name = append(name, decoded...)
					continue
				}
			}
		}
		b, _ := t.r.ReadByte()
		name = append(name, b)
	}
	return tokName{val: string(name)}, nil
}

func (t *tokenReader) readString() (token, error) {
	t.r.ReadByte() // '('
	var out bytes.Buffer
	depth := 1
	for {
		b, err := t.r.ReadByte()
		if err != nil {
			return tokString{val: out.String()}, err
		}
		switch b {
		case '\\':
			e, err := t.r.ReadByte()
			if err != nil {
				return tokString{val: out.String()}, err
			}
			if core.IsOctalDigit(e) {
				digits := []byte{e}
				for len(digits) < 3 {
					bb, err := t.r.Peek(1)
					if err != nil || !core.IsOctalDigit(bb[0]) {
						break
					}
					d, _ := t.r.ReadByte()
					digits = append(digits, d)
				}
				code, _ := strconv.ParseUint(string(digits), 8, 32)
				out.WriteByte(byte(code))
				continue
			}
			switch e {
			case 'n':
				out.WriteByte('\n')
			case 'r':
				out.WriteByte('\r')
			case 't':
				out.WriteByte('\t')
			case 'b':
				out.WriteByte('\b')
			case 'f':
				out.WriteByte('\f')
			case '(', ')', '\\':
				out.WriteByte(e)
			}
		case '(':
			depth++
			out.WriteByte(b)
		case ')':
			depth--
			if depth == 0 {
				return tokString{val: out.String()}, nil
			}
			out.WriteByte(b)
		default:
			out.WriteByte(b)
		}
	}
}

func (t *tokenReader) readHex() (token, error) {
	t.r.ReadByte() // '<'
	var digits []byte
	for {
		b, err := t.r.ReadByte()
		if err != nil {
			return tokHex{}, err
		}
		if b == '>' {
			break
		}
		if core.IsHexDigit(b) {
			digits = append(digits, b)
		}
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	data, _ := hex.DecodeString(string(digits))
	return tokHex{size: len(data), data: data}, nil
}

func (t *tokenReader) readArray() (token, error) {
	t.r.ReadByte() // '['
	var items []token
	for {
		t.skipSpaces()
		bb, err := t.r.Peek(1)
		if err != nil {
			return tokArray{items: items}, err
		}
		if bb[0] == ']' {
			t.r.ReadByte()
			return tokArray{items: items}, nil
		}
		item, err := t.next()
		if err != nil {
			return tokArray{items: items}, err
		}
		items = append(items, item)
	}
}

func (t *tokenReader) readDict() (token, error) {
	t.r.Discard(2) // '<<'
	entries := make(map[string]token)
	for {
		t.skipSpaces()
		bb, err := t.r.Peek(2)
		if err != nil {
			return tokDict{entries: entries}, err
		}
		if bb[0] == '>' && bb[1] == '>' {
			t.r.Discard(2)
			return tokDict{entries: entries}, nil
		}
		keyTok, err := t.next()
		if err != nil {
			return tokDict{entries: entries}, err
		}
		key, ok := keyTok.(tokName)
		if !ok {
			return tokDict{entries: entries}, ErrBadCMapDict
		}
		val, err := t.next()
		if err != nil {
			return tokDict{entries: entries}, err
		}
		entries[key.val] = val
		// "def" optionally trails dictionary entries in CMap text.
		t.skipSpaces()
		if peek, err := t.r.Peek(3); err == nil && string(peek) == "def" {
			t.r.Discard(3)
		}
	}
}

func (t *tokenReader) readNumber() (token, error) {
	var buf bytes.Buffer
	isFloat := false
	for {
		bb, err := t.r.Peek(1)
		if err != nil {
			break
		}
		c := bb[0]
		if c == '+' || c == '-' {
			if buf.Len() > 0 {
				break
			}
		} else if c == '.' {
			isFloat = true
		} else if !core.IsDecimalDigit(c) {
			break
		}
		b, _ := t.r.ReadByte()
		buf.WriteByte(b)
	}
	if isFloat {
		f, err := strconv.ParseFloat(buf.String(), 64)
		if err != nil {
			return nil, err
		}
		return tokFloat{val: f}, nil
	}
	n, err := strconv.ParseInt(buf.String(), 10, 64)
	if err != nil {
		return nil, err
	}
	return tokInt{val: n}, nil
}

func (t *tokenReader) readOperand() (token, error) {
	var buf bytes.Buffer
	for {
		bb, err := t.r.Peek(1)
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		if core.IsWhiteSpace(bb[0]) || core.IsDelimiter(bb[0]) {
			break
		}
		b, _ := t.r.ReadByte()
		buf.WriteByte(b)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("empty operand")
	}
	return tokOperand{val: buf.String()}, nil
}

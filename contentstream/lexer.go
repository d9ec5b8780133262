/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

// Package contentstream implements the content-stream tokenizer: a reader for the PDF page-description grammar scoped to what the
// font-subsetting and Unicode-mapping passes need, which is the set of
// byte sequences each font is asked to show, not a full drawing-op model.
package contentstream

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/khawkins98/pdfshrink/core"
)

// ErrInvalidOperand is returned by the lexer when an operand token decodes
// to the empty string.
var ErrInvalidOperand = errors.New("contentstream: invalid operand")

// operation is one operator plus the operands that preceded it.
type operation struct {
	operator string
	operands []core.Object
}

// lexer tokenizes a content-stream byte buffer into a sequence of
// operations, reusing core.Object to represent operands so the same
// literal/hex-string and name-escape rules that govern file-level objects
// apply here.
type lexer struct {
	reader *bufio.Reader
}

func newLexer(content []byte) *lexer {
	buf := bytes.NewBuffer(content)
	buf.WriteByte('\n') // ensure the final operand is not lost to EOF
	return &lexer{reader: bufio.NewReader(buf)}
}

// next returns the next operation, or io.EOF when the stream is exhausted.
func (lx *lexer) next() (operation, error) {
	var op operation
	for {
		obj, isOperand, err := lx.parseObject()
		if err != nil {
			return op, err
		}
		if isOperand {
			s, _ := obj.(*core.String)
			op.operator = s.String()
			return op, nil
		}
		op.operands = append(op.operands, obj)
	}
}

func (lx *lexer) skipSpaces() {
	for {
		bb, err := lx.reader.Peek(1)
		if err != nil {
			return
		}
		if core.IsWhiteSpace(bb[0]) {
			lx.reader.ReadByte()
			continue
		}
		return
	}
}

func (lx *lexer) skipComments() {
	lx.skipSpaces()
	for {
		bb, err := lx.reader.Peek(1)
		if err != nil {
			return
		}
		if bb[0] != '%' {
			return
		}
		for {
			bb, err := lx.reader.Peek(1)
			if err != nil {
				return
			}
			if bb[0] == '\r' || bb[0] == '\n' {
				break
			}
			lx.reader.ReadByte()
		}
		lx.skipSpaces()
	}
}

func (lx *lexer) parseName() (core.Name, error) {
	var name []byte
	started := false
	for {
		bb, err := lx.reader.Peek(1)
		if err == io.EOF {
			break
		}
		if err != nil {
			return core.Name(name), err
		}
		if !started {
			if bb[0] != '/' {
				return core.Name(name), fmt.Errorf("contentstream: invalid name start %q", bb[0])
			}
			started = true
			lx.reader.ReadByte()
			continue
		}
		if core.IsWhiteSpace(bb[0]) || core.IsDelimiter(bb[0]) {
			break
		}
		if bb[0] == '#' {
			hx, err := lx.reader.Peek(3)
			if err != nil || len(hx) < 3 {
				break
			}
			if decoded, err := hex.DecodeString(string(hx[1:3])); err == nil {
				lx.reader.Discard(3)
				name = append(name, decoded...)
				continue
			}
		}
		b, _ := lx.reader.ReadByte()
		name = append(name, b)
	}
	return core.Name(name), nil
}

func (lx *lexer) parseNumber() (core.Object, error) {
	var buf bytes.Buffer
	isFloat := false
	for {
		bb, err := lx.reader.Peek(1)
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
		b, _ := lx.reader.ReadByte()
		buf.WriteByte(b)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("contentstream: invalid number")
	}
	if isFloat {
		f, err := strconv.ParseFloat(buf.String(), 64)
		if err != nil {
			return nil, err
		}
		return core.Float(f), nil
	}
	n, err := strconv.ParseInt(buf.String(), 10, 64)
	if err != nil {
		return nil, err
	}
	return core.Integer(n), nil
}

// parseLiteralString handles a '(' ... ')' string: \n \r \t \b \f \( \) \\,
// three-digit octal escapes, the three line-continuation forms, and
// unescaped nested parentheses.
func (lx *lexer) parseLiteralString() (*core.String, error) {
	lx.reader.ReadByte()

	var out []byte
	depth := 1
	for {
		bb, err := lx.reader.Peek(1)
		if err != nil {
			return core.MakeStringFromBytes(out), err
		}

		if bb[0] == '\\' {
			lx.reader.ReadByte()
			b, err := lx.reader.ReadByte()
			if err != nil {
				return core.MakeStringFromBytes(out), err
			}
			switch b {
			case '\r':
				// \<CR> or \<CR><LF>: line continuation, emits nothing.
				if next, err := lx.reader.Peek(1); err == nil && next[0] == '\n' {
					lx.reader.ReadByte()
				}
			case '\n':
				// \<LF>: line continuation, emits nothing.
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '(':
				out = append(out, '(')
			case ')':
				out = append(out, ')')
			case '\\':
				out = append(out, '\\')
			default:
				if core.IsOctalDigit(b) {
					digits := []byte{b}
					for i := 0; i < 2; i++ {
						bb, err := lx.reader.Peek(1)
						if err != nil || !core.IsOctalDigit(bb[0]) {
							break
						}
						d, _ := lx.reader.ReadByte()
						digits = append(digits, d)
					}
					code, err := strconv.ParseUint(string(digits), 8, 32)
					if err == nil {
						out = append(out, byte(code))
					}
				} else {
					out = append(out, b)
				}
			}
			continue
		}

		if bb[0] == '(' {
			depth++
		} else if bb[0] == ')' {
			depth--
			if depth == 0 {
				lx.reader.ReadByte()
				break
			}
		}
		b, _ := lx.reader.ReadByte()
		out = append(out, b)
	}
	return core.MakeStringFromBytes(out), nil
}

func (lx *lexer) parseHexString() (*core.String, error) {
	lx.reader.ReadByte()

	hextable := []byte("0123456789abcdefABCDEF")
	var hexDigits []byte
	for {
		lx.skipSpaces()
		bb, err := lx.reader.Peek(1)
		if err != nil {
			return core.MakeHexString(""), err
		}
		if bb[0] == '>' {
			lx.reader.ReadByte()
			break
		}
		b, _ := lx.reader.ReadByte()
		if bytes.IndexByte(hextable, b) >= 0 {
			hexDigits = append(hexDigits, b)
		}
	}
	if len(hexDigits)%2 == 1 {
		hexDigits = append(hexDigits, '0')
	}
	decoded, _ := hex.DecodeString(string(hexDigits))
	s := core.MakeStringFromBytes(decoded)
	s.Hex = true
	return s, nil
}

func (lx *lexer) parseArray() (*core.Array, error) {
	arr := core.MakeArray()
	lx.reader.ReadByte()
	for {
		lx.skipSpaces()
		bb, err := lx.reader.Peek(1)
		if err != nil {
			return arr, err
		}
		if bb[0] == ']' {
			lx.reader.ReadByte()
			break
		}
		obj, _, err := lx.parseObject()
		if err != nil {
			return arr, err
		}
		arr.Append(obj)
	}
	return arr, nil
}

func (lx *lexer) parseDict() (*core.Dict, error) {
	dict := core.MakeDict()
	c, _ := lx.reader.ReadByte()
	if c != '<' {
		return dict, errors.New("contentstream: invalid dict")
	}
	c, _ = lx.reader.ReadByte()
	if c != '<' {
		return dict, errors.New("contentstream: invalid dict")
	}
	for {
		lx.skipSpaces()
		bb, err := lx.reader.Peek(2)
		if err != nil {
			return dict, err
		}
		if bb[0] == '>' && bb[1] == '>' {
			lx.reader.ReadByte()
			lx.reader.ReadByte()
			break
		}
		key, err := lx.parseName()
		if err != nil {
			return dict, err
		}
		lx.skipSpaces()
		val, _, err := lx.parseObject()
		if err != nil {
			return dict, err
		}
		dict.Set(key, val)
	}
	return dict, nil
}

func (lx *lexer) parseBool() (core.Boolean, error) {
	bb, err := lx.reader.Peek(4)
	if err == nil && string(bb[:4]) == "true" {
		lx.reader.Discard(4)
		return core.Boolean(true), nil
	}
	bb, err = lx.reader.Peek(5)
	if err == nil && string(bb[:5]) == "false" {
		lx.reader.Discard(5)
		return core.Boolean(false), nil
	}
	return core.Boolean(false), errors.New("contentstream: invalid boolean")
}

func (lx *lexer) parseNull() (core.Null, error) {
	_, err := lx.reader.Discard(4)
	return core.Null{}, err
}

func (lx *lexer) parseOperand() (*core.String, error) {
	var buf []byte
	for {
		bb, err := lx.reader.Peek(1)
		if err != nil {
			break
		}
		if core.IsDelimiter(bb[0]) || core.IsWhiteSpace(bb[0]) {
			break
		}
		b, _ := lx.reader.ReadByte()
		buf = append(buf, b)
	}
	s := core.MakeStringFromBytes(buf)
	if len(buf) == 0 {
		return s, ErrInvalidOperand
	}
	return s, nil
}

// parseObject parses one token. isOperand is true when the token is a bare
// operator keyword (returned wrapped in a *core.String carrying its name).
func (lx *lexer) parseObject() (obj core.Object, isOperand bool, err error) {
	lx.skipSpaces()
	for {
		bb, err := lx.reader.Peek(2)
		if err != nil {
			return nil, false, err
		}
		switch {
		case bb[0] == '%':
			lx.skipComments()
			continue
		case bb[0] == '/':
			name, err := lx.parseName()
			return name, false, err
		case bb[0] == '(':
			str, err := lx.parseLiteralString()
			return str, false, err
		case bb[0] == '<' && bb[1] != '<':
			str, err := lx.parseHexString()
			return str, false, err
		case bb[0] == '<' && bb[1] == '<':
			dict, err := lx.parseDict()
			return dict, false, err
		case bb[0] == '[':
			arr, err := lx.parseArray()
			return arr, false, err
		case core.IsFloatDigit(bb[0]) || (bb[0] == '-' && core.IsFloatDigit(bb[1])):
			num, err := lx.parseNumber()
			return num, false, err
		default:
			peek, _ := lx.reader.Peek(5)
			peekStr := string(peek)
			switch {
			case len(peekStr) >= 4 && peekStr[:4] == "null":
				n, err := lx.parseNull()
				return n, false, err
			case len(peekStr) >= 5 && peekStr[:5] == "false":
				b, err := lx.parseBool()
				return b, false, err
			case len(peekStr) >= 4 && peekStr[:4] == "true":
				b, err := lx.parseBool()
				return b, false, err
			}
			op, err := lx.parseOperand()
			if err != nil {
				return op, false, err
			}
			return op, true, nil
		}
	}
}

/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

// Package core implements the PDF indirect-object model and the stream
// filter chain the rest of pdfshrink operates on: objects live in a single
// arena (Document) and are addressed by reference value (Ref) rather than
// by owning pointer, so cyclic structures (outlines, structure trees,
// annotation parents) are ordinary graph edges with no lifetime hazard.
package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Ref is a PDF indirect reference: an object number plus a generation
// number. It is itself a valid Object, standing in for "this value lives
// elsewhere in the arena."
type Ref struct {
	Num int64
	Gen int64
}

// String renders the reference in a debugging form ("Ref(12 0)");
// WriteString gives the form written inside a dictionary or array.
func (r Ref) String() string { return fmt.Sprintf("Ref(%d %d)", r.Num, r.Gen) }

// WriteString renders the reference as it is written into a PDF body.
func (r Ref) WriteString() string { return fmt.Sprintf("%d %d R", r.Num, r.Gen) }

// Object is the closed sum type of PDF primitive values: Boolean, Integer,
// Float, String, Name, *Array, *Dict, *Stream, Null, or Ref. Passes
// type-switch on the concrete type and recurse; there is no subtype
// hierarchy to navigate.
type Object interface {
	String() string
	WriteString() string
}

// Boolean is the PDF boolean primitive.
type Boolean bool

func (b Boolean) String() string { return strconv.FormatBool(bool(b)) }
func (b Boolean) WriteString() string {
	if b {
		return "true"
	}
	return "false"
}

// Integer is the PDF integer numeric primitive.
type Integer int64

func (i Integer) String() string      { return strconv.FormatInt(int64(i), 10) }
func (i Integer) WriteString() string { return i.String() }

// Float is the PDF real numeric primitive.
type Float float64

func (f Float) String() string { return strconv.FormatFloat(float64(f), 'f', -1, 64) }
func (f Float) WriteString() string {
	return f.String()
}

// Name is the PDF name primitive, stored without its leading slash.
type Name string

func (n Name) String() string { return string(n) }

// WriteString escapes characters outside the PDF "regular character" set
// with #XX hex notation, as required for names containing delimiters or
// whitespace.
func (n Name) WriteString() string {
	var b strings.Builder
	b.WriteByte('/')
	for i := 0; i < len(n); i++ {
		c := n[i]
		if c < '!' || c > '~' || IsDelimiter(c) || c == '#' {
			fmt.Fprintf(&b, "#%02X", c)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// String is the PDF string primitive, either a literal ( ... ) string or a
// hex < ... > string. Value holds the decoded bytes.
type String struct {
	Value []byte
	Hex   bool
}

// MakeString creates a literal PDF string from Go text.
func MakeString(s string) *String { return &String{Value: []byte(s)} }

// MakeHexString creates a hex PDF string from Go text.
func MakeHexString(s string) *String { return &String{Value: []byte(s), Hex: true} }

// MakeStringFromBytes creates a literal PDF string from raw bytes.
func MakeStringFromBytes(b []byte) *String { return &String{Value: b} }

func (s *String) String() string { return string(s.Value) }

func (s *String) WriteString() string {
	if s.Hex {
		var b strings.Builder
		b.WriteByte('<')
		for _, c := range s.Value {
			fmt.Fprintf(&b, "%02X", c)
		}
		b.WriteByte('>')
		return b.String()
	}
	var b strings.Builder
	b.WriteByte('(')
	for _, c := range s.Value {
		switch c {
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '(', ')', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte(')')
	return b.String()
}

// Null is the PDF null primitive.
type Null struct{}

func (Null) String() string      { return "null" }
func (Null) WriteString() string { return "null" }

// Array is the PDF array primitive: an ordered, homogeneous-or-not sequence
// of Objects.
type Array struct {
	Elements []Object
}

// MakeArray builds an Array from the given elements.
func MakeArray(elements ...Object) *Array { return &Array{Elements: elements} }

func (a *Array) Len() int { return len(a.Elements) }

func (a *Array) Get(i int) Object {
	if i < 0 || i >= len(a.Elements) {
		return nil
	}
	return a.Elements[i]
}

func (a *Array) Append(o Object) { a.Elements = append(a.Elements, o) }

func (a *Array) String() string {
	parts := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (a *Array) WriteString() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, e := range a.Elements {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(e.WriteString())
	}
	b.WriteByte(']')
	return b.String()
}

// Dict is the PDF dictionary primitive: a name-keyed map with insertion
// order preserved.
type Dict struct {
	keys   []Name
	values map[Name]Object
}

// MakeDict builds an empty dictionary.
func MakeDict() *Dict {
	return &Dict{values: make(map[Name]Object)}
}

// Get returns the value for `key`, or nil if absent.
func (d *Dict) Get(key Name) Object {
	if d == nil {
		return nil
	}
	return d.values[key]
}

// Set inserts or overwrites `key`. Insertion order is preserved for new
// keys; overwriting an existing key keeps its original position.
func (d *Dict) Set(key Name, val Object) {
	if d.values == nil {
		d.values = make(map[Name]Object)
	}
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = val
}

// Delete removes `key`, if present.
func (d *Dict) Delete(key Name) {
	if _, ok := d.values[key]; !ok {
		return
	}
	delete(d.values, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the dictionary's keys in insertion order.
func (d *Dict) Keys() []Name {
	if d == nil {
		return nil
	}
	out := make([]Name, len(d.keys))
	copy(out, d.keys)
	return out
}

// SortedKeys returns the dictionary's keys sorted lexicographically, used
// by the content hasher for a stable serialization independent of
// insertion order.
func (d *Dict) SortedKeys() []Name {
	out := d.Keys()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone produces a shallow copy of the dictionary (same Object values,
// independent key/value storage).
func (d *Dict) Clone() *Dict {
	nd := MakeDict()
	for _, k := range d.Keys() {
		nd.Set(k, d.Get(k))
	}
	return nd
}

func (d *Dict) String() string {
	var b strings.Builder
	b.WriteString("Dict(")
	for i, k := range d.Keys() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s", k, d.Get(k).String())
	}
	b.WriteByte(')')
	return b.String()
}

func (d *Dict) WriteString() string {
	var b strings.Builder
	b.WriteString("<<")
	for _, k := range d.Keys() {
		b.WriteString(Name(k).WriteString())
		b.WriteByte(' ')
		b.WriteString(d.Get(k).WriteString())
		b.WriteByte(' ')
	}
	b.WriteString(">>")
	return b.String()
}

// Stream is the PDF stream primitive: a dictionary plus an opaque byte
// payload whose encoding is described by the dictionary's Filter entry.
type Stream struct {
	*Dict
	Data []byte
}

// MakeStream wraps raw (already-encoded) bytes in a stream with a fresh
// dictionary. Callers are expected to set Filter/Length/DecodeParms
// themselves, or use ReplaceWithFlate to populate them.
func MakeStream(data []byte) *Stream {
	return &Stream{Dict: MakeDict(), Data: data}
}

func (s *Stream) String() string { return fmt.Sprintf("Stream(%s, %d bytes)", s.Dict, len(s.Data)) }

func (s *Stream) WriteString() string {
	return s.Dict.WriteString() + "\nstream\n" + string(s.Data) + "\nendstream"
}

// --- typed accessors ---

func GetDict(o Object) (*Dict, bool) {
	switch v := o.(type) {
	case *Dict:
		return v, true
	case *Stream:
		return v.Dict, true
	}
	return nil, false
}

func GetArray(o Object) (*Array, bool) {
	v, ok := o.(*Array)
	return v, ok
}

func GetStream(o Object) (*Stream, bool) {
	v, ok := o.(*Stream)
	return v, ok
}

func GetName(o Object) (Name, bool) {
	v, ok := o.(Name)
	return v, ok
}

func GetStringVal(o Object) (string, bool) {
	v, ok := o.(*String)
	if !ok {
		return "", false
	}
	return string(v.Value), true
}

func GetIntVal(o Object) (int64, bool) {
	switch v := o.(type) {
	case Integer:
		return int64(v), true
	case Float:
		return int64(v), true
	}
	return 0, false
}

func GetFloatVal(o Object) (float64, bool) {
	switch v := o.(type) {
	case Float:
		return float64(v), true
	case Integer:
		return float64(v), true
	}
	return 0, false
}

func GetBoolVal(o Object) (bool, bool) {
	v, ok := o.(Boolean)
	return bool(v), ok
}

func GetRef(o Object) (Ref, bool) {
	v, ok := o.(Ref)
	return v, ok
}

// IsNull reports whether o is PDF null or a nil Go interface (the two are
// treated identically by every caller in this module).
func IsNull(o Object) bool {
	if o == nil {
		return true
	}
	_, ok := o.(Null)
	return ok
}

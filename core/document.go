/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package core

import "sort"

// Document is the arena that owns every indirect object of a parsed PDF.
// Every inter-object link is a Ref value; the arena is the only place an
// object actually lives, so reference cycles are just bidirectional edges
// with no lifetime hazard.
type Document struct {
	objects map[Ref]Object
	nextNum int64

	// Trailer holds the root pointers (Root, Info, Encrypt, ID).
	Trailer *Dict

	// UseObjectStreams controls whether Serialize emits compressed object
	// streams (off automatically for PDF/A-1 input, which forbids them).
	UseObjectStreams bool
}

// NewDocument creates an empty arena with an empty trailer.
func NewDocument() *Document {
	return &Document{
		objects: make(map[Ref]Object),
		Trailer: MakeDict(),
	}
}

// Lookup returns the object stored at ref, or (nil, false) if no such
// object exists in the arena.
func (d *Document) Lookup(ref Ref) (Object, bool) {
	o, ok := d.objects[ref]
	return o, ok
}

// Resolve follows a single level of indirection: if o is a Ref, the
// referenced object is returned (or Null{} if dangling); any other Object
// is returned unchanged. PDF references are never nested, so one level of
// resolution always suffices.
func (d *Document) Resolve(o Object) Object {
	ref, ok := o.(Ref)
	if !ok {
		return o
	}
	v, ok := d.objects[ref]
	if !ok {
		return Null{}
	}
	return v
}

// ResolveDict resolves o and type-asserts the result to a dictionary
// (accepting a Stream's embedded dictionary too).
func (d *Document) ResolveDict(o Object) (*Dict, bool) {
	return GetDict(d.Resolve(o))
}

// ResolveArray resolves o and type-asserts the result to an array.
func (d *Document) ResolveArray(o Object) (*Array, bool) {
	return GetArray(d.Resolve(o))
}

// ResolveStream resolves o and type-asserts the result to a stream.
func (d *Document) ResolveStream(o Object) (*Stream, bool) {
	return GetStream(d.Resolve(o))
}

// ResolveName resolves o and type-asserts the result to a name.
func (d *Document) ResolveName(o Object) (Name, bool) {
	return GetName(d.Resolve(o))
}

// Register inserts obj under a freshly minted reference (generation 0) and
// returns that reference.
func (d *Document) Register(obj Object) Ref {
	d.nextNum++
	ref := Ref{Num: d.nextNum, Gen: 0}
	d.objects[ref] = obj
	return ref
}

// Assign replaces the payload stored at an existing (or new) ref. Used by
// passes that rewrite a stream or dictionary in place while keeping every
// other reference to it valid.
func (d *Document) Assign(ref Ref, obj Object) {
	if ref.Num >= d.nextNum {
		d.nextNum = ref.Num
	}
	d.objects[ref] = obj
}

// Delete removes ref from the arena. Callers are responsible for ensuring
// no retained object still references it.
func (d *Document) Delete(ref Ref) {
	delete(d.objects, ref)
}

// Len returns the number of indirect objects currently in the arena.
func (d *Document) Len() int { return len(d.objects) }

// Refs returns every reference in the arena, sorted by object number, so
// that iteration order is deterministic given the same input document.
func (d *Document) Refs() []Ref {
	out := make([]Ref, 0, len(d.objects))
	for r := range d.objects {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Num != out[j].Num {
			return out[i].Num < out[j].Num
		}
		return out[i].Gen < out[j].Gen
	})
	return out
}

// Enumerate calls fn for every (ref, object) pair in deterministic order.
// Returning an error from fn stops iteration and propagates the error.
func (d *Document) Enumerate(fn func(ref Ref, obj Object) error) error {
	for _, ref := range d.Refs() {
		if err := fn(ref, d.objects[ref]); err != nil {
			return err
		}
	}
	return nil
}

// Catalog resolves and returns the document catalog (Trailer's Root),
// or nil if absent or not a dictionary.
func (d *Document) Catalog() *Dict {
	cat, _ := d.ResolveDict(d.Trailer.Get("Root"))
	return cat
}

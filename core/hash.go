/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package core

import (
	"strconv"
	"strings"
)

// ContentHash computes a stable digest of a byte sequence for the
// deduplication passes. Nothing here depends on collision resistance
// against an adversary, only on a vanishingly small accidental-collision
// rate across the tens of thousands of streams a single document might
// carry, so a fast non-cryptographic hash is the right trade.
//
// The algorithm advances two 32-bit Murmur-like state words per input byte
// and folds them into a 53-bit output (the largest integer precisely
// representable as a float64, which keeps the digest safely embeddable in
// any JSON-based report alongside the rest of the inspector snapshot) that
// is rendered as a base-36 string for a compact, case-insensitive key.
func ContentHash(data []byte) string {
	const (
		seed1 uint32 = 0x9747b28c
		seed2 uint32 = 0x85ebca6b
		m1    uint32 = 0xcc9e2d51
		m2    uint32 = 0x1b873593
	)
	h1, h2 := seed1, seed2
	for _, b := range data {
		k := uint32(b)
		h1 ^= (k * m1)
		h1 = (h1 << 13) | (h1 >> 19)
		h1 = h1*5 + 0xe6546b64

		h2 ^= (k * m2)
		h2 = (h2 << 15) | (h2 >> 17)
		h2 = h2*5 + 0x6b64e654
	}
	h1 ^= uint32(len(data))
	h2 ^= uint32(len(data))
	h1 ^= h1 >> 16
	h1 *= 0x85ebca6b
	h1 ^= h1 >> 13
	h2 ^= h2 >> 16
	h2 *= 0xc2b2ae35
	h2 ^= h2 >> 13

	// Fold the two 32-bit words into a 53-bit value: the low bits of h1
	// become the low 32 bits, the low 21 bits of h2 the high bits.
	digest := (uint64(h2&0x1fffff) << 32) | uint64(h1)
	return strconv.FormatUint(digest, 36)
}

// DedupDictString serializes a dictionary for the deduplication hash:
// sorted "key=value" pairs joined by "|", excluding Length (which tracks
// the payload and is therefore derived, not identity-bearing).
func DedupDictString(d *Dict) string {
	var parts []string
	for _, k := range d.SortedKeys() {
		if k == "Length" {
			continue
		}
		parts = append(parts, string(k)+"="+d.Get(k).String())
	}
	return strings.Join(parts, "|")
}

// HashStreamForDedup computes the digest the object-deduplication pass
// keys its canonical-election table by: the serialized dictionary (minus
// Length) followed by the raw payload bytes.
func HashStreamForDedup(s *Stream) string {
	key := []byte(DedupDictString(s.Dict))
	key = append(key, 0)
	key = append(key, s.Data...)
	return ContentHash(key)
}

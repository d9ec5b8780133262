/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentHashStable(t *testing.T) {
	a := ContentHash([]byte("some stream payload"))
	b := ContentHash([]byte("some stream payload"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, ContentHash([]byte("some stream payloae")))
	assert.NotEqual(t, ContentHash(nil), ContentHash([]byte{0}))
}

func TestContentHashSpread(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 10000; i++ {
		h := ContentHash([]byte(fmt.Sprintf("stream-%d", i)))
		assert.False(t, seen[h], "collision at %d", i)
		seen[h] = true
	}
}

func TestDedupDictStringExcludesLength(t *testing.T) {
	d := MakeDict()
	d.Set("Length", Integer(99))
	d.Set("B", Name("two"))
	d.Set("A", Name("one"))
	assert.Equal(t, "A=one|B=two", DedupDictString(d))
}

func TestHashStreamForDedupDistinguishesDicts(t *testing.T) {
	s1 := MakeStream([]byte("same payload"))
	s1.Set("Subtype", Name("Image"))
	s2 := MakeStream([]byte("same payload"))
	s2.Set("Subtype", Name("Form"))
	assert.NotEqual(t, HashStreamForDedup(s1), HashStreamForDedup(s2))

	s3 := MakeStream([]byte("same payload"))
	s3.Set("Subtype", Name("Image"))
	s3.Set("Length", Integer(12))
	assert.Equal(t, HashStreamForDedup(s1), HashStreamForDedup(s3))
}

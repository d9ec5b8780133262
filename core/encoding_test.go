/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlateRoundTrip(t *testing.T) {
	enc := NewFlateEncoder()
	raw := []byte("the quick brown fox jumps over the lazy dog, twice over")
	encoded, err := enc.EncodeBytes(raw)
	require.NoError(t, err)
	decoded, err := enc.DecodeBytes(encoded)
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)
}

func TestASCIIHexDecode(t *testing.T) {
	enc := &ASCIIHexEncoder{}
	decoded, err := enc.DecodeBytes([]byte("48 65 6C 6C 6F>"))
	require.NoError(t, err)
	assert.Equal(t, []byte("Hello"), decoded)

	// Odd digit count is zero-padded.
	decoded, err = enc.DecodeBytes([]byte("7>"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x70}, decoded)
}

func TestASCII85Decode(t *testing.T) {
	enc := &ASCII85Encoder{}
	encoded, err := enc.EncodeBytes([]byte("Man is distinguished"))
	require.NoError(t, err)
	decoded, err := enc.DecodeBytes(encoded)
	require.NoError(t, err)
	assert.Equal(t, []byte("Man is distinguished"), decoded)

	// "z" is shorthand for four zero bytes.
	decoded, err = enc.DecodeBytes([]byte("z~>"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0}, decoded)
}

func TestRunLengthDecode(t *testing.T) {
	enc := &RunLengthEncoder{}
	// 2 -> literal run of 3 bytes; 254 -> repeat next byte 3 times; 128 EOD.
	decoded, err := enc.DecodeBytes([]byte{2, 'a', 'b', 'c', 254, 'x', 128})
	require.NoError(t, err)
	assert.Equal(t, []byte("abcxxx"), decoded)
}

func TestRunLengthRoundTrip(t *testing.T) {
	enc := &RunLengthEncoder{}
	raw := []byte("aaaaaabcdddddddddefff")
	encoded, err := enc.EncodeBytes(raw)
	require.NoError(t, err)
	decoded, err := enc.DecodeBytes(encoded)
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)
}

func TestDecodeStreamAppliesChainInOrder(t *testing.T) {
	doc := NewDocument()
	flate := NewFlateEncoder()
	deflated, err := flate.EncodeBytes([]byte("payload goes here"))
	require.NoError(t, err)
	hexed, err := (&ASCIIHexEncoder{}).EncodeBytes(deflated)
	require.NoError(t, err)

	s := MakeStream(hexed)
	// Decode applies ASCIIHexDecode first, then FlateDecode.
	s.Set("Filter", MakeArray(Name("ASCIIHexDecode"), Name("FlateDecode")))
	s.Set("Length", Integer(int64(len(hexed))))

	decoded, err := doc.DecodeStream(s)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload goes here"), decoded)
}

func TestAllFiltersDecodable(t *testing.T) {
	doc := NewDocument()
	s := MakeStream(nil)
	s.Set("Filter", Name("FlateDecode"))
	assert.True(t, doc.AllFiltersDecodable(s))

	s.Set("Filter", MakeArray(Name("FlateDecode"), Name("DCTDecode")))
	assert.False(t, doc.AllFiltersDecodable(s))
	assert.True(t, doc.HasImageNativeFilter(s))

	s.Set("Filter", Name("NotAFilter"))
	assert.False(t, doc.AllFiltersDecodable(s))
	assert.False(t, doc.HasImageNativeFilter(s))
}

func TestFlatePredictorUndo(t *testing.T) {
	// Two rows of 3 one-byte pixels, PNG Sub filter on each row: raw pixel
	// values reconstruct by adding the left neighbor.
	predicted := []byte{
		1, 10, 5, 5, // row 0: Sub -> 10, 15, 20
		1, 1, 1, 1, // row 1: Sub -> 1, 2, 3
	}
	enc := NewFlateEncoder()
	deflated, err := enc.EncodeBytes(predicted)
	require.NoError(t, err)

	dec := &FlateEncoder{Predictor: 15, Colors: 1, BitsPerComponent: 8, Columns: 3}
	decoded, err := dec.DecodeBytes(deflated)
	require.NoError(t, err)
	assert.Equal(t, []byte{10, 15, 20, 1, 2, 3}, decoded)
}

func TestReplaceWithFlate(t *testing.T) {
	s := MakeStream([]byte("original"))
	s.Set("Filter", Name("ASCIIHexDecode"))
	s.Set("DecodeParms", MakeDict())
	require.NoError(t, ReplaceWithFlate(s, []byte("new payload")))

	name, ok := GetName(s.Get("Filter"))
	require.True(t, ok)
	assert.Equal(t, Name("FlateDecode"), name)
	assert.Nil(t, s.Get("DecodeParms"))
	length, ok := GetIntVal(s.Get("Length"))
	require.True(t, ok)
	assert.EqualValues(t, len(s.Data), length)
}

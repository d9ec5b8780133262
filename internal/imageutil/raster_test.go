/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package imageutil

import (
	"bytes"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandRGBAGray(t *testing.T) {
	img, err := ExpandRGBA([]byte{0, 128, 255, 7}, 2, 2, 1)
	require.NoError(t, err)
	c := img.NRGBAAt(1, 0)
	assert.EqualValues(t, 128, c.R)
	assert.EqualValues(t, 128, c.G)
	assert.EqualValues(t, 128, c.B)
	assert.EqualValues(t, 255, c.A)
}

func TestExpandRGBARejectsShortBuffer(t *testing.T) {
	_, err := ExpandRGBA([]byte{1, 2, 3}, 2, 2, 3)
	assert.Error(t, err)
}

func TestBoxDownsampleAverages(t *testing.T) {
	// 2x2 checkerboard of 0 and 200 collapses to one pixel of 100.
	img, err := ExpandRGBA([]byte{0, 200, 200, 0}, 2, 2, 1)
	require.NoError(t, err)
	small := BoxDownsample(img, 1, 1)
	c := small.NRGBAAt(0, 0)
	assert.EqualValues(t, 100, c.R)
	assert.EqualValues(t, 100, c.G)
}

func TestBoxDownsampleFractionalCoverage(t *testing.T) {
	// 3 -> 2: the left destination pixel's pre-image covers source column 0
	// fully and column 1 by half, so weights are 1 and 0.5.
	img, err := ExpandRGBA([]byte{30, 90, 150}, 3, 1, 1)
	require.NoError(t, err)
	small := BoxDownsample(img, 2, 1)
	// (30*1 + 90*0.5) / 1.5 = 50
	assert.EqualValues(t, 50, small.NRGBAAt(0, 0).R)
	// (90*0.5 + 150*1) / 1.5 = 130
	assert.EqualValues(t, 130, small.NRGBAAt(1, 0).R)
}

func TestEncodeJPEGRoundTrip(t *testing.T) {
	data := make([]byte, 16*16*3)
	for i := range data {
		data[i] = byte(i * 7)
	}
	img, err := ExpandRGBA(data, 16, 16, 3)
	require.NoError(t, err)
	enc, err := EncodeJPEG(img, 85)
	require.NoError(t, err)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(enc))
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Width)
	assert.Equal(t, 16, cfg.Height)
}

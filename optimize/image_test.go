/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package optimize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khawkins98/pdfshrink/core"
)

// photoBytes synthesizes a photo-like RGB sample buffer: smooth gradients
// with low-amplitude noise, so neither deflate nor JPEG degenerates.
func photoBytes(w, h int) []byte {
	out := make([]byte, w*h*3)
	seed := uint32(12345)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			seed = seed*1664525 + 1013904223
			noise := int(seed>>29) - 3
			base := 128 + 90*math.Sin(float64(x)/17)*math.Cos(float64(y)/23)
			v := base + float64(noise)
			i := (y*w + x) * 3
			out[i] = clamp8(v)
			out[i+1] = clamp8(v * 0.8)
			out[i+2] = clamp8(255 - v)
		}
	}
	return out
}

func clamp8(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// registerImage deflates raw samples into an image XObject and names it in
// the page's Resources.
func registerImage(t *testing.T, doc *core.Document, res *core.Dict, name string, raw []byte, w, h int) (*core.Stream, core.Ref) {
	t.Helper()
	s := core.MakeStream(nil)
	s.Set("Subtype", core.Name("Image"))
	s.Set("Width", core.Integer(int64(w)))
	s.Set("Height", core.Integer(int64(h)))
	s.Set("ColorSpace", core.Name("DeviceRGB"))
	s.Set("BitsPerComponent", core.Integer(8))
	require.NoError(t, core.ReplaceWithFlate(s, raw))
	ref := doc.Register(s)

	xobjs, ok := doc.ResolveDict(res.Get("XObject"))
	if !ok {
		xobjs = core.MakeDict()
		res.Set("XObject", xobjs)
	}
	xobjs.Set(core.Name(name), ref)
	return s, ref
}

func TestRecompressImagesInactiveWithoutLossy(t *testing.T) {
	doc, _, res := pageDoc(t, []byte("q Q"))
	s, _ := registerImage(t, doc, res, "Im0", photoBytes(64, 64), 64, 64)
	origLen := len(s.Data)

	counts, err := RecompressImages{}.Optimize(passContext(doc))
	require.NoError(t, err)
	assert.Equal(t, 0, counts["converted"])
	assert.Equal(t, origLen, len(s.Data))
}

func TestRecompressImagesConverts(t *testing.T) {
	doc, page, res := pageDoc(t, []byte("q Q"))
	page.Set("MediaBox", core.MakeArray(core.Integer(0), core.Integer(0), core.Integer(100), core.Integer(100)))
	s, _ := registerImage(t, doc, res, "Im0", photoBytes(200, 200), 200, 200)

	ctx := passContext(doc)
	ctx.Options.Lossy = true
	ctx.Options.ImageQuality = 0.75

	counts, err := RecompressImages{}.Optimize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts["converted"])
	assert.Equal(t, 0, counts["downsampled"])

	name, _ := core.GetName(s.Get("Filter"))
	assert.Equal(t, core.Name("DCTDecode"), name)
	length, _ := core.GetIntVal(s.Get("Length"))
	assert.EqualValues(t, len(s.Data), length)
}

func TestRecompressImagesDownsamples(t *testing.T) {
	doc, page, res := pageDoc(t, []byte("q Q"))
	page.Set("MediaBox", core.MakeArray(core.Integer(0), core.Integer(0), core.Integer(100), core.Integer(100)))
	s, _ := registerImage(t, doc, res, "Im0", photoBytes(200, 200), 200, 200)

	ctx := passContext(doc)
	ctx.Options.Lossy = true
	ctx.Options.ImageQuality = 0.75
	// Effective DPI is min(200*72/100, 200*72/100) = 144; capping at 72
	// halves both dimensions.
	ctx.Options.MaxImageDPI = 72

	counts, err := RecompressImages{}.Optimize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts["converted"])
	assert.Equal(t, 1, counts["downsampled"])

	w, _ := core.GetIntVal(s.Get("Width"))
	h, _ := core.GetIntVal(s.Get("Height"))
	assert.EqualValues(t, 100, w)
	assert.EqualValues(t, 100, h)
}

func TestRecompressImagesEligibilityGate(t *testing.T) {
	doc, _, res := pageDoc(t, []byte("q Q"))

	// SMask disqualifies.
	masked, _ := registerImage(t, doc, res, "Im0", photoBytes(64, 64), 64, 64)
	masked.Set("SMask", core.Ref{Num: 999})

	// Indexed color space disqualifies.
	indexed, _ := registerImage(t, doc, res, "Im1", photoBytes(64, 64), 64, 64)
	indexed.Set("ColorSpace", core.MakeArray(core.Name("Indexed"), core.Name("DeviceRGB"), core.Integer(255)))

	// Tiny decoded payload disqualifies.
	tiny, _ := registerImage(t, doc, res, "Im2", photoBytes(8, 8), 8, 8)
	_ = tiny

	ctx := passContext(doc)
	ctx.Options.Lossy = true

	counts, err := RecompressImages{}.Optimize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, counts["converted"])
	assert.Equal(t, 3, counts["skipped"])
}

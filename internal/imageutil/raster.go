/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

// Package imageutil converts decoded image-XObject payloads into in-memory
// rasters for the image-recompression pass: RGBA expansion, area-average
// downsampling, and JPEG encoding. The pass's eligibility gate only admits
// 8-bit DeviceRGB and DeviceGray samples, so the package handles exactly
// those two layouts.
package imageutil

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
)

// ExpandRGBA converts a raw 8-bit sample buffer into an NRGBA raster.
// components is 3 for DeviceRGB and 1 for DeviceGray; grayscale expands to
// (g, g, g, 255). The buffer must hold at least width*height*components
// bytes; trailing padding is ignored.
func ExpandRGBA(data []byte, width, height, components int) (*image.NRGBA, error) {
	if components != 1 && components != 3 {
		return nil, fmt.Errorf("unsupported component count %d", components)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", width, height)
	}
	need := width * height * components
	if len(data) < need {
		return nil, fmt.Errorf("sample buffer too short: have %d, need %d", len(data), need)
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * components
			var c color.NRGBA
			if components == 1 {
				g := data[i]
				c = color.NRGBA{R: g, G: g, B: g, A: 255}
			} else {
				c = color.NRGBA{R: data[i], G: data[i+1], B: data[i+2], A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img, nil
}

// BoxDownsample scales src to dstW x dstH with an area-average (box)
// filter: each source pixel contributes to a destination pixel in
// proportion to the area of its intersection with that destination
// pixel's pre-image. Upscaling requests return the source unchanged.
func BoxDownsample(src *image.NRGBA, dstW, dstH int) *image.NRGBA {
	b := src.Bounds()
	srcW, srcH := b.Dx(), b.Dy()
	if dstW <= 0 || dstH <= 0 || dstW > srcW || dstH > srcH || (dstW == srcW && dstH == srcH) {
		return src
	}
	dst := image.NewNRGBA(image.Rect(0, 0, dstW, dstH))
	xRatio := float64(srcW) / float64(dstW)
	yRatio := float64(srcH) / float64(dstH)
	for dy := 0; dy < dstH; dy++ {
		y0 := float64(dy) * yRatio
		y1 := y0 + yRatio
		for dx := 0; dx < dstW; dx++ {
			x0 := float64(dx) * xRatio
			x1 := x0 + xRatio
			var rSum, gSum, bSum, aSum, wSum float64
			for sy := int(y0); sy < srcH && float64(sy) < y1; sy++ {
				hy := overlap(float64(sy), float64(sy)+1, y0, y1)
				if hy <= 0 {
					continue
				}
				for sx := int(x0); sx < srcW && float64(sx) < x1; sx++ {
					hx := overlap(float64(sx), float64(sx)+1, x0, x1)
					if hx <= 0 {
						continue
					}
					w := hx * hy
					c := src.NRGBAAt(sx, sy)
					rSum += w * float64(c.R)
					gSum += w * float64(c.G)
					bSum += w * float64(c.B)
					aSum += w * float64(c.A)
					wSum += w
				}
			}
			if wSum <= 0 {
				continue
			}
			dst.SetNRGBA(dx, dy, color.NRGBA{
				R: clampByte(rSum / wSum),
				G: clampByte(gSum / wSum),
				B: clampByte(bSum / wSum),
				A: clampByte(aSum / wSum),
			})
		}
	}
	return dst
}

func overlap(a0, a1, b0, b1 float64) float64 {
	lo, hi := a0, a1
	if b0 > lo {
		lo = b0
	}
	if b1 < hi {
		hi = b1
	}
	return hi - lo
}

func clampByte(v float64) byte {
	r := int(v + 0.5)
	if r < 0 {
		return 0
	}
	if r > 255 {
		return 255
	}
	return byte(r)
}

// EncodeJPEG renders img as baseline JPEG at the given quality (1-100).
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

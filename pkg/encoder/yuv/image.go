package yuv

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// ToRGBA wraps a packed RGB24 buffer into an opaque RGBA image.
func ToRGBA(rgb []byte, w, h int) (*image.RGBA, error) {
	if _, err := frameLen(w, h, 4); err != nil {
		return nil, err
	}
	if len(rgb) != w*h*RGBBytesPerPixel {
		return nil, fmt.Errorf("%w: %d rgb bytes for %dx%d", ErrFrameSize, len(rgb), w, h)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i, j := 0, 0; i < len(rgb); i, j = i+3, j+4 {
		img.Pix[j] = rgb[i]
		img.Pix[j+1] = rgb[i+1]
		img.Pix[j+2] = rgb[i+2]
		img.Pix[j+3] = 0xff
	}
	return img, nil
}

// Scale resizes the image by the factor.
// Factors close to 1 (or invalid) return the image as is.
func Scale(img *image.RGBA, factor float64) *image.RGBA {
	if factor <= 0 || factor == 1 {
		return img
	}
	b := img.Bounds()
	w, h := int(float64(b.Dx())*factor), int(float64(b.Dy())*factor)
	if w < 1 || h < 1 {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

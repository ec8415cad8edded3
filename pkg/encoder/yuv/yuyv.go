// Package yuv converts raw camera frames into displayable colorspaces.
package yuv

import (
	"errors"
	"fmt"
	"math"
)

// ErrFrameSize is returned when a frame doesn't match its dimensions.
var ErrFrameSize = errors.New("yuv: bad frame size")

// YUYV packs 2 pixels into 4 bytes: Y0 U Y1 V.
const (
	YUYVBytesPerPixel = 2
	RGBBytesPerPixel  = 3
)

// YUYVToRGB converts a packed YUYV 4:2:2 frame into a tightly packed RGB24 one.
// The input is not modified or retained.
func YUYVToRGB(src []byte, w, h int) ([]byte, error) {
	if err := checkYUYV(src, w, h); err != nil {
		return nil, err
	}
	dst := make([]byte, w*h*RGBBytesPerPixel)
	yuyvToRgb(dst, src)
	return dst, nil
}

// YUYVToRGBInto is YUYVToRGB with a caller-provided destination buffer
// of exactly w*h*3 bytes.
func YUYVToRGBInto(dst, src []byte, w, h int) error {
	if err := checkYUYV(src, w, h); err != nil {
		return err
	}
	if len(dst) != w*h*RGBBytesPerPixel {
		return fmt.Errorf("%w: rgb buffer is %d bytes, want %d", ErrFrameSize, len(dst), w*h*RGBBytesPerPixel)
	}
	yuyvToRgb(dst, src)
	return nil
}

// RGBLen returns the size of the RGB24 frame of w*h pixels.
func RGBLen(w, h int) (int, error) { return frameLen(w, h, RGBBytesPerPixel) }

// frameLen returns w*h*bpp or an error when it doesn't fit an int.
func frameLen(w, h, bpp int) (int, error) {
	if w < 0 || h < 0 {
		return 0, fmt.Errorf("%w: negative dimensions %dx%d", ErrFrameSize, w, h)
	}
	if h != 0 && (h > math.MaxInt/bpp || w > math.MaxInt/(h*bpp)) {
		return 0, fmt.Errorf("%w: %dx%d is too big", ErrFrameSize, w, h)
	}
	return w * h * bpp, nil
}

func checkYUYV(src []byte, w, h int) error {
	// the RGB output is the biggest one
	if _, err := frameLen(w, h, RGBBytesPerPixel); err != nil {
		return err
	}
	if len(src)%4 != 0 {
		return fmt.Errorf("%w: %d bytes is not a multiple of 4", ErrFrameSize, len(src))
	}
	if len(src) != w*h*YUYVBytesPerPixel {
		return fmt.Errorf("%w: %d bytes for %dx%d, want %d", ErrFrameSize, len(src), w, h, w*h*YUYVBytesPerPixel)
	}
	return nil
}

// yuyvToRgb is an integer BT.601 approximation.
// Negative sums are floored by the arithmetic shift, not truncated.
func yuyvToRgb(dst, src []byte) {
	for i, j := 0, 0; i < len(src); i, j = i+4, j+6 {
		c := int32(src[i]) - 16
		d := int32(src[i+1]) - 128
		e := int32(src[i+2]) - 16
		f := int32(src[i+3]) - 128

		rv := 409*f + 128
		gv := -100*d - 208*f + 128
		bv := 516*d + 128

		c, e = 298*c, 298*e

		dst[j] = clamp8((c + rv) >> 8)
		dst[j+1] = clamp8((c + gv) >> 8)
		dst[j+2] = clamp8((c + bv) >> 8)
		dst[j+3] = clamp8((e + rv) >> 8)
		dst[j+4] = clamp8((e + gv) >> 8)
		dst[j+5] = clamp8((e + bv) >> 8)
	}
}

func clamp8(v int32) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

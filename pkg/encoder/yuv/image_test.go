package yuv

import (
	"errors"
	"image/color"
	"strconv"
	"testing"
)

func TestToRGBA(t *testing.T) {
	rgb := []byte{1, 2, 3, 4, 5, 6}
	img, err := ToRGBA(rgb, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got := img.RGBAAt(1, 0); got != (color.RGBA{R: 4, G: 5, B: 6, A: 255}) {
		t.Errorf("pixel = %v", got)
	}
	if _, err := ToRGBA(rgb, 3, 1); !errors.Is(err, ErrFrameSize) {
		t.Errorf("error = %v, want %v", err, ErrFrameSize)
	}
	if _, err := ToRGBA(nil, 1<<(strconv.IntSize-2), 4); !errors.Is(err, ErrFrameSize) {
		t.Errorf("error = %v, want %v", err, ErrFrameSize)
	}
}

func TestScale(t *testing.T) {
	img, _ := ToRGBA(make([]byte, 4*2*3), 4, 2)
	if Scale(img, 1) != img {
		t.Errorf("scale 1 should return the same image")
	}
	if Scale(img, 0) != img {
		t.Errorf("scale 0 should return the same image")
	}
	half := Scale(img, 0.5)
	if b := half.Bounds(); b.Dx() != 2 || b.Dy() != 1 {
		t.Errorf("half size = %v, want 2x1", b)
	}
	double := Scale(img, 2)
	if b := double.Bounds(); b.Dx() != 8 || b.Dy() != 4 {
		t.Errorf("double size = %v, want 8x4", b)
	}
}

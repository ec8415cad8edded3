package eye

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/goccy/go-json"
)

// Kind is the active variant of a PixelFormat.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindCustom
	KindDepth
	KindGray
	KindBgr
	KindRgb
	KindJpeg
)

var kindNames = [...]string{"", "Custom", "Depth", "Gray", "Bgr", "Rgb", "Jpeg"}

func (k Kind) String() string {
	if int(k) < len(kindNames) && k != KindInvalid {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

func kindByName(name string) Kind {
	for i, n := range kindNames {
		if n != "" && n == name {
			return Kind(i)
		}
	}
	return KindInvalid
}

// PixelFormat describes frame pixels.
// Exactly one variant is active: Custom carries an application-defined
// name (e.g. YUYV), the others carry the depth of a whole pixel in bits.
type PixelFormat struct {
	kind Kind
	name string
	bits uint32
}

func Custom(name string) PixelFormat { return PixelFormat{kind: KindCustom, name: name} }
func Depth(bits uint32) PixelFormat  { return PixelFormat{kind: KindDepth, bits: bits} }
func Gray(bits uint32) PixelFormat   { return PixelFormat{kind: KindGray, bits: bits} }
func Bgr(bits uint32) PixelFormat    { return PixelFormat{kind: KindBgr, bits: bits} }
func Rgb(bits uint32) PixelFormat    { return PixelFormat{kind: KindRgb, bits: bits} }
func Jpeg(bits uint32) PixelFormat   { return PixelFormat{kind: KindJpeg, bits: bits} }

func (p PixelFormat) Kind() Kind     { return p.kind }
func (p PixelFormat) Name() string   { return p.name }
func (p PixelFormat) Bits() uint32   { return p.bits }
func (p PixelFormat) IsValid() bool  { return p.kind != KindInvalid }
func (p PixelFormat) IsYUYV() bool   { return p.kind == KindCustom && p.name == "YUYV" }
func (p PixelFormat) IsRGB24() bool  { return p.kind == KindRgb && p.bits == 24 }
func (p PixelFormat) IsCustom() bool { return p.kind == KindCustom }

func (p PixelFormat) String() string {
	switch p.kind {
	case KindInvalid:
		return "Invalid"
	case KindCustom:
		return fmt.Sprintf("Custom(%s)", p.name)
	case KindJpeg:
		if p.bits == 0 {
			return "Jpeg"
		}
	}
	return fmt.Sprintf("%v(%d)", p.kind, p.bits)
}

func (p PixelFormat) MarshalJSON() ([]byte, error) {
	switch p.kind {
	case KindInvalid:
		return nil, errors.New("eye: invalid pixel format")
	case KindCustom:
		return json.Marshal(map[string]string{"Custom": p.name})
	}
	return json.Marshal(map[string]uint32{p.kind.String(): p.bits})
}

// UnmarshalJSON decodes an externally tagged variant: {"Custom":"YUYV"}, {"Rgb":24}.
// Members set to null count as absent. The unit form "Jpeg" is accepted too.
func (p *PixelFormat) UnmarshalJSON(b []byte) error {
	var unit string
	if err := json.Unmarshal(b, &unit); err == nil {
		if unit != KindJpeg.String() {
			return fmt.Errorf("unknown pixel format %q", unit)
		}
		*p = Jpeg(0)
		return nil
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(b, &members); err != nil {
		return fmt.Errorf("pixel format: %w", err)
	}
	var name string
	var value json.RawMessage
	n := 0
	for k, v := range members {
		if v = bytes.TrimSpace(v); len(v) == 0 || bytes.Equal(v, []byte("null")) {
			continue
		}
		name, value = k, v
		n++
	}
	if n != 1 {
		return fmt.Errorf("pixel format has %d variants set, want 1", n)
	}

	kind := kindByName(name)
	switch kind {
	case KindInvalid:
		return fmt.Errorf("unknown pixel format %q", name)
	case KindCustom:
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return fmt.Errorf("pixel format %v: %w", kind, err)
		}
		*p = Custom(s)
	default:
		var bits uint32
		if err := json.Unmarshal(value, &bits); err != nil {
			return fmt.Errorf("pixel format %v: %w", kind, err)
		}
		*p = PixelFormat{kind: kind, bits: bits}
	}
	return nil
}

// Descriptor describes the frames of a camera stream.
type Descriptor struct {
	Width  uint32      `json:"width"`
	Height uint32      `json:"height"`
	PixFmt PixelFormat `json:"pixfmt"`
}

// FrameSize returns the expected size of a raw frame in bytes
// when it can be derived from the pixel format and fits an int.
func (d Descriptor) FrameSize() (int, bool) {
	var bpp uint64
	switch d.PixFmt.kind {
	case KindCustom:
		if d.PixFmt.IsYUYV() {
			bpp = 2
		}
	case KindDepth, KindGray, KindBgr, KindRgb:
		if d.PixFmt.bits%8 == 0 {
			bpp = uint64(d.PixFmt.bits / 8)
		}
	}
	if bpp == 0 {
		return 0, false
	}
	px := uint64(d.Width) * uint64(d.Height)
	if px > uint64(math.MaxInt)/bpp {
		return 0, false
	}
	return int(px * bpp), true
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%dx%d %v", d.Width, d.Height, d.PixFmt)
}

type wireDescriptor struct {
	Width  *uint32          `json:"width"`
	Height *uint32          `json:"height"`
	PixFmt *json.RawMessage `json:"pixfmt"`
}

// DecodeDescriptor decodes a null-terminated JSON descriptor.
func DecodeDescriptor(b []byte) (Descriptor, error) {
	s, err := cBytes(b)
	if err != nil {
		return Descriptor{}, &DecodeError{What: "descriptor", Err: err}
	}
	var w wireDescriptor
	if err := json.Unmarshal(s, &w); err != nil {
		return Descriptor{}, &DecodeError{What: "descriptor", Err: err}
	}
	switch {
	case w.Width == nil:
		err = errors.New("no width")
	case w.Height == nil:
		err = errors.New("no height")
	case w.PixFmt == nil:
		err = errors.New("no pixfmt")
	}
	if err != nil {
		return Descriptor{}, &DecodeError{What: "descriptor", Err: err}
	}
	d := Descriptor{Width: *w.Width, Height: *w.Height}
	if err := d.PixFmt.UnmarshalJSON(*w.PixFmt); err != nil {
		return Descriptor{}, &DecodeError{What: "descriptor", Err: err}
	}
	return d, nil
}

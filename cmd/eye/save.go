package main

import (
	"bytes"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"github.com/giongto35/eye/pkg/encoder/yuv"
	"github.com/giongto35/eye/pkg/eye"
	"github.com/giongto35/eye/pkg/logger"
)

type pool struct{ sync.Pool }

func pngBuf() *pool                      { return &pool{sync.Pool{New: func() any { return &png.EncoderBuffer{} }}} }
func (p *pool) Get() *png.EncoderBuffer  { return p.Pool.Get().(*png.EncoderBuffer) }
func (p *pool) Put(b *png.EncoderBuffer) { p.Pool.Put(b) }

// saver writes captured frames into a dir.
// YUYV and RGB24 frames become PNG images, JPEG frames are written as is,
// the rest is dumped raw.
type saver struct {
	dir   string
	scale float64
	e     *png.Encoder
	rgb   []byte
	log   *logger.Logger
}

const frameFile = "out%d"

func newSaver(dir string, scale float64, log *logger.Logger) *saver {
	return &saver{
		dir:   dir,
		scale: scale,
		e:     &png.Encoder{CompressionLevel: png.BestSpeed, BufferPool: pngBuf()},
		log:   log,
	}
}

// Save writes the frame i and returns the name of the file.
// It does nothing without the dir.
func (s *saver) Save(i uint64, d eye.Descriptor, frame []byte) (string, error) {
	if s.dir == "" {
		return "", nil
	}
	name := filepath.Join(s.dir, fmt.Sprintf(frameFile, i))
	w, h := int(d.Width), int(d.Height)

	switch {
	case d.PixFmt.IsYUYV():
		size, err := yuv.RGBLen(w, h)
		if err != nil {
			return "", err
		}
		if cap(s.rgb) < size {
			s.rgb = make([]byte, size)
		}
		s.rgb = s.rgb[:size]
		if err := yuv.YUYVToRGBInto(s.rgb, frame, w, h); err != nil {
			return "", err
		}
		return name + ".png", s.png(name+".png", s.rgb, w, h)
	case d.PixFmt.IsRGB24():
		return name + ".png", s.png(name+".png", frame, w, h)
	case d.PixFmt.Kind() == eye.KindJpeg:
		return name + ".jpg", os.WriteFile(name+".jpg", frame, 0644)
	default:
		s.log.Debug().Msgf("no conversion for %v, saving raw", d.PixFmt)
		return name + ".raw", os.WriteFile(name+".raw", frame, 0644)
	}
}

func (s *saver) png(name string, rgb []byte, w, h int) error {
	img, err := yuv.ToRGBA(rgb, w, h)
	if err != nil {
		return err
	}
	scaled := yuv.Scale(img, s.scale)

	var buf bytes.Buffer
	buf.Grow(scaled.Bounds().Dx() * scaled.Bounds().Dy() * 4)
	if err := s.e.Encode(&buf, scaled); err != nil {
		return err
	}
	return os.WriteFile(name, buf.Bytes(), 0644)
}

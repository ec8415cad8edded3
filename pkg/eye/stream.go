package eye

import "context"

// Stream pulls frames one at a time.
// Each frame is copied out of native memory before the next pull,
// so the returned slices stay valid and independent.
//
//	frames := cam.Frames()
//	for frames.Next() {
//		use(frames.Frame())
//	}
//	if err := frames.Err(); err != nil {
//		...
//	}
//
// The first error ends the stream, no native call is made after it.
type Stream struct {
	cam   *Camera
	frame []byte
	err   error
	n     uint64
}

// Pull blocks until the native side returns the next frame.
func (s *Stream) Pull() ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	data, err := s.cam.pull()
	if err != nil {
		s.err, s.frame = err, nil
		return nil, err
	}
	s.frame = data
	s.n++
	return data, nil
}

// Next advances the stream to the next frame.
// It returns false when the stream has ended, see Err.
func (s *Stream) Next() bool {
	_, err := s.Pull()
	return err == nil
}

// Frame returns the last pulled frame.
func (s *Stream) Frame() []byte { return s.frame }

// Err returns the error that has ended the stream.
func (s *Stream) Err() error { return s.err }

// Count returns the number of frames pulled so far.
func (s *Stream) Count() uint64 { return s.n }

// Each calls fn for every frame until ctx is done, fn returns an error,
// or the stream ends. A cancelled ctx is checked between pulls only.
func (s *Stream) Each(ctx context.Context, fn func(i uint64, frame []byte) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := s.Pull()
		if err != nil {
			return err
		}
		if err := fn(s.n-1, data); err != nil {
			return err
		}
	}
}

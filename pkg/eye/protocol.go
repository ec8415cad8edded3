// Package eye talks to the native camera library.
//
// Every native entry point returns a Status and hands its results back
// through fixed 8-byte out-buffers. On success all the buffers of the call
// are populated. On failure only the first pointer buffer is, and it points
// to a null-terminated UTF-8 error message. Nothing else is read on that path.
package eye

import (
	"encoding/binary"
	"unsafe"
)

// Native entry point names.
const (
	SymCreate           = "create"
	SymNextFrame        = "next_frame"
	SymStreamDescriptor = "stream_descriptor"
	SymFrame            = "frame"
	SymDestroy          = "destroy"
)

// Status is the direct return value of every native call.
type Status int8

const StatusOk Status = 0

func (s Status) Ok() bool { return s == StatusOk }

// Handle is an opaque native capture session.
type Handle uintptr

// OutBuffer receives one native-width value (a pointer or a length)
// written by a native call.
type OutBuffer [8]byte

const wordSize = unsafe.Sizeof(uintptr(0))

// Ptr decodes a native-endian address.
func (b *OutBuffer) Ptr() uintptr { return uintptr(b.word()) }

// Len decodes a native-endian unsigned length.
func (b *OutBuffer) Len() uint64 { return b.word() }

func (b *OutBuffer) word() uint64 {
	if wordSize == 4 {
		return uint64(binary.NativeEndian.Uint32(b[:4]))
	}
	return binary.NativeEndian.Uint64(b[:])
}

func (b *OutBuffer) put(v uint64) {
	*b = OutBuffer{}
	if wordSize == 4 {
		binary.NativeEndian.PutUint32(b[:4], uint32(v))
		return
	}
	binary.NativeEndian.PutUint64(b[:], v)
}

// Symbols is an already loaded native symbol table.
type Symbols interface {
	Create(out *OutBuffer) Status
	NextFrame(h Handle, ptr, n *OutBuffer) Status
	StreamDescriptor(h Handle, out *OutBuffer) Status
}

// Memory reads native memory.
type Memory interface {
	// CString returns the bytes at addr up to and including the first zero byte.
	// If no terminator is found within the implementation limit,
	// the scanned bytes are returned without one.
	CString(addr uintptr) ([]byte, error)
	// Copy returns an independently owned copy of n bytes at addr.
	Copy(addr uintptr, n uint64) ([]byte, error)
}

// Library is a loaded native camera library.
type Library interface {
	Symbols
	Memory
}

// Snapshotter is the optional single-shot entry point that
// returns one frame with its descriptor without a session.
type Snapshotter interface {
	Frame(ptr, n, desc *OutBuffer) Status
}

// Destroyer is the optional explicit session teardown.
type Destroyer interface {
	Destroy(h Handle)
}

// Capabilities reports which optional entry points the library exports.
// Libraries without it are trusted by their Go type alone.
type Capabilities interface {
	Has(symbol string) bool
}

func supports(lib any, symbol string) bool {
	if c, ok := lib.(Capabilities); ok {
		return c.Has(symbol)
	}
	return true
}

func create(lib Library) (Handle, error) {
	var out OutBuffer
	if st := lib.Create(&out); !st.Ok() {
		return 0, callError(lib, SymCreate, st, &out)
	}
	h := Handle(out.Ptr())
	if h == 0 {
		return 0, &DecodeError{What: "session handle", Err: errNullPointer}
	}
	return h, nil
}

func nextFrame(lib Library, h Handle) ([]byte, error) {
	var ptr, n OutBuffer
	if st := lib.NextFrame(h, &ptr, &n); !st.Ok() {
		return nil, callError(lib, SymNextFrame, st, &ptr)
	}
	return copyFrame(lib, ptr.Ptr(), n.Len())
}

func streamDescriptor(lib Library, h Handle) (Descriptor, error) {
	var out OutBuffer
	if st := lib.StreamDescriptor(h, &out); !st.Ok() {
		return Descriptor{}, callError(lib, SymStreamDescriptor, st, &out)
	}
	return descriptorAt(lib, out.Ptr())
}

func frame(lib Library, s Snapshotter) ([]byte, Descriptor, error) {
	var ptr, n, desc OutBuffer
	if st := s.Frame(&ptr, &n, &desc); !st.Ok() {
		return nil, Descriptor{}, callError(lib, SymFrame, st, &ptr)
	}
	data, err := copyFrame(lib, ptr.Ptr(), n.Len())
	if err != nil {
		return nil, Descriptor{}, err
	}
	d, err := descriptorAt(lib, desc.Ptr())
	if err != nil {
		return nil, Descriptor{}, err
	}
	return data, d, nil
}

// copyFrame moves a frame out of native memory.
// A zero-length frame is valid and may come with a null pointer.
func copyFrame(mem Memory, addr uintptr, n uint64) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}
	if addr == 0 {
		return nil, &DecodeError{What: "frame", Err: errNullPointer}
	}
	b, err := mem.Copy(addr, n)
	if err != nil {
		return nil, &DecodeError{What: "frame", Err: err}
	}
	if uint64(len(b)) != n {
		return nil, &DecodeError{What: "frame", Err: errShortRead}
	}
	return b, nil
}

func descriptorAt(mem Memory, addr uintptr) (Descriptor, error) {
	raw, err := cstring(mem, addr, "descriptor")
	if err != nil {
		return Descriptor{}, err
	}
	return DecodeDescriptor(raw)
}

func cstring(mem Memory, addr uintptr, what string) ([]byte, error) {
	if addr == 0 {
		return nil, &DecodeError{What: what, Err: errNullPointer}
	}
	raw, err := mem.CString(addr)
	if err != nil {
		return nil, &DecodeError{What: what, Err: err}
	}
	return raw, nil
}

// callError decodes the error message of a failed call.
func callError(mem Memory, call string, st Status, out *OutBuffer) error {
	e := &CallError{Call: call, Status: st}
	raw, err := cstring(mem, out.Ptr(), "error message")
	if err == nil {
		e.Message, err = DecodeCString(raw)
		if err != nil {
			err = &DecodeError{What: "error message", Err: err}
		}
	}
	e.Err = err
	return e
}

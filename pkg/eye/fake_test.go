package eye

import (
	"bytes"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// fakeLib is a scriptable in-memory native library.
// Native memory is an address to bytes map, frames reuse one address
// like a real capture buffer does.
type fakeLib struct {
	mu    sync.Mutex
	arena map[uintptr][]byte
	next  uintptr

	createErr string
	nullCtx   bool
	frames    [][]byte
	frameErr  map[int]string // call index -> error message
	desc      string
	descErr   string
	rawErr    []byte // the error message bytes as is
	hasFrame  bool
	delay     time.Duration

	calls     map[string]int
	destroyed []Handle
	inFlight  atomic.Int32
	overlap   atomic.Bool
}

const frameAddr uintptr = 0x1000

func newFakeLib() *fakeLib {
	return &fakeLib{
		arena:    map[uintptr][]byte{},
		next:     0x10000,
		calls:    map[string]int{},
		frameErr: map[int]string{},
		desc:     `{"width":640,"height":480,"pixfmt":{"Custom":"YUYV"}}`,
		hasFrame: true,
	}
}

func (f *fakeLib) enter(call string) func() {
	if f.inFlight.Add(1) > 1 {
		f.overlap.Store(true)
	}
	f.mu.Lock()
	f.calls[call]++
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return func() { f.inFlight.Add(-1) }
}

func (f *fakeLib) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[call]
}

func (f *fakeLib) alloc(b []byte) uintptr {
	f.mu.Lock()
	defer f.mu.Unlock()
	addr := f.next
	f.next += uintptr(len(b)) + 0x100
	f.arena[addr] = b
	return addr
}

func (f *fakeLib) fail(out *OutBuffer, msg string) Status {
	b := f.rawErr
	if b == nil {
		b = append([]byte(msg), 0)
	}
	out.put(uint64(f.alloc(b)))
	return -1
}

func (f *fakeLib) Create(out *OutBuffer) Status {
	defer f.enter(SymCreate)()
	if f.createErr != "" {
		return f.fail(out, f.createErr)
	}
	if !f.nullCtx {
		out.put(0xcafe)
	}
	return StatusOk
}

func (f *fakeLib) NextFrame(h Handle, ptr, n *OutBuffer) Status {
	defer f.enter(SymNextFrame)()
	if h != 0xcafe {
		panic(fmt.Sprintf("bad handle %#x", h))
	}
	i := f.count(SymNextFrame) - 1
	if msg, ok := f.frameErr[i]; ok {
		return f.fail(ptr, msg)
	}
	if i >= len(f.frames) {
		return f.fail(ptr, "no more frames")
	}
	data := f.frames[i]
	f.mu.Lock()
	f.arena[frameAddr] = bytes.Clone(data)
	f.mu.Unlock()
	if len(data) > 0 {
		ptr.put(uint64(frameAddr))
	}
	n.put(uint64(len(data)))
	return StatusOk
}

func (f *fakeLib) StreamDescriptor(h Handle, out *OutBuffer) Status {
	defer f.enter(SymStreamDescriptor)()
	if f.descErr != "" {
		return f.fail(out, f.descErr)
	}
	out.put(uint64(f.alloc(append([]byte(f.desc), 0))))
	return StatusOk
}

func (f *fakeLib) Destroy(h Handle) {
	defer f.enter(SymDestroy)()
	f.destroyed = append(f.destroyed, h)
}

func (f *fakeLib) Has(symbol string) bool {
	switch symbol {
	case SymFrame:
		return f.hasFrame
	}
	return true
}

func (f *fakeLib) CString(addr uintptr) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.arena[addr]
	if !ok {
		return nil, fmt.Errorf("segfault at %#x", addr)
	}
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return bytes.Clone(b[:i+1]), nil
	}
	return bytes.Clone(b), nil
}

func (f *fakeLib) Copy(addr uintptr, n uint64) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.arena[addr]
	if !ok {
		return nil, fmt.Errorf("segfault at %#x", addr)
	}
	if uint64(len(b)) < n {
		return bytes.Clone(b), nil
	}
	return bytes.Clone(b[:n]), nil
}

// snapLib adds the single-shot entry point.
type snapLib struct{ *fakeLib }

func (s snapLib) Frame(ptr, n, desc *OutBuffer) Status {
	defer s.enter(SymFrame)()
	if len(s.frames) == 0 {
		return s.fail(ptr, "no camera")
	}
	data := s.frames[0]
	ptr.put(uint64(s.alloc(bytes.Clone(data))))
	n.put(uint64(len(data)))
	desc.put(uint64(s.alloc(append([]byte(s.desc), 0))))
	return StatusOk
}

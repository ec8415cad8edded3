// Package dl loads the native camera library with dlopen.
package dl

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/giongto35/eye/pkg/eye"
)

/*
#include <stdint.h>
#include <stddef.h>
#include <string.h>

typedef signed char (*create_t)(size_t *);
typedef signed char (*next_frame_t)(void *, size_t *, size_t *);
typedef signed char (*stream_descriptor_t)(void *, size_t *);
typedef signed char (*frame_t)(size_t *, size_t *, size_t *);
typedef void (*destroy_t)(void *);

static signed char bridge_create(void *f, void *out) {
	size_t r = 0;
	signed char st = ((create_t)f)(&r);
	memcpy(out, &r, sizeof r);
	return st;
}

static signed char bridge_next_frame(void *f, uintptr_t h, void *ptr, void *len) {
	size_t r = 0, n = 0;
	signed char st = ((next_frame_t)f)((void *)h, &r, &n);
	memcpy(ptr, &r, sizeof r);
	memcpy(len, &n, sizeof n);
	return st;
}

static signed char bridge_stream_descriptor(void *f, uintptr_t h, void *out) {
	size_t r = 0;
	signed char st = ((stream_descriptor_t)f)((void *)h, &r);
	memcpy(out, &r, sizeof r);
	return st;
}

static signed char bridge_frame(void *f, void *ptr, void *len, void *desc) {
	size_t r = 0, n = 0, d = 0;
	signed char st = ((frame_t)f)(&r, &n, &d);
	memcpy(ptr, &r, sizeof r);
	memcpy(len, &n, sizeof n);
	memcpy(desc, &d, sizeof d);
	return st;
}

static void bridge_destroy(void *f, uintptr_t h) { ((destroy_t)f)((void *)h); }

static size_t bridge_strnlen(uintptr_t p, size_t max) {
	const char *s = (const char *)p;
	size_t i = 0;
	while (i < max && s[i] != 0) i++;
	return i;
}

static void bridge_copy(void *dst, uintptr_t src, size_t n) { memcpy(dst, (const void *)src, n); }

static const char msg_closed[] = "native lib is closed";
static const char msg_missing[] = "native lib function is not loaded";

static signed char bridge_fail(void *out, int closed) {
	size_t r = (size_t)(closed ? msg_closed : msg_missing);
	memcpy(out, &r, sizeof r);
	return -1;
}
*/
import "C"

// MaxCString limits the scan for a string terminator in native memory.
const MaxCString = 1 << 20

var errNullPointer = errors.New("null pointer")

var required = []string{eye.SymCreate, eye.SymNextFrame, eye.SymStreamDescriptor}
var optional = []string{eye.SymFrame, eye.SymDestroy}

// Lib is a loaded native camera library.
// Native calls hold a read lock, so Close waits for the calls in flight.
// Calls after Close fail with a native-style error message.
type Lib struct {
	path   string
	handle unsafe.Pointer
	syms   map[string]unsafe.Pointer
	mu     sync.RWMutex
}

// Open loads the library at path and resolves its entry points.
func Open(path string) (*Lib, error) {
	h, err := loadLib(path)
	if err != nil {
		var err2 error
		if h, err2 = loadLibVersioned(path); err2 != nil {
			return nil, fmt.Errorf("couldn't load %v: %w", path, err)
		}
	}
	l := &Lib{path: path, handle: h, syms: map[string]unsafe.Pointer{}}
	for _, name := range required {
		fn := loadFunction(h, name)
		if fn == nil {
			_ = closeLib(h)
			return nil, fmt.Errorf("lib function not found: %v", name)
		}
		l.syms[name] = fn
	}
	for _, name := range optional {
		if fn := loadFunction(h, name); fn != nil {
			l.syms[name] = fn
		}
	}
	return l, nil
}

func (l *Lib) Path() string { return l.path }

// Has reports whether the library exports the symbol.
func (l *Lib) Has(symbol string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.syms[symbol]
	return ok
}

// Close unloads the library.
func (l *Lib) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	h := l.handle
	l.handle, l.syms = nil, map[string]unsafe.Pointer{}
	return closeLib(h)
}

// sym must be called under the read lock.
func (l *Lib) sym(name string) (unsafe.Pointer, C.int) {
	if l.handle == nil {
		return nil, 1
	}
	return l.syms[name], 0
}

func (l *Lib) Create(out *eye.OutBuffer) eye.Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	fn, closed := l.sym(eye.SymCreate)
	if fn == nil {
		return eye.Status(C.bridge_fail(unsafe.Pointer(out), closed))
	}
	return eye.Status(C.bridge_create(fn, unsafe.Pointer(out)))
}

func (l *Lib) NextFrame(h eye.Handle, ptr, n *eye.OutBuffer) eye.Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	fn, closed := l.sym(eye.SymNextFrame)
	if fn == nil {
		return eye.Status(C.bridge_fail(unsafe.Pointer(ptr), closed))
	}
	return eye.Status(C.bridge_next_frame(fn, C.uintptr_t(h), unsafe.Pointer(ptr), unsafe.Pointer(n)))
}

func (l *Lib) StreamDescriptor(h eye.Handle, out *eye.OutBuffer) eye.Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	fn, closed := l.sym(eye.SymStreamDescriptor)
	if fn == nil {
		return eye.Status(C.bridge_fail(unsafe.Pointer(out), closed))
	}
	return eye.Status(C.bridge_stream_descriptor(fn, C.uintptr_t(h), unsafe.Pointer(out)))
}

func (l *Lib) Frame(ptr, n, desc *eye.OutBuffer) eye.Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	fn, closed := l.sym(eye.SymFrame)
	if fn == nil {
		return eye.Status(C.bridge_fail(unsafe.Pointer(ptr), closed))
	}
	return eye.Status(C.bridge_frame(fn, unsafe.Pointer(ptr), unsafe.Pointer(n), unsafe.Pointer(desc)))
}

// Destroy does nothing when the lib is closed or has no destroy.
func (l *Lib) Destroy(h eye.Handle) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if fn, _ := l.sym(eye.SymDestroy); fn != nil {
		C.bridge_destroy(fn, C.uintptr_t(h))
	}
}

// CString reads a null-terminated string at addr, at most MaxCString bytes.
func (l *Lib) CString(addr uintptr) ([]byte, error) {
	if addr == 0 {
		return nil, errNullPointer
	}
	n := uint64(C.bridge_strnlen(C.uintptr_t(addr), MaxCString))
	if n < MaxCString {
		n++
	}
	return l.Copy(addr, n)
}

// Copy copies n bytes at addr into Go memory.
func (l *Lib) Copy(addr uintptr, n uint64) ([]byte, error) {
	if addr == 0 {
		return nil, errNullPointer
	}
	b := make([]byte, n)
	if n > 0 {
		C.bridge_copy(unsafe.Pointer(&b[0]), C.uintptr_t(addr), C.size_t(n))
	}
	return b, nil
}

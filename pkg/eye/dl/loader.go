package dl

import (
	"errors"
	"os"
	"path"
	"strconv"
	"strings"
	"unsafe"
)

/*
#cgo linux LDFLAGS: -ldl
#include <stdlib.h>
#include <dlfcn.h>
*/
import "C"

var errNotFound = errors.New("couldn't find 'n load the lib")

func loadFunction(handle unsafe.Pointer, name string) unsafe.Pointer {
	cs := C.CString(name)
	defer C.free(unsafe.Pointer(cs))
	return C.dlsym(handle, cs)
}

func loadLib(filepath string) (handle unsafe.Pointer, err error) {
	handle = open(filepath)
	if handle == nil {
		if e := C.dlerror(); e != nil {
			err = errors.New(C.GoString(e))
		} else {
			err = errors.New("couldn't load the lib")
		}
	}
	return
}

// loadLibVersioned tries the files that start with the name of the lib,
// i.e. libeye.so.0.1.0 for libeye.so.
func loadLibVersioned(filepath string) (handle unsafe.Pointer, err error) {
	dir, lib := path.Dir(filepath), path.Base(filepath)
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, errNotFound
	}
	for _, file := range files {
		if !file.IsDir() && strings.HasPrefix(file.Name(), lib) {
			if handle = open(path.Join(dir, file.Name())); handle != nil {
				return handle, nil
			}
		}
	}
	return nil, errNotFound
}

func open(file string) unsafe.Pointer {
	cs := C.CString(file)
	defer C.free(unsafe.Pointer(cs))
	return C.dlopen(cs, C.RTLD_LAZY)
}

func closeLib(handle unsafe.Pointer) (err error) {
	if handle == nil {
		return
	}
	if code := int(C.dlclose(handle)); code != 0 {
		return errors.New("couldn't close the lib (" + strconv.Itoa(code) + ")")
	}
	return
}

// Package thread runs functions on the main OS thread.
// Camera frameworks on macOS (AVFoundation) expect that.
// See: https://github.com/golang/go/wiki/LockOSThread
package thread

import (
	"runtime"

	"github.com/faiface/mainthread"
)

var isMacOs = runtime.GOOS == "darwin"

// Wrap enables functions to be executed in the main thread.
// Enabled for macOS only.
func Wrap(f func()) {
	if isMacOs {
		mainthread.Run(f)
	} else {
		f()
	}
}

// Call calls a function on the main thread.
// Enabled for macOS only, must be called from inside Wrap.
func Call(f func()) {
	if isMacOs {
		mainthread.Call(f)
	} else {
		f()
	}
}

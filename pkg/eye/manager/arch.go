package manager

import (
	"errors"
	"runtime"
)

// Prebuilt releases have a single lib per platform,
// darwin ones are suffixed with the CPU architecture.
var osArchMap = map[string]Info{
	"linux:amd64":   {Os: "linux", Arch: "x86_64", Prefix: "lib", LibExt: ".so"},
	"linux:arm64":   {Os: "linux", Arch: "aarch64", Prefix: "lib", LibExt: ".so"},
	"windows:amd64": {Os: "windows", Arch: "x86_64", LibExt: ".dll"},
	"darwin:amd64":  {Os: "darwin", Arch: "x86_64", Prefix: "lib", Suffix: "_x86_64", LibExt: ".dylib"},
	"darwin:arm64":  {Os: "darwin", Arch: "aarch64", Prefix: "lib", Suffix: "_aarch64", LibExt: ".dylib"},
}

// Info contains the native lib platform info.
type Info struct {
	Os   string
	Arch string

	Prefix string
	Suffix string
	// platform dependent library file extension (dot-prefixed)
	LibExt string
}

func Guess() (Info, error) { return GuessFor(runtime.GOOS, runtime.GOARCH) }

func GuessFor(goos, goarch string) (Info, error) {
	key := goos + ":" + goarch
	if arch, ok := osArchMap[key]; ok {
		return arch, nil
	}
	return Info{}, errors.New("lib mapping not found for " + key)
}

// FileName returns the platform file name of the lib, i.e. libeye.so.
func (i Info) FileName(name string) string { return i.Prefix + name + i.Suffix + i.LibExt }

package os

import (
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
)

var ErrNotExist = os.ErrNotExist

func Exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

func IsDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

func CheckCreateDir(path string) error {
	if !Exists(path) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}

// CacheDir returns a per-user cache directory for the app,
// falling back to the temp dir when the user one is unknown.
func CacheDir(app string) string {
	dir, err := os.UserCacheDir()
	if err != nil || dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, app)
}

func ExpectTermination() chan struct{} {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{}, 1)
	go func() {
		<-signals
		done <- struct{}{}
	}()
	return done
}

func Getenv(key string) string { return os.Getenv(key) }

func Remove(path string) error { return os.Remove(path) }

// Args returns the command-line arguments without the program name.
func Args() []string { return os.Args[1:] }

func Exit(code int) { os.Exit(code) }

func MkdirTemp(dir, pattern string) (string, error) { return os.MkdirTemp(dir, pattern) }

func Rename(from, to string) error { return os.Rename(from, to) }

func RemoveAll(path string) error { return os.RemoveAll(path) }

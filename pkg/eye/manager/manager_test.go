package manager

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/giongto35/eye/pkg/compression/zip"
	"github.com/giongto35/eye/pkg/config"
	"github.com/giongto35/eye/pkg/logger"
)

var linux = Info{Os: "linux", Arch: "x86_64", Prefix: "lib", LibExt: ".so"}

type server struct {
	*httptest.Server
	hits atomic.Int32
}

func newServer(t *testing.T, files map[string][]byte) *server {
	s := &server{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if r.Method == http.MethodGet {
			s.hits.Add(1)
		}
		_, _ = w.Write(data)
	}))
	t.Cleanup(s.Close)
	return s
}

func newManager(t *testing.T, conf config.Library, env map[string]string) *Manager {
	t.Helper()
	dir := t.TempDir()
	if conf.Name == "" {
		conf.Name = "eye"
	}
	if conf.Version == "" {
		conf.Version = "0.1.0"
	}
	conf.CacheDir = filepath.Join(dir, "cache")
	conf.ExtLock = filepath.Join(dir, "eye.lock")
	m, err := NewWithArch(conf, linux, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	m.getenv = func(k string) string { return env[k] }
	return m
}

func TestResolveDownload(t *testing.T) {
	srv := newServer(t, map[string][]byte{"/releases/0.1.0/libeye.so": []byte("ELF")})
	m := newManager(t, config.Library{Url: srv.URL + "/releases"}, nil)

	loc, err := m.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if loc.Cached || loc.Override {
		t.Errorf("Resolve() = %+v, want a fresh download", loc)
	}
	if want := filepath.Join(m.conf.CacheDir, "0.1.0", "libeye.so"); loc.Path != want {
		t.Errorf("path = %v, want %v", loc.Path, want)
	}
	if data, _ := os.ReadFile(loc.Path); string(data) != "ELF" {
		t.Errorf("lib = %q, want ELF", data)
	}

	loc, err = m.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !loc.Cached {
		t.Errorf("second Resolve() is not cached")
	}
	if n := srv.hits.Load(); n != 1 {
		t.Errorf("downloads = %v, want 1", n)
	}

	m.conf.Reload = true
	if loc, err = m.Resolve(context.Background()); err != nil || loc.Cached {
		t.Errorf("Resolve() with reload = %+v, %v", loc, err)
	}
	if n := srv.hits.Load(); n != 2 {
		t.Errorf("downloads = %v, want 2", n)
	}
}

func TestResolveZip(t *testing.T) {
	archive, err := zip.Compress([]byte("ELF"), "libeye.so")
	if err != nil {
		t.Fatal(err)
	}
	srv := newServer(t, map[string][]byte{"/0.1.0/libeye.so.zip": archive})
	m := newManager(t, config.Library{Url: srv.URL, Compression: "zip"}, nil)

	loc, err := m.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if data, _ := os.ReadFile(loc.Path); string(data) != "ELF" {
		t.Errorf("lib = %q, want ELF", data)
	}
	if _, err := os.Stat(loc.Path + ".zip"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("archive was not removed: %v", err)
	}
}

func TestResolveNotFound(t *testing.T) {
	srv := newServer(t, nil)
	m := newManager(t, config.Library{Url: srv.URL}, nil)

	if _, err := m.Resolve(context.Background()); err == nil {
		t.Errorf("Resolve() of a missing release has no error")
	}
}

func TestResolveCancelled(t *testing.T) {
	srv := newServer(t, map[string][]byte{"/0.1.0/libeye.so": []byte("ELF")})
	m := newManager(t, config.Library{Url: srv.URL}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Resolve(ctx); err == nil {
		t.Errorf("Resolve() with a cancelled context has no error")
	}
}

func TestResolveOverride(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, "libeye.so")
	if err := os.WriteFile(lib, []byte("ELF"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		env  string
		conf string
		want string
		err  bool
	}{
		{name: "env file", env: lib, want: lib},
		{name: "env dir", env: dir, want: lib},
		{name: "env beats conf", env: lib, conf: "/nope/libeye.so", want: lib},
		{name: "conf", conf: lib, want: lib},
		{name: "env missing", env: filepath.Join(dir, "nope.so"), err: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m := newManager(t, config.Library{Path: test.conf, Url: "http://127.0.0.1:0"},
				map[string]string{LibPathEnv: test.env})
			loc, err := m.Resolve(context.Background())
			if test.err {
				if !errors.Is(err, ErrNoLib) {
					t.Errorf("Resolve() error = %v, want %v", err, ErrNoLib)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if loc.Path != test.want || !loc.Override {
				t.Errorf("Resolve() = %+v, want %v", loc, test.want)
			}
		})
	}
}

func TestResolveOverrideUrl(t *testing.T) {
	srv := newServer(t, map[string][]byte{"/dev/libeye.so": []byte("ELF")})
	m := newManager(t, config.Library{}, map[string]string{LibPathEnv: srv.URL + "/dev"})

	for i := 0; i < 2; i++ {
		loc, err := m.Resolve(context.Background())
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if !loc.Override || loc.Cached {
			t.Errorf("Resolve() = %+v", loc)
		}
	}
	if n := srv.hits.Load(); n != 2 {
		t.Errorf("downloads = %v, want 2 (always reload)", n)
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		os, arch string
		want     string
	}{
		{"linux", "amd64", "libeye.so"},
		{"linux", "arm64", "libeye.so"},
		{"windows", "amd64", "eye.dll"},
		{"darwin", "amd64", "libeye_x86_64.dylib"},
		{"darwin", "arm64", "libeye_aarch64.dylib"},
	}
	for _, test := range tests {
		info, err := GuessFor(test.os, test.arch)
		if err != nil {
			t.Fatalf("GuessFor(%v, %v) error = %v", test.os, test.arch, err)
		}
		if got := info.FileName("eye"); got != test.want {
			t.Errorf("FileName() = %v, want %v", got, test.want)
		}
	}
	if _, err := GuessFor("plan9", "386"); err == nil {
		t.Errorf("GuessFor(plan9) has no error")
	}
}

func TestReleaseUrl(t *testing.T) {
	tests := []struct {
		rel  Release
		want string
	}{
		{Release{Address: "https://github.com/sigmaSd/eye-ts/releases/download", Version: "0.1.0"},
			"https://github.com/sigmaSd/eye-ts/releases/download/0.1.0/libeye.so"},
		{Release{Address: "http://a/", Version: "1", Compression: "zip"}, "http://a/1/libeye.so.zip"},
		{Release{Address: "http://a"}, "http://a/libeye.so"},
	}
	for _, test := range tests {
		if got := test.rel.Url("libeye.so"); got != test.want {
			t.Errorf("Url() = %v, want %v", got, test.want)
		}
	}
}

func TestReloadKeepsCache(t *testing.T) {
	tests := []struct {
		name   string
		files  map[string][]byte
		want   string
		cached bool
	}{
		{name: "new version", files: map[string][]byte{"/0.1.0/libeye.so": []byte("NEW")}, want: "NEW"},
		{name: "download fails", want: "OLD", cached: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			srv := newServer(t, test.files)
			m := newManager(t, config.Library{Url: srv.URL, Reload: true}, nil)
			dir := filepath.Join(m.conf.CacheDir, "0.1.0")
			if err := os.MkdirAll(dir, 0755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(filepath.Join(dir, "libeye.so"), []byte("OLD"), 0644); err != nil {
				t.Fatal(err)
			}

			loc, err := m.Resolve(context.Background())
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if loc.Cached != test.cached {
				t.Errorf("cached = %v, want %v", loc.Cached, test.cached)
			}
			if data, _ := os.ReadFile(loc.Path); string(data) != test.want {
				t.Errorf("lib = %q, want %q", data, test.want)
			}
			entries, err := os.ReadDir(dir)
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != 1 {
				t.Errorf("cache dir has leftovers: %v", entries)
			}
		})
	}
}

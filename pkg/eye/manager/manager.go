// Package manager finds the native camera library,
// downloading the pinned prebuilt release into a cache when needed.
package manager

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/giongto35/eye/pkg/config"
	"github.com/giongto35/eye/pkg/logger"
	"github.com/giongto35/eye/pkg/os"
)

// LibPathEnv overrides the lib location. It can be a path to the lib file,
// a dir with it, or a URL of a release repository (always downloaded).
const LibPathEnv = "EYE_LIB_PATH"

var ErrNoLib = errors.New("native lib not found")

// Location is a resolved lib file.
type Location struct {
	Path string
	// Cached is set when the file was already in the cache.
	Cached bool
	// Override is set when the location came from LibPathEnv or the config path.
	Override bool
}

type Manager struct {
	conf   config.Library
	arch   Info
	client Downloader
	fmu    *os.Flock
	getenv func(string) string
	log    *logger.Logger
}

func New(conf config.Library, log *logger.Logger) (*Manager, error) {
	ar, err := Guess()
	if err != nil {
		return nil, err
	}
	return NewWithArch(conf, ar, log)
}

func NewWithArch(conf config.Library, ar Info, log *logger.Logger) (*Manager, error) {
	// used for synchronization of multiple processes
	flock, err := os.NewFileLock(conf.ExtLock)
	if err != nil {
		return nil, fmt.Errorf("couldn't make file lock: %w", err)
	}
	return &Manager{
		conf:   conf,
		arch:   ar,
		client: NewDefaultDownloader(log),
		fmu:    flock,
		getenv: os.Getenv,
		log:    log,
	}, nil
}

func (m *Manager) FileName() string { return m.arch.FileName(m.conf.Name) }

func (m *Manager) Release() Release {
	return Release{Address: m.conf.Url, Version: m.conf.Version, Compression: m.conf.Compression}
}

// Resolve returns the location of the lib to load.
func (m *Manager) Resolve(ctx context.Context) (Location, error) {
	if p := m.getenv(LibPathEnv); p != "" {
		if isUrl(p) {
			m.log.Debug().Msgf("lib repository override: %v", p)
			rel := Release{Address: p, Compression: m.conf.Compression}
			loc, err := m.sync(ctx, rel, filepath.Join(m.conf.GetCacheDir(), "local"), true)
			loc.Override = true
			return loc, err
		}
		return m.local(p)
	}
	if m.conf.Path != "" {
		return m.local(m.conf.Path)
	}
	return m.sync(ctx, m.Release(), filepath.Join(m.conf.GetCacheDir(), m.conf.Version), m.conf.Reload)
}

func (m *Manager) local(path string) (Location, error) {
	if os.IsDir(path) {
		path = filepath.Join(path, m.FileName())
	}
	if !os.Exists(path) {
		return Location{}, fmt.Errorf("%w: %v", ErrNoLib, path)
	}
	return Location{Path: path, Override: true}, nil
}

func (m *Manager) sync(ctx context.Context, rel Release, dir string, reload bool) (Location, error) {
	// IPC lock if multiple processes on the same machine
	if err := m.fmu.Lock(); err != nil {
		m.log.Error().Err(err).Msg("file lock fail")
	}
	defer func() {
		if err := m.fmu.Unlock(); err != nil {
			m.log.Error().Err(err).Msg("file unlock fail")
		}
	}()

	file := m.FileName()
	path := filepath.Join(dir, file)
	cached := os.Exists(path)
	if !reload && cached {
		return Location{Path: path, Cached: true}, nil
	}

	err := m.download(ctx, rel, dir, file)
	if err != nil && cached {
		m.log.Warn().Err(err).Msg("couldn't reload the lib, using the cached copy")
		return Location{Path: path, Cached: true}, nil
	}
	if err != nil {
		return Location{}, err
	}
	return Location{Path: path}, nil
}

// download fetches the lib into a temp dir next to the cached copy
// and replaces it only when the whole download has succeeded.
func (m *Manager) download(ctx context.Context, rel Release, dir string, file string) error {
	if err := os.CheckCreateDir(dir); err != nil {
		return err
	}
	tmp, err := os.MkdirTemp(dir, ".dl-")
	if err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	files, err := m.client.Download(ctx, tmp, rel.Url(file))
	if err != nil {
		return err
	}
	got := filepath.Join(tmp, file)
	if !os.Exists(got) {
		return fmt.Errorf("%w: %v is not in %v", ErrNoLib, file, files)
	}
	return os.Rename(got, filepath.Join(dir, file))
}

func isUrl(s string) bool { return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") }

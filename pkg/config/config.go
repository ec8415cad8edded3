package config

import (
	"github.com/giongto35/eye/pkg/os"
	"github.com/spf13/pflag"
)

type Config struct {
	Debug      bool
	Log        Log
	Library    Library
	Capture    Capture
	Monitoring Monitoring
}

type Log struct {
	// Json switches the console output to JSON lines.
	Json    bool
	NoColor bool
}

// Library describes where the native camera library comes from.
type Library struct {
	// Name is the base name of the lib file (libeye.so, eye.dll, ...).
	Name string `default:"eye"`
	// Version is the pinned release of the prebuilt lib,
	// it doesn't have to match the version of this module.
	Version string `default:"0.1.0"`
	Url     string `default:"https://github.com/sigmaSd/eye-ts/releases/download"`
	// Path loads the lib from this exact local path bypassing the cache.
	Path        string
	CacheDir    string
	Compression string
	// ExtLock is a file used for synchronization of multiple processes.
	ExtLock string
	// Reload forces a new download even if there is a cached copy.
	Reload bool
}

type Capture struct {
	// Frames is how many frames to pull, 0 means until interrupted.
	Frames   int
	Output   string
	Scale    float64 `default:"1"`
	Snapshot bool
}

type Monitoring struct {
	Port             int `default:"6601"`
	URLPrefix        string
	MetricEnabled    bool
	ProfilingEnabled bool
}

func (m *Monitoring) IsEnabled() bool { return m.MetricEnabled || m.ProfilingEnabled }

func (l *Library) GetCacheDir() string {
	if l.CacheDir != "" {
		return l.CacheDir
	}
	return os.CacheDir("eye")
}

// WithFlags binds command-line flags to the config.
// Current config values become the flag defaults,
// so only the flags that are set override them.
func (c *Config) WithFlags(fs *pflag.FlagSet) *Config {
	fs.BoolVar(&c.Debug, "debug", c.Debug, "Verbose logging")
	fs.BoolVar(&c.Log.NoColor, "no-color", c.Log.NoColor, "Disable colored console output")
	fs.StringVar(&c.Library.Path, "lib", c.Library.Path, "Load the native library from this path (bypasses the cache)")
	fs.StringVar(&c.Library.CacheDir, "cache", c.Library.CacheDir, "Native library cache directory")
	fs.BoolVar(&c.Library.Reload, "reload", c.Library.Reload, "Download the native library again even if cached")
	fs.IntVarP(&c.Capture.Frames, "frames", "n", c.Capture.Frames, "Number of frames to capture (0 = until interrupted)")
	fs.StringVarP(&c.Capture.Output, "out", "o", c.Capture.Output, "Directory for captured images (empty = don't save)")
	fs.Float64Var(&c.Capture.Scale, "scale", c.Capture.Scale, "Scale factor for saved images")
	fs.BoolVar(&c.Capture.Snapshot, "snapshot", c.Capture.Snapshot, "Use the single-shot frame call")
	fs.IntVar(&c.Monitoring.Port, "monitoring.port", c.Monitoring.Port, "Monitoring server port")
	fs.BoolVar(&c.Monitoring.MetricEnabled, "monitoring.metrics", c.Monitoring.MetricEnabled, "Serve Prometheus metrics")
	return c
}

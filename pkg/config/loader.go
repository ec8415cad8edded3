package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/kkyr/fig"
	"github.com/spf13/pflag"
)

const (
	EnvPrefix = "EYE"
	FileName  = "config.yaml"
)

// LoadConfig loads a configuration file into the given struct.
// The path param specifies a custom path to the configuration file or its directory.
// Reads and puts environment variables with the prefix EYE_.
// Params from the config should be in uppercase separated with _.
// When no config file is found only defaults and env variables are used.
func LoadConfig(config any, path string) error {
	file, dirs := FileName, []string{path}
	switch {
	case path == "":
		dirs = append(dirs[:0], ".", "configs")
		if home, err := os.UserHomeDir(); err == nil {
			dirs = append(dirs, filepath.Join(home, ".eye"))
		}
	case filepath.Ext(path) == ".yaml" || filepath.Ext(path) == ".yml":
		file, dirs = filepath.Base(path), []string{filepath.Dir(path)}
	}
	err := fig.Load(config, fig.File(file), fig.Dirs(dirs...), fig.UseEnv(EnvPrefix))
	if errors.Is(err, fig.ErrFileNotFound) && path == "" {
		return LoadConfigEnv(config)
	}
	return err
}

func LoadConfigEnv(config any) error {
	return fig.Load(config, fig.IgnoreFile(), fig.UseEnv(EnvPrefix))
}

// ParseFlags loads the config (with the path from -c/--conf if any)
// and applies command-line flags on top of it.
func ParseFlags(name string, args []string) (*Config, error) {
	var path string
	pre := pflag.NewFlagSet(name, pflag.ContinueOnError)
	pre.ParseErrorsWhitelist.UnknownFlags = true
	pre.Usage = func() {}
	pre.StringVarP(&path, "conf", "c", "", "")
	_ = pre.Parse(args)

	var conf Config
	if err := LoadConfig(&conf, path); err != nil {
		return nil, err
	}

	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringP("conf", "c", path, "Set custom configuration file path")
	conf.WithFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return &conf, nil
}

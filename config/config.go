// Package config holds the run configuration of the ros CLI and of hosts
// that want the same knobs: strict assignment, log level, library
// directories, inline modules and predefined globals.
package config

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/panyam/ros/loader"
	"github.com/panyam/ros/runtime"
)

// Environment variables consulted by the CLI.
const (
	EnvConfigPath = "ROS_CONFIG"
	EnvLogLevel   = "ROS_LOG_LEVEL"
)

// Config is the decoded form of a ros.yaml file.
type Config struct {
	Strict   bool              `yaml:"strict"`
	LogLevel string            `yaml:"log_level"`
	Libs     StringList        `yaml:"libs"`
	Modules  map[string]string `yaml:"modules"`

	// Globals are bound in the root scope before the script runs.
	Globals map[string]any `yaml:"globals"`
}

// StringList accepts either a single string or a sequence of strings.
type StringList []string

func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" || strings.TrimSpace(value.Value) == "" {
			*l = nil
			return nil
		}
		*l = StringList{strings.TrimSpace(value.Value)}
		return nil
	case yaml.SequenceNode:
		items := make([]string, 0, len(value.Content))
		for _, node := range value.Content {
			var str string
			if err := node.Decode(&str); err != nil {
				return err
			}
			if str = strings.TrimSpace(str); str != "" {
				items = append(items, str)
			}
		}
		*l = items
		return nil
	case yaml.AliasNode:
		return l.UnmarshalYAML(value.Alias)
	}
	return fmt.Errorf("config: expected string or sequence but found %s", value.ShortTag())
}

// Parse decodes a config.  Unknown keys are an error and an empty document
// yields the zero Config.
func Parse(r io.Reader) (*Config, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var cfg Config
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads and parses the config at path.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer file.Close()
	cfg, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault loads the file named by ROS_CONFIG, or returns an empty
// Config when it is not set.
func LoadDefault() (*Config, error) {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return Load(path)
	}
	return &Config{}, nil
}

// LoadEnvFiles loads .env style files into the process environment without
// overriding variables that are already set.  With no arguments it loads
// ./.env if there is one.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		files = []string{".env"}
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("config: loading env files %v: %w", files, err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.LogLevel != "" {
		if _, err := runtime.ParseLogLevel(c.LogLevel); err != nil {
			return fmt.Errorf("config: log_level: %w", err)
		}
	}
	for _, name := range slices.Sorted(maps.Keys(c.Globals)) {
		if _, ok := runtime.ToValue(c.Globals[name]); !ok {
			return fmt.Errorf("config: globals.%s: unsupported value %v", name, c.Globals[name])
		}
	}
	return nil
}

// Level is the configured log level, or def when none is set.
func (c *Config) Level(def runtime.LogLevel) runtime.LogLevel {
	if level, err := runtime.ParseLogLevel(c.LogLevel); err == nil && c.LogLevel != "" {
		return level
	}
	return def
}

// RuntimeOptions turns the config into runtime options.  Options passed in
// extra are applied after, so callers can override.
func (c *Config) RuntimeOptions(extra ...runtime.Option) []runtime.Option {
	return append([]runtime.Option{runtime.WithStrict(c.Strict)}, extra...)
}

// Importables loads every lib directory through ld and lays the inline
// modules over them.
func (c *Config) Importables(ld *loader.Loader) (map[string]string, error) {
	out := map[string]string{}
	if len(c.Libs) > 0 {
		libs, err := ld.LoadImportables(c.Libs...)
		if err != nil {
			return nil, err
		}
		maps.Copy(out, libs)
	}
	maps.Copy(out, c.Modules)
	return out, nil
}

// Environment builds the root scope for a run: rt's base environment over
// importables plus the configured globals.
func (c *Config) Environment(rt *runtime.Runtime, importables map[string]string) (*runtime.Env, error) {
	env := rt.BasicEnvironment(importables)
	for _, name := range slices.Sorted(maps.Keys(c.Globals)) {
		v, ok := runtime.ToValue(c.Globals[name])
		if !ok {
			return nil, fmt.Errorf("config: globals.%s: unsupported value %v", name, c.Globals[name])
		}
		env.SetHere(name, v)
	}
	return env, nil
}

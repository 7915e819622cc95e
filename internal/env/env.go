package env

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "llink"
	// EnvPrefix prefixes the tool's own environment variables.
	EnvPrefix = "LLINK"
)

// WorkDir returns <UserCacheDir>/.llink.
func WorkDir() (string, error) {
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userCacheDir, "."+AppName), nil
}

// Config is the tool configuration. Values come, in decreasing precedence,
// from explicit Set calls (command-line flags), the environment, the config
// file and defaults.
type Config struct {
	v *viper.Viper
}

// bindings maps configuration keys to the environment variables read for
// them, in precedence order.
var bindings = map[string][]string{
	"root":      {"LLINK_ROOT", "CARGO_MANIFEST_DIR"},
	"out_dir":   {"LLINK_OUT_DIR", "OUT_DIR"},
	"cc":        {"LLINK_CC", "CC"},
	"ar":        {"LLINK_AR", "AR"},
	"jobs":      {"LLINK_JOBS", "NUM_JOBS"},
	"log_level": {"LLINK_LOG_LEVEL"},
	"table":     {"LLINK_TABLE"},
	"format":    {"LLINK_FORMAT"},
}

// Load loads the configuration. An empty configFile searches for
// llink.{toml,yaml,json} in the working directory; not finding one is not an
// error.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	// Present but empty variables are values, not absences.
	v.AllowEmptyEnv(true)

	v.SetDefault("cc", "cc")
	v.SetDefault("ar", "ar")
	v.SetDefault("jobs", 0)
	v.SetDefault("log_level", "info")
	v.SetDefault("format", "cargo")

	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, err
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName(AppName)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}
	return &Config{v: v}, nil
}

// ConfigFile returns the config file in use, or "".
func (c *Config) ConfigFile() string {
	return c.v.ConfigFileUsed()
}

// Set overrides key.
func (c *Config) Set(key string, value any) {
	c.v.Set(key, value)
}

// Lookup reads a build environment variable. The process environment takes
// precedence over the [env] table of the config file. ok is false only when
// the variable is absent from both; an empty value is present.
func (c *Config) Lookup(name string) (string, bool) {
	key := "env." + strings.ToLower(name)
	if err := c.v.BindEnv(key, name); err != nil {
		return "", false
	}
	if !c.v.IsSet(key) {
		return "", false
	}
	return c.v.GetString(key), true
}

// ToolEnv returns the variables of the config file's [env] table, to be
// exported to the compiler and archiver. Names are upper-cased since config
// keys are case-insensitive. A variable also set in the process environment
// keeps the process value.
func (c *Config) ToolEnv() map[string]string {
	table := c.v.GetStringMap("env")
	if len(table) == 0 {
		return nil
	}
	env := make(map[string]string, len(table))
	for key := range table {
		name := strings.ToUpper(key)
		if val, ok := c.Lookup(name); ok {
			env[name] = val
		}
	}
	return env
}

func (c *Config) nonEmpty(key, def string) string {
	if s := c.v.GetString(key); s != "" {
		return s
	}
	return def
}

// Root returns the build root as an absolute path. It defaults to the
// working directory.
func (c *Config) Root() (string, error) {
	root := c.nonEmpty("root", ".")
	return filepath.Abs(root)
}

// OutDir returns the output directory, creating it. It defaults to
// <WorkDir>/out.
func (c *Config) OutDir() (string, error) {
	dir := c.v.GetString("out_dir")
	if dir == "" {
		work, err := WorkDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(work, "out")
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

// CC returns the C compiler driver.
func (c *Config) CC() string {
	return c.nonEmpty("cc", "cc")
}

// AR returns the archiver.
func (c *Config) AR() string {
	return c.nonEmpty("ar", "ar")
}

// Jobs returns the number of concurrent compilations per archive.
func (c *Config) Jobs() int {
	if n := c.v.GetInt("jobs"); n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// LogLevel returns the configured log level name.
func (c *Config) LogLevel() string {
	return c.nonEmpty("log_level", "info")
}

// Table returns the program table file, or "" for the built-in table.
func (c *Config) Table() string {
	return c.v.GetString("table")
}

// Format returns the directive stream format.
func (c *Config) Format() string {
	return c.nonEmpty("format", "cargo")
}

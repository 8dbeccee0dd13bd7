package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/five82/moor/internal/logging"
)

// Config holds everything moor reads at startup.
type Config struct {
	Docker DockerConfig `mapstructure:"docker"`
	Poll   PollConfig   `mapstructure:"poll"`
	Logs   LogsConfig   `mapstructure:"logs"`
	Log    LogConfig    `mapstructure:"log"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// DockerConfig locates the daemon.
type DockerConfig struct {
	SocketPath     string `mapstructure:"socket_path"`
	ContextCommand string `mapstructure:"context_command"`
}

// PollConfig sets the refresh interval of each entity kind.
type PollConfig struct {
	Containers time.Duration `mapstructure:"containers"`
	Images     time.Duration `mapstructure:"images"`
	Volumes    time.Duration `mapstructure:"volumes"`
}

// LogsConfig controls container log streams.
type LogsConfig struct {
	Tail        int `mapstructure:"tail"`
	BufferLimit int `mapstructure:"buffer_limit"`
}

// LogConfig controls moor's own log file.
type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

const (
	envPrefix = "MOOR"

	defaultLocalConfig  = "moor.toml"
	defaultUserConfig   = "~/.config/moor/config.toml"
	defaultLogFile      = "~/.local/state/moor/moor.log"
	defaultPollInterval = time.Second
	defaultTail         = 100
	defaultBufferLimit  = 1 << 20
)

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"socket":       "docker.socket_path",
	"tail":         "logs.tail",
	"buffer-limit": "logs.buffer_limit",
	"log-file":     "log.file",
	"log-level":    "log.level",
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Docker: DockerConfig{ContextCommand: "docker"},
		Poll: PollConfig{
			Containers: defaultPollInterval,
			Images:     defaultPollInterval,
			Volumes:    defaultPollInterval,
		},
		Logs: LogsConfig{Tail: defaultTail, BufferLimit: defaultBufferLimit},
		Log:  LogConfig{File: mustExpand(defaultLogFile), Level: "info"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("docker.socket_path", d.Docker.SocketPath)
	v.SetDefault("docker.context_command", d.Docker.ContextCommand)
	v.SetDefault("poll.containers", d.Poll.Containers)
	v.SetDefault("poll.images", d.Poll.Images)
	v.SetDefault("poll.volumes", d.Poll.Volumes)
	v.SetDefault("logs.tail", d.Logs.Tail)
	v.SetDefault("logs.buffer_limit", d.Logs.BufferLimit)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.level", d.Log.Level)
}

// Load builds the configuration from defaults, the config file, a .env file,
// MOOR_* environment variables and any changed flags, in increasing order of
// precedence. An explicit path must exist; the default locations are optional.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	_ = godotenv.Load() // .env is optional

	v := viper.New()
	setDefaults(v)

	file, err := locate(path)
	if err != nil {
		return Config{}, err
	}
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = file
	cfg.Docker.SocketPath = strings.TrimSpace(cfg.Docker.SocketPath)
	cfg.Docker.ContextCommand = strings.TrimSpace(cfg.Docker.ContextCommand)
	if cfg.Log.File != "" {
		cfg.Log.File = mustExpand(cfg.Log.File)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the dashboard cannot run with.
func (c Config) Validate() error {
	var errs []error
	intervals := []struct {
		key string
		d   time.Duration
	}{
		{"poll.containers", c.Poll.Containers},
		{"poll.images", c.Poll.Images},
		{"poll.volumes", c.Poll.Volumes},
	}
	for _, iv := range intervals {
		if iv.d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", iv.key, iv.d))
		}
	}
	if c.Logs.Tail < 0 {
		errs = append(errs, fmt.Errorf("logs.tail must not be negative, got %d", c.Logs.Tail))
	}
	if c.Logs.BufferLimit < 0 {
		errs = append(errs, fmt.Errorf("logs.buffer_limit must not be negative, got %d", c.Logs.BufferLimit))
	}
	if _, err := logging.LookupLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// fileConfig is the on-disk shape written by Write. Durations are stored as
// strings so the file stays readable.
type fileConfig struct {
	Docker struct {
		SocketPath     string `toml:"socket_path"`
		ContextCommand string `toml:"context_command"`
	} `toml:"docker"`
	Poll struct {
		Containers string `toml:"containers"`
		Images     string `toml:"images"`
		Volumes    string `toml:"volumes"`
	} `toml:"poll"`
	Logs struct {
		Tail        int `toml:"tail"`
		BufferLimit int `toml:"buffer_limit"`
	} `toml:"logs"`
	Log struct {
		File  string `toml:"file"`
		Level string `toml:"level"`
	} `toml:"log"`
}

// Write stores cfg as TOML at path, creating parent directories. It refuses
// to overwrite an existing file.
func Write(path string, cfg Config) (string, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(resolved); err == nil {
		return "", fmt.Errorf("config %s already exists", resolved)
	}

	var out fileConfig
	out.Docker.SocketPath = cfg.Docker.SocketPath
	out.Docker.ContextCommand = cfg.Docker.ContextCommand
	out.Poll.Containers = cfg.Poll.Containers.String()
	out.Poll.Images = cfg.Poll.Images.String()
	out.Poll.Volumes = cfg.Poll.Volumes.String()
	out.Logs.Tail = cfg.Logs.Tail
	out.Logs.BufferLimit = cfg.Logs.BufferLimit
	out.Log.File = cfg.Log.File
	out.Log.Level = cfg.Log.Level

	data, err := toml.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return resolved, nil
}

// locate returns the config file to read, or "" when none exists.
func locate(path string) (string, error) {
	if strings.TrimSpace(path) != "" {
		resolved, err := expandPath(path)
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(resolved); err != nil {
			return "", fmt.Errorf("open config: %w", err)
		}
		return resolved, nil
	}
	for _, candidate := range []string{defaultLocalConfig, defaultUserConfig} {
		resolved, err := expandPath(candidate)
		if err != nil {
			continue
		}
		if _, err := os.Stat(resolved); err == nil {
			return resolved, nil
		}
	}
	return "", nil
}

// DefaultPath is where `moor init` writes when no path is given.
func DefaultPath() string {
	return mustExpand(defaultUserConfig)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultUserConfig)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}

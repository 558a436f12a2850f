package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/guestbook/src/guestbook"
)

const (
	DefaultPort         = 3000
	DefaultMaxBodyBytes = 1 << 20 // 1 MiB
	DefaultMetricsPath  = "/metrics"
	DefaultStaticDir    = "public"
	DefaultFileName     = "guestbook.toml"

	EnvPort   = "PORT"
	EnvRoot   = "GUESTBOOK_ROOT"
	EnvData   = "GUESTBOOK_DATA"
	EnvStatic = "GUESTBOOK_STATIC"
)

type ServerConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	StaticDir       string `toml:"static_dir"`
	MaxBodyBytes    int64  `toml:"max_body_bytes"`
	MetricsPath     string `toml:"metrics_path"` // empty disables the endpoint
	ShutdownSeconds int    `toml:"shutdown_seconds"`
}

type StoreConfig struct {
	Path    string `toml:"path"`
	Sync    bool   `toml:"sync"`
	Verbose bool   `toml:"verbose"`
}

// Config is the full runtime configuration. Relative paths are resolved
// against Root, which defaults to the directory holding the executable.
type Config struct {
	Root   string       `toml:"root"`
	Server ServerConfig `toml:"server"`
	Store  StoreConfig  `toml:"store"`
}

// small wrapper to allow testing
var getenv = os.Getenv

func Default() Config {
	return Config{
		Root: InstallRoot(),
		Server: ServerConfig{
			Port:            DefaultPort,
			MaxBodyBytes:    DefaultMaxBodyBytes,
			MetricsPath:     DefaultMetricsPath,
			ShutdownSeconds: 5,
		},
		Store: StoreConfig{
			Sync: true,
		},
	}
}

// InstallRoot returns the directory of the running executable, or the
// working directory when it cannot be determined.
func InstallRoot() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

// Load builds a Config from defaults, the optional TOML file at path and
// the environment, in that order of precedence (later wins).
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from PORT and the GUESTBOOK_* variables.
func (c *Config) ApplyEnv() error {
	if v := strings.TrimSpace(getenv(EnvPort)); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvPort, v, err)
		}
		c.Server.Port = port
	}
	if v := getenv(EnvRoot); v != "" {
		c.Root = v
	}
	if v := getenv(EnvData); v != "" {
		c.Store.Path = v
	}
	if v := getenv(EnvStatic); v != "" {
		c.Server.StaticDir = v
	}
	return nil
}

// Resolve fills derived defaults and anchors relative paths at Root.
func (c *Config) Resolve() {
	if c.Root == "" {
		c.Root = InstallRoot()
	}
	if c.Server.StaticDir == "" {
		c.Server.StaticDir = DefaultStaticDir
	}
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(guestbook.DefaultDataDir, guestbook.DefaultFileName)
	}
	c.Server.StaticDir = c.anchor(c.Server.StaticDir)
	c.Store.Path = c.anchor(c.Store.Path)

	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.Server.ShutdownSeconds <= 0 {
		c.Server.ShutdownSeconds = 5
	}
	if c.Server.MetricsPath != "" && !strings.HasPrefix(c.Server.MetricsPath, "/") {
		c.Server.MetricsPath = "/" + c.Server.MetricsPath
	}
}

func (c *Config) anchor(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

func (c Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range 1-65535", c.Server.Port)
	}
	if c.Server.MetricsPath == "/entries" {
		return errors.New("metrics_path must not shadow /entries")
	}
	return nil
}

func (c Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownSeconds) * time.Second
}

// StoreOptions converts the [store] section for guestbook.OpenStore.
func (c Config) StoreOptions() guestbook.StoreConfig {
	return guestbook.StoreConfig{
		Path:    c.Store.Path,
		Sync:    c.Store.Sync,
		Verbose: c.Store.Verbose,
	}
}

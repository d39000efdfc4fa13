package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/relight-dev/relight/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "relight.json"

	// DefaultChannelPort is the default live-reload channel port.
	DefaultChannelPort = 8002

	// DefaultOutput is the default build output directory.
	DefaultOutput = "build"

	// DefaultHost is the default dev server host.
	DefaultHost = "localhost"
)

// Mode selects compiler behavior and whether a local dev server is started.
// Fixed for the lifetime of an orchestration run.
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

// Config is the immutable per-run build descriptor loaded from relight.json.
// It is shared read-only by every component of an orchestration run.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// AppDirectory is the application source directory, relative to the
	// project root.
	AppDirectory string `json:"appDirectory,omitempty"`

	// AssetsBuildDirectory is the build output directory.
	AssetsBuildDirectory string `json:"assetsBuildDirectory,omitempty"`

	// ServerBuildPath is where the compiled server bundle is written.
	ServerBuildPath string `json:"serverBuildPath,omitempty"`

	// Server is an optional custom server entry point. The built-in dev
	// server refuses to start when this is set.
	Server string `json:"server,omitempty"`

	// DevChannelPort is the live-reload WebSocket channel port.
	DevChannelPort int `json:"devChannelPort,omitempty"`

	// BroadcastDelayMs delays each live-reload broadcast delivery.
	BroadcastDelayMs int `json:"broadcastDelayMs,omitempty"`

	// Dev contains dev server settings.
	Dev DevConfig `json:"dev,omitempty"`

	// configPath stores where the config was loaded from.
	configPath string
}

// DevConfig contains development server settings.
type DevConfig struct {
	// Port pins the dev server port. Zero means scan the default range.
	Port int `json:"port,omitempty"`

	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Watch contains extra paths to watch for changes.
	Watch []string `json:"watch,omitempty"`

	// Ignore contains patterns to skip during watch.
	Ignore []string `json:"ignore,omitempty"`
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		AppDirectory:         "app",
		AssetsBuildDirectory: DefaultOutput,
		ServerBuildPath:      filepath.Join(DefaultOutput, "server.app.json"),
		DevChannelPort:       DefaultChannelPort,
		Dev: DevConfig{
			Host: DefaultHost,
		},
	}
}

// Load reads configuration from relight.json in the given directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFromWorkingDir reads configuration from the current directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return Load(wd)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E100").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path))
		}
		return nil, errors.New("E101").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E101").
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error())
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	cfg.configPath = abs
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.DevChannelPort < 1 || c.DevChannelPort > 65535 {
		return errors.New("E102").
			WithDetail(fmt.Sprintf("devChannelPort = %d", c.DevChannelPort))
	}
	if c.Dev.Port != 0 && (c.Dev.Port < 1 || c.Dev.Port > 65535) {
		return errors.New("E102").
			WithDetail(fmt.Sprintf("dev.port = %d", c.Dev.Port))
	}
	if c.BroadcastDelayMs < 0 {
		return errors.New("E103").
			WithDetail(fmt.Sprintf("broadcastDelayMs = %d", c.BroadcastDelayMs))
	}
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the project root directory.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// AppPath returns the absolute path of the application source directory.
func (c *Config) AppPath() string {
	return c.resolve(c.AppDirectory)
}

// RoutesPath returns the absolute path of the routes directory.
func (c *Config) RoutesPath() string {
	return c.resolve(filepath.Join(c.AppDirectory, "routes"))
}

// PublicPath returns the absolute path of the public assets directory.
func (c *Config) PublicPath() string {
	return c.resolve(filepath.Join(c.AppDirectory, "public"))
}

// OutputPath returns the absolute path of the build output directory.
func (c *Config) OutputPath() string {
	return c.resolve(c.AssetsBuildDirectory)
}

// ServerBuildAbs returns the absolute path of the compiled server bundle.
func (c *Config) ServerBuildAbs() string {
	return c.resolve(c.ServerBuildPath)
}

// WatchPaths returns the absolute paths of the extra watch entries.
func (c *Config) WatchPaths() []string {
	paths := make([]string, 0, len(c.Dev.Watch))
	for _, p := range c.Dev.Watch {
		paths = append(paths, c.resolve(p))
	}
	return paths
}

// BroadcastDelay returns the broadcast delay as a duration.
func (c *Config) BroadcastDelay() time.Duration {
	return time.Duration(c.BroadcastDelayMs) * time.Millisecond
}

// HasCustomServer reports whether a custom server entry point is configured.
func (c *Config) HasCustomServer() bool {
	return c.Server != ""
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.AppDirectory == "" {
		c.AppDirectory = "app"
	}
	if c.AssetsBuildDirectory == "" {
		c.AssetsBuildDirectory = DefaultOutput
	}
	if c.ServerBuildPath == "" {
		c.ServerBuildPath = filepath.Join(c.AssetsBuildDirectory, "server.app.json")
	}
	if c.DevChannelPort == 0 {
		c.DevChannelPort = DefaultChannelPort
	}
	if c.Dev.Host == "" {
		c.Dev.Host = DefaultHost
	}
}

// resolve resolves a path relative to the project root.
func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

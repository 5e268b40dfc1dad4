// Package config persists the settings of the openag CLI.
//
// Settings are stored in a YAML document:
//
//	local_server:
//	  url: http://localhost:5984
//	cloud_server:
//	  url: https://cloud.example.org:6984
//	  farm_name: my-farm
//
// Every key may be overridden by an environment variable prefixed with OPENAG,
// e.g. OPENAG_LOCAL_SERVER_URL or OPENAG_CLOUD_SERVER_FARM_NAME.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"github.com/openag/openag-go/pkg/errors"
)

const (
	// EnvConfigLocation overrides the default location of the configuration file
	EnvConfigLocation = "OPENAG_CONFIG"

	envPrefix   = "openag"
	defaultDir  = ".openag"
	defaultFile = "config.yaml"
)

// Keys of the configuration document
const (
	KeyLocalServerURL = "local_server.url"
	KeyCloudServerURL = "cloud_server.url"
	KeyFarmName       = "cloud_server.farm_name"
)

var (
	// ErrConfigurationConflict indicates that the local server is already configured with another url
	ErrConfigurationConflict = errors.New("local database has already been initialized with a different url")

	// ErrNoLocalServer indicates that no local server is configured
	ErrNoLocalServer = errors.New("no local database server configured: run \"openag db init\" first")
)

// LocalServer is the database server running next to the farm
type LocalServer struct {
	URL string `json:"url,omitempty" yaml:"url,omitempty" mapstructure:"url"`
}

// CloudServer is the optional remote server to replicate with
type CloudServer struct {
	URL      string `json:"url,omitempty" yaml:"url,omitempty" mapstructure:"url"`
	FarmName string `json:"farm_name,omitempty" yaml:"farm_name,omitempty" mapstructure:"farm_name"`
}

// Config holds the settings of the CLI
type Config struct {
	LocalServer LocalServer `json:"local_server" yaml:"local_server" mapstructure:"local_server"`
	CloudServer CloudServer `json:"cloud_server" yaml:"cloud_server" mapstructure:"cloud_server"`
}

// SetLocalServer records the url of the local server.
//
// A configuration may only point to one local server: it has to be cleared before switching to another one.
func (c *Config) SetLocalServer(url string) error {
	if c.LocalServer.URL != "" && c.LocalServer.URL != url {
		return ErrConfigurationConflict.Wrapf("configured with %s, requested %s", c.LocalServer.URL, url)
	}
	c.LocalServer.URL = url
	return nil
}

// ClearLocalServer forgets about the local server
func (c *Config) ClearLocalServer() {
	c.LocalServer.URL = ""
}

// LocalServerURL yields the url of the local server, or ErrNoLocalServer
func (c *Config) LocalServerURL() (string, error) {
	if c.LocalServer.URL == "" {
		return "", ErrNoLocalServer
	}
	return c.LocalServer.URL, nil
}

// MarshalConfig serializes the configuration as a YAML document
func (c *Config) MarshalConfig() ([]byte, error) {
	return yaml.Marshal(c)
}

// DefaultLocation of the configuration file, unless overridden by the OPENAG_CONFIG environment variable
func DefaultLocation() string {
	if file := os.Getenv(EnvConfigLocation); file != "" {
		return file
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(defaultDir, defaultFile)
	}
	return filepath.Join(home, defaultDir, defaultFile)
}

// Option is a functor to pass optional parameters to the store
type Option func(*Store)

// Fs sets the filesystem holding the configuration file. Defaults to the OS filesystem.
func Fs(fs afero.Fs) Option {
	return func(s *Store) {
		if fs != nil {
			s.fs = fs
		}
	}
}

// Logger specifies a logger for the store
func Logger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.l = logger
		}
	}
}

// Store reads and writes the configuration file
type Store struct {
	file string
	fs   afero.Fs
	l    *zap.Logger
}

// New store for the configuration held in file
func New(file string, opts ...Option) *Store {
	s := &Store{
		file: file,
		fs:   afero.NewOsFs(),
		l:    zap.NewNop(),
	}
	for _, apply := range opts {
		apply(s)
	}
	return s
}

// File is the location of the configuration file
func (s *Store) File() string {
	return s.file
}

// Load the configuration. A missing file yields an empty configuration,
// possibly completed by environment variables.
func (s *Store) Load() (*Config, error) {
	v := viper.New()
	v.SetFs(s.fs)
	v.SetConfigFile(s.file)
	if ext := filepath.Ext(s.file); ext != ".yaml" && ext != ".yml" {
		v.SetConfigType("yaml")
	}
	for _, key := range []string{KeyLocalServerURL, KeyCloudServerURL, KeyFarmName} {
		// registered keys are the ones viper looks up in the environment
		v.SetDefault(key, "")
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	exists, err := afero.Exists(s.fs, s.file)
	if err != nil {
		return nil, err
	}
	if exists {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", s.file, err)
		}
		s.l.Debug("using config file", zap.String("file", s.file))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", s.file, err)
	}
	return &cfg, nil
}

// Save the configuration, creating the parent directory if needed.
//
// On the OS filesystem, concurrent writers are serialized with a lock file next to the configuration.
func (s *Store) Save(cfg *Config) error {
	o, err := cfg.MarshalConfig()
	if err != nil {
		return fmt.Errorf("could not serialize config to yaml: %w", err)
	}

	dir := filepath.Dir(s.file)
	if err := s.fs.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("could not create directory to hold config %s: %w", dir, err)
	}

	if _, isOS := s.fs.(*afero.OsFs); isOS {
		lock := flock.New(s.file + ".lock")
		if err := lock.Lock(); err != nil {
			return fmt.Errorf("lock config file %s: %w", s.file, err)
		}
		defer func() {
			_ = lock.Unlock()
		}()
	}

	if err := afero.WriteFile(s.fs, s.file, o, 0o600); err != nil {
		return fmt.Errorf("error writing config file %s: %w", s.file, err)
	}
	s.l.Debug("config file written", zap.String("file", s.file))
	return nil
}

// Update loads the configuration, applies fn and saves the result if fn succeeds
func (s *Store) Update(fn func(*Config) error) (*Config, error) {
	cfg, err := s.Load()
	if err != nil {
		return nil, err
	}
	if err := fn(cfg); err != nil {
		return cfg, err
	}
	return cfg, s.Save(cfg)
}

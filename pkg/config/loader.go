package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/macropower/xlclean/pkg/yaml"
)

// Validator validates decoded configuration data against a schema.
type Validator interface {
	Validate(data any) error
}

// LoaderOpt configures a [Loader].
type LoaderOpt func(*Loader)

// WithValidator replaces the schema validator.
func WithValidator(v Validator) LoaderOpt {
	return func(l *Loader) {
		l.validator = v
	}
}

// Loader validates and decodes configuration data.
type Loader struct {
	validator Validator
	data      []byte
}

// NewLoaderFromBytes creates a [Loader] for data.
func NewLoaderFromBytes(data []byte, opts ...LoaderOpt) *Loader {
	l := &Loader{data: data}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// NewLoaderFromFile creates a [Loader] for the file at path.
func NewLoaderFromFile(path string, opts ...LoaderOpt) (*Loader, error) {
	data, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	return NewLoaderFromBytes(data, opts...), nil
}

// Validate checks the data against the configuration schema without
// decoding it into a [Config].
func (l *Loader) Validate() error {
	var anyConfig any

	err := yaml.Unmarshal(l.data, &anyConfig)
	if err != nil {
		return yaml.Wrap(err, yaml.WithSource(l.data))
	}

	v := l.validator
	if v == nil {
		dv, err := defaultValidator()
		if err != nil {
			return fmt.Errorf("create config validator: %w", err)
		}

		v = dv
	}

	err = v.Validate(anyConfig)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, yaml.Wrap(err, yaml.WithSource(l.data)))
	}

	return nil
}

// Load validates and decodes the data, then applies defaults.
func (l *Loader) Load() (*Config, error) {
	err := l.Validate()
	if err != nil {
		return nil, err
	}

	c := &Config{}

	err = yaml.NewDecoder(bytes.NewReader(l.data), yaml.WithStrict()).Decode(c)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, yaml.Wrap(err, yaml.WithSource(l.data)))
	}

	c.EnsureDefaults()

	err = c.Validate()
	if err != nil {
		return nil, err
	}

	return c, nil
}

// Load reads the configuration at path. A missing file yields the defaults
// and nothing is written; use [WriteDefault] to create the file.
func Load(path string) (*Config, error) {
	l, err := NewLoaderFromFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("configuration file not found, using defaults", slog.String("path", path))

		return NewConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c, err := l.Load()
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	return c, nil
}

// GetPath returns the default configuration file path. It uses
// $XDG_CONFIG_HOME, then ~/.config, then the temp directory.
func GetPath() string {
	if xdgHome, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok && xdgHome != "" {
		return filepath.Join(xdgHome, "xlclean", "config.yaml")
	}

	usrHome, err := os.UserHomeDir()
	if err == nil && usrHome != "" {
		return filepath.Join(usrHome, ".config", "xlclean", "config.yaml")
	}

	tmpConfig := filepath.Join(os.TempDir(), "xlclean", "config.yaml")

	slog.Warn("could not determine user config directory, using temp path for config",
		slog.String("path", tmpConfig),
		slog.Any("error", fmt.Errorf("$XDG_CONFIG_HOME is unset, fall back to home directory: %w", err)),
	)

	return tmpConfig
}

// ReadFile reads a regular file.
func ReadFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s: path is a directory", path)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: unknown file state", path)
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: Potential file inclusion via variable.
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// WriteDefault writes the default configuration to path and its JSON schema
// next to it. An existing file is kept, unless force is set, in which case it
// is renamed to a timestamped backup first. It reports whether the
// configuration file was written.
func WriteDefault(path string, force bool) (bool, error) {
	exists := false

	info, err := os.Stat(path)
	if info != nil {
		switch {
		case err == nil && info.Mode().IsRegular():
			exists = true
		case info.IsDir():
			return false, fmt.Errorf("%s: path is a directory", path)
		default:
			return false, fmt.Errorf("%s: unknown file state", path)
		}
	}

	err = os.MkdirAll(filepath.Dir(path), 0o700)
	if err != nil {
		return false, fmt.Errorf("create directories: %w", err)
	}

	if exists && force {
		backupPath := filepath.Join(filepath.Dir(path),
			fmt.Sprintf("%s.%d.old", filepath.Base(path), time.Now().UnixNano()))

		slog.Info("backing up existing config file", slog.String("path", backupPath))

		err = os.Rename(path, backupPath)
		if err != nil {
			return false, fmt.Errorf("rename existing config file to backup: %w", err)
		}

		exists = false
	}

	if exists {
		slog.Debug("configuration file already exists, skipping write", slog.String("path", path))
	} else {
		slog.Info("write default configuration", slog.String("path", path))

		err = os.WriteFile(path, defaultConfigYAML, 0o600)
		if err != nil {
			return false, fmt.Errorf("write config file: %w", err)
		}
	}

	schema, err := Schema()
	if err != nil {
		return false, err
	}

	schemaPath := filepath.Join(filepath.Dir(path), schemaFileName)
	slog.Debug("write JSON schema", slog.String("path", schemaPath))

	err = os.WriteFile(schemaPath, schema, 0o600)
	if err != nil {
		return false, fmt.Errorf("write schema file: %w", err)
	}

	return !exists, nil
}

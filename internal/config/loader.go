package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, as in GOJE_ADDRESS or
// GOJE_TLS_CA_FILE.
const EnvPrefix = "GOJE"

// Options controls Load.
type Options struct {
	// Path is an explicit config file, which must exist. When empty the
	// default path is used if present.
	Path string

	// Overrides win over every other source, keyed like the YAML file
	// ("address", "tls.insecure").
	Overrides map[string]any
}

// DefaultDir returns the directory holding config.yaml.
func DefaultDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "goje"), nil
}

// DefaultPath returns the default config file path.
func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the configuration. It also returns the config file used, or ""
// when only defaults and the environment applied.
func Load(opts Options) (*Config, string, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	if opts.Path != "" {
		if _, err := os.Stat(opts.Path); err != nil {
			return nil, "", err
		}
		v.SetConfigFile(opts.Path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := DefaultDir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, "", fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, "", fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, v.ConfigFileUsed(), nil
}

// setDefaults registers every key so environment variables can override
// keys absent from the file.
func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("address", c.Address)
	v.SetDefault("events", c.Events)
	v.SetDefault("nested", c.Nested)
	v.SetDefault("tls.ca-file", c.TLS.CAFile)
	v.SetDefault("tls.cert-file", c.TLS.CertFile)
	v.SetDefault("tls.key-file", c.TLS.KeyFile)
	v.SetDefault("tls.server-name", c.TLS.ServerName)
	v.SetDefault("tls.insecure", c.TLS.Insecure)
	v.SetDefault("ntfy.address", c.Ntfy.Address)
	v.SetDefault("ntfy.auth", c.Ntfy.Auth)
	v.SetDefault("hooks.exec-start", c.Hooks.ExecStart)
	v.SetDefault("hooks.exec-end", c.Hooks.ExecEnd)
	v.SetDefault("hooks.exec-pause", c.Hooks.ExecPause)
	v.SetDefault("hooks.fifo", c.Hooks.Fifo)
	v.SetDefault("reconnect.initial", c.Reconnect.Initial)
	v.SetDefault("reconnect.max", c.Reconnect.Max)
	v.SetDefault("reconnect.idle-timeout", c.Reconnect.IdleTimeout)
	v.SetDefault("protocol-log", c.ProtocolLog)
	v.SetDefault("log-level", c.LogLevel)
}

// LoadEnvFiles loads KEY=value pairs from the given .env files into the
// environment without replacing variables that are already set. Missing
// files are skipped. With no arguments ".env" in the working directory is
// tried.
func LoadEnvFiles(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

const defaultHeader = `# goje-client configuration
#
# Every key can be overridden with a GOJE_ environment variable, e.g.
# GOJE_ADDRESS or GOJE_TLS_CA_FILE.
`

// WriteDefault writes the default configuration to path, creating parent
// directories.
func WriteDefault(path string) error {
	return Write(path, DefaultConfig())
}

// Write stores c as YAML at path.
func Write(path string, c *Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append([]byte(defaultHeader), data...), 0o644)
}

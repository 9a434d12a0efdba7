// Package config loads seedvault settings with viper.
//
// Sources, lowest priority first: built-in defaults, an optional
// seedvault.yaml (current directory, then $HOME), and SEEDVAULT_*
// environment variables, e.g. SEEDVAULT_KDF_BACKEND=native.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/illarion/seedvault/internal/kdf"
)

const (
	EnvPrefix  = "SEEDVAULT"
	configName = "seedvault"
)

// Config is the resolved seedvault configuration
type Config struct {
	VaultPath     string // database file
	YieldInterval int    // ROMix steps between cooperative yields
	Backend       string // "reference" or "native"
	LogLevel      string
	File          string // config file used, empty when none was found
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("vault.path", ".seedvault")
	v.SetDefault("kdf.yield_interval", kdf.DefaultYieldInterval)
	v.SetDefault("kdf.backend", "reference")
	v.SetDefault("log.level", "warn")
}

// Load resolves the configuration. An empty path searches for
// seedvault.yaml; a non-empty path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		VaultPath:     v.GetString("vault.path"),
		YieldInterval: v.GetInt("kdf.yield_interval"),
		Backend:       v.GetString("kdf.backend"),
		LogLevel:      v.GetString("log.level"),
		File:          v.ConfigFileUsed(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that viper cannot type-check
func (c *Config) Validate() error {
	if c.VaultPath == "" {
		return fmt.Errorf("vault.path must not be empty")
	}
	if c.YieldInterval < 0 {
		return fmt.Errorf("kdf.yield_interval must not be negative, got %d", c.YieldInterval)
	}
	switch c.Backend {
	case "reference", "native":
	default:
		return fmt.Errorf("kdf.backend must be reference or native, got %q", c.Backend)
	}
	return nil
}

// Deriver builds the key derivation backend selected by the config
func (c *Config) Deriver(opts ...kdf.Option) (kdf.Deriver, error) {
	opts = append([]kdf.Option{kdf.WithYieldInterval(c.YieldInterval)}, opts...)
	return kdf.NewDeriver(c.Backend, opts...)
}

// Package config loads gymbuddy settings from config.yaml, GYMBUDDY_* env
// vars and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

const EnvPrefix = "GYMBUDDY"

type Config struct {
	DBPath      string          `mapstructure:"db_path" validate:"required"`
	LogFile     string          `mapstructure:"log_file"`
	LogLevel    string          `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	UserID      string          `mapstructure:"user_id" validate:"required"`
	DailyReplan string          `mapstructure:"daily_replan" validate:"required,cronspec"`
	Reconcile   time.Duration   `mapstructure:"reconcile_interval"` // how often the daemon re-reads the trigger table
	Notifier    string          `mapstructure:"notifier" validate:"oneof=desktop none"`
	MetricsAddr string          `mapstructure:"metrics_addr" validate:"omitempty,hostname_port"`
	Firestore   FirestoreConfig `mapstructure:"firestore"`
}

type FirestoreConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	ProjectID       string `mapstructure:"project_id" validate:"required_if=Enabled true"`
	CredentialsFile string `mapstructure:"credentials_file" validate:"omitempty,file"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("cronspec", func(fl validator.FieldLevel) bool {
		_, err := cron.ParseStandard(fl.Field().String())
		return err == nil
	})
	return v
}

// Dir returns ~/.config/gymbuddy.
func Dir() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "gymbuddy"), nil
}

func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault("db_path", filepath.Join(dir, "gymbuddy.db"))
	v.SetDefault("log_file", filepath.Join(dir, "gymbuddy.log"))
	v.SetDefault("log_level", "info")
	v.SetDefault("user_id", "local")
	v.SetDefault("daily_replan", "0 0 * * *")
	v.SetDefault("reconcile_interval", "30s")
	v.SetDefault("notifier", "desktop")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("firestore.enabled", false)
	v.SetDefault("firestore.project_id", "")
	v.SetDefault("firestore.credentials_file", "")
}

// Load reads configuration into v. file overrides the default
// ~/.config/gymbuddy/config.yaml; a missing default file is not an error.
// Pass a viper instance that already has flags bound to let them win.
func Load(v *viper.Viper, file string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	dir, err := Dir()
	if err != nil {
		return nil, fmt.Errorf("locate config dir: %w", err)
	}
	setDefaults(v, dir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

package config

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	// Editor service
	Port          int    `mapstructure:"EDITOR_PORT" validate:"min=1,max=65535"`
	MaxUploadSize string `mapstructure:"MAX_UPLOAD_SIZE" validate:"required"`
	PreviewSize   int    `mapstructure:"PREVIEW_SIZE" validate:"min=0"`
	LogLevel      string `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`

	// Photo library
	GalleryPort int    `mapstructure:"GALLERY_PORT" validate:"min=1,max=65535"`
	LibraryDir  string `mapstructure:"LIBRARY_DIR" validate:"required"`
	SaveWorkers int    `mapstructure:"SAVE_WORKERS" validate:"min=1,max=16"`

	// Optional asset catalogue
	DatabaseDSN     string `mapstructure:"DATABASE_DSN"`
	DatabaseRetries int    `mapstructure:"DATABASE_RETRIES" validate:"min=1"`

	maxUploadBytes int64
}

// MaxUploadBytes is MaxUploadSize parsed into bytes.
func (c Config) MaxUploadBytes() int64 {
	return c.maxUploadBytes
}

func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// use reflect to bind environment variables based on mapstructure tags
func bindEnv(c Config) {
	typ := reflect.TypeOf(c)
	for i := 0; i < typ.NumField(); i++ {
		if tag := typ.Field(i).Tag.Get("mapstructure"); tag != "" {
			viper.BindEnv(tag)
		}
	}
}

func LoadConfig(ctx context.Context) (*Config, error) {
	bindEnv(Config{})
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("EDITOR_PORT", 8081)
	viper.SetDefault("MAX_UPLOAD_SIZE", "32MB")
	viper.SetDefault("PREVIEW_SIZE", 1600)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("GALLERY_PORT", 8080)
	viper.SetDefault("LIBRARY_DIR", "storage/library")
	viper.SetDefault("SAVE_WORKERS", 1)
	viper.SetDefault("DATABASE_RETRIES", 10)

	cfg := Config{}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	size, err := humanize.ParseBytes(cfg.MaxUploadSize)
	if err != nil {
		return nil, fmt.Errorf("parse MAX_UPLOAD_SIZE: %w", err)
	}
	cfg.maxUploadBytes = int64(size)

	slog.InfoContext(ctx, "Loaded configuration",
		"port", cfg.Port,
		"library_dir", cfg.LibraryDir,
		"catalogue", cfg.DatabaseDSN != "",
		"save_workers", cfg.SaveWorkers,
		"max_upload", humanize.Bytes(size))

	return &cfg, nil
}

// Package config loads CLI settings from config files, the environment and .env files.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/satishbabariya/docsql/runtime/driver"
)

var AppFs = afero.NewOsFs()

// FileName is the config file name without extension
const FileName = ".docsql"

// Config holds the application configuration
type Config struct {
	Provider    string
	DatabaseURL string
	// ReaderURL points at an optional read replica
	ReaderURL     string
	DocumentsPath string
	CacheSize     int
	Debug         bool
}

// LoadConfig loads configuration from file, DOCSQL_* variables and .env files.
// An empty file searches the working and home directories.
func LoadConfig(file string) (*Config, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetFs(AppFs)
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "docsql"))
	}

	v.SetEnvPrefix("DOCSQL")
	v.AutomaticEnv()

	v.SetDefault("provider", "mysql")
	v.SetDefault("documents_path", "documents.yaml")
	v.SetDefault("cache_size", 0)
	v.SetDefault("debug", false)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	if _, err := AppFs.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	// .env.local wins over .env
	if _, err := AppFs.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}

	cfg := &Config{
		Provider:      v.GetString("provider"),
		DatabaseURL:   v.GetString("database_url"),
		ReaderURL:     v.GetString("reader_url"),
		DocumentsPath: v.GetString("documents_path"),
		CacheSize:     v.GetInt("cache_size"),
		Debug:         v.GetBool("debug"),
	}
	if url := os.Getenv("DATABASE_URL"); url != "" && cfg.DatabaseURL == "" {
		cfg.DatabaseURL = url
	}
	return cfg, nil
}

// Primary returns the driver config of the primary connection
func (c *Config) Primary() driver.Config {
	return driver.Config{Provider: c.Provider, DSN: c.DatabaseURL}
}

// Reader returns the driver config of the read replica, or nil
func (c *Config) Reader() *driver.Config {
	if c.ReaderURL == "" {
		return nil
	}
	return &driver.Config{Provider: c.Provider, DSN: c.ReaderURL}
}

// SaveConfig writes cfg to path
func SaveConfig(cfg *Config, path string) error {
	v := viper.New()
	v.SetFs(AppFs)
	v.Set("provider", cfg.Provider)
	v.Set("database_url", cfg.DatabaseURL)
	if cfg.ReaderURL != "" {
		v.Set("reader_url", cfg.ReaderURL)
	}
	v.Set("documents_path", cfg.DocumentsPath)
	if cfg.CacheSize > 0 {
		v.Set("cache_size", cfg.CacheSize)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := AppFs.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return v.WriteConfigAs(path)
}

// Package appconfig charge la configuration du processus : fichier YAML, puis
// variables INCIDENTS_* (éventuellement issues d'un .env).
package appconfig

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"incidents-dashboard/pkg/cache"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "INCIDENTS_"

// Backends de données disponibles.
const (
	BackendSheets = "sheets"
	BackendMySQL  = "mysql"
	BackendMemory = "memory"
)

type Config struct {
	ListenAddr            string        `yaml:"listen_addr" validate:"required"`
	Backend               string        `yaml:"backend" validate:"required,oneof=sheets mysql memory"`
	GoogleCredentialsFile string        `yaml:"google_credentials_file"`
	MySQLDSN              string        `yaml:"mysql_dsn" validate:"required_if=Backend mysql"`
	SettingsPath          string        `yaml:"settings_path"`
	CacheTTL              time.Duration `yaml:"cache_ttl" validate:"gte=0"`
	Timezone              string        `yaml:"timezone"`
	CORSOrigins           []string      `yaml:"cors_origins"`
	Verbose               bool          `yaml:"verbose"`
}

func Default() Config {
	return Config{
		ListenAddr: ":8080",
		Backend:    BackendSheets,
		CacheTTL:   cache.DefaultTTL,
		Timezone:   "UTC",
	}
}

// Load lit path (facultatif) puis applique l'environnement. Un .env présent dans le
// répertoire courant est chargé sans écraser les variables déjà définies.
func Load(path string) (Config, error) {
	cfg := Default()
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(envPrefix + key); ok {
			*dst = v
		}
	}
	str("LISTEN_ADDR", &c.ListenAddr)
	str("BACKEND", &c.Backend)
	str("GOOGLE_CREDENTIALS_FILE", &c.GoogleCredentialsFile)
	str("MYSQL_DSN", &c.MySQLDSN)
	str("SETTINGS_PATH", &c.SettingsPath)
	str("TIMEZONE", &c.Timezone)

	if v, ok := lookup(envPrefix + "CACHE_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sCACHE_TTL: %w", envPrefix, err)
		}
		c.CacheTTL = d
	}
	if v, ok := lookup(envPrefix + "VERBOSE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sVERBOSE: %w", envPrefix, err)
		}
		c.Verbose = b
	}
	if v, ok := lookup(envPrefix + "CORS_ORIGINS"); ok {
		c.CORSOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.CORSOrigins = append(c.CORSOrigins, o)
			}
		}
	}
	return nil
}

// Validate complète les valeurs manquantes puis vérifie la configuration.
func (c *Config) Validate() error {
	if c.CacheTTL == 0 {
		c.CacheTTL = cache.DefaultTTL
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location renvoie le fuseau utilisé pour interpréter les dates du classeur.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

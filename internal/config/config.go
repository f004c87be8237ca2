package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingPassword is returned when no database password was configured.
var ErrMissingPassword = errors.New("database password not configured")

// DatabaseConfig holds the warehouse connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// ScrapeConfig holds settings for the CSV export stage.
type ScrapeConfig struct {
	StatsBaseURL    string        `yaml:"stats_base_url"`
	BioBaseURL      string        `yaml:"bio_base_url"`
	RequestInterval time.Duration `yaml:"request_interval"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	Headless        bool          `yaml:"headless"`
}

// Config is passed explicitly to every stage of the pipeline.
type Config struct {
	Database         DatabaseConfig `yaml:"database"`
	RedisURL         string         `yaml:"redis_url"`
	DataDir          string         `yaml:"data_dir"`
	RefreshSnapshots bool           `yaml:"refresh_snapshots"`
	Scrape           ScrapeConfig   `yaml:"scrape"`
}

// Default returns the configuration used when nothing else is supplied.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "hoops",
			Name:    "nba_data",
			SSLMode: "disable",
		},
		DataDir: ".",
		Scrape: ScrapeConfig{
			StatsBaseURL:    "https://www.basketball-reference.com/leagues",
			BioBaseURL:      "https://www.nba.com/stats/players/bio",
			RequestInterval: 3 * time.Second,
			CacheTTL:        12 * time.Hour,
			Headless:        true,
		},
	}
}

// Load builds a Config from defaults, an optional YAML file, a .env file
// in the working directory and the process environment, in that order.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	// .env is optional
	_ = godotenv.Load()

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.Database.Host = getEnv("HOOPSDB_DB_HOST", cfg.Database.Host)
	cfg.Database.User = getEnv("HOOPSDB_DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("HOOPSDB_DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Name = getEnv("HOOPSDB_DB_NAME", cfg.Database.Name)
	cfg.Database.SSLMode = getEnv("HOOPSDB_DB_SSLMODE", cfg.Database.SSLMode)
	cfg.RedisURL = getEnv("HOOPSDB_REDIS_URL", cfg.RedisURL)
	cfg.DataDir = getEnv("HOOPSDB_DATA_DIR", cfg.DataDir)

	if v := os.Getenv("HOOPSDB_DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid HOOPSDB_DB_PORT %q: %w", v, err)
		}
		cfg.Database.Port = port
	}

	if v := os.Getenv("HOOPSDB_REFRESH_SNAPSHOTS"); v != "" {
		refresh, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid HOOPSDB_REFRESH_SNAPSHOTS %q: %w", v, err)
		}
		cfg.RefreshSnapshots = refresh
	}

	if v := os.Getenv("HOOPSDB_SCRAPE_INTERVAL"); v != "" {
		interval, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid HOOPSDB_SCRAPE_INTERVAL %q: %w", v, err)
		}
		cfg.Scrape.RequestInterval = interval
	}

	return nil
}

// Validate reports configuration that cannot produce a working connection.
func (c Config) Validate() error {
	if c.Database.Password == "" {
		return ErrMissingPassword
	}
	if c.Database.Host == "" || c.Database.Name == "" {
		return fmt.Errorf("database host and name are required")
	}
	return nil
}

// DSN renders the connection settings as a lib/pq URL.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	q := url.Values{}
	if d.SSLMode != "" {
		q.Set("sslmode", d.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

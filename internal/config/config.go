package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shelfmark/shelfmark/internal/pkg/logutil"
)

type Config struct {
	Port        int             `json:"port"`
	JWTSecret   string          `json:"jwt_secret"`
	JWTTTLHours int             `json:"jwt_ttl_hours"`
	Database    DatabaseConfig  `json:"database"`
	Log         logutil.Config  `json:"log"`
	FileStore   FileStoreConfig `json:"file_store"`
	Mail        MailConfig      `json:"mail"`
	RateLimit   RateLimitConfig `json:"rate_limit"`
	Jobs        JobsConfig      `json:"jobs"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type MailConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
}

type RateLimitConfig struct {
	Enabled  bool  `json:"enabled"`
	WindowMS int64 `json:"window_ms"`
	Max      int64 `json:"max"`
}

type JobsConfig struct {
	BackupPruneSpec   string `json:"backup_prune_spec"`
	BackupMaxAgeDays  int    `json:"backup_max_age_days"`
	ImportCleanupSpec string `json:"import_cleanup_spec"`
	ImportMaxAgeHours int    `json:"import_max_age_hours"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 72
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.WindowMS <= 0 || cfg.RateLimit.Max <= 0 {
			return nil, fmt.Errorf("rate_limit.window_ms and rate_limit.max must be positive when enabled")
		}
	}
	if cfg.Jobs.BackupMaxAgeDays == 0 {
		cfg.Jobs.BackupMaxAgeDays = 30
	}
	if cfg.Jobs.ImportMaxAgeHours == 0 {
		cfg.Jobs.ImportMaxAgeHours = 24
	}
	return &cfg, nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines server and client configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	DB     DBConfig     `yaml:"db"`
	Log    LogConfig    `yaml:"log"`
	Client ClientConfig `yaml:"client"`
}

type ServerConfig struct {
	Host       string        `yaml:"host"`
	Port       int           `yaml:"port"`
	RateLimit  int           `yaml:"rate_limit"`
	RateWindow time.Duration `yaml:"rate_window"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// ClientConfig configures the terminal and MCP clients.
type ClientConfig struct {
	APIURL    string `yaml:"api_url"`
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
	Token     string `yaml:"token"`
	CachePath string `yaml:"cache_path"`
	Simulate  bool   `yaml:"simulate"`
	PageSize  int    `yaml:"page_size"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:       "0.0.0.0",
			Port:       8080,
			RateLimit:  100,
			RateWindow: 15 * time.Minute,
			SessionTTL: 7 * 24 * time.Hour,
		},
		DB: DBConfig{
			Path: "syncteam.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Client: ClientConfig{
			APIURL:    "http://localhost:8080",
			CachePath: defaultCachePath(),
			PageSize:  10,
		},
	}

	if path := os.Getenv("SYNCTEAM_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("SYNCTEAM_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if err := envInt("SYNCTEAM_SERVER_PORT", &cfg.Server.Port); err != nil {
		return Config{}, err
	}
	if err := envInt("SYNCTEAM_RATE_LIMIT", &cfg.Server.RateLimit); err != nil {
		return Config{}, err
	}
	if err := envDuration("SYNCTEAM_SESSION_TTL", &cfg.Server.SessionTTL); err != nil {
		return Config{}, err
	}
	if dbPath := os.Getenv("SYNCTEAM_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("SYNCTEAM_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := os.Getenv("SYNCTEAM_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}
	if url := os.Getenv("SYNCTEAM_API_URL"); url != "" {
		cfg.Client.APIURL = url
	}
	if email := os.Getenv("SYNCTEAM_EMAIL"); email != "" {
		cfg.Client.Email = email
	}
	if password := os.Getenv("SYNCTEAM_PASSWORD"); password != "" {
		cfg.Client.Password = password
	}
	if token := os.Getenv("SYNCTEAM_TOKEN"); token != "" {
		cfg.Client.Token = token
	}
	if cachePath := os.Getenv("SYNCTEAM_CACHE_PATH"); cachePath != "" {
		cfg.Client.CachePath = cachePath
	}
	if v := os.Getenv("SYNCTEAM_SIMULATE"); v != "" {
		simulate, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SYNCTEAM_SIMULATE: %w", err)
		}
		cfg.Client.Simulate = simulate
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return Config{}, fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}
	if cfg.Client.PageSize <= 0 {
		return Config{}, fmt.Errorf("invalid client page size %d", cfg.Client.PageSize)
	}

	return cfg, nil
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "syncteam-cache.db"
	}
	return filepath.Join(dir, "syncteam", "cache.db")
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

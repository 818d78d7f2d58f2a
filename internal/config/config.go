package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		SeedFile string `yaml:"seed_file"`
		CacheTTL string `yaml:"cache_ttl"`
	} `yaml:"quiz"`
	Match struct {
		LeadIn       string `yaml:"lead_in"`
		Tick         string `yaml:"tick"`
		RoundSeconds int    `yaml:"round_seconds"`
		AnswerGrace  string `yaml:"answer_grace"`
		ResultPause  string `yaml:"result_pause"`
		Rounds       int    `yaml:"rounds"`
	} `yaml:"match"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	WS struct {
		ReadLimit         int64   `yaml:"read_limit"`
		PingInterval      string  `yaml:"ping_interval"`
		MessagesPerSecond float64 `yaml:"messages_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"ws"`
}

// Load reads YAML config from path. A missing file yields the zero Config,
// so every setting falls back to its default.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Duration parses a duration string or returns the fallback if empty or malformed.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// Int returns v, or fallback when v is not positive.
func Int(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

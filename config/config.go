package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"smartstay-cli/api"

	"github.com/caarlos0/env/v11"
)

// Duration is a time.Duration that reads and writes as "15s" in JSON and env.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" || raw == "0" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q", raw)
	}
	if parsed < 0 {
		return fmt.Errorf("duration must not be negative: %q", raw)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Config struct {
	APIURL          string   `json:"api_url" env:"SMARTSTAY_API_URL"`
	DefaultSize     int      `json:"default_size" env:"SMARTSTAY_DEFAULT_SIZE"`
	Timeout         Duration `json:"timeout" env:"SMARTSTAY_TIMEOUT"`
	RefreshInterval Duration `json:"refresh_interval" env:"SMARTSTAY_REFRESH_INTERVAL"`
	LogLevel        string   `json:"log_level" env:"SMARTSTAY_LOG_LEVEL"`
	LogFormat       string   `json:"log_format" env:"SMARTSTAY_LOG_FORMAT"`
	History         bool     `json:"history" env:"SMARTSTAY_HISTORY"`
}

func Default() Config {
	return Config{
		APIURL:      api.DefaultBaseURL,
		DefaultSize: api.MinBooking,
		Timeout:     Duration(api.DefaultTimeout),
		LogLevel:    "warn",
		LogFormat:   "console",
		History:     true,
	}
}

// Load layers defaults, the JSON file at path and the environment, in that
// order. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv overlays environment variables onto target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("config path is a directory: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIURL) == "" {
		return fmt.Errorf("api_url is required")
	}
	if c.DefaultSize < api.MinBooking || c.DefaultSize > api.MaxBooking {
		return fmt.Errorf("default_size must be between %d and %d", api.MinBooking, api.MaxBooking)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json")
	}
	return nil
}

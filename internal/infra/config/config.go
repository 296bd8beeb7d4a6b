package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Session    SessionConfig    `yaml:"session"`
	Upload     UploadConfig     `yaml:"upload"`
	Extraction ExtractionConfig `yaml:"extraction"`
	MealPlan   MealPlanConfig   `yaml:"mealPlan"`
	Export     ExportConfig     `yaml:"export"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// SessionConfig controls session lifetime, token signing and the backing store.
type SessionConfig struct {
	Secret        string        `yaml:"secret"`
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweepInterval"`
	Valkey        ValkeyConfig  `yaml:"valkey"`

	// EphemeralSecret is set when no secret was configured and one was generated at startup.
	EphemeralSecret bool `yaml:"-"`
}

// ValkeyConfig contains connection information for the session cache.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// UploadConfig bounds accepted report files.
type UploadConfig struct {
	MaxFileBytes int64 `yaml:"maxFileBytes"`
}

// ExtractionConfig selects the marker pattern table.
type ExtractionConfig struct {
	Mode      string                        `yaml:"mode"`
	Overrides map[string]ExtractionOverride `yaml:"overrides"`
}

// ExtractionOverride replaces parts of one marker's pattern. Keys are marker names.
type ExtractionOverride struct {
	Label              string `yaml:"label"`
	Unit               string `yaml:"unit"`
	CollapseWhitespace *bool  `yaml:"collapseWhitespace"`
}

// MealPlanConfig tunes the weekly plan generator.
type MealPlanConfig struct {
	Placeholder string `yaml:"placeholder"`
}

// ExportConfig selects where meal plan exports are stored.
type ExportConfig struct {
	S3 S3Config `yaml:"s3"`
}

// S3Config holds S3-compatible bucket settings (AWS, R2, MinIO).
type S3Config struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// Load reads configuration from a YAML file, an optional .env file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	if err := loadDotEnv(os.Getenv("DOTENV_PATH")); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)

	if strings.TrimSpace(cfg.Session.Secret) == "" {
		cfg.Session.Secret = uuid.NewString() + uuid.NewString()
		cfg.Session.EphemeralSecret = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// loadDotEnv populates unset environment variables from path (default .env).
// A missing default file is not an error.
func loadDotEnv(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_READ_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.ReadTimeout = parsed
		}
	}
	if v := os.Getenv("HTTP_WRITE_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.WriteTimeout = parsed
		}
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		cfg.Session.Secret = v
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Session.TTL = parsed
		}
	}
	if v := os.Getenv("SESSION_SWEEP_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Session.SweepInterval = parsed
		}
	}
	if v := os.Getenv("SESSION_VALKEY_ENABLED"); v != "" {
		cfg.Session.Valkey.Enabled = parseBool(v)
	}
	if v := os.Getenv("SESSION_VALKEY_ADDR"); v != "" {
		cfg.Session.Valkey.Addr = v
	}
	if v := os.Getenv("SESSION_VALKEY_PREFIX"); v != "" {
		cfg.Session.Valkey.Prefix = v
	}
	if v := os.Getenv("UPLOAD_MAX_FILE_BYTES"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Upload.MaxFileBytes = parsed
		}
	}
	if v := os.Getenv("EXTRACTION_MODE"); v != "" {
		cfg.Extraction.Mode = v
	}
	if v := os.Getenv("MEALPLAN_PLACEHOLDER"); v != "" {
		cfg.MealPlan.Placeholder = v
	}
	if v := os.Getenv("EXPORT_S3_ENABLED"); v != "" {
		cfg.Export.S3.Enabled = parseBool(v)
	}
	if v := os.Getenv("EXPORT_S3_ENDPOINT"); v != "" {
		cfg.Export.S3.Endpoint = v
	}
	if v := os.Getenv("EXPORT_S3_ACCESS_KEY"); v != "" {
		cfg.Export.S3.AccessKey = v
	}
	if v := os.Getenv("EXPORT_S3_SECRET_KEY"); v != "" {
		cfg.Export.S3.SecretKey = v
	}
	if v := os.Getenv("EXPORT_S3_BUCKET"); v != "" {
		cfg.Export.S3.Bucket = v
	}
	if v := os.Getenv("EXPORT_S3_REGION"); v != "" {
		cfg.Export.S3.Region = v
	}
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             30,
			},
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Session: SessionConfig{
			TTL:           2 * time.Hour,
			SweepInterval: 5 * time.Minute,
			Valkey: ValkeyConfig{
				Enabled: false,
				Prefix:  "ketodash",
			},
		},
		Upload: UploadConfig{
			MaxFileBytes: 10 << 20,
		},
		Extraction: ExtractionConfig{
			Mode: "loose",
		},
		MealPlan: MealPlanConfig{
			Placeholder: "chef's choice",
		},
		Export: ExportConfig{
			S3: S3Config{
				Region: "auto",
			},
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if len(c.Session.Secret) < 16 {
		return errors.New("session.secret must be at least 16 characters")
	}
	if c.Session.TTL <= 0 {
		return errors.New("session.ttl must be positive")
	}
	if c.Session.SweepInterval < 0 {
		return errors.New("session.sweepInterval cannot be negative")
	}
	if c.Session.Valkey.Enabled && strings.TrimSpace(c.Session.Valkey.Addr) == "" {
		return errors.New("session.valkey.addr cannot be empty when valkey is enabled")
	}
	if c.Upload.MaxFileBytes <= 0 {
		return errors.New("upload.maxFileBytes must be positive")
	}
	switch strings.ToLower(strings.TrimSpace(c.Extraction.Mode)) {
	case "", "loose", "strict":
	default:
		return fmt.Errorf("extraction.mode %q must be loose or strict", c.Extraction.Mode)
	}
	if strings.TrimSpace(c.MealPlan.Placeholder) == "" {
		return errors.New("mealPlan.placeholder cannot be empty")
	}
	if c.Export.S3.Enabled {
		if strings.TrimSpace(c.Export.S3.Endpoint) == "" {
			return errors.New("export.s3.endpoint cannot be empty when s3 export is enabled")
		}
		if strings.TrimSpace(c.Export.S3.Bucket) == "" {
			return errors.New("export.s3.bucket cannot be empty when s3 export is enabled")
		}
	}
	return nil
}

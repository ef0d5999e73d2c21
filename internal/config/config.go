package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"wildfire/internal/models"
)

//go:embed nepal_districts.yaml
var defaultLocationsYAML []byte

// Config holds every runtime setting. Values come from config.yaml first and
// are then overridden by environment variables (and a .env file, if present).
type Config struct {
	Server struct {
		Addr            string        `yaml:"addr"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		AllowedOrigins  []string      `yaml:"allowed_origins"`
		TrustProxy      bool          `yaml:"trust_proxy"`
	} `yaml:"server"`

	Scan struct {
		Workers  int           `yaml:"workers"`
		AlertTTL time.Duration `yaml:"alert_ttl"`
		TopN     int           `yaml:"top_n"`
	} `yaml:"scan"`

	Store struct {
		// Backend is one of mysql, sqlite or memory
		Backend    string `yaml:"backend"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"store"`

	Weather struct {
		APIKey  string        `yaml:"api_key"`
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"weather"`

	Firms struct {
		MapKey  string `yaml:"map_key"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"firms"`

	ModelDir string `yaml:"model_dir"`

	Auth struct {
		SecretKey     string        `yaml:"secret_key"`
		TokenTTL      time.Duration `yaml:"token_ttl"`
		OTPTTL        time.Duration `yaml:"otp_ttl"`
		RatePerMinute int           `yaml:"rate_per_minute"`
		AdminEmail    string        `yaml:"admin_email"`
		AdminUsername string        `yaml:"admin_username"`
		AdminPassword string        `yaml:"admin_password"`
	} `yaml:"auth"`

	SMTP SMTPConfig `yaml:"smtp"`

	Events struct {
		// Backend is one of redis, kafka or none
		Backend      string   `yaml:"backend"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
		KafkaTopic   string   `yaml:"kafka_topic"`
	} `yaml:"events"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Locations []models.Location `yaml:"locations"`
}

type SMTPConfig struct {
	Host       string   `yaml:"host"`
	Port       int      `yaml:"port"`
	Sender     string   `yaml:"sender"`
	Password   string   `yaml:"password"`
	Recipients []string `yaml:"recipients"`
}

// Enabled reports whether outbound email is configured
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.Sender != "" && s.Password != ""
}

// Load reads configPath (a missing file is not an error), applies defaults
// and environment overrides, then validates the result.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if len(cfg.Locations) == 0 {
		locations, err := DefaultLocations()
		if err != nil {
			return nil, err
		}
		cfg.Locations = locations
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultLocations returns the built-in list of Nepal forests and parks
func DefaultLocations() ([]models.Location, error) {
	var doc struct {
		Locations []models.Location `yaml:"locations"`
	}
	if err := yaml.Unmarshal(defaultLocationsYAML, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse default locations: %w", err)
	}
	return doc.Locations, nil
}

func (c *Config) applyDefaults() {
	setString(&c.Server.Addr, ":8000")
	setDuration(&c.Server.ReadTimeout, 15*time.Second)
	setDuration(&c.Server.WriteTimeout, 2*time.Minute)
	setDuration(&c.Server.ShutdownTimeout, 10*time.Second)
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"http://localhost:3000"}
	}

	if c.Scan.Workers == 0 {
		c.Scan.Workers = 5
	}
	setDuration(&c.Scan.AlertTTL, 72*time.Hour)
	if c.Scan.TopN == 0 {
		c.Scan.TopN = 10
	}

	setString(&c.Store.Backend, "memory")
	setString(&c.Store.SQLitePath, "wildfire.db")

	setString(&c.Weather.BaseURL, "http://api.openweathermap.org")
	setDuration(&c.Weather.Timeout, 10*time.Second)

	setString(&c.Firms.BaseURL, "https://firms.modaps.eosdis.nasa.gov")
	setString(&c.ModelDir, "./model")

	setDuration(&c.Auth.TokenTTL, 24*time.Hour)
	setDuration(&c.Auth.OTPTTL, 10*time.Minute)
	if c.Auth.RatePerMinute == 0 {
		c.Auth.RatePerMinute = 10
	}
	setString(&c.Auth.AdminUsername, "admin")

	setString(&c.SMTP.Host, "smtp.gmail.com")
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 465
	}

	setString(&c.Events.Backend, "none")
	setString(&c.Events.KafkaTopic, "fire-alerts")

	setString(&c.Log.Level, "info")
	setString(&c.Log.Format, "text")
}

func (c *Config) applyEnv() {
	c.Server.Addr = getEnv("SERVER_ADDR", c.Server.Addr)
	if origins := getEnv("ALLOWED_ORIGINS", ""); origins != "" {
		c.Server.AllowedOrigins = splitList(origins)
	}
	c.Server.ShutdownTimeout = getEnvAsDuration("SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Server.TrustProxy = getEnvAsBool("TRUST_PROXY", c.Server.TrustProxy)

	c.Scan.Workers = getEnvAsInt("SCAN_WORKERS", c.Scan.Workers)
	c.Scan.AlertTTL = getEnvAsDuration("ALERT_TTL", c.Scan.AlertTTL)
	c.Scan.TopN = getEnvAsInt("SCAN_TOP_N", c.Scan.TopN)

	c.Store.Backend = strings.ToLower(getEnv("STORE_BACKEND", c.Store.Backend))
	c.Store.SQLitePath = getEnv("SQLITE_PATH", c.Store.SQLitePath)

	c.Weather.APIKey = getEnv("OPENWEATHER_KEY", c.Weather.APIKey)
	c.Weather.BaseURL = getEnv("OPENWEATHER_URL", c.Weather.BaseURL)
	c.Weather.Timeout = getEnvAsDuration("OPENWEATHER_TIMEOUT", c.Weather.Timeout)

	c.Firms.MapKey = getEnv("FIRMS_MAP_KEY", c.Firms.MapKey)
	c.ModelDir = getEnv("MODEL_DIR", c.ModelDir)

	c.Auth.SecretKey = getEnv("SECRET_KEY", c.Auth.SecretKey)
	c.Auth.TokenTTL = getEnvAsDuration("JWT_TTL", c.Auth.TokenTTL)
	c.Auth.RatePerMinute = getEnvAsInt("AUTH_RATE_PER_MINUTE", c.Auth.RatePerMinute)
	c.Auth.AdminEmail = getEnv("ADMIN_EMAIL", c.Auth.AdminEmail)
	c.Auth.AdminUsername = getEnv("ADMIN_USERNAME", c.Auth.AdminUsername)
	c.Auth.AdminPassword = getEnv("ADMIN_PASSWORD", c.Auth.AdminPassword)

	c.SMTP.Host = getEnv("SMTP_HOST", c.SMTP.Host)
	c.SMTP.Port = getEnvAsInt("SMTP_PORT", c.SMTP.Port)
	c.SMTP.Sender = getEnv("SMTP_SENDER", c.SMTP.Sender)
	c.SMTP.Password = getEnv("SMTP_PASSWORD", c.SMTP.Password)
	if to := getEnv("ALERT_RECIPIENTS", ""); to != "" {
		c.SMTP.Recipients = splitList(to)
	}

	c.Events.Backend = strings.ToLower(getEnv("EVENTS_BACKEND", c.Events.Backend))
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		c.Events.KafkaBrokers = splitList(brokers)
	}
	c.Events.KafkaTopic = getEnv("KAFKA_TOPIC", c.Events.KafkaTopic)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

func (c *Config) validate() error {
	if len(c.Locations) == 0 {
		return fmt.Errorf("locations cannot be empty")
	}
	for i, loc := range c.Locations {
		if loc.Name == "" {
			return fmt.Errorf("locations[%d]: name is required", i)
		}
		if loc.Latitude < -90 || loc.Latitude > 90 || loc.Longitude < -180 || loc.Longitude > 180 {
			return fmt.Errorf("locations[%d] %s: coordinates out of range", i, loc.Name)
		}
	}
	if c.Scan.Workers <= 0 {
		return fmt.Errorf("scan.workers must be positive, got %d", c.Scan.Workers)
	}
	if c.Scan.AlertTTL <= 0 {
		return fmt.Errorf("scan.alert_ttl must be positive")
	}
	if c.Scan.TopN <= 0 {
		return fmt.Errorf("scan.top_n must be positive, got %d", c.Scan.TopN)
	}
	switch c.Store.Backend {
	case "mysql", "sqlite", "memory":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	switch c.Events.Backend {
	case "redis", "kafka", "none":
	default:
		return fmt.Errorf("unknown events backend %q", c.Events.Backend)
	}
	if c.Events.Backend == "kafka" && len(c.Events.KafkaBrokers) == 0 {
		return fmt.Errorf("events.kafka_brokers required for kafka backend")
	}
	return nil
}

func setString(v *string, def string) {
	if *v == "" {
		*v = def
	}
}

func setDuration(v *time.Duration, def time.Duration) {
	if *v == 0 {
		*v = def
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

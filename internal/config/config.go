package config

import (
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Address                string `yaml:"address"`
		ReadTimeoutSeconds     int    `yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds    int    `yaml:"write_timeout_seconds"`
		ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
	} `yaml:"server"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // console | json
	} `yaml:"logging"`

	Database struct {
		Driver          string `yaml:"driver"` // sqlite3 | pgx
		Path            string `yaml:"path"`
		DSN             string `yaml:"dsn"`
		MaxOpenConns    int    `yaml:"max_open_conns"`
		MaxIdleConns    int    `yaml:"max_idle_conns"`
		ConnectAttempts int    `yaml:"connect_attempts"`
	} `yaml:"database"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Redis struct {
		Address         string `yaml:"address"`
		Password        string `yaml:"password"`
		DB              int    `yaml:"db"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"redis"`

	Session struct {
		Backend   string `yaml:"backend"` // sql | jwt
		JWTSecret string `yaml:"jwt_secret"`
		JWTIssuer string `yaml:"jwt_issuer"`
	} `yaml:"session"`

	Restaurant struct {
		Timezone             string `yaml:"timezone"`
		ConfigPath           string `yaml:"config_path"`
		WatchIntervalSeconds int    `yaml:"watch_interval_seconds"`
	} `yaml:"restaurant"`

	Booking struct {
		MaxGuests              int `yaml:"max_guests"`
		MaxRangeDays           int `yaml:"max_range_days"`
		MaxSpecialRequestChars int `yaml:"max_special_request_chars"`
	} `yaml:"booking"`

	RateLimit struct {
		Enabled           bool    `yaml:"enabled"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
		// Peers (IP or CIDR) whose X-Forwarded-For is believed.
		TrustedProxies []string `yaml:"trusted_proxies"`
	} `yaml:"rate_limit"`

	Notify struct {
		TimeoutSeconds int `yaml:"timeout_seconds"`

		AMQP struct {
			Enabled  bool   `yaml:"enabled"`
			URL      string `yaml:"url"`
			Exchange string `yaml:"exchange"`
		} `yaml:"amqp"`

		Telegram struct {
			Enabled  bool    `yaml:"enabled"`
			BotToken string  `yaml:"bot_token"`
			ChatIDs  []int64 `yaml:"chat_ids"`
			Debug    bool    `yaml:"debug"`
		} `yaml:"telegram"`

		Sheets struct {
			Enabled         bool   `yaml:"enabled"`
			CredentialsFile string `yaml:"credentials_file"`
			SpreadsheetID   string `yaml:"spreadsheet_id"`
			SheetName       string `yaml:"sheet_name"`
		} `yaml:"sheets"`
	} `yaml:"notify"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		GRPCHealthPort    int  `yaml:"grpc_health_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if cfg.Database.Driver == DriverSQLite {
		if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"

	SessionSQL = "sql"
	SessionJWT = "jwt"
)

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/aura.db"
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns <= 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnectAttempts <= 0 {
		c.Database.ConnectAttempts = 10
	}
	if c.Backup.Path == "" {
		c.Backup.Path = "backups"
	}
	if c.Backup.RetentionDays <= 0 {
		c.Backup.RetentionDays = 14
	}
	if c.Session.Backend == "" {
		c.Session.Backend = SessionSQL
	}
	if c.Restaurant.ConfigPath == "" {
		c.Restaurant.ConfigPath = "configs/restaurant.yaml"
	}
	if c.Restaurant.Timezone == "" {
		c.Restaurant.Timezone = "Europe/Zagreb"
	}
	if c.Booking.MaxGuests <= 0 {
		c.Booking.MaxGuests = 20
	}
	if c.Booking.MaxRangeDays <= 0 {
		c.Booking.MaxRangeDays = 92
	}
	if c.Booking.MaxSpecialRequestChars <= 0 {
		c.Booking.MaxSpecialRequestChars = 500
	}
	if c.RateLimit.RequestsPerSecond <= 0 {
		c.RateLimit.RequestsPerSecond = 1
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 5
	}
	if c.Notify.AMQP.Exchange == "" {
		c.Notify.AMQP.Exchange = "aura.notifications"
	}
	if c.Notify.Sheets.SheetName == "" {
		c.Notify.Sheets.SheetName = "Reservations"
	}
}

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %q", DriverPostgres)
		}
	default:
		return fmt.Errorf("database.driver: unsupported %q", c.Database.Driver)
	}

	switch c.Session.Backend {
	case SessionSQL:
	case SessionJWT:
		if strings.TrimSpace(c.Session.JWTSecret) == "" {
			return fmt.Errorf("session.jwt_secret is required for the jwt backend")
		}
	default:
		return fmt.Errorf("session.backend: unsupported %q", c.Session.Backend)
	}

	if _, err := time.LoadLocation(c.Restaurant.Timezone); err != nil {
		return fmt.Errorf("restaurant.timezone: %w", err)
	}
	if c.Notify.Telegram.Enabled && c.Notify.Telegram.BotToken == "" {
		return fmt.Errorf("notify.telegram.bot_token is required when telegram is enabled")
	}
	if c.Notify.Sheets.Enabled && (c.Notify.Sheets.SpreadsheetID == "" || c.Notify.Sheets.CredentialsFile == "") {
		return fmt.Errorf("notify.sheets needs spreadsheet_id and credentials_file when enabled")
	}
	for _, p := range c.RateLimit.TrustedProxies {
		if !validProxy(p) {
			return fmt.Errorf("rate_limit.trusted_proxies: %q is not an IP or CIDR", p)
		}
	}
	if c.Notify.AMQP.Enabled && c.Notify.AMQP.URL == "" {
		return fmt.Errorf("notify.amqp.url is required when amqp is enabled")
	}
	return nil
}

func validProxy(s string) bool {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") {
		_, err := netip.ParsePrefix(s)
		return err == nil
	}
	_, err := netip.ParseAddr(s)
	return err == nil
}

// Location is the restaurant's local zone used for "today".
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Restaurant.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *Config) ReadTimeout() time.Duration {
	return secondsOr(c.Server.ReadTimeoutSeconds, 10*time.Second)
}

func (c *Config) WriteTimeout() time.Duration {
	return secondsOr(c.Server.WriteTimeoutSeconds, 15*time.Second)
}

func (c *Config) ShutdownTimeout() time.Duration {
	return secondsOr(c.Server.ShutdownTimeoutSeconds, 10*time.Second)
}

func (c *Config) SessionCacheTTL() time.Duration {
	return secondsOr(c.Redis.CacheTTLSeconds, 5*time.Minute)
}

func (c *Config) NotifyTimeout() time.Duration {
	return secondsOr(c.Notify.TimeoutSeconds, 10*time.Second)
}

func (c *Config) RestaurantWatchInterval() time.Duration {
	return secondsOr(c.Restaurant.WatchIntervalSeconds, 30*time.Second)
}

func (c *Config) BackupInterval() time.Duration {
	if c.Backup.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}

func secondsOr(v int, fallback time.Duration) time.Duration {
	if v <= 0 {
		return fallback
	}
	return time.Duration(v) * time.Second
}

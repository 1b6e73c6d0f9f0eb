package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/perchsync/internal/daygate"
	"github.com/starford/perchsync/internal/premium"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Storage drivers.
const (
	StorageDriverSQLite = "sqlite"
	StorageDriverRedis  = "redis"
	StorageDriverMemory = "memory"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Storage   StorageConfig     `yaml:"storage"`
	Day       DayConfig         `yaml:"day"`
	Keyboards KeyboardsConfig   `yaml:"keyboards"`
	Premium   PremiumConfig     `yaml:"premium"`
	Auth      AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Day.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StorageConfig selects the key-value backend that holds per-client state.
type StorageConfig struct {
	Driver string       `yaml:"driver"`
	SQLite SQLiteConfig `yaml:"sqlite"`
	Redis  RedisConfig  `yaml:"redis"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required,
			validation.In(StorageDriverSQLite, StorageDriverRedis, StorageDriverMemory)),
	); err != nil {
		return err
	}
	switch c.Driver {
	case StorageDriverSQLite:
		return c.SQLite.Validate()
	case StorageDriverRedis:
		return c.Redis.Validate()
	}
	return nil
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Validate validates the Redis configuration.
func (c *RedisConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Addr, validation.Required),
		validation.Field(&c.DB, validation.Min(0), validation.Max(15)),
	)
}

// DayConfig controls how calendar days are computed.
//
// Timezone is the IANA zone used when a page does not send its own.
// Epoch is the day key of day index 0.
type DayConfig struct {
	Timezone string `yaml:"timezone"`
	Epoch    string `yaml:"epoch"`
}

// Validate validates the day configuration.
func (c *DayConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Timezone, validation.Required, validation.By(func(any) error {
			_, err := time.LoadLocation(c.Timezone)
			return err
		})),
		validation.Field(&c.Epoch, validation.Required, validation.Date(daygate.DayKeyLayout)),
	)
}

// Location returns the configured timezone.
func (c *DayConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// EpochTime returns the configured epoch as UTC midnight.
func (c *DayConfig) EpochTime() (time.Time, error) {
	return daygate.ParseDayKey(c.Epoch)
}

// KeyboardsConfig points at the keyboard set rotation file.
// An empty Path serves no keyboard sets.
type KeyboardsConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// PremiumConfig customizes the Premium button interceptor.
type PremiumConfig struct {
	TargetID string `yaml:"target_id"`
	Message  string `yaml:"message"`
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Storage: StorageConfig{
			Driver: StorageDriverSQLite,
			SQLite: SQLiteConfig{
				Path: "./perchsync.db",
			},
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		Day: DayConfig{
			Timezone: "UTC",
			Epoch:    daygate.DefaultEpoch.Format(daygate.DayKeyLayout),
		},
		Keyboards: KeyboardsConfig{
			Path:  "./config/keyboards.yaml",
			Watch: true,
		},
		Premium: PremiumConfig{
			TargetID: premium.DefaultTargetID,
			Message:  premium.DefaultMessage,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}

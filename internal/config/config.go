// Package config provides Viper-based configuration loading for the
// Masterminds server and client binaries.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds the HTTP/websocket listener settings and room limits.
type ServerConfig struct {
	// Host is the bind address for the HTTP listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the HTTP listener.
	Port int `mapstructure:"port"`
	// RoomCapacity is the maximum member count per room.
	RoomCapacity int `mapstructure:"room_capacity"`
	// RoomCodeLength is the number of uppercase letters in a room code.
	RoomCodeLength int `mapstructure:"room_code_length"`
	// MaxNicknameLength is the longest accepted nickname.
	MaxNicknameLength int `mapstructure:"max_nickname_length"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds PostgreSQL connection settings for the remote
// game-state backend. An empty Host disables the remote backend entirely;
// the server then runs on the local file store alone.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// Enabled reports whether a remote backend is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// StoreConfig holds settings for the local-file game-state store.
type StoreConfig struct {
	// FilePath is the JSON file used as the durability floor for saves.
	FilePath string `mapstructure:"file_path"`
	// SaveTimeout bounds each asynchronous save of the game-state map.
	SaveTimeout time.Duration `mapstructure:"save_timeout"`
}

// WordsConfig holds the word pool settings for board generation.
type WordsConfig struct {
	// PoolPath is an optional YAML file holding the word pool. When empty,
	// the built-in pool is used.
	PoolPath string `mapstructure:"pool_path"`
}

// ClientConfig holds the client-side connection settings.
type ClientConfig struct {
	// ServerURL is the base HTTP URL of the game server.
	ServerURL string `mapstructure:"server_url"`
	// ConnectTimeout bounds a single dial attempt and the manual
	// reconnect operation.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// WatchdogTimeout bounds how long the client may sit in "connecting"
	// before the status is forced to timeout.
	WatchdogTimeout time.Duration `mapstructure:"watchdog_timeout"`
	// MaxReconnectAttempts is the automatic redial budget before the
	// connection is declared failed.
	MaxReconnectAttempts int `mapstructure:"max_reconnect_attempts"`
	// ReducedReconnectAttempts is the redial budget used when the
	// availability probe has already failed.
	ReducedReconnectAttempts int `mapstructure:"reduced_reconnect_attempts"`
	// ProbeTimeout bounds the availability probe request.
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Store    StoreConfig    `mapstructure:"store"`
	Words    WordsConfig    `mapstructure:"words"`
	Client   ClientConfig   `mapstructure:"client"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateServer(c.Server); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateDatabase(c.Database); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateStore(c.Store); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateClient(c.Client); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	var errs []string
	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", s.Port))
	}
	if s.RoomCapacity < 1 {
		errs = append(errs, fmt.Sprintf("server.room_capacity must be >= 1, got %d", s.RoomCapacity))
	}
	if s.RoomCodeLength < 1 {
		errs = append(errs, fmt.Sprintf("server.room_code_length must be >= 1, got %d", s.RoomCodeLength))
	}
	if s.MaxNicknameLength < 1 {
		errs = append(errs, fmt.Sprintf("server.max_nickname_length must be >= 1, got %d", s.MaxNicknameLength))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	// The remote backend is optional; skip checks entirely when disabled.
	if !d.Enabled() {
		return nil
	}

	var errs []string
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateStore(s StoreConfig) error {
	var errs []string
	if s.FilePath == "" {
		errs = append(errs, "store.file_path must not be empty")
	}
	if s.SaveTimeout <= 0 {
		errs = append(errs, "store.save_timeout must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateClient(c ClientConfig) error {
	var errs []string
	if c.ServerURL == "" {
		errs = append(errs, "client.server_url must not be empty")
	}
	if c.ConnectTimeout <= 0 {
		errs = append(errs, "client.connect_timeout must be positive")
	}
	if c.WatchdogTimeout <= 0 {
		errs = append(errs, "client.watchdog_timeout must be positive")
	}
	if c.MaxReconnectAttempts < 1 {
		errs = append(errs, fmt.Sprintf("client.max_reconnect_attempts must be >= 1, got %d", c.MaxReconnectAttempts))
	}
	if c.ReducedReconnectAttempts < 1 {
		errs = append(errs, fmt.Sprintf("client.reduced_reconnect_attempts must be >= 1, got %d", c.ReducedReconnectAttempts))
	}
	if c.ReducedReconnectAttempts > c.MaxReconnectAttempts {
		errs = append(errs, "client.reduced_reconnect_attempts must not exceed client.max_reconnect_attempts")
	}
	if c.ProbeTimeout <= 0 {
		errs = append(errs, "client.probe_timeout must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with MASTERMINDS_ prefix
	v.SetEnvPrefix("MASTERMINDS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.room_capacity", 12)
	v.SetDefault("server.room_code_length", 8)
	v.SetDefault("server.max_nickname_length", 12)

	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "masterminds")
	v.SetDefault("database.password", "masterminds")
	v.SetDefault("database.name", "masterminds")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("store.file_path", "data/past-games.json")
	v.SetDefault("store.save_timeout", "10s")

	v.SetDefault("words.pool_path", "")

	v.SetDefault("client.server_url", "http://localhost:8080")
	v.SetDefault("client.connect_timeout", "5s")
	v.SetDefault("client.watchdog_timeout", "10s")
	v.SetDefault("client.max_reconnect_attempts", 5)
	v.SetDefault("client.reduced_reconnect_attempts", 2)
	v.SetDefault("client.probe_timeout", "3s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

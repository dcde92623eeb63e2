// Package server provides configuration helpers that define runtime
// defaults and validation for the chat relay.
package server

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"chat-relay/internal/logger"
)

// Config holds the server configuration settings.
type Config struct {
	Port           string
	AllowedOrigins []string
	MaxMessageSize int64
	Debug          bool
}

var (
	configMu        sync.RWMutex
	activeConfig    Config
	allowedOrigins  map[string]struct{}
	allowAllOrigins bool
)

func init() {
	SetConfig(nil)
}

func defaultConfig() Config {
	return Config{
		Port:           ":8080",
		AllowedOrigins: []string{"http://localhost:8080"},
		MaxMessageSize: 4096,
	}
}

func sanitizeConfig(cfg Config) Config {
	if cfg.Port == "" {
		cfg.Port = ":8080"
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 4096
	}

	normalizedOrigins, allowAll := normalizeOrigins(cfg.AllowedOrigins)
	cfg.AllowedOrigins = normalizedOrigins

	configMu.Lock()
	defer configMu.Unlock()

	activeConfig = cfg
	allowAllOrigins = allowAll
	allowedOrigins = make(map[string]struct{}, len(normalizedOrigins))
	for _, origin := range normalizedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	return cfg
}

// SetConfig applies the provided configuration. Passing nil resets to
// defaults.
func SetConfig(cfg *Config) {
	if cfg == nil {
		defaultCfg := defaultConfig()
		sanitizeConfig(defaultCfg)
		return
	}

	sanitized := Config{
		Port:           cfg.Port,
		AllowedOrigins: append([]string(nil), cfg.AllowedOrigins...),
		MaxMessageSize: cfg.MaxMessageSize,
		Debug:          cfg.Debug,
	}
	sanitizeConfig(sanitized)
}

func currentConfig() Config {
	configMu.RLock()
	defer configMu.RUnlock()

	cfg := activeConfig
	cfg.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	return cfg
}

// NewConfig creates a Config populated with default values.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// NewConfigFromEnv builds a Config from the environment. A .env file in
// the working directory is loaded first when present; explicit
// environment variables win over it. Unset values fall back to
// defaults.
func NewConfigFromEnv() *Config {
	if err := godotenv.Load(); err != nil {
		logger.Log.Debug("no .env file loaded", zap.Error(err))
	}

	defaults := defaultConfig()

	v := viper.New()
	v.SetDefault("server_port", defaults.Port)
	v.SetDefault("allowed_origins", defaults.AllowedOrigins)
	v.SetDefault("max_message_size", defaults.MaxMessageSize)
	v.SetDefault("debug", false)
	v.AutomaticEnv()

	cfg := Config{
		Port:           v.GetString("server_port"),
		AllowedOrigins: v.GetStringSlice("allowed_origins"),
		MaxMessageSize: v.GetInt64("max_message_size"),
		Debug:          v.GetBool("debug"),
	}
	return &cfg
}

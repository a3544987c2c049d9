package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all server configuration.
type Config struct {
	HTTPAddress string `mapstructure:"http_address"`

	Backend  BackendConfig  `mapstructure:"backend"`
	Agent    AgentConfig    `mapstructure:"agent"`
	Sessions SessionsConfig `mapstructure:"sessions"`
	MQTT     MQTTConfig     `mapstructure:"mqtt"`
	Tools    ToolsConfig    `mapstructure:"tools"`
}

// BackendConfig selects and configures the completion backend.
type BackendConfig struct {
	Provider string `mapstructure:"provider"` // "openai" or "anthropic"
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
	Model    string `mapstructure:"model"`
}

// AgentConfig bounds a single planning run.
type AgentConfig struct {
	MaxIterations  int           `mapstructure:"max_iterations"`
	MemoryWindow   int           `mapstructure:"memory_window"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// SessionsConfig bounds the session store.
type SessionsConfig struct {
	Max     int           `mapstructure:"max"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// MQTTConfig points at the robot's broker. An empty broker URL disables
// the robot tool suite.
type MQTTConfig struct {
	BrokerURL string `mapstructure:"broker_url"`
	ClientID  string `mapstructure:"client_id"`
}

// ToolsConfig configures the local tool suite.
type ToolsConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// LoadConfig loads configuration from files and environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Configure environment variables before reading config files
	v.AutomaticEnv()
	v.SetEnvPrefix("USHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envMappings := map[string]string{
		"http_address":          "USHER_HTTP_ADDRESS",
		"backend.provider":      "USHER_BACKEND_PROVIDER",
		"backend.api_key":       "USHER_BACKEND_API_KEY",
		"backend.base_url":      "USHER_BACKEND_BASE_URL",
		"backend.model":         "USHER_BACKEND_MODEL",
		"agent.max_iterations":  "USHER_AGENT_MAX_ITERATIONS",
		"agent.memory_window":   "USHER_AGENT_MEMORY_WINDOW",
		"agent.request_timeout": "USHER_AGENT_REQUEST_TIMEOUT",
		"sessions.max":          "USHER_SESSIONS_MAX",
		"sessions.timeout":      "USHER_SESSIONS_TIMEOUT",
		"mqtt.broker_url":       "USHER_MQTT_BROKER_URL",
		"mqtt.client_id":        "USHER_MQTT_CLIENT_ID",
		"tools.base_dir":        "USHER_TOOLS_BASE_DIR",
	}

	for configKey, envVar := range envMappings {
		if err := v.BindEnv(configKey, envVar); err != nil {
			log.Warn().Err(err).Msgf("Failed to bind environment variable %s for %s", envVar, configKey)
		}
	}

	v.SetConfigName("usher_config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.usher")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug().Msg("Config file not found, using environment variables and defaults")
	} else {
		log.Info().Msgf("Using config file: %s", v.ConfigFileUsed())
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_address", ":5000")

	v.SetDefault("backend.provider", "openai")
	v.SetDefault("backend.model", "gpt-4o-mini")

	v.SetDefault("agent.max_iterations", 5)
	v.SetDefault("agent.memory_window", 10)
	v.SetDefault("agent.request_timeout", 120*time.Second)

	v.SetDefault("sessions.max", 100)
	v.SetDefault("sessions.timeout", 2*time.Hour)

	v.SetDefault("mqtt.broker_url", "tcp://10.194.142.142:1883")
	v.SetDefault("mqtt.client_id", "usher-server")

	v.SetDefault("tools.base_dir", ".")
}

func validateConfig(config *Config) error {
	switch config.Backend.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unsupported backend provider %q (expected openai or anthropic)", config.Backend.Provider)
	}

	if config.Backend.APIKey == "" && config.Backend.BaseURL == "" {
		return fmt.Errorf("missing required configuration: set USHER_BACKEND_API_KEY or USHER_BACKEND_BASE_URL for a local backend")
	}

	if config.Agent.MaxIterations < 1 {
		return fmt.Errorf("agent.max_iterations must be at least 1, got %d", config.Agent.MaxIterations)
	}
	if config.Agent.MemoryWindow < 1 {
		return fmt.Errorf("agent.memory_window must be at least 1, got %d", config.Agent.MemoryWindow)
	}
	if config.Sessions.Max < 1 {
		return fmt.Errorf("sessions.max must be at least 1, got %d", config.Sessions.Max)
	}

	return nil
}

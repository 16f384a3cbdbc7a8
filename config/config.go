package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/viper"
)

type AppConfig struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	Chat      ChatConfig
	Presence  PresenceConfig
	Broker    BrokerConfig
	Metrics   MetricsConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  int // Seconds
	WriteTimeout int // Seconds
}

type WebSocketConfig struct {
	MaxConnections   int
	MessageSizeLimit int
	HandshakeTimeout int // Seconds
	PingInterval     int // Seconds
	PongTimeout      int // Seconds
	ActivityTimeout  int // Seconds
	WriteTimeout     int // Seconds
	MaxRetries       int
	KeepAlive        bool
}

// ChatConfig drives the matchmaking coordinator.
type ChatConfig struct {
	DurationSeconds     int // Full countdown for a chat session
	FallbackWaitSeconds int // Wait before matching without shared interests
}

type PresenceConfig struct {
	Address  string
	Password string
	DB       int
	PoolSize int
	TTL      int // Seconds
}

type BrokerConfig struct {
	Type    string // "redis", "kafka" or "none"
	Channel string // Lifecycle event channel/topic
	Redis   RedisBrokerConfig
	Kafka   KafkaBrokerConfig
}

type RedisBrokerConfig struct {
	Address  string
	Password string
	DB       int
	PoolSize int
}

type KafkaBrokerConfig struct {
	Brokers []string
	GroupID string
}

type MetricsConfig struct {
	Enabled bool
	Port    int
	Path    string
}

var (
	instance *AppConfig
	once     sync.Once
)

func Initialize(env string) error {
	var initErr error
	once.Do(func() {
		viper.SetConfigName(fmt.Sprintf("config.%s", env))
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")

		viper.AutomaticEnv()
		viper.SetEnvPrefix("TAMVIBE")

		setDefaults()
		bindEnvVars()

		if err := viper.ReadInConfig(); err != nil {
			// A missing file just means defaults + env vars.
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				initErr = fmt.Errorf("config file error: %w", err)
				return
			}
		}

		if err := viper.Unmarshal(&instance); err != nil {
			initErr = fmt.Errorf("config unmarshal error: %w", err)
			return
		}

		if err := instance.Validate(); err != nil {
			initErr = fmt.Errorf("config validation failed: %w", err)
			return
		}
	})
	return initErr
}

func Get() *AppConfig {
	return instance
}

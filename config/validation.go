package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func (c *AppConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	if c.WebSocket.MaxConnections < 1 {
		return errors.New("max connections must be positive")
	}

	if c.WebSocket.HandshakeTimeout < 1 {
		return errors.New("handshake timeout must be at least 1 second")
	}

	if c.WebSocket.PingInterval >= c.WebSocket.ActivityTimeout {
		return errors.New("ping interval should be less than activity timeout")
	}

	if c.Chat.DurationSeconds < 1 {
		return errors.New("chat duration must be at least 1 second")
	}

	if c.Chat.FallbackWaitSeconds < 1 {
		return errors.New("fallback wait must be at least 1 second")
	}

	if c.Presence.Address == "" {
		return errors.New("presence redis address must be specified")
	}

	if c.Presence.TTL <= c.WebSocket.ActivityTimeout {
		return errors.New("presence TTL should be greater than activity timeout")
	}

	// Validate broker configuration
	switch strings.ToLower(c.Broker.Type) {
	case "none":
		// Lifecycle events disabled, nothing to check.
	case "redis":
		if c.Broker.Redis.Address == "" {
			return errors.New("redis address must be specified for redis broker")
		}
		if c.Broker.Channel == "" {
			return errors.New("broker channel must be configured for redis broker")
		}
	case "kafka":
		if len(c.Broker.Kafka.Brokers) == 0 {
			return errors.New("kafka brokers must be specified for kafka broker")
		}
		if c.Broker.Kafka.GroupID == "" {
			return errors.New("kafka groupID must be specified for kafka broker")
		}
	default:
		return fmt.Errorf("invalid broker type: %s. Must be 'redis', 'kafka' or 'none'", c.Broker.Type)
	}

	return nil
}

func bindEnvVars() {
	// Server
	viper.BindEnv("server.port", "TAMVIBE_PORT")

	// Chat
	viper.BindEnv("chat.durationSeconds", "TAMVIBE_CHAT_DURATION")
	viper.BindEnv("chat.fallbackWaitSeconds", "TAMVIBE_CHAT_FALLBACK_WAIT")

	// Presence
	viper.BindEnv("presence.address", "TAMVIBE_REDIS_ADDRESS")
	viper.BindEnv("presence.password", "TAMVIBE_REDIS_PASSWORD")
	viper.BindEnv("presence.ttl", "TAMVIBE_PRESENCE_TTL")

	// Broker
	viper.BindEnv("broker.type", "TAMVIBE_BROKER_TYPE")
	viper.BindEnv("broker.channel", "TAMVIBE_BROKER_CHANNEL")
	viper.BindEnv("broker.redis.address", "TAMVIBE_BROKER_REDIS_ADDRESS")
	viper.BindEnv("broker.redis.password", "TAMVIBE_BROKER_REDIS_PASSWORD")
	viper.BindEnv("broker.kafka.brokers", "TAMVIBE_KAFKA_BROKERS")
	viper.BindEnv("broker.kafka.groupID", "TAMVIBE_KAFKA_GROUPID")

	// WebSocket
	viper.BindEnv("websocket.maxConnections", "TAMVIBE_MAX_CONNECTIONS")
	viper.BindEnv("websocket.handshakeTimeout", "TAMVIBE_HANDSHAKE_TIMEOUT")
	viper.BindEnv("websocket.pingInterval", "TAMVIBE_PING_INTERVAL")
	viper.BindEnv("websocket.pongTimeout", "TAMVIBE_PONG_TIMEOUT")
	viper.BindEnv("websocket.activityTimeout", "TAMVIBE_ACTIVITY_TIMEOUT")
	viper.BindEnv("websocket.writeTimeout", "TAMVIBE_WRITE_TIMEOUT")
}

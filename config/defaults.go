package config

import "github.com/spf13/viper"

func setDefaults() {
	// Server
	viper.SetDefault("server.port", 3001)
	viper.SetDefault("server.readTimeout", 15)
	viper.SetDefault("server.writeTimeout", 15)

	// WebSocket
	viper.SetDefault("websocket.maxConnections", 10000)
	viper.SetDefault("websocket.messageSizeLimit", 4096)
	viper.SetDefault("websocket.handshakeTimeout", 10)
	viper.SetDefault("websocket.pingInterval", 25)
	viper.SetDefault("websocket.pongTimeout", 30)
	viper.SetDefault("websocket.activityTimeout", 300)
	viper.SetDefault("websocket.writeTimeout", 10)
	viper.SetDefault("websocket.maxRetries", 5)
	viper.SetDefault("websocket.keepAlive", true)

	// Chat
	viper.SetDefault("chat.durationSeconds", 300)
	viper.SetDefault("chat.fallbackWaitSeconds", 15)

	// Presence
	viper.SetDefault("presence.address", "localhost:6379")
	viper.SetDefault("presence.db", 0)
	viper.SetDefault("presence.poolSize", 100)
	viper.SetDefault("presence.ttl", 360)

	// Broker
	viper.SetDefault("broker.type", "none")
	viper.SetDefault("broker.channel", "tambay:lifecycle")
	viper.SetDefault("broker.redis.address", "localhost:6379")
	viper.SetDefault("broker.redis.db", 0)
	viper.SetDefault("broker.redis.poolSize", 100)
	viper.SetDefault("broker.kafka.groupID", "tamvibe-monitor")

	// Metrics
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.port", 9090)
	viper.SetDefault("metrics.path", "/metrics")
}
